// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docops CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/docops/internal/dispatch"
	"github.com/pdiddy/docops/internal/opserr"
	"github.com/pdiddy/docops/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state populated by setup before any command runs.
var (
	appConfig = types.DefaultConfig()
	logger    = zap.NewNop()
	configErr error
)

// rootCmd dispatches <target> <operation> <json-payload> and prints a single
// JSON result line on stdout.
var rootCmd = &cobra.Command{
	Use:   "docops <target> <operation> <json-payload>",
	Short: "Run one document operation and print a JSON result",
	Long: `docops runs a single document operation per invocation. The first
argument names an operation group (pdf_ops, word_ops, image_ops, archive_ops),
the second names the operation, and the third is a JSON object carrying its
arguments. The outcome is always one JSON line on stdout:

  {"status":"success","msg":"...","data":{...}}
  {"status":"error","msg":"...","code":"...","debug_info":"..."}

Use "docops list" to see every operation and the payload keys it takes.`,
	Example: `  docops pdf_ops encrypt_pdf '{"input":"a.pdf","output":"a.locked.pdf","password":"pw"}'
  docops word_ops convert_word_to_pdf '{"input":"report.docx","output":"report.pdf"}'`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runDispatch,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docops.yaml or ~/.config/docops/docops.yaml)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return opserr.New(opserr.KindArguments, err.Error(), err)
	})
}

func initConfig() {
	viper.Reset()
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docops")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docops"))
		}
	}

	viper.SetEnvPrefix("DOCOPS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configErr = nil
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configErr = opserr.New(opserr.KindValidation, fmt.Sprintf("reading config: %v", err), err)
		}
	}
}

func setDefaults() {
	d := types.DefaultConfig()
	viper.SetDefault("log_level", d.LogLevel)
	viper.SetDefault("convert.backend", string(d.Convert.Backend))
	viper.SetDefault("convert.soffice_path", d.Convert.SofficePath)
	viper.SetDefault("convert.container_image", d.Convert.ContainerImage)
	viper.SetDefault("convert.timeout", d.Convert.Timeout)
	viper.SetDefault("archive.level", d.Archive.Level)
}

// loadConfig decodes the merged defaults, config file and environment.
func loadConfig() (types.Config, error) {
	if configErr != nil {
		return types.Config{}, configErr
	}
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, opserr.New(opserr.KindValidation, fmt.Sprintf("decoding config: %v", err), err)
	}
	return cfg, nil
}

// newLogger builds a JSON logger on stderr at level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, opserr.New(opserr.KindValidation, fmt.Sprintf("invalid log_level %q", level), err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.Sampling = nil
	return zc.Build()
}

func setup(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	l, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	appConfig, logger = cfg, l
	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debug("using config file", zap.String("path", f))
	}
	return nil
}

// helpCmd replaces cobra's default help command, which prints usage for
// any arguments it does not recognise.
var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Help about any command",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		target, _, err := rootCmd.Find(args)
		if err != nil {
			return opserr.New(opserr.KindArguments, err.Error(), err)
		}
		return target.Help()
	},
}

func runDispatch(cmd *cobra.Command, args []string) error {
	d := dispatch.New(newRegistry(appConfig, logger), logger)
	res := d.Dispatch(cmd.Context(), args)
	if err := dispatch.Write(cmd.OutOrStdout(), res); err != nil {
		return opserr.New(opserr.KindInternal, fmt.Sprintf("writing result: %v", err), err)
	}
	return nil
}

// dispatchArgs ends flag parsing ahead of a bare <target> <operation>
// <payload> call, so a target named like a subcommand still reaches the
// dispatcher. Invocations carrying flags go through cobra unchanged.
func dispatchArgs(args []string) []string {
	if len(args) < 3 {
		return args
	}
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			return args
		}
	}
	return append([]string{"--"}, args...)
}

// run executes the CLI with args. Any error that escapes a command is
// printed as a JSON error result, so callers always get one JSON line.
// Errors without a kind come from cobra's own argument checks.
func run(ctx context.Context, args []string, stdout io.Writer) {
	rootCmd.SetArgs(dispatchArgs(args))
	rootCmd.SetOut(stdout)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !opserr.HasKind(err) {
			err = opserr.New(opserr.KindArguments, err.Error(), err)
		}
		res := types.Failure(string(opserr.KindOf(err)), opserr.Message(err), "")
		if werr := dispatch.Write(stdout, res); werr != nil {
			fmt.Fprintln(os.Stderr, werr)
		}
	}
	_ = logger.Sync()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	run(ctx, os.Args[1:], os.Stdout)
}
