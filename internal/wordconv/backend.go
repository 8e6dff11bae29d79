// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wordconv

import (
	"context"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/pdiddy/docops/internal/opserr"
	"github.com/pdiddy/docops/pkg/types"
)

// Backend converts one Word document to PDF. Implementations return opserr
// backend errors.
type Backend interface {
	// Name identifies the backend in results and logs.
	Name() string

	// Convert writes a PDF rendition of input to output. Both paths are
	// validated by the caller; the output directory exists.
	Convert(ctx context.Context, input, output string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	// Run executes name with args, writing combined stdout and stderr to out.
	Run(ctx context.Context, name string, args []string, out io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

var defaultExec = &osExecutor{}

// Select returns the backend for goos, honoring an explicit configured
// choice. Word automation is the default on windows and darwin, LibreOffice
// everywhere else.
func Select(goos string, cfg types.ConversionConfig, logger *zap.Logger) (Backend, error) {
	return selectBackend(goos, cfg, logger, defaultExec)
}

func selectBackend(goos string, cfg types.ConversionConfig, logger *zap.Logger, exec executor) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", types.BackendAuto:
		if goos == "windows" || goos == "darwin" {
			return newWord(goos, exec), nil
		}
		return newLibreOffice(cfg, logger, exec), nil
	case types.BackendWord:
		return newWord(goos, exec), nil
	case types.BackendLibreOffice:
		return newLibreOffice(cfg, logger, exec), nil
	default:
		return nil, opserr.Invalid(ErrMsgUnknownBackend, cfg.Backend)
	}
}

// fileExists reports whether path names a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
