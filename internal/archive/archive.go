// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive implements the archive_ops operation group and the package
// format it reads and writes: the KRATE_PKG header followed by a tar stream,
// gzip-compressed, then scrambled with a repeating XOR key. The key is the
// password, or a built-in key when none is given.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pdiddy/docops/internal/dispatch"
	"github.com/pdiddy/docops/internal/oparg"
	"github.com/pdiddy/docops/internal/opserr"
	"github.com/pdiddy/docops/pkg/types"
)

// Target is the registry name of this group.
const Target = "archive_ops"

const (
	backendName = "archive"

	minLevel = 1
	maxLevel = 9
)

// Messages.
const (
	MsgCreated   = "archive created"
	MsgExtracted = "archive extracted"

	ErrMsgLevel = "level must be between %d and %d, got %d"
)

// Ops holds the archive_ops operations.
type Ops struct {
	level  int
	logger *zap.Logger
}

// New creates the archive_ops group. cfg.Level is the gzip level used when a
// payload does not name one; out-of-range values fall back to the maximum.
func New(cfg types.ArchiveConfig, logger *zap.Logger) *Ops {
	if logger == nil {
		logger = zap.NewNop()
	}
	level := cfg.Level
	if level < minLevel || level > maxLevel {
		level = types.DefaultArchiveLevel
	}
	return &Ops{level: level, logger: logger.Named(Target)}
}

// Register adds the group's operations to reg.
func (o *Ops) Register(reg *dispatch.Registry) {
	reg.Register(Target, dispatch.Operation{
		Name:     "create_archive",
		Summary:  "Pack files and directories into a password-scrambled package",
		Required: []string{"inputs", "output"},
		Optional: []string{"password", "level"},
		Run:      o.Create,
	})
	reg.Register(Target, dispatch.Operation{
		Name:     "extract_archive",
		Summary:  "Unpack a package into a directory",
		Required: []string{"input", "output_dir"},
		Optional: []string{"password"},
		Run:      o.Extract,
	})
}

// Create packs inputs into output. Every input must exist before the output
// file is created; a failed run removes the partial output.
func (o *Ops) Create(_ context.Context, p types.Payload) (types.Result, error) {
	inputs, err := oparg.Strings(p, "inputs")
	if err != nil {
		return types.Result{}, err
	}
	for _, in := range inputs {
		if err := oparg.Exists(in); err != nil {
			return types.Result{}, err
		}
	}
	output, err := oparg.String(p, "output")
	if err != nil {
		return types.Result{}, err
	}
	level, err := oparg.OptionalInt(p, "level", o.level)
	if err != nil {
		return types.Result{}, err
	}
	if level < minLevel || level > maxLevel {
		return types.Result{}, opserr.Invalid(ErrMsgLevel, minLevel, maxLevel, level)
	}
	key := Key(oparg.OptionalString(p, "password"))

	if err := oparg.EnsureParentDir(output); err != nil {
		return types.Result{}, err
	}
	entries, err := writeFile(output, inputs, key, level)
	if err != nil {
		if errors.Is(err, ErrNoInputName) {
			return types.Result{}, opserr.New(opserr.KindValidation, err.Error(), err)
		}
		return types.Result{}, opserr.Backend(backendName, fmt.Sprintf("creating %s: %v", output, err), err)
	}

	o.logger.Debug(MsgCreated, zap.String("output", output), zap.Int("entries", len(entries)), zap.Int("level", level))
	return types.Success(MsgCreated, map[string]any{
		"output_path": output,
		"entries":     len(entries),
	}), nil
}

// Extract unpacks input into output_dir.
func (o *Ops) Extract(_ context.Context, p types.Payload) (types.Result, error) {
	input, err := oparg.InputFile(p, "input")
	if err != nil {
		return types.Result{}, err
	}
	outDir, err := oparg.String(p, "output_dir")
	if err != nil {
		return types.Result{}, err
	}
	key := Key(oparg.OptionalString(p, "password"))

	f, err := os.Open(input)
	if err != nil {
		return types.Result{}, opserr.Backend(backendName, err.Error(), err)
	}
	defer f.Close()

	entries, err := Read(f, outDir, key)
	switch {
	case err == nil:
	case errors.Is(err, ErrBadMagic), errors.Is(err, ErrCorrupt), errors.Is(err, ErrUnsafePath):
		return types.Result{}, opserr.New(opserr.KindValidation, fmt.Sprintf("%s: %v", input, err), err)
	default:
		return types.Result{}, opserr.Backend(backendName, fmt.Sprintf("extracting %s: %v", input, err), err)
	}

	o.logger.Debug(MsgExtracted, zap.String("input", input), zap.Int("entries", len(entries)))
	return types.Success(MsgExtracted, map[string]any{
		"output_dir": outDir,
		"entries":    len(entries),
	}), nil
}

func writeFile(path string, inputs []string, key []byte, level int) (entries []Entry, err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return Write(f, inputs, key, level)
}
