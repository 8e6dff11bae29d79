// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wordconv implements the word_ops operation group: converting Word
// documents to PDF through a pluggable Backend. The backend is chosen once
// per process from the host OS and configuration; LibreOffice can also run
// inside a docker or podman container.
package wordconv

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/docops/internal/dispatch"
	"github.com/pdiddy/docops/internal/oparg"
	"github.com/pdiddy/docops/internal/opserr"
	"github.com/pdiddy/docops/pkg/types"
)

// Target is the registry name of this group.
const Target = "word_ops"

// Messages.
const (
	MsgConverted = "Word document converted to PDF"

	ErrMsgUnsupportedInput = "only .doc and .docx files are supported: %s"
	ErrMsgUnknownBackend   = "unknown conversion backend %q (want auto, word or libreoffice)"
	ErrMsgSofficeNotFound  = "LibreOffice (soffice) not found on PATH"
	ErrMsgToolNotFound     = "%s not found on PATH"
	ErrMsgWordUnsupported  = "Microsoft Word automation is not available on %s"
	ErrMsgConversionFailed = "%s conversion failed: %s"
	ErrMsgNoArtifact       = "conversion produced no PDF at %s"
	ErrMsgTimeout          = "conversion timed out"
)

// Log message and field constants.
const (
	LogMsgBackend   = "word conversion backend selected"
	LogMsgRunning   = "running converter"
	LogFieldBinary  = "binary"
	LogFieldImage   = "image"
	LogFieldInput   = "input"
	LogFieldOutput  = "output"
	LogFieldName    = "backend"
	LogFieldWorkDir = "work_dir"
)

var docExts = []string{".doc", ".docx"}

// Ops holds the word_ops operations and the selected backend.
type Ops struct {
	backend   Backend
	selectErr error
	timeout   time.Duration
	logger    *zap.Logger
}

// New selects the backend for goos and cfg. An invalid backend setting is
// reported when the operation runs, so the other groups stay usable.
func New(cfg types.ConversionConfig, goos string, logger *zap.Logger) *Ops {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named(Target)
	backend, err := Select(goos, cfg, logger)
	if err == nil {
		logger.Debug(LogMsgBackend, zap.String(LogFieldName, backend.Name()))
	}
	return newOps(backend, err, cfg.Timeout, logger)
}

func newOps(backend Backend, selectErr error, timeout time.Duration, logger *zap.Logger) *Ops {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ops{backend: backend, selectErr: selectErr, timeout: timeout, logger: logger}
}

// Register adds the group's operations to reg.
func (o *Ops) Register(reg *dispatch.Registry) {
	reg.Register(Target, dispatch.Operation{
		Name:     "convert_word_to_pdf",
		Summary:  "Convert a .doc or .docx document to PDF",
		Required: []string{"input", "output"},
		Run:      o.ConvertWordToPDF,
	})
}

// ConvertWordToPDF converts the document at input and writes the PDF to
// output. An output path without a .pdf suffix gets one.
func (o *Ops) ConvertWordToPDF(ctx context.Context, p types.Payload) (types.Result, error) {
	input, err := oparg.String(p, "input")
	if err != nil {
		return types.Result{}, err
	}
	output, err := oparg.String(p, "output")
	if err != nil {
		return types.Result{}, err
	}
	if err := oparg.Exists(input); err != nil {
		return types.Result{}, err
	}
	if !oparg.HasExt(input, docExts...) {
		return types.Result{}, opserr.Invalid(ErrMsgUnsupportedInput, input)
	}
	if !oparg.HasExt(output, ".pdf") {
		output = oparg.WithExt(output, ".pdf")
	}
	if o.selectErr != nil {
		return types.Result{}, o.selectErr
	}
	if err := oparg.EnsureParentDir(output); err != nil {
		return types.Result{}, err
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	if err := o.backend.Convert(ctx, input, output); err != nil {
		return types.Result{}, err
	}

	o.logger.Debug(MsgConverted,
		zap.String(LogFieldName, o.backend.Name()),
		zap.String(LogFieldInput, input),
		zap.String(LogFieldOutput, output),
	)
	return types.Success(MsgConverted, map[string]any{
		"output_path": output,
		"backend":     o.backend.Name(),
	}), nil
}
