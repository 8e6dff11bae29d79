// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfops implements the pdf_ops operation group: password
// encryption, decryption, and inspection of PDF documents using pdfcpu.
package pdfops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/pdiddy/docops/internal/dispatch"
	"github.com/pdiddy/docops/internal/oparg"
	"github.com/pdiddy/docops/internal/opserr"
	"github.com/pdiddy/docops/pkg/types"
)

// Target is the registry name of this group.
const Target = "pdf_ops"

const (
	backendName = "pdfcpu"

	// aesKeyLength is the AES key length in bits used for encryption.
	aesKeyLength = 256

	// encryptPermissions grants everything except copying/extracting content.
	encryptPermissions = model.PermissionsAll &^ model.PermissionExtract
)

// Result messages.
const (
	MsgEncrypted = "PDF encrypted"
	MsgDecrypted = "PDF decrypted"
	MsgInfo      = "PDF inspected"

	ErrMsgWrongPassword    = "incorrect password, unable to decrypt"
	ErrMsgAlreadyEncrypted = "input is already encrypted: %s"
	ErrMsgInvalidPDF       = "%s %s: invalid or corrupt PDF"
	ErrMsgOperationFailed  = "%s %s failed: %v"
)

// errInvalidPDF marks a document pdfcpu could not process without panicking.
var errInvalidPDF = errors.New("invalid or corrupt PDF")

// pdfcpu writes a config directory under the user's config dir on first use
// and exits the process if that fails. Operations here pass explicit
// configurations, so the on-disk config is never needed.
func init() {
	model.ConfigPath = "disable"
}

// Ops holds the pdf_ops operations.
type Ops struct {
	logger *zap.Logger
}

// New creates the pdf_ops group. A nil logger discards logs.
func New(logger *zap.Logger) *Ops {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ops{logger: logger.Named(Target)}
}

// Register adds the group's operations to reg.
func (o *Ops) Register(reg *dispatch.Registry) {
	reg.Register(Target, dispatch.Operation{
		Name:     "encrypt_pdf",
		Summary:  "Encrypt a PDF with a password (AES-256, content extraction disabled)",
		Required: []string{"input", "output", "password"},
		Run:      o.Encrypt,
	})
	reg.Register(Target, dispatch.Operation{
		Name:     "decrypt_pdf",
		Summary:  "Remove password protection from a PDF",
		Required: []string{"input", "output", "password"},
		Run:      o.Decrypt,
	})
	reg.Register(Target, dispatch.Operation{
		Name:     "pdf_info",
		Summary:  "Report page count, encryption state and version of a PDF",
		Required: []string{"input"},
		Optional: []string{"password"},
		Run:      o.Info,
	})
}

type pdfArgs struct {
	input, output, password string
}

// parseArgs validates input, output and password in that order.
func parseArgs(p types.Payload) (pdfArgs, error) {
	input, err := oparg.InputFile(p, "input")
	if err != nil {
		return pdfArgs{}, err
	}
	output, err := oparg.String(p, "output")
	if err != nil {
		return pdfArgs{}, err
	}
	password, err := oparg.String(p, "password")
	if err != nil {
		return pdfArgs{}, err
	}
	if err := oparg.EnsureParentDir(output); err != nil {
		return pdfArgs{}, err
	}
	return pdfArgs{input: input, output: output, password: password}, nil
}

// Encrypt writes a password-protected copy of input to output. The user and
// owner passwords are both set to password.
func (o *Ops) Encrypt(_ context.Context, p types.Payload) (types.Result, error) {
	a, err := parseArgs(p)
	if err != nil {
		return types.Result{}, err
	}

	conf := model.NewAESConfiguration(a.password, a.password, aesKeyLength)
	conf.Permissions = encryptPermissions

	err = writePDF(a.input, a.output, func(rs io.ReadSeeker, w io.Writer) error {
		return api.Encrypt(rs, w, conf)
	})
	if err != nil {
		if isAlreadyEncrypted(err) {
			return types.Result{}, opserr.New(opserr.KindValidation, fmt.Sprintf(ErrMsgAlreadyEncrypted, a.input), err)
		}
		return types.Result{}, backendError("encrypting", a.input, err)
	}

	o.logger.Debug("encrypted", zap.String("input", a.input), zap.String("output", a.output))
	return types.Success(MsgEncrypted, map[string]any{"output_path": a.output}), nil
}

// Decrypt writes an unprotected copy of input to output. A document that is
// not encrypted is copied through unchanged.
func (o *Ops) Decrypt(_ context.Context, p types.Payload) (types.Result, error) {
	a, err := parseArgs(p)
	if err != nil {
		return types.Result{}, err
	}

	conf := model.NewDefaultConfiguration()
	conf.UserPW = a.password
	conf.OwnerPW = a.password

	err = writePDF(a.input, a.output, func(rs io.ReadSeeker, w io.Writer) error {
		return api.Decrypt(rs, w, conf)
	})
	switch {
	case err == nil:
	case isWrongPassword(err):
		return types.Result{}, opserr.Authentication(ErrMsgWrongPassword, err)
	case isNotEncrypted(err):
		o.logger.Debug("input not encrypted, copying", zap.String("input", a.input))
		if err := writePDF(a.input, a.output, copyPDF); err != nil {
			return types.Result{}, opserr.Backend(backendName,
				fmt.Sprintf("copying %s: %v", a.input, err), err)
		}
	default:
		return types.Result{}, backendError("decrypting", a.input, err)
	}

	o.logger.Debug("decrypted", zap.String("input", a.input), zap.String("output", a.output))
	return types.Success(MsgDecrypted, map[string]any{"output_path": a.output}), nil
}

// Info reads input and reports its page count, encryption state and header
// version. An encrypted document needs its password.
func (o *Ops) Info(_ context.Context, p types.Payload) (types.Result, error) {
	input, err := oparg.InputFile(p, "input")
	if err != nil {
		return types.Result{}, err
	}
	password := oparg.OptionalString(p, "password")

	f, err := os.Open(input)
	if err != nil {
		return types.Result{}, opserr.Backend(backendName, fmt.Sprintf("opening %s: %v", input, err), err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.VALIDATE
	conf.UserPW = password
	conf.OwnerPW = password

	var ctx *model.Context
	err = guard(func() (err error) {
		ctx, err = api.ReadAndValidate(f, conf)
		return err
	})
	if err != nil {
		if isWrongPassword(err) {
			return types.Result{}, opserr.Authentication(ErrMsgWrongPassword, err)
		}
		return types.Result{}, backendError("reading", input, err)
	}

	return types.Success(MsgInfo, map[string]any{
		"page_count": ctx.PageCount,
		"encrypted":  ctx.Encrypt != nil,
		"version":    ctx.VersionString(),
	}), nil
}

// writePDF runs fn from input into a temporary file next to output and
// renames it into place on success. On failure output is left untouched.
func writePDF(input, output string, fn func(rs io.ReadSeeker, w io.Writer) error) (err error) {
	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(output), ".docops-*.pdf")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = guard(func() error { return fn(in, tmp) }); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), output)
}

// guard runs fn, turning a panic inside pdfcpu into errInvalidPDF.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errInvalidPDF, r)
		}
	}()
	return fn()
}

func backendError(verb, input string, err error) error {
	if errors.Is(err, errInvalidPDF) {
		return opserr.Backend(backendName, fmt.Sprintf(ErrMsgInvalidPDF, verb, input), err)
	}
	return opserr.Backend(backendName, fmt.Sprintf(ErrMsgOperationFailed, verb, input, err), err)
}

func isWrongPassword(err error) bool {
	return errors.Is(err, pdfcpu.ErrWrongPassword) ||
		strings.Contains(err.Error(), "correct password")
}

func isAlreadyEncrypted(err error) bool {
	return strings.Contains(err.Error(), "already encrypted")
}

func isNotEncrypted(err error) bool {
	return strings.Contains(err.Error(), "not encrypted")
}

func copyPDF(rs io.ReadSeeker, w io.Writer) error {
	_, err := io.Copy(w, rs)
	return err
}
