// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wordconv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/docops/internal/container"
	"github.com/pdiddy/docops/internal/opserr"
	"github.com/pdiddy/docops/pkg/types"
)

// Binaries tried in order when no soffice path is configured.
var sofficeBins = []string{"soffice", "libreoffice"}

// Mount points used when LibreOffice runs inside a container.
const (
	containerInDir  = "/docops/in"
	containerOutDir = "/docops/out"
)

const (
	// workDirPattern names the per-conversion directory created next to
	// the output. soffice writes its artifact and user profile there.
	workDirPattern = ".docops-*"
	profileDir     = "profile"
)

// LibreOffice converts documents with a headless soffice process, either on
// the host or inside a configured container image.
type LibreOffice struct {
	sofficePath string
	image       string
	exec        executor
	detect      func(ctx context.Context) (container.Runtime, error)
	logger      *zap.Logger
}

func newLibreOffice(cfg types.ConversionConfig, logger *zap.Logger, exec executor) *LibreOffice {
	return &LibreOffice{
		sofficePath: cfg.SofficePath,
		image:       cfg.ContainerImage,
		exec:        exec,
		detect:      container.DetectRuntime,
		logger:      logger,
	}
}

// Name returns "libreoffice".
func (l *LibreOffice) Name() string { return string(types.BackendLibreOffice) }

// Convert runs soffice in a private work directory next to output, with its
// own user profile, then moves the generated <stem>.pdf to output. The work
// directory is removed afterwards.
func (l *LibreOffice) Convert(ctx context.Context, input, output string) error {
	bin, lookErr := l.lookup()
	var rt container.Runtime
	if lookErr != nil {
		if l.image == "" {
			return opserr.Backend(l.Name(), ErrMsgSofficeNotFound, lookErr)
		}
		var err error
		if rt, err = l.containerRuntime(ctx); err != nil {
			return err
		}
	}

	work, err := makeWorkDir(output)
	if err != nil {
		return opserr.Backend(l.Name(), fmt.Sprintf("creating work directory: %v", err), err)
	}
	defer os.RemoveAll(work)

	var out bytes.Buffer
	var runErr error
	if rt == nil {
		l.logger.Debug(LogMsgRunning,
			zap.String(LogFieldBinary, bin),
			zap.String(LogFieldInput, input),
			zap.String(LogFieldWorkDir, work),
		)
		profile := fileURL(filepath.Join(work, profileDir))
		runErr = l.exec.Run(ctx, bin, sofficeArgs(profile, work, input), &out)
	} else {
		runErr = l.runContainer(ctx, rt, input, work, &out)
	}
	if runErr != nil {
		return runFailure(ctx, l.Name(), runErr, out.String())
	}

	generated := filepath.Join(work, stem(input)+".pdf")
	if !fileExists(generated) {
		return opserr.Backend(l.Name(), fmt.Sprintf(ErrMsgNoArtifact, generated), nil)
	}
	if err := os.Rename(generated, output); err != nil {
		return opserr.Backend(l.Name(), fmt.Sprintf("moving %s to %s: %v", generated, output, err), err)
	}
	return nil
}

// makeWorkDir creates a fresh directory beside output and returns its
// absolute path.
func makeWorkDir(output string) (string, error) {
	dir, err := os.MkdirTemp(filepath.Dir(output), workDirPattern)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return abs, nil
}

// fileURL renders an absolute path as a file:// URL.
func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// lookup returns the configured soffice path or the first candidate on PATH.
func (l *LibreOffice) lookup() (string, error) {
	if l.sofficePath != "" {
		return l.exec.LookPath(l.sofficePath)
	}
	var firstErr error
	for _, bin := range sofficeBins {
		path, err := l.exec.LookPath(bin)
		if err == nil {
			return path, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", firstErr
}

// containerRuntime finds docker or podman and checks that l.image is present.
func (l *LibreOffice) containerRuntime(ctx context.Context) (container.Runtime, error) {
	rt, err := l.detect(ctx)
	if err != nil {
		return nil, opserr.Backend(l.Name(), ErrMsgSofficeNotFound+"; "+err.Error(), err)
	}
	if err := rt.ImageExists(ctx, l.image); err != nil {
		return nil, opserr.Backend(l.Name(), err.Error(), err)
	}
	return rt, nil
}

// runContainer runs soffice inside l.image with the input directory and
// the work directory mounted.
func (l *LibreOffice) runContainer(ctx context.Context, rt container.Runtime, input, work string, out *bytes.Buffer) error {
	inDir, err := filepath.Abs(filepath.Dir(input))
	if err != nil {
		return err
	}

	l.logger.Debug(LogMsgRunning,
		zap.String(LogFieldBinary, rt.Name()),
		zap.String(LogFieldImage, l.image),
		zap.String(LogFieldInput, input),
	)
	profile := fileURL(containerOutDir + "/" + profileDir)
	args := append([]string{sofficeBins[0]},
		sofficeArgs(profile, containerOutDir, containerInDir+"/"+filepath.Base(input))...)
	return rt.Run(ctx, container.RunSpec{
		Image: l.image,
		Mounts: []container.Mount{
			{Host: inDir, Container: containerInDir},
			{Host: work, Container: containerOutDir},
		},
		Workdir: containerOutDir,
		Args:    args,
		Stdout:  out,
		Stderr:  out,
	})
}

func sofficeArgs(profileURL, outDir, input string) []string {
	return []string{
		"-env:UserInstallation=" + profileURL,
		"--headless", "--convert-to", "pdf", "--outdir", outDir, input,
	}
}

// runFailure builds the backend error for a failed conversion process,
// preferring the tool's own output over the exit status.
func runFailure(ctx context.Context, backend string, err error, output string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return opserr.Backend(backend, ErrMsgTimeout, err)
	}
	detail := strings.TrimSpace(output)
	if detail == "" {
		detail = err.Error()
	}
	return opserr.Backend(backend, fmt.Sprintf(ErrMsgConversionFailed, backend, detail), err)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
