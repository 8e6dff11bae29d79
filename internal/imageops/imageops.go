// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package imageops implements the image_ops operation group: exact-size
// resampling and dimension inspection of raster images.
package imageops

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdiddy/docops/internal/dispatch"
	"github.com/pdiddy/docops/internal/oparg"
	"github.com/pdiddy/docops/internal/opserr"
	"github.com/pdiddy/docops/pkg/types"
)

// Target is the registry name of this group.
const Target = "image_ops"

const (
	backendName = "image"

	// maxDimension bounds each side of a resized image.
	maxDimension = 20000

	// maxSourcePixels bounds the decoded size of an input image.
	maxSourcePixels = 1 << 28

	jpegQuality = 90
)

// Messages.
const (
	MsgResized = "image resized"
	MsgInfo    = "image inspected"

	ErrMsgDimension = "%s must be between 1 and %d, got %d"
	ErrMsgDecode    = "cannot decode image %s: %v"
	ErrMsgOutputExt = "unsupported output format %q (want png, jpg, jpeg, gif, bmp, tif or tiff)"
	ErrMsgEncode    = "writing %s: %v"
	ErrMsgTooLarge  = "image %s is %dx%d, over the %d pixel limit"
)

type encoder func(w io.Writer, m image.Image) error

var encoders = map[string]encoder{
	".png":  png.Encode,
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".gif":  func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) },
	".bmp":  bmp.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodeJPEG(w io.Writer, m image.Image) error {
	return jpeg.Encode(w, m, &jpeg.Options{Quality: jpegQuality})
}

func encodeTIFF(w io.Writer, m image.Image) error {
	return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
}

// Ops holds the image_ops operations.
type Ops struct {
	logger *zap.Logger
}

// New creates the image_ops group. A nil logger discards logs.
func New(logger *zap.Logger) *Ops {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ops{logger: logger.Named(Target)}
}

// Register adds the group's operations to reg.
func (o *Ops) Register(reg *dispatch.Registry) {
	reg.Register(Target, dispatch.Operation{
		Name:     "resize_image",
		Summary:  "Resample an image to exactly width x height",
		Required: []string{"input", "output", "width", "height"},
		Run:      o.Resize,
	})
	reg.Register(Target, dispatch.Operation{
		Name:     "image_info",
		Summary:  "Report an image's dimensions and format",
		Required: []string{"input"},
		Run:      o.Info,
	})
}

// Resize decodes input, scales it to width x height with Catmull-Rom
// resampling and encodes the result by output's extension.
func (o *Ops) Resize(_ context.Context, p types.Payload) (types.Result, error) {
	input, err := oparg.InputFile(p, "input")
	if err != nil {
		return types.Result{}, err
	}
	output, err := oparg.String(p, "output")
	if err != nil {
		return types.Result{}, err
	}
	width, err := dimension(p, "width")
	if err != nil {
		return types.Result{}, err
	}
	height, err := dimension(p, "height")
	if err != nil {
		return types.Result{}, err
	}
	enc, ok := encoders[strings.ToLower(filepath.Ext(output))]
	if !ok {
		return types.Result{}, opserr.Invalid(ErrMsgOutputExt, filepath.Ext(output))
	}

	src, format, err := decodeFile(input)
	if err != nil {
		return types.Result{}, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	if err := oparg.EnsureParentDir(output); err != nil {
		return types.Result{}, err
	}
	if err := writeImage(output, dst, enc); err != nil {
		return types.Result{}, opserr.Backend(backendName, fmt.Sprintf(ErrMsgEncode, output, err), err)
	}

	o.logger.Debug(MsgResized,
		zap.String("input", input),
		zap.String("format", format),
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return types.Success(MsgResized, map[string]any{
		"output_path": output,
		"width":       width,
		"height":      height,
	}), nil
}

// Info reads only the image header to report its size and format.
func (o *Ops) Info(_ context.Context, p types.Payload) (types.Result, error) {
	input, err := oparg.InputFile(p, "input")
	if err != nil {
		return types.Result{}, err
	}

	f, err := os.Open(input)
	if err != nil {
		return types.Result{}, opserr.Backend(backendName, err.Error(), err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return types.Result{}, opserr.New(opserr.KindValidation, fmt.Sprintf(ErrMsgDecode, input, err), err)
	}
	return types.Success(MsgInfo, map[string]any{
		"width":  cfg.Width,
		"height": cfg.Height,
		"format": format,
	}), nil
}

func dimension(p types.Payload, key string) (int, error) {
	v, err := oparg.Int(p, key)
	if err != nil {
		return 0, err
	}
	if v < 1 || v > maxDimension {
		return 0, opserr.Invalid(ErrMsgDimension, key, maxDimension, v)
	}
	return v, nil
}

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", opserr.Backend(backendName, err.Error(), err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, "", opserr.New(opserr.KindValidation, fmt.Sprintf(ErrMsgDecode, path, err), err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return nil, "", opserr.Invalid(ErrMsgTooLarge, path, cfg.Width, cfg.Height, maxSourcePixels)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", opserr.Backend(backendName, err.Error(), err)
	}

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", opserr.New(opserr.KindValidation, fmt.Sprintf(ErrMsgDecode, path, err), err)
	}
	return img, format, nil
}

// writeImage encodes m to path, removing the partial file on failure.
func writeImage(path string, m image.Image, enc encoder) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return enc(f, m)
}
