// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Magic is the header every package starts with.
const Magic = "KRATE_PKG"

// defaultKey scrambles packages created without a password.
var defaultKey = []byte("Krate_Internal_Secret_Key_2026_Performance_First")

// Format errors. Callers classify them with errors.Is.
var (
	ErrBadMagic    = errors.New("not a package: missing KRATE_PKG header")
	ErrCorrupt     = errors.New("package is corrupt or the password is incorrect")
	ErrUnsafePath  = errors.New("entry escapes the output directory")
	ErrNoInputName = errors.New("input has no base name")
)

// Key returns the scrambling key for password.
func Key(password string) []byte {
	if password == "" {
		return defaultKey
	}
	return []byte(password)
}

// xorStream applies a repeating key to a byte stream. The key position
// carries across calls so chunk boundaries do not matter.
type xorStream struct {
	key []byte
	pos int
}

func (x *xorStream) apply(dst, src []byte) {
	if len(x.key) == 0 {
		copy(dst, src)
		return
	}
	for i, b := range src {
		dst[i] = b ^ x.key[x.pos]
		x.pos++
		if x.pos == len(x.key) {
			x.pos = 0
		}
	}
}

type xorWriter struct {
	w   io.Writer
	x   xorStream
	buf []byte
}

func newXORWriter(w io.Writer, key []byte) *xorWriter {
	return &xorWriter{w: w, x: xorStream{key: key}}
}

func (w *xorWriter) Write(p []byte) (int, error) {
	if cap(w.buf) < len(p) {
		w.buf = make([]byte, len(p))
	}
	buf := w.buf[:len(p)]
	w.x.apply(buf, p)
	return w.w.Write(buf)
}

type xorReader struct {
	r io.Reader
	x xorStream
}

func newXORReader(r io.Reader, key []byte) *xorReader {
	return &xorReader{r: r, x: xorStream{key: key}}
}

func (r *xorReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.x.apply(p[:n], p[:n])
	return n, err
}

// Entry is one file or directory stored in a package.
type Entry struct {
	Name  string
	Size  int64
	IsDir bool
}

// Write streams a package of inputs to w. Each input is stored under its
// base name; directories are stored recursively. Entries other than regular
// files and directories are skipped.
func Write(w io.Writer, inputs []string, key []byte, level int) ([]Entry, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Magic); err != nil {
		return nil, err
	}
	zw, err := gzip.NewWriterLevel(newXORWriter(bw, key), level)
	if err != nil {
		return nil, err
	}
	tw := tar.NewWriter(zw)

	var entries []Entry
	for _, input := range inputs {
		added, err := addInput(tw, input)
		if err != nil {
			return nil, err
		}
		entries = append(entries, added...)
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("finishing tar stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing gzip stream: %w", err)
	}
	return entries, bw.Flush()
}

func addInput(tw *tar.Writer, input string) ([]Entry, error) {
	root := filepath.Clean(input)
	base := filepath.Base(root)
	if base == "." || base == string(filepath.Separator) || base == ".." {
		return nil, fmt.Errorf("%w: %s", ErrNoInputName, input)
	}

	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(base, rel))

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = name
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			entries = append(entries, Entry{Name: name, IsDir: true})
			return nil
		}
		if err := copyFile(tw, path); err != nil {
			return err
		}
		entries = append(entries, Entry{Name: name, Size: info.Size()})
		return nil
	})
	return entries, err
}

func copyFile(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(dst, f)
	return err
}

// Read unpacks the package in r into dir. Stream failures are reported as
// ErrCorrupt; entries resolving outside dir as ErrUnsafePath.
func Read(r io.Reader, dir string, key []byte) ([]Entry, error) {
	br := bufio.NewReader(r)
	header := make([]byte, len(Magic))
	if _, err := io.ReadFull(br, header); err != nil || !bytes.Equal(header, []byte(Magic)) {
		return nil, ErrBadMagic
	}

	zr, err := gzip.NewReader(newXORReader(br, key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	tr := tar.NewReader(zr)
	var entries []Entry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		target, err := safeJoin(root, hdr.Name)
		if err != nil {
			return nil, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, hdr.FileInfo().Mode().Perm()|0o700); err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Name: strings.TrimSuffix(hdr.Name, "/"), IsDir: true})
		case tar.TypeReg:
			if err := extractFile(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Name: hdr.Name, Size: hdr.Size})
		}
	}
}

// safeJoin resolves name under root, rejecting absolute names and names
// that climb out of root.
func safeJoin(root, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// writeErr marks a failure on the destination side of a copy.
type writeErr struct{ err error }

func (e *writeErr) Error() string { return e.err.Error() }
func (e *writeErr) Unwrap() error { return e.err }

type fileWriter struct{ f *os.File }

func (w fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		err = &writeErr{err}
	}
	return n, err
}

func extractFile(src io.Reader, target string, perm fs.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm|0o600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(fileWriter{f}, src); err != nil {
		var we *writeErr
		if errors.As(err, &we) {
			return we.err
		}
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}
