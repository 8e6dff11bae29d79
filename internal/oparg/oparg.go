// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package oparg extracts and validates operation arguments from a payload,
// returning opserr errors with the messages callers see.
package oparg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/docops/internal/opserr"
	"github.com/pdiddy/docops/pkg/types"
)

// String returns the non-empty string at key or a missing-key error.
func String(p types.Payload, key string) (string, error) {
	v, ok := p.String(key)
	if !ok {
		return "", opserr.MissingKey(key)
	}
	return v, nil
}

// OptionalString returns the string at key, or "" when absent.
func OptionalString(p types.Payload, key string) string {
	v, _ := p.String(key)
	return v
}

// Strings returns the list at key. A single string is a one-element list.
func Strings(p types.Payload, key string) ([]string, error) {
	if !p.Has(key) {
		return nil, opserr.MissingKey(key)
	}
	v, ok := p.Strings(key)
	if !ok {
		return nil, opserr.Invalid("payload key %q must be a non-empty string or list of strings", key)
	}
	return v, nil
}

// Int returns the integer at key or a validation error. A missing key is
// reported as such.
func Int(p types.Payload, key string) (int, error) {
	if !p.Has(key) {
		return 0, opserr.MissingKey(key)
	}
	v, ok := p.Int(key)
	if !ok {
		return 0, opserr.Invalid("payload key %q must be an integer", key)
	}
	return v, nil
}

// OptionalInt returns the integer at key, or def when absent.
func OptionalInt(p types.Payload, key string, def int) (int, error) {
	if !p.Has(key) {
		return def, nil
	}
	return Int(p, key)
}

// InputFile returns the path at key after checking that it exists.
func InputFile(p types.Payload, key string) (string, error) {
	path, err := String(p, key)
	if err != nil {
		return "", err
	}
	if err := Exists(path); err != nil {
		return "", err
	}
	return path, nil
}

// Exists returns a not-found error naming path when nothing is there.
func Exists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return opserr.InputNotFound(path)
		}
		return opserr.New(opserr.KindValidation, fmt.Sprintf("cannot access %s: %v", path, err), err)
	}
	return nil
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return opserr.New(opserr.KindBackend, fmt.Sprintf("creating output directory %s: %v", dir, err), err)
	}
	return nil
}

// HasExt reports whether path ends in one of exts, ignoring case. Each ext
// includes its leading dot.
func HasExt(path string, exts ...string) bool {
	got := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if got == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// WithExt replaces the extension of path with ext, or appends ext when path
// has none.
func WithExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
