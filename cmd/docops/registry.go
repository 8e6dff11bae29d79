// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/pdiddy/docops/internal/archive"
	"github.com/pdiddy/docops/internal/dispatch"
	"github.com/pdiddy/docops/internal/imageops"
	"github.com/pdiddy/docops/internal/pdfops"
	"github.com/pdiddy/docops/internal/wordconv"
	"github.com/pdiddy/docops/pkg/types"
)

// group is an operation group that can add itself to a registry.
type group interface {
	Register(reg *dispatch.Registry)
}

// newRegistry builds the registry of every compiled-in operation group.
func newRegistry(cfg types.Config, logger *zap.Logger) *dispatch.Registry {
	reg := dispatch.NewRegistry()
	groups := []group{
		pdfops.New(logger),
		wordconv.New(cfg.Convert, runtime.GOOS, logger),
		imageops.New(logger),
		archive.New(cfg.Archive, logger),
	}
	for _, g := range groups {
		g.Register(reg)
	}
	return reg
}
