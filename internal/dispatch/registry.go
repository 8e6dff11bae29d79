// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"context"
	"fmt"
	"sort"

	"github.com/pdiddy/docops/internal/opserr"
	"github.com/pdiddy/docops/pkg/types"
)

// Func is the signature every operation implements. It returns a success
// result or an opserr error.
type Func func(ctx context.Context, p types.Payload) (types.Result, error)

// Operation describes one callable within a target group.
type Operation struct {
	// Name is the operation identifier (e.g. "encrypt_pdf").
	Name string `json:"name" yaml:"name"`

	// Summary is a one-line description shown by the list command.
	Summary string `json:"summary" yaml:"summary"`

	// Required lists payload keys the operation cannot run without.
	Required []string `json:"required" yaml:"required"`

	// Optional lists payload keys the operation understands but defaults.
	Optional []string `json:"optional,omitempty" yaml:"optional,omitempty"`

	Run Func `json:"-" yaml:"-"`
}

// Group is a target and its operations, as reported by Catalog.
type Group struct {
	Target     string      `json:"target" yaml:"target"`
	Operations []Operation `json:"operations" yaml:"operations"`
}

// Registry maps (target, operation) to an Operation. It is populated once at
// process start and read-only afterwards.
type Registry struct {
	targets map[string]map[string]Operation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]map[string]Operation)}
}

// Register adds op under target. It panics on an empty name, a nil function,
// or a duplicate registration.
func (r *Registry) Register(target string, op Operation) {
	if target == "" || op.Name == "" {
		panic("dispatch: target and operation name are required")
	}
	if op.Run == nil {
		panic(fmt.Sprintf("dispatch: operation %s.%s has no function", target, op.Name))
	}
	ops, ok := r.targets[target]
	if !ok {
		ops = make(map[string]Operation)
		r.targets[target] = ops
	}
	if _, exists := ops[op.Name]; exists {
		panic(fmt.Sprintf("dispatch: operation %s.%s already registered", target, op.Name))
	}
	ops[op.Name] = op
}

// Lookup resolves target and operation. A missing target and a missing
// operation produce distinct resolution errors.
func (r *Registry) Lookup(target, operation string) (Operation, error) {
	ops, ok := r.targets[target]
	if !ok {
		return Operation{}, opserr.UnknownTarget(target)
	}
	op, ok := ops[operation]
	if !ok {
		return Operation{}, opserr.UnknownOperation(target, operation)
	}
	return op, nil
}

// Targets returns the registered target names in sorted order.
func (r *Registry) Targets() []string {
	names := make([]string, 0, len(r.targets))
	for t := range r.targets {
		names = append(names, t)
	}
	sort.Strings(names)
	return names
}

// Catalog returns every group with its operations, both sorted by name.
func (r *Registry) Catalog() []Group {
	groups := make([]Group, 0, len(r.targets))
	for _, target := range r.Targets() {
		ops := make([]Operation, 0, len(r.targets[target]))
		for _, op := range r.targets[target] {
			ops = append(ops, op)
		}
		sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
		groups = append(groups, Group{Target: target, Operations: ops})
	}
	return groups
}
