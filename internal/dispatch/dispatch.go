// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch turns a positional command line into one operation call
// and normalizes its outcome into a single JSON result.
//
// The invocation shape is <target> <operation> <json-payload>. Every failure,
// including argument-count, decode, resolution, and operation errors, becomes
// an error result; Dispatch never returns an error to its caller.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/docops/internal/opserr"
	"github.com/pdiddy/docops/pkg/types"
)

// minArgs is the number of positional arguments a dispatch needs.
const minArgs = 3

// Log message and field constants.
const (
	LogMsgDispatch      = "dispatching operation"
	LogMsgCompleted     = "operation completed"
	LogMsgFailed        = "operation failed"
	LogMsgPanic         = "operation panicked"
	LogFieldTarget      = "target"
	LogFieldOperation   = "operation"
	LogFieldKind        = "kind"
	LogFieldDuration    = "duration"
	LogFieldPayloadKeys = "payload_keys"
)

// Dispatcher resolves and invokes operations from a Registry.
type Dispatcher struct {
	registry *Registry
	logger   *zap.Logger
}

// New creates a dispatcher over reg. A nil logger discards logs.
func New(reg *Registry, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: reg, logger: logger}
}

// Dispatch runs the operation named by args and returns its normalized
// result. Arguments beyond the third are ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, args []string) types.Result {
	if len(args) < minArgs {
		return d.failure(opserr.InsufficientArguments(len(args)))
	}
	target, operation, raw := args[0], args[1], args[2]

	payload, err := types.ParsePayload(raw)
	if err != nil {
		return d.failure(opserr.InvalidPayload(err))
	}

	op, err := d.registry.Lookup(target, operation)
	if err != nil {
		return d.failure(err)
	}

	d.logger.Debug(LogMsgDispatch,
		zap.String(LogFieldTarget, target),
		zap.String(LogFieldOperation, operation),
		zap.Strings(LogFieldPayloadKeys, payloadKeys(payload)),
	)

	start := time.Now()
	res, err := d.invoke(ctx, op, payload)
	if err != nil {
		d.logger.Warn(LogMsgFailed,
			zap.String(LogFieldTarget, target),
			zap.String(LogFieldOperation, operation),
			zap.String(LogFieldKind, string(opserr.KindOf(err))),
			zap.Error(err),
		)
		return d.failure(err)
	}
	d.logger.Info(LogMsgCompleted,
		zap.String(LogFieldTarget, target),
		zap.String(LogFieldOperation, operation),
		zap.Duration(LogFieldDuration, time.Since(start)),
	)
	return res
}

// invoke calls op, converting a panic into an internal error.
func (d *Dispatcher) invoke(ctx context.Context, op Operation, p types.Payload) (res types.Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			d.logger.Error(LogMsgPanic, zap.String(LogFieldOperation, op.Name), zap.Any("panic", v))
			res, err = types.Result{}, opserr.Panic(v)
		}
	}()
	return op.Run(ctx, p)
}

// failure converts err to an error result. Resolution and internal errors
// carry the registered targets as debug context.
func (d *Dispatcher) failure(err error) types.Result {
	kind := opserr.KindOf(err)
	var debug string
	if kind == opserr.KindResolution || kind == opserr.KindInternal {
		debug = fmt.Sprintf("registered targets: [%s]", strings.Join(d.registry.Targets(), " "))
	}
	return types.Failure(string(kind), opserr.Message(err), debug)
}

// Write encodes res as one JSON line on w. HTML escaping is disabled and
// non-ASCII text is written as-is.
func Write(w io.Writer, res types.Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

func payloadKeys(p types.Payload) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	return keys
}
