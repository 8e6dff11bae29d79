// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Status is the outcome reported in the status field of every result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the single JSON document written to stdout per invocation.
// Data is set on success; Code and DebugInfo only on error.
type Result struct {
	// Status is the sole success/failure indicator for callers.
	Status Status `json:"status" yaml:"status"`

	// Msg is a human-readable description of the outcome.
	Msg string `json:"msg" yaml:"msg"`

	// Data carries operation output (e.g. output_path).
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`

	// Code names the error kind (e.g. "decode", "not_found").
	Code string `json:"code,omitempty" yaml:"code,omitempty"`

	// DebugInfo holds diagnostic context for resolution and internal errors.
	DebugInfo string `json:"debug_info,omitempty" yaml:"debug_info,omitempty"`
}

// Success builds a success result.
func Success(msg string, data map[string]any) Result {
	return Result{Status: StatusSuccess, Msg: msg, Data: data}
}

// Failure builds an error result.
func Failure(code, msg, debugInfo string) Result {
	return Result{Status: StatusError, Msg: msg, Code: code, DebugInfo: debugInfo}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}
