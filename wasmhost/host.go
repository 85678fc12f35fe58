// Package wasmhost exposes a resource.Table to WebAssembly guests.
//
// Guests cannot hold Go pointers, so they name host values by integer
// handle and manage them through imported functions. Every function takes
// an i32 handle and returns an i32; negative results are Status codes.
//
//	(import "rcell" "clone"        (func (param i32) (result i32)))
//	(import "rcell" "drop"         (func (param i32) (result i32)))
//	(import "rcell" "downgrade"    (func (param i32) (result i32)))
//	(import "rcell" "upgrade"      (func (param i32) (result i32)))
//	(import "rcell" "strong_count" (func (param i32) (result i32)))
//	(import "rcell" "weak_count"   (func (param i32) (result i32)))
//	(import "rcell" "type"         (func (param i32) (result i32)))
//	(import "rcell" "borrow"       (func (param i32) (result i32)))
//	(import "rcell" "end_borrow"   (func (param i32) (result i32)))
//
// upgrade returns 0 when the value has already been destroyed.
package wasmhost

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/rcell/errors"
	"github.com/wippyai/rcell/resource"
)

// DefaultModuleName is the import module name guests use.
const DefaultModuleName = "rcell"

// Status is a negative result code returned to guests.
type Status int32

const (
	StatusOK                Status = 0
	StatusInvalidHandle     Status = -1
	StatusOutstandingBorrow Status = -2
	StatusClosed            Status = -3
	StatusInvalidArgument   Status = -4
	StatusFailed            Status = -5
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidHandle:
		return "invalid handle"
	case StatusOutstandingBorrow:
		return "outstanding borrow"
	case StatusClosed:
		return "closed"
	case StatusInvalidArgument:
		return "invalid argument"
	default:
		return "failed"
	}
}

// statusOf maps a table error to the code a guest sees.
func statusOf(err error) Status {
	var e *errors.Error
	if !errors.As(err, &e) {
		return StatusFailed
	}
	switch e.Kind {
	case errors.KindInvalidHandle:
		return StatusInvalidHandle
	case errors.KindOutstandingBorrow:
		return StatusOutstandingBorrow
	case errors.KindClosed:
		return StatusClosed
	case errors.KindInvalidInput:
		return StatusInvalidArgument
	default:
		return StatusFailed
	}
}

type hostFunc struct {
	name    string
	fn      func(h resource.Handle) (int32, error)
	params  []api.ValueType
	results []api.ValueType
}

// Host builds the host module for one table.
type Host struct {
	table  *resource.Table
	logger *zap.Logger
	name   string
	funcs  []hostFunc
}

// Option configures a Host.
type Option func(*Host)

// WithModuleName overrides DefaultModuleName.
func WithModuleName(name string) Option {
	return func(h *Host) {
		h.name = name
	}
}

// WithLogger sets the logger used for failed guest calls.
func WithLogger(l *zap.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a host over table.
func New(table *resource.Table, opts ...Option) *Host {
	h := &Host{
		table:  table,
		logger: Logger(),
		name:   DefaultModuleName,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.define()
	return h
}

// ModuleName returns the import module name.
func (h *Host) ModuleName() string {
	return h.name
}

// Functions lists the exported function names in definition order.
func (h *Host) Functions() []string {
	names := make([]string, len(h.funcs))
	for i, f := range h.funcs {
		names[i] = f.name
	}
	return names
}

func handleResult(nh resource.Handle, err error) (int32, error) {
	if err != nil {
		return 0, err
	}
	if nh > math.MaxInt32 {
		return 0, errors.InvalidInput(errors.PhaseHandle, "handle does not fit in i32")
	}
	return int32(nh), nil
}

func (h *Host) define() {
	t := h.table
	i32 := []api.ValueType{api.ValueTypeI32}
	add := func(name string, fn func(resource.Handle) (int32, error)) {
		h.funcs = append(h.funcs, hostFunc{name: name, fn: fn, params: i32, results: i32})
	}

	add("clone", func(rh resource.Handle) (int32, error) {
		return handleResult(t.Clone(rh))
	})
	add("drop", func(rh resource.Handle) (int32, error) {
		_, err := t.Remove(rh)
		return int32(StatusOK), err
	})
	add("downgrade", func(rh resource.Handle) (int32, error) {
		return handleResult(t.Downgrade(rh))
	})
	add("upgrade", func(rh resource.Handle) (int32, error) {
		nh, ok, err := t.Upgrade(rh)
		if err != nil || !ok {
			return 0, err
		}
		return handleResult(nh, nil)
	})
	add("strong_count", func(rh resource.Handle) (int32, error) {
		s, _, err := t.Counts(rh)
		return int32(s), err
	})
	add("weak_count", func(rh resource.Handle) (int32, error) {
		_, w, err := t.Counts(rh)
		return int32(w), err
	})
	add("type", func(rh resource.Handle) (int32, error) {
		typeID, _, err := t.TypeOf(rh)
		if err == nil && typeID > math.MaxInt32 {
			return 0, errors.InvalidInput(errors.PhaseHandle, "type id does not fit in i32")
		}
		return int32(typeID), err
	})
	add("borrow", func(rh resource.Handle) (int32, error) {
		return int32(StatusOK), t.Borrow(rh)
	})
	add("end_borrow", func(rh resource.Handle) (int32, error) {
		return int32(StatusOK), t.EndBorrow(rh)
	})
}

func (h *Host) wrap(f hostFunc) api.GoModuleFunc {
	return func(_ context.Context, _ api.Module, stack []uint64) {
		rh := resource.Handle(api.DecodeU32(stack[0]))
		res, err := f.fn(rh)
		if err != nil {
			st := statusOf(err)
			if ce := h.logger.Check(zap.DebugLevel, "guest call failed"); ce != nil {
				ce.Write(
					zap.String("func", f.name),
					zap.Uint32("handle", uint32(rh)),
					zap.Stringer("status", st),
					zap.Error(err),
				)
			}
			res = int32(st)
		}
		stack[0] = api.EncodeI32(res)
	}
}

// Instantiate registers the host module in r. Guests importing from
// ModuleName must be instantiated afterwards.
func (h *Host) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(h.name)
	for _, f := range h.funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(h.wrap(f), f.params, f.results).
			Export(f.name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHandle, errors.KindInvalidInput, err, "instantiate host module "+h.name)
	}
	return mod, nil
}
