// Package dispatch implements the per-operator dispatch table.
//
// A Table routes an operator invocation to the kernel registered for a
// dispatch key, with a single catch-all kernel as fallback. Keyed kernels live
// in a SlotMap: a fixed array indexed by core.DispatchKey, so a lookup on the
// call path is one bounds check and one load.
//
// Error policy:
//   - Programming errors panic: storing at core.Undefined, installing a
//     retrofit twice, removing a catch-all that is not there.
//   - Registering an invalid (zero-value) kernel also panics. This is an
//     extra check on top of the three cases above, so an occupied slot always
//     holds a callable kernel.
//   - Absence is a normal result: Lookup returns a zero Function and false,
//     and keyed removal reports KernelDidNotExist.
//   - Overwriting a kernel is allowed (last write wins) but logged as a
//     warning, since it usually means a double registration.
//
// Concurrency: a Table does no locking. Writers (SetKernel, RemoveKernelIfExists,
// SetCatchallKernel, RemoveCatchallKernel, InstallRetrofit) must be
// serialized by the owner. With no writer in flight, any number of goroutines
// may read.
//
// Catch-all and keyed kernels may coexist. An operator is expected to use one
// style or the other, but the table does not enforce it.
package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sbl8/opdispatch/core"
	"github.com/sbl8/opdispatch/internal/observability"
	"github.com/sbl8/opdispatch/kernels"
	"github.com/sbl8/opdispatch/model"
)

// CatchallMarker terminates ListAllDispatchKeys output when a catch-all is set.
const CatchallMarker = "CATCH-ALL"

// Option configures a Table.
type Option func(*Table)

// WithLogger routes overwrite warnings to logger instead of the global one.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Table) { t.logger = logger }
}

// WithMetrics toggles Prometheus counters (enabled by default).
func WithMetrics(enabled bool) Option {
	return func(t *Table) { t.metrics = enabled }
}

// Table is the dispatch table of one operator.
type Table struct {
	slots     SlotMap
	catchall  *kernels.Function
	extractor *model.KeyExtractor
	name      string
	retrofit  kernels.BoxedFunc

	logger  zerolog.Logger
	metrics bool
}

// New builds an empty table for the operator described by schema.
func New(schema model.Schema, opts ...Option) *Table {
	t := &Table{
		extractor: model.NewKeyExtractor(schema),
		name:      schema.Operator.String(),
		logger:    log.Logger,
		metrics:   true,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With().Str("operator", t.name).Logger()
	return t
}

// SetKernel registers kernel for key. An installed retrofit is applied
// first. Replacing an existing kernel succeeds but logs a warning.
func (t *Table) SetKernel(key core.DispatchKey, kernel kernels.Function) SetKernelResult {
	if !key.IsValid() {
		panic(fmt.Sprintf("dispatch: operator %s: cannot register a kernel for dispatch key %s", t.name, key))
	}
	t.mustBeValid(kernel, key.String())
	t.applyRetrofit(&kernel)

	result := t.slots.SetKernel(key, kernel)
	overwrote := result == OverwroteExistingKernel
	if overwrote {
		t.logger.Warn().
			Str("dispatch_key", key.String()).
			Uint8("dispatch_key_id", uint8(key)).
			Msg("registered a kernel that overwrote a previously registered kernel with the same dispatch key for the same operator")
	}
	if t.metrics {
		observability.RecordRegistration(t.name, observability.SlotKeyed, overwrote)
	}
	return result
}

// RemoveKernelIfExists deregisters the kernel for key, if any.
func (t *Table) RemoveKernelIfExists(key core.DispatchKey) RemoveKernelResult {
	return t.slots.RemoveIfExists(key)
}

// SetCatchallKernel registers the kernel used independent of dispatch key.
// Replacing an existing catch-all succeeds but logs a warning.
func (t *Table) SetCatchallKernel(kernel kernels.Function) {
	t.mustBeValid(kernel, CatchallMarker)
	overwrote := t.catchall != nil
	if overwrote {
		t.logger.Warn().Msg("registered a catch-all kernel that overwrote a previously registered catch-all kernel for the same operator")
	}
	t.applyRetrofit(&kernel)
	t.catchall = &kernel
	if t.metrics {
		observability.RecordRegistration(t.name, observability.SlotCatchall, overwrote)
	}
}

// RemoveCatchallKernel clears the catch-all kernel. It panics if none is
// registered.
func (t *Table) RemoveCatchallKernel() {
	if t.catchall == nil {
		panic(fmt.Sprintf("dispatch: operator %s: tried to remove the catch-all kernel but there is no catch-all kernel registered", t.name))
	}
	t.catchall = nil
}

// IsEmpty reports whether the table holds no kernel at all.
func (t *Table) IsEmpty() bool {
	return t.catchall == nil && t.slots.Size() == 0
}

// Size returns the number of keyed kernels. The catch-all is not counted.
func (t *Table) Size() int { return t.slots.Size() }

// Lookup returns a copy of the kernel registered for key. Writing to the
// copy does not affect the table.
func (t *Table) Lookup(key core.DispatchKey) (kernels.Function, bool) {
	k := t.slots.At(key)
	if k == nil {
		return kernels.Function{}, false
	}
	return *k, true
}

// LookupCatchallKernel returns a copy of the catch-all kernel.
func (t *Table) LookupCatchallKernel() (kernels.Function, bool) {
	if t.catchall == nil {
		return kernels.Function{}, false
	}
	return *t.catchall, true
}

// KeyExtractor returns the extraction policy built from the schema.
func (t *Table) KeyExtractor() *model.KeyExtractor { return t.extractor }

// Name returns the operator display name.
func (t *Table) Name() string { return t.name }

// HasRetrofit reports whether InstallRetrofit has been called.
func (t *Table) HasRetrofit() bool { return t.retrofit != nil }

// DispatchKeys returns the occupied keys in ascending order.
func (t *Table) DispatchKeys() []core.DispatchKey {
	keys := make([]core.DispatchKey, 0, t.slots.Size())
	for k := core.DispatchKey(0); k < core.NumDispatchKeys; k++ {
		if t.slots.At(k) != nil {
			keys = append(keys, k)
		}
	}
	return keys
}

// ListAllDispatchKeys renders the occupied keys for diagnostics, e.g.
// "[0, 2, CATCH-ALL]". Keys are ascending; the marker is last.
func (t *Table) ListAllDispatchKeys() string {
	var b strings.Builder
	b.WriteByte('[')
	first := true
	for _, k := range t.DispatchKeys() {
		if !first {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(int(k)))
		first = false
	}
	if t.catchall != nil {
		if !first {
			b.WriteString(", ")
		}
		b.WriteString(CatchallMarker)
	}
	b.WriteByte(']')
	return b.String()
}

// InstallRetrofit records adapter as the calling-convention retrofit for
// this operator and applies it to every registered kernel, keyed and
// catch-all. Kernels registered later receive it on registration.
// It panics if a retrofit is already installed or adapter is nil.
//
// This bridges kernels that only have a native entry point to the boxed
// convention; it can go once every kernel is boxed natively.
func (t *Table) InstallRetrofit(adapter kernels.BoxedFunc) {
	if adapter == nil {
		panic(fmt.Sprintf("dispatch: operator %s: retrofit adapter is nil", t.name))
	}
	if t.retrofit != nil {
		panic(fmt.Sprintf("dispatch: operator %s: cannot install multiple retrofit adapters", t.name))
	}
	t.retrofit = adapter

	applied := 0
	for k := core.DispatchKey(0); k < core.NumDispatchKeys; k++ {
		if kernel := t.slots.At(k); kernel != nil {
			kernel.SetManuallyBoxed(adapter)
			applied++
		}
	}
	if t.catchall != nil {
		t.catchall.SetManuallyBoxed(adapter)
		applied++
	}
	t.logger.Debug().Int("kernels", applied).Msg("installed calling-convention retrofit")
	if t.metrics {
		observability.RecordRetrofit(t.name, applied)
	}
}

func (t *Table) applyRetrofit(kernel *kernels.Function) {
	if t.retrofit != nil {
		kernel.SetManuallyBoxed(t.retrofit)
	}
}

func (t *Table) mustBeValid(kernel kernels.Function, slot string) {
	if !kernel.IsValid() {
		panic(fmt.Sprintf("dispatch: operator %s: cannot register an invalid kernel for %s", t.name, slot))
	}
}
