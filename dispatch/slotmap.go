package dispatch

import (
	"fmt"

	"github.com/sbl8/opdispatch/core"
	"github.com/sbl8/opdispatch/kernels"
)

// SetKernelResult reports what SlotMap.SetKernel did.
type SetKernelResult uint8

// SetKernel outcomes.
const (
	AddedNewKernel SetKernelResult = iota
	OverwroteExistingKernel
)

func (r SetKernelResult) String() string {
	if r == OverwroteExistingKernel {
		return "overwrote existing kernel"
	}
	return "added new kernel"
}

// RemoveKernelResult reports what a keyed removal did.
type RemoveKernelResult uint8

// Keyed removal outcomes.
const (
	RemovedKernel RemoveKernelResult = iota
	KernelDidNotExist
)

func (r RemoveKernelResult) String() string {
	if r == KernelDidNotExist {
		return "kernel did not exist"
	}
	return "removed kernel"
}

// SlotMap holds at most one kernel per dispatch key. A nil slot is empty.
// count always equals the number of non-nil slots.
type SlotMap struct {
	slots [core.NumDispatchKeys]*kernels.Function
	count int
}

// SetKernel stores kernel at key, replacing any previous kernel.
// It panics if key is outside the dispatch domain or kernel is invalid.
func (m *SlotMap) SetKernel(key core.DispatchKey, kernel kernels.Function) SetKernelResult {
	if !key.IsValid() {
		panic(fmt.Sprintf("dispatch: cannot store a kernel at dispatch key %s", key))
	}
	if !kernel.IsValid() {
		panic(fmt.Sprintf("dispatch: cannot store an invalid kernel at dispatch key %s", key))
	}
	result := OverwroteExistingKernel
	if m.slots[key] == nil {
		result = AddedNewKernel
		m.count++
	}
	m.slots[key] = &kernel
	return result
}

// RemoveIfExists clears the slot at key. Keys outside the domain hold
// nothing and report KernelDidNotExist.
func (m *SlotMap) RemoveIfExists(key core.DispatchKey) RemoveKernelResult {
	if !key.IsValid() || m.slots[key] == nil {
		return KernelDidNotExist
	}
	m.slots[key] = nil
	m.count--
	return RemovedKernel
}

// At returns the kernel stored at key, or nil. The returned kernel may be
// modified in place.
func (m *SlotMap) At(key core.DispatchKey) *kernels.Function {
	if !key.IsValid() {
		return nil
	}
	return m.slots[key]
}

// Size returns the number of occupied slots.
func (m *SlotMap) Size() int { return m.count }
