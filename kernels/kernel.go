package kernels

import (
	"errors"
	"fmt"
)

// Stack is the argument/return stack used by the boxed calling convention.
// Arguments are pushed in schema order; results replace them.
type Stack []any

// Push appends values to the top of the stack.
func (s *Stack) Push(vals ...any) { *s = append(*s, vals...) }

// Pop removes and returns the top value.
func (s *Stack) Pop() (any, bool) {
	if len(*s) == 0 {
		return nil, false
	}
	top := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return top, true
}

// BoxedFunc is the uniform calling convention. It receives the kernel being
// invoked so that a single adapter can serve every kernel of an operator.
type BoxedFunc func(k *Function, stack *Stack) error

// ErrNotBoxed is returned by CallBoxed when a kernel has neither a native
// boxed entry point nor a retrofit adapter.
var ErrNotBoxed = errors.New("kernel has no boxed entry point")

// Function is an opaque kernel value. The zero value is invalid (empty).
// Function is copied by value into dispatch tables; once stored, a table
// owns its copy and may retrofit it in place.
type Function struct {
	name          string
	unboxed       KernelFn
	boxed         BoxedFunc
	manuallyBoxed BoxedFunc
}

// FromUnboxed wraps a native in-place kernel.
func FromUnboxed(name string, fn KernelFn) Function {
	return Function{name: name, unboxed: fn}
}

// FromBoxed wraps a kernel that natively speaks the boxed convention.
func FromBoxed(name string, fn BoxedFunc) Function {
	return Function{name: name, boxed: fn}
}

// IsValid reports whether the kernel has an entry point.
func (f *Function) IsValid() bool {
	return f != nil && (f.unboxed != nil || f.boxed != nil)
}

// Name returns the label the kernel was created with.
func (f *Function) Name() string { return f.name }

// Unboxed returns the native entry point, or nil.
func (f *Function) Unboxed() KernelFn { return f.unboxed }

// HasBoxed reports whether the kernel can be called through CallBoxed.
func (f *Function) HasBoxed() bool {
	return f.boxed != nil || f.manuallyBoxed != nil
}

// IsRetrofitted reports whether a calling-convention adapter was installed.
func (f *Function) IsRetrofitted() bool { return f.manuallyBoxed != nil }

// SetManuallyBoxed installs the calling-convention adapter used by
// CallBoxed when the kernel has no native boxed entry point.
func (f *Function) SetManuallyBoxed(adapter BoxedFunc) {
	f.manuallyBoxed = adapter
}

// CallBoxed invokes the kernel through the uniform convention. A native
// boxed entry point wins over the retrofit adapter.
func (f *Function) CallBoxed(stack *Stack) error {
	switch {
	case f.boxed != nil:
		return f.boxed(f, stack)
	case f.manuallyBoxed != nil:
		return f.manuallyBoxed(f, stack)
	default:
		return fmt.Errorf("%s: %w", f.name, ErrNotBoxed)
	}
}

// String implements fmt.Stringer.
func (f *Function) String() string {
	if !f.IsValid() {
		return "<invalid kernel>"
	}
	return f.name
}

// ByteStackAdapter bridges the boxed convention to the native in-place
// convention: it pops a []byte payload, runs the unboxed kernel over it and
// pushes the payload back.
func ByteStackAdapter(k *Function, stack *Stack) error {
	if k.unboxed == nil {
		return fmt.Errorf("%s: no unboxed entry point to adapt", k.name)
	}
	top, ok := stack.Pop()
	if !ok {
		return fmt.Errorf("%s: empty stack", k.name)
	}
	data, ok := top.([]byte)
	if !ok {
		return fmt.Errorf("%s: expected []byte payload, got %T", k.name, top)
	}
	k.unboxed(data)
	stack.Push(data)
	return nil
}
