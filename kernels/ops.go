// Package kernels provides the kernel value type stored by dispatch tables
// and a small catalog of stock CPU kernels.
//
// A kernel has up to two entry points:
//   - unboxed: the native in-place convention, func([]byte), operating on a
//     little-endian float32 payload with no allocations
//   - boxed: the uniform convention, taking a Stack of values
//
// Kernels written before the boxed convention existed only carry the unboxed
// entry point. Dispatch tables can retrofit them with a BoxedFunc adapter
// (see ByteStackAdapter) so that every kernel of an operator is callable
// through the same path.
//
// Stock kernels (Catalog):
//   - Elementwise: noop, sqr_plus_x, relu, sigmoid, tanh
//   - Binary (payload holds [a..][b..]): add, mul
//   - Aggregations (result in first element): sum, max
//   - Normalization: softmax
package kernels

import (
	"encoding/binary"
	"math"
	"sort"
)

// KernelFn operates in-place on a float32 payload with zero allocations.
type KernelFn func(data []byte)

const sz = 4 // float32

// Catalog maps stock kernel names to their native implementations.
var Catalog = map[string]KernelFn{
	"noop":       noop,
	"sqr_plus_x": sqrPlusX,
	"relu":       relu,
	"sigmoid":    sigmoid,
	"tanh":       tanh,
	"add":        vectorAdd,
	"mul":        vectorMul,
	"sum":        vectorSum,
	"max":        vectorMax,
	"softmax":    softmax,
}

// Lookup returns the stock kernel registered under name as a Function.
func Lookup(name string) (Function, bool) {
	fn, ok := Catalog[name]
	if !ok {
		return Function{}, false
	}
	return FromUnboxed(name, fn), true
}

// Names returns the stock kernel names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Catalog))
	for n := range Catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func load(data []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[i*sz:]))
}

func store(data []byte, i int, v float32) {
	binary.LittleEndian.PutUint32(data[i*sz:], math.Float32bits(v))
}

// -------- Elementwise ----------

func noop(data []byte) {}

func mapInPlace(data []byte, f func(float32) float32) {
	count := len(data) / sz
	for i := 0; i < count; i++ {
		store(data, i, f(load(data, i)))
	}
}

func sqrPlusX(data []byte) {
	mapInPlace(data, func(x float32) float32 { return x*x + x })
}

func relu(data []byte) {
	mapInPlace(data, func(x float32) float32 {
		if x < 0 {
			return 0
		}
		return x
	})
}

// sigmoid uses the x / (1 + |x|) approximation.
func sigmoid(data []byte) {
	mapInPlace(data, func(x float32) float32 {
		if x >= 0 {
			return x / (1 + x)
		}
		return x / (1 - x)
	})
}

// tanh uses a rational approximation.
func tanh(data []byte) {
	mapInPlace(data, func(x float32) float32 {
		x2 := x * x
		return x * (27 + x2) / (27 + 9*x2)
	})
}

// -------- Binary: layout [a0,a1,..][b0,b1,..], result in a ----------

func zipInPlace(data []byte, f func(a, b float32) float32) {
	half := len(data) / 2
	count := half / sz
	b := data[half:]
	for i := 0; i < count; i++ {
		store(data, i, f(load(data, i), load(b, i)))
	}
}

func vectorAdd(data []byte) {
	zipInPlace(data, func(a, b float32) float32 { return a + b })
}

func vectorMul(data []byte) {
	zipInPlace(data, func(a, b float32) float32 { return a * b })
}

// -------- Aggregations: result in first element ----------

func vectorSum(data []byte) {
	count := len(data) / sz
	if count == 0 {
		return
	}
	var sum float32
	for i := 0; i < count; i++ {
		sum += load(data, i)
	}
	store(data, 0, sum)
}

func vectorMax(data []byte) {
	count := len(data) / sz
	if count == 0 {
		return
	}
	maxVal := float32(math.Inf(-1))
	for i := 0; i < count; i++ {
		if v := load(data, i); v > maxVal {
			maxVal = v
		}
	}
	store(data, 0, maxVal)
}

// softmax is numerically stable: inputs are shifted by their maximum.
func softmax(data []byte) {
	count := len(data) / sz
	if count == 0 {
		return
	}
	maxVal := float32(math.Inf(-1))
	for i := 0; i < count; i++ {
		if v := load(data, i); v > maxVal {
			maxVal = v
		}
	}
	var sum float32
	for i := 0; i < count; i++ {
		e := float32(math.Exp(float64(load(data, i) - maxVal)))
		store(data, i, e)
		sum += e
	}
	inv := 1 / sum
	for i := 0; i < count; i++ {
		store(data, i, load(data, i)*inv)
	}
}
