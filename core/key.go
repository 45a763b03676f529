// Package core defines the dispatch key domain shared by every dispatch table.
//
// A DispatchKey is a small integer tag naming the backend or tensor type that
// is responsible for handling an operator's arguments. The domain is fixed at
// build time: valid keys are the dense range [0, NumDispatchKeys), which lets
// tables index kernels with a plain array instead of a map.
//
// One additional value, Undefined, marks "no key". It sits outside the dense
// range and is never storable.
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DispatchKey identifies a backend/type tag in the fixed dispatch domain.
type DispatchKey uint8

// Backend tags. Order is significant: it is the ascending order used by
// diagnostic listings.
const (
	CPU DispatchKey = iota
	CUDA
	HIP
	MKLDNN
	OpenGL
	OpenCL
	IDEEP
	SparseCPU
	SparseCUDA
	MSNPU
	XLA
	QuantizedCPU
	ComplexCPU
	ComplexCUDA
	Autograd
	TestingOnlyGenericWrapper
	TestingOnlyGenericMode

	// NumDispatchKeys is the size of the dense key domain.
	NumDispatchKeys
)

// Undefined is the reserved sentinel meaning "no dispatch key".
const Undefined DispatchKey = 0xFF

// ErrUnknownDispatchKey is returned by ParseDispatchKey for unrecognized names.
var ErrUnknownDispatchKey = errors.New("unknown dispatch key")

var keyNames = [NumDispatchKeys]string{
	CPU:                       "CPU",
	CUDA:                      "CUDA",
	HIP:                       "HIP",
	MKLDNN:                    "MKLDNN",
	OpenGL:                    "OpenGL",
	OpenCL:                    "OpenCL",
	IDEEP:                     "IDEEP",
	SparseCPU:                 "SparseCPU",
	SparseCUDA:                "SparseCUDA",
	MSNPU:                     "MSNPU",
	XLA:                       "XLA",
	QuantizedCPU:              "QuantizedCPU",
	ComplexCPU:                "ComplexCPU",
	ComplexCUDA:               "ComplexCUDA",
	Autograd:                  "Autograd",
	TestingOnlyGenericWrapper: "TestingOnlyGenericWrapper",
	TestingOnlyGenericMode:    "TestingOnlyGenericMode",
}

// IsValid reports whether k lies in the storable range [0, NumDispatchKeys).
func (k DispatchKey) IsValid() bool {
	return k < NumDispatchKeys
}

// String returns the backend name, "Undefined" for the sentinel, or a
// numeric form for values outside the domain.
func (k DispatchKey) String() string {
	switch {
	case k.IsValid():
		return keyNames[k]
	case k == Undefined:
		return "Undefined"
	default:
		return fmt.Sprintf("DispatchKey(%d)", uint8(k))
	}
}

// ParseDispatchKey resolves a backend name (case-insensitive) or its
// numeric form to a key. The Undefined sentinel is never returned.
func ParseDispatchKey(name string) (DispatchKey, error) {
	trimmed := strings.TrimSpace(name)
	for i, n := range keyNames {
		if strings.EqualFold(n, trimmed) {
			return DispatchKey(i), nil
		}
	}
	if id, err := strconv.ParseUint(trimmed, 10, 8); err == nil {
		if k := DispatchKey(id); k.IsValid() {
			return k, nil
		}
	}
	return Undefined, fmt.Errorf("%w: %q", ErrUnknownDispatchKey, name)
}

// AllDispatchKeys returns every storable key in ascending order.
func AllDispatchKeys() []DispatchKey {
	keys := make([]DispatchKey, 0, NumDispatchKeys)
	for k := DispatchKey(0); k < NumDispatchKeys; k++ {
		keys = append(keys, k)
	}
	return keys
}
