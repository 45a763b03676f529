package kernels

import (
	"math/rand"
	"testing"
)

func randomPayload(n int) []byte {
	vals := make([]float32, n)
	for i := range vals {
		vals[i] = rand.Float32()*200 - 100 // Range: -100 to 100
	}
	return encode(vals...)
}

func BenchmarkReLU_1K(b *testing.B) {
	data := randomPayload(1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		relu(data)
	}
}

func BenchmarkVectorAdd_16K(b *testing.B) {
	data := randomPayload(16384)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vectorAdd(data)
	}
}

// Direct native call vs. the same kernel reached through the boxed adapter
func BenchmarkCall_Unboxed(b *testing.B) {
	f := FromUnboxed("relu", relu)
	data := randomPayload(256)
	fn := f.Unboxed()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fn(data)
	}
}

func BenchmarkCall_BoxedAdapter(b *testing.B) {
	f := FromUnboxed("relu", relu)
	f.SetManuallyBoxed(ByteStackAdapter)
	data := randomPayload(256)
	stack := make(Stack, 0, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		stack = append(stack[:0], data)
		if err := f.CallBoxed(&stack); err != nil {
			b.Fatal(err)
		}
	}
}
