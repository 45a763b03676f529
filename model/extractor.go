package model

// KeyExtractor is the dispatch key extraction policy for one operator. It is
// built once from the schema and records which argument positions carry
// dispatch-relevant values; computing the actual key from live arguments is
// left to the caller that owns the call path.
type KeyExtractor struct {
	numArgs      int
	dispatchArgs []int
}

// NewKeyExtractor derives the extraction policy from a schema.
func NewKeyExtractor(s Schema) *KeyExtractor {
	ke := &KeyExtractor{numArgs: len(s.Arguments)}
	for i, a := range s.Arguments {
		if a.IsTensor() {
			ke.dispatchArgs = append(ke.dispatchArgs, i)
		}
	}
	return ke
}

// NumArgs returns the operator's argument count.
func (ke *KeyExtractor) NumArgs() int { return ke.numArgs }

// DispatchArgIndices returns the positions of dispatch-relevant arguments in
// ascending order. The returned slice is a copy.
func (ke *KeyExtractor) DispatchArgIndices() []int {
	return append([]int(nil), ke.dispatchArgs...)
}

// ReverseIndices returns the dispatch-relevant positions counted from the top
// of a call stack, where the last argument sits at distance 0.
func (ke *KeyExtractor) ReverseIndices() []int {
	out := make([]int, len(ke.dispatchArgs))
	for i, idx := range ke.dispatchArgs {
		out[i] = ke.numArgs - 1 - idx
	}
	return out
}

// HasDispatchArgs reports whether any argument participates in dispatch.
// Operators without one can only be served by a catch-all kernel.
func (ke *KeyExtractor) HasDispatchArgs() bool { return len(ke.dispatchArgs) > 0 }
