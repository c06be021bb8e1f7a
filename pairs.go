package msgskema

import "reflect"

// Pair is one entry of Pairs.
type Pair struct {
	Key   any
	Value any
}

// Pairs is an order-preserving mapping. Map schemas pack it in slice order.
type Pairs []Pair

// PairsOf builds Pairs from alternating key, value elements. It panics on an
// odd element count; use a map schema's CreateFromMap for untrusted input.
func PairsOf(kv ...any) Pairs {
	if len(kv)%2 != 0 {
		panic("msgskema: PairsOf requires an even number of elements")
	}
	out := make(Pairs, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		out = append(out, Pair{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

// Get returns the value of the first pair whose key equals k. Keys of
// non-comparable types never match.
func (ps Pairs) Get(k any) (any, bool) {
	if t := reflect.TypeOf(k); t != nil && !t.Comparable() {
		return nil, false
	}
	for _, p := range ps {
		if p.Key == k {
			return p.Value, true
		}
	}
	return nil, false
}
