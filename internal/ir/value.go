package ir

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the types allowed in canonical form.
// Only String, Int, Bool, Array, and Object implement it. There is no
// float type: floats break determinism.
type Value interface {
	irValue()
}

// String is a canonical string value.
type String string

func (String) irValue() {}

// Int is a canonical integer value. Always int64.
type Int int64

func (Int) irValue() {}

// Bool is a canonical boolean value.
type Bool bool

func (Bool) irValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) irValue() {}

// Object maps string keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's native string order compares UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// CanonicalObject returns the canonical value of a WaveFunction.
// Both fields are rendered as 0x-prefixed hex so the form is pure ASCII.
func (w WaveFunction) CanonicalObject() Object {
	return Object{
		"author":   String(w.Author.String()),
		"function": String(EncodeHex(w.Function)),
	}
}

// CanonicalObject returns the canonical value of a journaled event.
func (e Event) CanonicalObject() Object {
	return Object{
		"seq":      Int(e.Seq),
		"call_id":  String(e.CallID),
		"name":     String(e.Name),
		"author":   String(e.Author.String()),
		"function": String(EncodeHex(e.Function)),
		"id":       String(e.ID.String()),
	}
}
