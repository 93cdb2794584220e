package xstring

import "unsafe"

// ToBytes shares the memory of s. The result must not be modified.
func ToBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
