package gpu

import "unsafe"

// Bytes reinterprets a slice of plain values (vertex structs, indices, float
// arrays) as its backing bytes without copying.
func Bytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}
