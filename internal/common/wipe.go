// Package common holds small helpers shared across client layers.
package common

// WipeByteArray overwrites the slice contents with zeros. Used for password
// buffers once they are no longer needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
