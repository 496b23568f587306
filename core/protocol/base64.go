// File: core/protocol/base64.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "encoding/base64"

// Base64Len returns the encoded length of n raw bytes: 4*ceil(n/3).
func Base64Len(n int) int { return base64.StdEncoding.EncodedLen(n) }

// EncodeBase64 writes the padded standard-alphabet encoding of src into dst
// and returns the number of bytes written. dst must hold Base64Len(len(src)).
func EncodeBase64(dst, src []byte) int {
	n := base64.StdEncoding.EncodedLen(len(src))
	base64.StdEncoding.Encode(dst[:n], src)
	return n
}
