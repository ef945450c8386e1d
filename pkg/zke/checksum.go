// SPDX-License-Identifier: MIT

package zke

// Checksum computes the frame integrity value used by ZKETech equipment:
// the XOR of all payload bytes, reduced modulo 240. The payload is every
// byte strictly between the begin and end markers, checksum field excluded.
func Checksum(payload []byte) byte {
	var x byte
	for _, b := range payload {
		x ^= b
	}
	return x % 240
}
