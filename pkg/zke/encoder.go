// SPDX-License-Identifier: MIT

package zke

// Encode lays out a request as its 10-byte wire frame:
//
//	[250, code, p1_hi, p1_lo, p2_hi, p2_lo, p3_hi, p3_lo, checksum, 248]
//
// Requests built through NewRequest are always encodable; the frame is
// still re-validated after layout so that a self-built frame that does not
// round-trip is rejected rather than sent.
func Encode(r *Request) ([]byte, error) {
	buf := make([]byte, RequestFrameSize)
	buf[0] = BeginMarker
	buf[1] = byte(r.Code)
	buf[2], buf[3] = splitParam(r.P1)
	buf[4], buf[5] = splitParam(r.P2)
	buf[6], buf[7] = splitParam(r.P3)
	buf[8] = Checksum(buf[1:8])
	buf[9] = EndMarker

	if err := ValidateFrame(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
