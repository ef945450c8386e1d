// SPDX-License-Identifier: MIT

package zke

// Request describes one request frame before encoding: a request code and
// three unsigned parameters. Parameter scaling differs per request code;
// the builders in commands.go apply it. A Request is built once per send
// and never mutated afterwards.
type Request struct {
	Code ReqCode
	P1   uint16
	P2   uint16
	P3   uint16
}

// NewRequest creates a request after range-checking the raw parameters.
// Each parameter must fit the protocol's hi/lo split, i.e. lie in
// [0, MaxParam]. Violations surface as *ParameterError, so Encode never
// sees an out-of-range request.
func NewRequest(code ReqCode, p1, p2, p3 int) (*Request, error) {
	for _, p := range []struct {
		name  string
		value int
	}{{"p1", p1}, {"p2", p2}, {"p3", p3}} {
		if p.value < 0 {
			return nil, parameterErrorf(p.name, "must not be negative, got %d", p.value)
		}
		if p.value > MaxParam {
			return nil, parameterErrorf(p.name, "must not exceed %d, got %d", MaxParam, p.value)
		}
	}
	return &Request{Code: code, P1: uint16(p1), P2: uint16(p2), P3: uint16(p3)}, nil
}

// splitParam splits a parameter into its hi/lo wire bytes (base 240).
func splitParam(v uint16) (hi, lo byte) {
	return byte(v / 240), byte(v % 240)
}
