package store

import "strconv"

// String is a mutable byte sequence, the value behind SET/GET/INCR.
type String struct {
	data []byte
}

func NewString(b []byte) *String {
	return &String{data: b}
}

func (s *String) Bytes() []byte {
	return s.data
}

func (s *String) Set(b []byte) {
	s.data = b
}

// Incr parses the current bytes as a signed 64-bit decimal integer, adds
// one, and re-encodes the result as decimal ASCII, replacing the stored
// bytes. On failure the string is left unmutated and ErrNotInteger is
// returned.
func (s *String) Incr() (int64, error) {
	n, err := strconv.ParseInt(string(s.data), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	n++
	s.data = []byte(strconv.FormatInt(n, 10))
	return n, nil
}
