package resp

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	pgproto3 "github.com/jackc/pgproto3/v2"
)

// Decoder pulls one tagged Value at a time off a byte stream. It reads
// through a pgproto3.ChunkReader rather than a hand-rolled bufio wrapper:
// ChunkReader already gives exactly the primitive framed protocols need —
// "hand me the next N bytes" — without forcing an allocation per read, the
// same reason the teacher's postgres relay uses it for its own framing.
type Decoder struct {
	cr pgproto3.ChunkReader
}

// NewDecoder wraps r for frame-at-a-time decoding.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{cr: pgproto3.NewChunkReader(r)}
}

// Decode reads exactly one tagged value. A clean close before any byte of
// a new frame is read is reported as io.EOF; a close in the middle of a
// frame is reported as ErrIncomplete; a syntactically invalid frame is
// reported as ErrMalformed.
func (d *Decoder) Decode() (Value, error) {
	tag, err := d.cr.Next(1)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, io.EOF
		}
		return Value{}, fmt.Errorf("resp: read tag: %w", err)
	}

	header, err := d.readLine()
	if err != nil {
		return Value{}, d.incomplete("read header", err)
	}

	switch tag[0] {
	case byte(SimpleString):
		return Value{Type: SimpleString, Str: string(header)}, nil

	case byte(Error):
		return Value{Type: Error, Str: string(header)}, nil

	case byte(Integer):
		n, ok := parseInt64(header)
		if !ok {
			return Value{}, ErrMalformed
		}
		return Value{Type: Integer, Int: n}, nil

	case byte(Bulk):
		return d.decodeBulk(header)

	case byte(Array):
		return d.decodeArray(header)

	default:
		return Value{}, ErrMalformed
	}
}

func (d *Decoder) decodeBulk(header []byte) (Value, error) {
	n, ok := parseInt64(header)
	if !ok {
		return Value{}, ErrMalformed
	}
	if n == -1 {
		return NullBulk(), nil
	}
	if n < 0 {
		return Value{}, ErrMalformed
	}

	payload, err := d.cr.Next(int(n) + 2)
	if err != nil {
		return Value{}, d.incomplete("read bulk payload", err)
	}
	if payload[n] != '\r' || payload[n+1] != '\n' {
		return Value{}, ErrMalformed
	}

	// payload is only valid until the next read off the ChunkReader, so it
	// must be copied before this call returns.
	buf := make([]byte, n)
	copy(buf, payload[:n])
	return NewBulk(buf), nil
}

func (d *Decoder) decodeArray(header []byte) (Value, error) {
	n, ok := parseInt64(header)
	if !ok {
		return Value{}, ErrMalformed
	}
	if n == -1 {
		return NullArray(), nil
	}
	if n < 0 {
		return Value{}, ErrMalformed
	}

	elems := make([]Value, n)
	for i := range elems {
		v, err := d.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Value{}, fmt.Errorf("resp: read array element %d: %w", i, ErrIncomplete)
			}
			return Value{}, err
		}
		elems[i] = v
	}
	return Value{Type: Array, Array: elems}, nil
}

// readLine reads bytes up to and including the next '\n', and returns them
// with a trailing "\r\n" or "\n" stripped.
func (d *Decoder) readLine() ([]byte, error) {
	var buf []byte
	for {
		b, err := d.cr.Next(1)
		if err != nil {
			return nil, err
		}
		if b[0] == '\n' {
			if len(buf) > 0 && buf[len(buf)-1] == '\r' {
				buf = buf[:len(buf)-1]
			}
			return buf, nil
		}
		buf = append(buf, b[0])
	}
}

func (d *Decoder) incomplete(where string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("resp: %s: %w", where, ErrIncomplete)
	}
	return fmt.Errorf("resp: %s: %w", where, err)
}

func parseInt64(b []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DecodeCommand reads one top-level value and asserts it is an array of
// bulk strings, returning the bulk payloads in order. Any other top-level
// shape is ErrNotCommand, per spec.md §4.1.
func DecodeCommand(d *Decoder) ([][]byte, error) {
	v, err := d.Decode()
	if err != nil {
		return nil, err
	}
	if v.Type != Array || v.Null {
		return nil, ErrNotCommand
	}
	args := make([][]byte, len(v.Array))
	for i, el := range v.Array {
		if el.Type != Bulk || el.Null {
			return nil, ErrNotCommand
		}
		args[i] = el.Bulk
	}
	return args, nil
}
