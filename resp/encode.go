package resp

import (
	"fmt"
	"io"
	"strconv"
)

// Encoder writes Values in the wire shapes decoded by Decoder. Encoding
// never builds an intermediate string for a bulk's payload body: the
// length header, the raw bytes, and the CRLF terminator are written as
// three separate writes.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) Encode(v Value) error {
	switch v.Type {
	case SimpleString:
		return e.writeLine('+', v.Str)
	case Error:
		return e.writeLine('-', v.Str)
	case Integer:
		return e.writeLine(':', strconv.FormatInt(v.Int, 10))
	case Bulk:
		return e.encodeBulk(v)
	case Array:
		return e.encodeArray(v)
	default:
		return fmt.Errorf("resp: encode: unknown value type %q", byte(v.Type))
	}
}

func (e *Encoder) writeLine(tag byte, s string) error {
	if _, err := e.w.Write([]byte{tag}); err != nil {
		return err
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, "\r\n")
	return err
}

func (e *Encoder) encodeBulk(v Value) error {
	if v.Null {
		_, err := io.WriteString(e.w, "$-1\r\n")
		return err
	}
	if _, err := io.WriteString(e.w, "$"+strconv.Itoa(len(v.Bulk))+"\r\n"); err != nil {
		return err
	}
	if _, err := e.w.Write(v.Bulk); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, "\r\n")
	return err
}

func (e *Encoder) encodeArray(v Value) error {
	if v.Null {
		_, err := io.WriteString(e.w, "*-1\r\n")
		return err
	}
	if _, err := io.WriteString(e.w, "*"+strconv.Itoa(len(v.Array))+"\r\n"); err != nil {
		return err
	}
	for _, el := range v.Array {
		if err := e.Encode(el); err != nil {
			return err
		}
	}
	return nil
}

// EncodeRaw writes a bulk-style header ("$<len>\r\n<bytes>") without the
// trailing CRLF. PSYNC's inline RDB transfer uses this shape (spec.md
// §4.7 step 7, §4.10 step 5): the payload is not itself a protocol frame.
func EncodeRaw(w io.Writer, payload []byte) error {
	if _, err := io.WriteString(w, "$"+strconv.Itoa(len(payload))+"\r\n"); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
