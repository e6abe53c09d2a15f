package resp_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/rkvdb/rkv/resp"
)

func roundTrip(t *testing.T, v resp.Value) resp.Value {
	t.Helper()
	var buf bytes.Buffer
	if err := resp.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := resp.NewDecoder(&buf).Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return got
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    resp.Value
	}{
		{"simple string", resp.NewSimpleString("OK")},
		{"error", resp.NewError("ERR bad thing")},
		{"integer", resp.NewInteger(-42)},
		{"bulk", resp.NewBulkString("hello")},
		{"empty bulk", resp.NewBulkString("")},
		{"null bulk", resp.NullBulk()},
		{"null array", resp.NullArray()},
		{"array", resp.NewArray(resp.NewBulkString("a"), resp.NewInteger(1))},
		{"empty array", resp.NewArray()},
		{"binary-unsafe bulk", resp.NewBulk([]byte{0x00, '\r', '\n', 0xff})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := roundTrip(t, tt.v)
			if !valuesEqual(got, tt.v) {
				t.Errorf("round trip = %+v, want %+v", got, tt.v)
			}
		})
	}
}

func valuesEqual(a, b resp.Value) bool {
	if a.Type != b.Type || a.Null != b.Null {
		return false
	}
	switch a.Type {
	case resp.SimpleString, resp.Error:
		return a.Str == b.Str
	case resp.Integer:
		return a.Int == b.Int
	case resp.Bulk:
		return bytes.Equal(a.Bulk, b.Bulk)
	case resp.Array:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !valuesEqual(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		frame string
	}{
		{"unknown tag", "!OK\r\n"},
		{"non-numeric bulk length", "$abc\r\n"},
		{"missing bulk terminator", "$3\r\nabcXX"},
		{"non-numeric array length", "*x\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := resp.NewDecoder(bytes.NewBufferString(tt.frame)).Decode()
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
		})
	}
}

func TestDecodeIncomplete(t *testing.T) {
	t.Parallel()

	_, err := resp.NewDecoder(bytes.NewBufferString("$5\r\nab")).Decode()
	if !errors.Is(err, resp.ErrIncomplete) {
		t.Fatalf("got %v, want ErrIncomplete", err)
	}
}

func TestDecodeEOFBetweenFrames(t *testing.T) {
	t.Parallel()

	_, err := resp.NewDecoder(bytes.NewBufferString("")).Decode()
	if !errors.Is(err, io.EOF) {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestDecodeCommand(t *testing.T) {
	t.Parallel()

	d := resp.NewDecoder(bytes.NewBufferString("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"))
	args, err := resp.DecodeCommand(d)
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if len(args) != 2 || string(args[0]) != "GET" || string(args[1]) != "foo" {
		t.Fatalf("got %q", args)
	}
}

func TestDecodeCommandRejectsNonArray(t *testing.T) {
	t.Parallel()

	d := resp.NewDecoder(bytes.NewBufferString("+PING\r\n"))
	if _, err := resp.DecodeCommand(d); !errors.Is(err, resp.ErrNotCommand) {
		t.Fatalf("got %v, want ErrNotCommand", err)
	}
}
