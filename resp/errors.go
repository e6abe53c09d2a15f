package resp

import "errors"

// ErrMalformed is returned when a frame's tag, length, or terminator does
// not match the grammar in spec.md §4.1 (unknown tag, non-numeric length,
// a bulk payload missing its trailing CRLF, and so on).
var ErrMalformed = errors.New("resp: malformed frame")

// ErrIncomplete is returned when the underlying stream ends in the middle
// of a frame. A clean close between frames surfaces as io.EOF instead, so
// callers can distinguish "nothing more to read" from "the peer vanished
// mid-command".
var ErrIncomplete = errors.New("resp: incomplete frame")

// ErrNotCommand is returned by DecodeCommand when the top-level value
// decoded is not an array of bulk strings, per spec.md §4.1: "Command
// requests are always arrays of bulk strings; any other top-level shape
// at the command boundary is a protocol error."
var ErrNotCommand = errors.New("resp: command must be an array of bulk strings")
