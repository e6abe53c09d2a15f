// Package store implements the typed values a Database holds: String,
// List, SortedSet, and Stream, along with the expiry deadline type shared
// by every key. Each type's invariants are exactly spec.md §4.2; none of
// them need a third-party dependency — they're byte-slice and map
// bookkeeping, the same territory query/normalize.go and query/bind.go
// cover by hand rather than with a library.
package store

import "errors"

// ErrNotInteger is returned by String.Incr when the stored bytes do not
// parse as a signed 64-bit decimal integer. The string is left untouched.
var ErrNotInteger = errors.New("value is not an integer or out of range")

// ErrNotFound is returned by SortedSet lookups (score, rank) for members
// that are not present.
var ErrNotFound = errors.New("no such member")

// ErrStreamIDTooSmall is returned by Stream.Add when the given id is not
// strictly greater than the stream's last id (spec.md §4.2, §8 boundary:
// "XADD with 0-0 ⇒ error regardless of stream state" falls out of this
// automatically, since 0-0 can never exceed an initial last id of 0-0).
var ErrStreamIDTooSmall = errors.New("The ID specified in XADD is equal or smaller than the target stream top item")
