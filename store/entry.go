package store

import "errors"

// ErrWrongType is returned whenever a command reads or writes a key
// whose stored Kind doesn't match the command's expected kind (spec.md
// §4.7: "Type mismatch on any typed read/write: reply -WRONGTYPE").
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// Kind tags which concrete type a Value currently holds.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindSortedSet
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSortedSet:
		return "zset"
	case KindStream:
		return "stream"
	}
	return "none"
}

// Value is the tagged union of the four concrete value kinds a key can
// hold (spec.md §3: "tagged union of {String, List, SortedSet, Stream}").
// Exactly one of the typed fields is non-nil, selected by Kind.
type Value struct {
	Kind      Kind
	String    *String
	List      *List
	SortedSet *SortedSet
	Stream    *Stream
}

func NewStringValue(v *String) Value       { return Value{Kind: KindString, String: v} }
func NewListValue(v *List) Value           { return Value{Kind: KindList, List: v} }
func NewSortedSetValue(v *SortedSet) Value { return Value{Kind: KindSortedSet, SortedSet: v} }
func NewStreamValue(v *Stream) Value       { return Value{Kind: KindStream, Stream: v} }

// AsString returns the String payload, or ErrWrongType if Kind differs.
func (v Value) AsString() (*String, error) {
	if v.Kind != KindString {
		return nil, ErrWrongType
	}
	return v.String, nil
}

func (v Value) AsList() (*List, error) {
	if v.Kind != KindList {
		return nil, ErrWrongType
	}
	return v.List, nil
}

func (v Value) AsSortedSet() (*SortedSet, error) {
	if v.Kind != KindSortedSet {
		return nil, ErrWrongType
	}
	return v.SortedSet, nil
}

func (v Value) AsStream() (*Stream, error) {
	if v.Kind != KindStream {
		return nil, ErrWrongType
	}
	return v.Stream, nil
}

// IsEmptyCollection reports whether v is a List or SortedSet that has
// become empty — the pop/remove-to-empty lifecycle spec.md §3 describes
// ("destroyed ... by becoming empty"). Strings and Streams never trigger
// this: an empty string is still a string, and spec.md leaves a drained
// stream's key present (only an explicit DEL removes it, per §9 Open
// Questions, applied uniformly here).
func (v Value) IsEmptyCollection() bool {
	switch v.Kind {
	case KindList:
		return v.List.IsEmpty()
	case KindSortedSet:
		return v.SortedSet.IsEmpty()
	default:
		return false
	}
}

// Entry is a stored Value together with its optional expiry deadline —
// spec.md §3's ExpiringValue.
type Entry struct {
	Value  Value
	Expiry Expiry
}

// Present reports whether e is logically present at the current instant:
// no expiry, or now is still before the deadline (spec.md §3 invariant 1).
func (e Entry) Present() bool {
	return !e.Expiry.HasPassed()
}
