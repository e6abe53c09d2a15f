package command

import (
	"strconv"

	"github.com/rkvdb/rkv/resp"
	"github.com/rkvdb/rkv/store"
)

// DelCommand implements DEL key [key ...].
type DelCommand struct {
	Keys [][]byte
}

func parseDel(args [][]byte) (Command, error) {
	if len(args) < 1 {
		return nil, usageError("DEL", "DEL key [key ...]")
	}
	return &DelCommand{Keys: args}, nil
}

func (c *DelCommand) Execute(ctx *Context) resp.Value {
	n := 0
	for _, k := range c.Keys {
		if ctx.DB.Delete(string(k)) {
			n++
		}
	}
	return resp.NewInteger(int64(n))
}

func (c *DelCommand) IsWrite() bool { return true }

func (c *DelCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray(append([][]byte{[]byte("DEL")}, c.Keys...)...)
}

// ExistsCommand implements EXISTS key [key ...], counting each repeated
// key argument again if it is present (matching the ecosystem's own
// multi-key EXISTS semantics).
type ExistsCommand struct {
	Keys [][]byte
}

func parseExists(args [][]byte) (Command, error) {
	if len(args) < 1 {
		return nil, usageError("EXISTS", "EXISTS key [key ...]")
	}
	return &ExistsCommand{Keys: args}, nil
}

func (c *ExistsCommand) Execute(ctx *Context) resp.Value {
	n := 0
	for _, k := range c.Keys {
		if _, ok := ctx.DB.Get(string(k)); ok {
			n++
		}
	}
	return resp.NewInteger(int64(n))
}

func (c *ExistsCommand) IsWrite() bool { return false }

func (c *ExistsCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray(append([][]byte{[]byte("EXISTS")}, c.Keys...)...)
}

// TypeCommand implements TYPE key.
type TypeCommand struct {
	Key []byte
}

func parseType(args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, usageError("TYPE", "TYPE key")
	}
	return &TypeCommand{Key: args[0]}, nil
}

func (c *TypeCommand) Execute(ctx *Context) resp.Value {
	e, ok := ctx.DB.Get(string(c.Key))
	if !ok {
		return resp.NewSimpleString("none")
	}
	return resp.NewSimpleString(e.Value.Kind.String())
}

func (c *TypeCommand) IsWrite() bool { return false }

func (c *TypeCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("TYPE"), c.Key)
}

// KeysCommand implements KEYS pattern, glob-matching each live key's raw
// bytes with fnmatch-style wildcards ('*', '?', '[...]').
type KeysCommand struct {
	Pattern []byte
}

func parseKeys(args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, usageError("KEYS", "KEYS pattern")
	}
	return &KeysCommand{Pattern: args[0]}, nil
}

func (c *KeysCommand) Execute(ctx *Context) resp.Value {
	var matched [][]byte
	for _, k := range ctx.DB.Keys() {
		if globMatch(c.Pattern, []byte(k)) {
			matched = append(matched, []byte(k))
		}
	}
	return resp.BulkStringsArray(matched...)
}

// globMatch reports whether name matches pattern under fnmatch-style
// wildcards: '*' matches any run of bytes (including none), '?' matches
// exactly one byte, and '[...]' matches one byte from the bracketed set
// (a leading '^' or '!' negates it). Unlike path/filepath.Match, no byte
// is treated as a path separator: keys are arbitrary binary strings, not
// filesystem paths, so a bare '*' must match a key like "user/123" in
// full.
func globMatch(pattern, name []byte) bool {
	// Standard backtracking glob match: advance greedily, and on a
	// mismatch after a '*' retry with one more byte of name consumed by
	// that '*' instead of giving up.
	var pi, ni int
	starPi, starNi := -1, 0
	for ni < len(name) {
		switch {
		case pi < len(pattern) && pattern[pi] == '*':
			starPi, starNi = pi, ni
			pi++
		case pi < len(pattern) && pattern[pi] == '?':
			pi++
			ni++
		case pi < len(pattern) && pattern[pi] == '[':
			end, ok := matchClass(pattern, pi, name[ni])
			if !ok {
				if starPi < 0 {
					return false
				}
				pi, starNi = starPi+1, starNi+1
				ni = starNi
				continue
			}
			pi = end
			ni++
		case pi < len(pattern) && pattern[pi] == name[ni]:
			pi++
			ni++
		default:
			if starPi < 0 {
				return false
			}
			pi, starNi = starPi+1, starNi+1
			ni = starNi
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}

// matchClass parses the bracket expression in pattern starting at
// pattern[start] (which must be '['), reports whether b satisfies it,
// and returns the index just past the closing ']'.
func matchClass(pattern []byte, start int, b byte) (next int, matched bool) {
	i := start + 1
	negate := false
	if i < len(pattern) && (pattern[i] == '^' || pattern[i] == '!') {
		negate = true
		i++
	}
	found := false
	first := true
	for i < len(pattern) && (pattern[i] != ']' || first) {
		first = false
		lo := pattern[i]
		if i+2 < len(pattern) && pattern[i+1] == '-' && pattern[i+2] != ']' {
			hi := pattern[i+2]
			if lo <= b && b <= hi {
				found = true
			}
			i += 3
			continue
		}
		if lo == b {
			found = true
		}
		i++
	}
	if i < len(pattern) {
		i++ // consume ']'
	}
	return i, found != negate
}

func (c *KeysCommand) IsWrite() bool { return false }

func (c *KeysCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("KEYS"), c.Pattern)
}

// ExpireCommand implements EXPIRE/PEXPIRE/EXPIREAT/PEXPIREAT key value,
// unified behind one command since they differ only in how the deadline
// is computed from the argument.
type ExpireCommand struct {
	Key   []byte
	Value int64
	Unit  ExpireUnit
	Kind  ExpireKind
}

type ExpireUnit int

const (
	UnitSeconds ExpireUnit = iota
	UnitMillis
)

type ExpireKind int

const (
	KindRelative ExpireKind = iota
	KindAbsolute
)

func parseExpireLike(name string, unit ExpireUnit, kind ExpireKind) func([][]byte) (Command, error) {
	return func(args [][]byte) (Command, error) {
		if len(args) != 2 {
			return nil, usageError(name, name+" key value")
		}
		n, err := strconv.ParseInt(string(args[1]), 10, 64)
		if err != nil {
			return nil, errNotInteger
		}
		return &ExpireCommand{Key: args[0], Value: n, Unit: unit, Kind: kind}, nil
	}
}

func (c *ExpireCommand) deadline() store.Expiry {
	switch {
	case c.Kind == KindRelative && c.Unit == UnitSeconds:
		return store.ExpireAfter(millisDuration(c.Value * 1000))
	case c.Kind == KindRelative && c.Unit == UnitMillis:
		return store.ExpireAfter(millisDuration(c.Value))
	case c.Kind == KindAbsolute && c.Unit == UnitSeconds:
		return store.ExpireAtUnixSeconds(c.Value)
	default:
		return store.ExpireAtUnixMillis(c.Value)
	}
}

func (c *ExpireCommand) Execute(ctx *Context) resp.Value {
	var applied bool
	ctx.DB.WithValue(string(c.Key), func(e store.Entry, present bool) (store.Entry, bool) {
		if !present {
			return e, false
		}
		e.Expiry = c.deadline()
		applied = true
		return e, true
	})
	if !applied {
		return resp.NewInteger(0)
	}
	return resp.NewInteger(1)
}

func (c *ExpireCommand) IsWrite() bool { return true }

func (c *ExpireCommand) ToWireArray() resp.Value {
	var verb string
	switch {
	case c.Kind == KindRelative && c.Unit == UnitSeconds:
		verb = "EXPIRE"
	case c.Kind == KindRelative && c.Unit == UnitMillis:
		verb = "PEXPIRE"
	case c.Kind == KindAbsolute && c.Unit == UnitSeconds:
		verb = "EXPIREAT"
	default:
		verb = "PEXPIREAT"
	}
	return resp.BulkStringsArray([]byte(verb), c.Key, []byte(strconv.FormatInt(c.Value, 10)))
}

// TTLCommand implements TTL/PTTL key, reporting remaining time to live
// in the requested unit, -1 if the key has no expiry, -2 if absent.
type TTLCommand struct {
	Key    []byte
	Millis bool
}

func parseTTLLike(millis bool) func([][]byte) (Command, error) {
	name := "TTL"
	if millis {
		name = "PTTL"
	}
	return func(args [][]byte) (Command, error) {
		if len(args) != 1 {
			return nil, usageError(name, name+" key")
		}
		return &TTLCommand{Key: args[0], Millis: millis}, nil
	}
}

func (c *TTLCommand) Execute(ctx *Context) resp.Value {
	e, ok := ctx.DB.Get(string(c.Key))
	if !ok {
		return resp.NewInteger(-2)
	}
	if !e.Expiry.HasDeadline() {
		return resp.NewInteger(-1)
	}
	ms, _ := e.Expiry.UnixMillis()
	remainMs := ms - nowMillis()
	if remainMs < 0 {
		remainMs = 0
	}
	if c.Millis {
		return resp.NewInteger(remainMs)
	}
	return resp.NewInteger(remainMs / 1000)
}

func (c *TTLCommand) IsWrite() bool { return false }

func (c *TTLCommand) ToWireArray() resp.Value {
	verb := "TTL"
	if c.Millis {
		verb = "PTTL"
	}
	return resp.BulkStringsArray([]byte(verb), c.Key)
}

// SelectCommand implements SELECT index.
type SelectCommand struct {
	Index int
}

func parseSelect(args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, usageError("SELECT", "SELECT index")
	}
	n, err := strconv.Atoi(string(args[0]))
	if err != nil {
		return nil, errNotInteger
	}
	return &SelectCommand{Index: n}, nil
}

func (c *SelectCommand) Execute(ctx *Context) resp.Value {
	if !ctx.SelectDB(c.Index) {
		return resp.NewError("ERR DB index is out of range")
	}
	return resp.NewSimpleString("OK")
}

func (c *SelectCommand) IsWrite() bool { return false }

func (c *SelectCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("SELECT"), []byte(strconv.Itoa(c.Index)))
}
