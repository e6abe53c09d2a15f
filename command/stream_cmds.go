package command

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rkvdb/rkv/resp"
	"github.com/rkvdb/rkv/store"
)

// parseStreamID parses "ms-seq", a bare "ms" (seq implied 0), "-" (the
// minimum id, 0-0), or "+" (the maximum id), the forms XADD/XRANGE/XREAD
// accept for an explicit (non-auto-generated) id.
func parseStreamID(b []byte) (store.StreamID, bool) {
	s := string(b)
	switch s {
	case "-":
		return store.StreamID{Ms: 0, Seq: 0}, true
	case "+":
		return store.StreamID{Ms: ^uint64(0), Seq: ^uint64(0)}, true
	}
	ms, seq, ok := strings.Cut(s, "-")
	msVal, err := strconv.ParseUint(ms, 10, 64)
	if err != nil {
		return store.StreamID{}, false
	}
	if !ok {
		return store.StreamID{Ms: msVal, Seq: 0}, true
	}
	seqVal, err := strconv.ParseUint(seq, 10, 64)
	if err != nil {
		return store.StreamID{}, false
	}
	return store.StreamID{Ms: msVal, Seq: seqVal}, true
}

// nextStreamID returns the id immediately following id in (Ms, Seq)
// order, carrying into Ms on Seq overflow. Used to turn XRANGE's
// inclusive end into the exclusive end store.Stream.GetRange expects, and
// XREAD's exclusive start id into the inclusive start store.Stream.Read
// expects.
func nextStreamID(id store.StreamID) store.StreamID {
	if id.Seq == math.MaxUint64 {
		return store.StreamID{Ms: id.Ms + 1, Seq: 0}
	}
	return store.StreamID{Ms: id.Ms, Seq: id.Seq + 1}
}

// XAddCommand implements XADD key id field value [field value ...],
// where id is "*" (fully auto-generated), "<ms>-*" (auto seq for a given
// ms), or "<ms>-<seq>" (fully explicit).
type XAddCommand struct {
	Key       []byte
	IDSpec    []byte
	Fields    []store.Field
	resultID  store.StreamID // filled in by Execute, for ToWireArray propagation
	haveRslt  bool
}

func parseXAdd(args [][]byte) (Command, error) {
	const usage = "XADD key id field value [field value ...]"
	if len(args) < 4 || (len(args)-2)%2 != 0 {
		return nil, usageError("XADD", usage)
	}
	fields := make([]store.Field, 0, (len(args)-2)/2)
	for i := 2; i < len(args); i += 2 {
		fields = append(fields, store.Field{Name: args[i], Value: args[i+1]})
	}
	return &XAddCommand{Key: args[0], IDSpec: args[1], Fields: fields}, nil
}

func (c *XAddCommand) Execute(ctx *Context) resp.Value {
	var id store.StreamID
	var typeErr, idErr, tooSmall bool
	ctx.DB.WithValue(string(c.Key), func(e store.Entry, present bool) (store.Entry, bool) {
		if !present {
			e = store.Entry{Value: store.NewStreamValue(store.NewStream())}
		}
		s, err := e.Value.AsStream()
		if err != nil {
			typeErr = true
			return e, false
		}

		spec := string(c.IDSpec)
		switch {
		case spec == "*":
			id = s.NextIDFullAuto(uint64(time.Now().UnixMilli()))
		case strings.HasSuffix(spec, "-*"):
			msPart := strings.TrimSuffix(spec, "-*")
			ms, err := strconv.ParseUint(msPart, 10, 64)
			if err != nil {
				idErr = true
				return e, false
			}
			id = s.NextIDForMs(ms)
		default:
			parsed, ok := parseStreamID(c.IDSpec)
			if !ok {
				idErr = true
				return e, false
			}
			id = parsed
		}

		if err := s.Add(id, c.Fields); err != nil {
			tooSmall = true
			return e, false
		}
		return e, true
	})
	if typeErr {
		return resp.NewError(errWrongType.Error())
	}
	if idErr {
		return resp.NewError(errNotInteger.Error())
	}
	if tooSmall {
		return resp.NewError(store.ErrStreamIDTooSmall.Error())
	}
	c.resultID, c.haveRslt = id, true
	ctx.DB.Notify(string(c.Key))
	return resp.NewBulkString(id.String())
}

func (c *XAddCommand) IsWrite() bool { return true }

// ToWireArray re-encodes XADD with the concrete id it resolved to, so a
// follower replays the exact same id an auto-generated "*" produced on
// the leader rather than re-rolling its own.
func (c *XAddCommand) ToWireArray() resp.Value {
	idSpec := c.IDSpec
	if c.haveRslt {
		idSpec = []byte(c.resultID.String())
	}
	parts := [][]byte{[]byte("XADD"), c.Key, idSpec}
	for _, f := range c.Fields {
		parts = append(parts, f.Name, f.Value)
	}
	return resp.BulkStringsArray(parts...)
}

// XLenCommand implements XLEN key.
type XLenCommand struct {
	Key []byte
}

func parseXLen(args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, usageError("XLEN", "XLEN key")
	}
	return &XLenCommand{Key: args[0]}, nil
}

func (c *XLenCommand) Execute(ctx *Context) resp.Value {
	e, ok := ctx.DB.Get(string(c.Key))
	if !ok {
		return resp.NewInteger(0)
	}
	s, err := e.Value.AsStream()
	if err != nil {
		return resp.NewError(errWrongType.Error())
	}
	return resp.NewInteger(int64(s.Len()))
}

func (c *XLenCommand) IsWrite() bool { return false }

func (c *XLenCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("XLEN"), c.Key)
}

// XRangeCommand implements XRANGE key start end. Both bounds are
// inclusive on the wire; start is passed through as-is since
// store.Stream.GetRange's start is already inclusive, and end is bumped
// to the next id (via nextStreamID) since GetRange's end is exclusive.
type XRangeCommand struct {
	Key        []byte
	Start, End []byte
}

func parseXRange(args [][]byte) (Command, error) {
	if len(args) != 3 {
		return nil, usageError("XRANGE", "XRANGE key start end")
	}
	return &XRangeCommand{Key: args[0], Start: args[1], End: args[2]}, nil
}

func (c *XRangeCommand) Execute(ctx *Context) resp.Value {
	start, ok1 := parseStreamID(c.Start)
	end, ok2 := parseStreamID(c.End)
	if !ok1 || !ok2 {
		return resp.NewError(errNotInteger.Error())
	}
	e, ok := ctx.DB.Get(string(c.Key))
	if !ok {
		return resp.NewArray()
	}
	s, err := e.Value.AsStream()
	if err != nil {
		return resp.NewError(errWrongType.Error())
	}
	// "+" already denotes the maximum representable id, so there is no
	// id strictly above it to exclude — read straight to the end of the
	// stream instead of incrementing into overflow.
	if string(c.End) == "+" {
		return encodeStreamEntries(s.Read(start))
	}
	return encodeStreamEntries(s.GetRange(start, nextStreamID(end)))
}

func (c *XRangeCommand) IsWrite() bool { return false }

func (c *XRangeCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("XRANGE"), c.Key, c.Start, c.End)
}

// encodeStreamEntries renders entries in the wire shape XRANGE/XREAD use:
// an array of [id, [field, value, field, value, ...]] pairs.
func encodeStreamEntries(entries []store.StreamEntry) resp.Value {
	elems := make([]resp.Value, len(entries))
	for i, ent := range entries {
		flat := make([]resp.Value, 0, len(ent.Fields)*2)
		for _, f := range ent.Fields {
			flat = append(flat, resp.NewBulk(f.Name), resp.NewBulk(f.Value))
		}
		elems[i] = resp.NewArray(
			resp.NewBulkString(ent.ID.String()),
			resp.Value{Type: resp.Array, Array: flat},
		)
	}
	return resp.Value{Type: resp.Array, Array: elems}
}

// XReadCommand implements XREAD [BLOCK milliseconds] STREAMS key id,
// where id may be "$" (the stream's current last id: only entries added
// after this call satisfy the read).
type XReadCommand struct {
	BlockMs *int64
	Key     []byte
	IDSpec  []byte
}

func parseXRead(args [][]byte) (Command, error) {
	const usage = "XREAD [BLOCK milliseconds] STREAMS key id"
	i := 0
	var blockMs *int64
	if i+1 < len(args) && equalFoldASCII(args[i], "BLOCK") {
		ms, err := strconv.ParseInt(string(args[i+1]), 10, 64)
		if err != nil || ms < 0 {
			return nil, errNotInteger
		}
		blockMs = &ms
		i += 2
	}
	if i+2 >= len(args) || !equalFoldASCII(args[i], "STREAMS") {
		return nil, usageError("XREAD", usage)
	}
	// Single-key form: STREAMS key id.
	if len(args)-i-1 != 2 {
		return nil, usageError("XREAD", usage)
	}
	return &XReadCommand{BlockMs: blockMs, Key: args[i+1], IDSpec: args[i+2]}, nil
}

func (c *XReadCommand) resolveStart(ctx *Context) (store.StreamID, bool) {
	if string(c.IDSpec) == "$" {
		e, ok := ctx.DB.Get(string(c.Key))
		if !ok {
			return store.StreamID{Ms: 0, Seq: 0}, true
		}
		s, err := e.Value.AsStream()
		if err != nil {
			return store.StreamID{}, false
		}
		last := s.LastID()
		return store.StreamID{Ms: last.Ms, Seq: last.Seq + 1}, true
	}
	// An explicit id means "strictly after this id" (same convention as
	// the "$" branch above), so bump past it before handing it to
	// store.Stream.Read's inclusive-from start.
	id, ok := parseStreamID(c.IDSpec)
	if !ok {
		return store.StreamID{}, false
	}
	return nextStreamID(id), true
}

func (c *XReadCommand) Execute(ctx *Context) resp.Value {
	start, ok := c.resolveStart(ctx)
	if !ok {
		return resp.NewError(errNotInteger.Error())
	}

	readEntries := func() ([]store.StreamEntry, error) {
		e, ok := ctx.DB.Get(string(c.Key))
		if !ok {
			return nil, nil
		}
		s, err := e.Value.AsStream()
		if err != nil {
			return nil, err
		}
		return s.Read(start), nil
	}

	if c.BlockMs == nil {
		entries, err := readEntries()
		if err != nil {
			return resp.NewError(errWrongType.Error())
		}
		if len(entries) == 0 {
			return resp.NullArray()
		}
		return c.wrapStream(entries)
	}

	timeout := millisDuration(*c.BlockMs)
	waitCtx, cancel := deriveWaitContext(ctx.Ctx, timeout)
	defer cancel()

	var typeErr bool
	_, ok = ctx.DB.WaitFor(string(c.Key), waitCtx.Done(), func(e store.Entry, present bool) bool {
		if !present {
			return false
		}
		s, err := e.Value.AsStream()
		if err != nil {
			typeErr = true
			return true // stop waiting; Execute reports the type error below
		}
		return len(s.Read(start)) > 0
	})
	if typeErr {
		return resp.NewError(errWrongType.Error())
	}
	if !ok {
		return resp.NullArray()
	}
	entries, err := readEntries()
	if err != nil {
		return resp.NewError(errWrongType.Error())
	}
	if len(entries) == 0 {
		return resp.NullArray()
	}
	return c.wrapStream(entries)
}

func (c *XReadCommand) wrapStream(entries []store.StreamEntry) resp.Value {
	return resp.NewArray(resp.NewArray(resp.NewBulk(c.Key), encodeStreamEntries(entries)))
}

func (c *XReadCommand) IsWrite() bool { return false }

func (c *XReadCommand) ToWireArray() resp.Value {
	parts := [][]byte{[]byte("XREAD")}
	if c.BlockMs != nil {
		parts = append(parts, []byte("BLOCK"), []byte(strconv.FormatInt(*c.BlockMs, 10)))
	}
	parts = append(parts, []byte("STREAMS"), c.Key, c.IDSpec)
	return resp.BulkStringsArray(parts...)
}
