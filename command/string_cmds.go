package command

import (
	"strconv"

	"github.com/rkvdb/rkv/resp"
	"github.com/rkvdb/rkv/store"
)

// GetCommand implements GET key.
type GetCommand struct {
	Key []byte
}

func parseGet(args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, usageError("GET", "GET key")
	}
	return &GetCommand{Key: args[0]}, nil
}

func (c *GetCommand) Execute(ctx *Context) resp.Value {
	e, ok := ctx.DB.Get(string(c.Key))
	if !ok {
		return resp.NullBulk()
	}
	s, err := e.Value.AsString()
	if err != nil {
		return resp.NewError(errWrongType.Error())
	}
	return resp.NewBulk(s.Bytes())
}

func (c *GetCommand) IsWrite() bool { return false }

func (c *GetCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("GET"), c.Key)
}

// SetCommand implements SET key value [PX milliseconds].
type SetCommand struct {
	Key   []byte
	Value []byte
	PX    *int64 // milliseconds, nil if not given
}

func parseSet(args [][]byte) (Command, error) {
	const usage = "SET key value [PX milliseconds]"
	switch len(args) {
	case 2:
		return &SetCommand{Key: args[0], Value: args[1]}, nil
	case 4:
		if !equalFoldASCII(args[2], "PX") {
			return nil, usageError("SET", usage)
		}
		ms, err := strconv.ParseInt(string(args[3]), 10, 64)
		if err != nil {
			return nil, errNotInteger
		}
		return &SetCommand{Key: args[0], Value: args[1], PX: &ms}, nil
	default:
		return nil, usageError("SET", usage)
	}
}

func (c *SetCommand) Execute(ctx *Context) resp.Value {
	expiry := store.NoExpiry
	if c.PX != nil {
		expiry = store.ExpireAfter(millisDuration(*c.PX))
	}
	ctx.DB.Set(string(c.Key), store.Entry{
		Value:  store.NewStringValue(store.NewString(c.Value)),
		Expiry: expiry,
	})
	return resp.NewSimpleString("OK")
}

func (c *SetCommand) IsWrite() bool { return true }

func (c *SetCommand) ToWireArray() resp.Value {
	parts := [][]byte{[]byte("SET"), c.Key, c.Value}
	if c.PX != nil {
		parts = append(parts, []byte("PX"), []byte(strconv.FormatInt(*c.PX, 10)))
	}
	return resp.BulkStringsArray(parts...)
}

// IncrCommand implements INCR key.
type IncrCommand struct {
	Key []byte
}

func parseIncr(args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, usageError("INCR", "INCR key")
	}
	return &IncrCommand{Key: args[0]}, nil
}

func (c *IncrCommand) Execute(ctx *Context) resp.Value {
	var n int64
	var typeErr, notIntErr bool
	ctx.DB.WithValue(string(c.Key), func(e store.Entry, present bool) (store.Entry, bool) {
		if !present {
			e = store.Entry{Value: store.NewStringValue(store.NewString([]byte("0")))}
		}
		s, err := e.Value.AsString()
		if err != nil {
			typeErr = true
			return e, false
		}
		n, err = s.Incr()
		if err != nil {
			notIntErr = true
			return e, false
		}
		return e, true
	})
	if typeErr {
		return resp.NewError(errWrongType.Error())
	}
	if notIntErr {
		return resp.NewError(errNotInteger.Error())
	}
	return resp.NewInteger(n)
}

func (c *IncrCommand) IsWrite() bool { return true }

func (c *IncrCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("INCR"), c.Key)
}
