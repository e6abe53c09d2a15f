package command

import (
	"context"
	"strconv"
	"time"

	"github.com/rkvdb/rkv/resp"
	"github.com/rkvdb/rkv/store"
)

// LPushCommand implements LPUSH key value [value ...].
type LPushCommand struct {
	Key      []byte
	Elements [][]byte
}

func parseLPush(args [][]byte) (Command, error) {
	if len(args) < 2 {
		return nil, usageError("LPUSH", "LPUSH key value [value ...]")
	}
	return &LPushCommand{Key: args[0], Elements: args[1:]}, nil
}

func (c *LPushCommand) Execute(ctx *Context) resp.Value {
	var n int
	var typeErr bool
	ctx.DB.WithValue(string(c.Key), func(e store.Entry, present bool) (store.Entry, bool) {
		if !present {
			e = store.Entry{Value: store.NewListValue(store.NewList())}
		}
		l, err := e.Value.AsList()
		if err != nil {
			typeErr = true
			return e, false
		}
		n = l.LPush(c.Elements...)
		return e, true
	})
	if typeErr {
		return resp.NewError(errWrongType.Error())
	}
	ctx.DB.Notify(string(c.Key))
	return resp.NewInteger(int64(n))
}

func (c *LPushCommand) IsWrite() bool { return true }

func (c *LPushCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray(append([][]byte{[]byte("LPUSH"), c.Key}, c.Elements...)...)
}

// RPushCommand implements RPUSH key value [value ...].
type RPushCommand struct {
	Key      []byte
	Elements [][]byte
}

func parseRPush(args [][]byte) (Command, error) {
	if len(args) < 2 {
		return nil, usageError("RPUSH", "RPUSH key value [value ...]")
	}
	return &RPushCommand{Key: args[0], Elements: args[1:]}, nil
}

func (c *RPushCommand) Execute(ctx *Context) resp.Value {
	var n int
	var typeErr bool
	ctx.DB.WithValue(string(c.Key), func(e store.Entry, present bool) (store.Entry, bool) {
		if !present {
			e = store.Entry{Value: store.NewListValue(store.NewList())}
		}
		l, err := e.Value.AsList()
		if err != nil {
			typeErr = true
			return e, false
		}
		n = l.RPush(c.Elements...)
		return e, true
	})
	if typeErr {
		return resp.NewError(errWrongType.Error())
	}
	ctx.DB.Notify(string(c.Key))
	return resp.NewInteger(int64(n))
}

func (c *RPushCommand) IsWrite() bool { return true }

func (c *RPushCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray(append([][]byte{[]byte("RPUSH"), c.Key}, c.Elements...)...)
}

// LPopCommand implements LPOP key [count].
type LPopCommand struct {
	Key   []byte
	Count *int // nil means "no count": reply a single bulk or null
}

func parseLPop(args [][]byte) (Command, error) {
	const usage = "LPOP key [count]"
	switch len(args) {
	case 1:
		return &LPopCommand{Key: args[0]}, nil
	case 2:
		n, err := strconv.Atoi(string(args[1]))
		if err != nil || n < 0 {
			return nil, errNotInteger
		}
		return &LPopCommand{Key: args[0], Count: &n}, nil
	default:
		return nil, usageError("LPOP", usage)
	}
}

func (c *LPopCommand) Execute(ctx *Context) resp.Value {
	var popped [][]byte
	var typeErr, present bool
	ctx.DB.WithValue(string(c.Key), func(e store.Entry, ok bool) (store.Entry, bool) {
		present = ok
		if !ok {
			return e, false
		}
		l, err := e.Value.AsList()
		if err != nil {
			typeErr = true
			return e, false
		}
		n := 1
		if c.Count != nil {
			n = *c.Count
		}
		popped = l.LPop(n)
		return e, true
	})
	if typeErr {
		return resp.NewError(errWrongType.Error())
	}
	if !present {
		if c.Count != nil {
			return resp.NullArray()
		}
		return resp.NullBulk()
	}
	if c.Count == nil {
		if len(popped) == 0 {
			return resp.NullBulk()
		}
		return resp.NewBulk(popped[0])
	}
	return resp.BulkStringsArray(popped...)
}

func (c *LPopCommand) IsWrite() bool { return true }

func (c *LPopCommand) ToWireArray() resp.Value {
	parts := [][]byte{[]byte("LPOP"), c.Key}
	if c.Count != nil {
		parts = append(parts, []byte(strconv.Itoa(*c.Count)))
	}
	return resp.BulkStringsArray(parts...)
}

// LRangeCommand implements LRANGE key start stop.
type LRangeCommand struct {
	Key         []byte
	Start, Stop int64
}

func parseLRange(args [][]byte) (Command, error) {
	if len(args) != 3 {
		return nil, usageError("LRANGE", "LRANGE key start stop")
	}
	start, err1 := strconv.ParseInt(string(args[1]), 10, 64)
	stop, err2 := strconv.ParseInt(string(args[2]), 10, 64)
	if err1 != nil || err2 != nil {
		return nil, errNotInteger
	}
	return &LRangeCommand{Key: args[0], Start: start, Stop: stop}, nil
}

func (c *LRangeCommand) Execute(ctx *Context) resp.Value {
	e, ok := ctx.DB.Get(string(c.Key))
	if !ok {
		return resp.NewArray()
	}
	l, err := e.Value.AsList()
	if err != nil {
		return resp.NewError(errWrongType.Error())
	}
	return resp.BulkStringsArray(l.Range(c.Start, c.Stop)...)
}

func (c *LRangeCommand) IsWrite() bool { return false }

func (c *LRangeCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("LRANGE"), c.Key,
		[]byte(strconv.FormatInt(c.Start, 10)), []byte(strconv.FormatInt(c.Stop, 10)))
}

// LLenCommand implements LLEN key.
type LLenCommand struct {
	Key []byte
}

func parseLLen(args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, usageError("LLEN", "LLEN key")
	}
	return &LLenCommand{Key: args[0]}, nil
}

func (c *LLenCommand) Execute(ctx *Context) resp.Value {
	e, ok := ctx.DB.Get(string(c.Key))
	if !ok {
		return resp.NewInteger(0)
	}
	l, err := e.Value.AsList()
	if err != nil {
		return resp.NewError(errWrongType.Error())
	}
	return resp.NewInteger(int64(l.Len()))
}

func (c *LLenCommand) IsWrite() bool { return false }

func (c *LLenCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("LLEN"), c.Key)
}

// BLPopCommand implements BLPOP key timeout, where timeout is seconds
// (fractional allowed), 0 meaning unbounded (spec.md §4.7 "Blocking
// commands").
type BLPopCommand struct {
	Key     []byte
	Timeout time.Duration
}

func parseBLPop(args [][]byte) (Command, error) {
	if len(args) != 2 {
		return nil, usageError("BLPOP", "BLPOP key timeout")
	}
	secs, err := strconv.ParseFloat(string(args[1]), 64)
	if err != nil || secs < 0 {
		return nil, errNotInteger
	}
	return &BLPopCommand{Key: args[0], Timeout: time.Duration(secs * float64(time.Second))}, nil
}

func (c *BLPopCommand) Execute(ctx *Context) resp.Value {
	waitCtx, cancel := deriveWaitContext(ctx.Ctx, c.Timeout)
	defer cancel()

	_, ok := ctx.DB.WaitFor(string(c.Key), waitCtx.Done(), func(e store.Entry, present bool) bool {
		if !present {
			return false
		}
		l, err := e.Value.AsList()
		return err == nil && !l.IsEmpty()
	})
	if !ok {
		return resp.NullArray()
	}

	// Re-check under the lock: another waiter or writer may have emptied
	// the list between the predicate passing and this re-acquire.
	var popped []byte
	ctx.DB.WithValue(string(c.Key), func(e store.Entry, present bool) (store.Entry, bool) {
		if !present {
			return e, false
		}
		l, err := e.Value.AsList()
		if err != nil {
			return e, false
		}
		got := l.LPop(1)
		if len(got) == 1 {
			popped = got[0]
		}
		return e, true
	})
	if popped == nil {
		return resp.NullArray()
	}
	return resp.NewArray(resp.NewBulk(c.Key), resp.NewBulk(popped))
}

func (c *BLPopCommand) IsWrite() bool { return true }

func (c *BLPopCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("LPOP"), c.Key)
}

// deriveWaitContext builds the per-call context a blocking command waits
// on: a timeout derived from parent if timeout > 0, otherwise a plain
// cancellable child of parent, so an unbounded wait ends only when parent
// is cancelled (a client disconnect while parked is not detected).
func deriveWaitContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
