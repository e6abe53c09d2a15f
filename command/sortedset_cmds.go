package command

import (
	"strconv"

	"github.com/rkvdb/rkv/resp"
	"github.com/rkvdb/rkv/store"
)

// ZAddCommand implements ZADD key score member [score member ...].
type ZAddCommand struct {
	Key     []byte
	Members []store.ZMember
}

func parseZAdd(args [][]byte) (Command, error) {
	const usage = "ZADD key score member [score member ...]"
	if len(args) < 3 || (len(args)-1)%2 != 0 {
		return nil, usageError("ZADD", usage)
	}
	pairs := make([]store.ZMember, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		score, err := strconv.ParseFloat(string(args[i]), 64)
		if err != nil {
			return nil, errNotInteger
		}
		pairs = append(pairs, store.ZMember{Member: args[i+1], Score: score})
	}
	return &ZAddCommand{Key: args[0], Members: pairs}, nil
}

func (c *ZAddCommand) Execute(ctx *Context) resp.Value {
	var added int
	var typeErr bool
	ctx.DB.WithValue(string(c.Key), func(e store.Entry, present bool) (store.Entry, bool) {
		if !present {
			e = store.Entry{Value: store.NewSortedSetValue(store.NewSortedSet())}
		}
		z, err := e.Value.AsSortedSet()
		if err != nil {
			typeErr = true
			return e, false
		}
		added = z.Add(c.Members)
		return e, true
	})
	if typeErr {
		return resp.NewError(errWrongType.Error())
	}
	return resp.NewInteger(int64(added))
}

func (c *ZAddCommand) IsWrite() bool { return true }

func (c *ZAddCommand) ToWireArray() resp.Value {
	parts := [][]byte{[]byte("ZADD"), c.Key}
	for _, m := range c.Members {
		parts = append(parts, []byte(strconv.FormatFloat(m.Score, 'g', -1, 64)), m.Member)
	}
	return resp.BulkStringsArray(parts...)
}

// ZRemCommand implements ZREM key member [member ...].
type ZRemCommand struct {
	Key     []byte
	Members [][]byte
}

func parseZRem(args [][]byte) (Command, error) {
	if len(args) < 2 {
		return nil, usageError("ZREM", "ZREM key member [member ...]")
	}
	return &ZRemCommand{Key: args[0], Members: args[1:]}, nil
}

func (c *ZRemCommand) Execute(ctx *Context) resp.Value {
	var removed int
	var typeErr, present bool
	ctx.DB.WithValue(string(c.Key), func(e store.Entry, ok bool) (store.Entry, bool) {
		present = ok
		if !ok {
			return e, false
		}
		z, err := e.Value.AsSortedSet()
		if err != nil {
			typeErr = true
			return e, false
		}
		removed = z.Remove(c.Members)
		return e, true
	})
	if typeErr {
		return resp.NewError(errWrongType.Error())
	}
	if !present {
		return resp.NewInteger(0)
	}
	return resp.NewInteger(int64(removed))
}

func (c *ZRemCommand) IsWrite() bool { return true }

func (c *ZRemCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray(append([][]byte{[]byte("ZREM"), c.Key}, c.Members...)...)
}

// ZScoreCommand implements ZSCORE key member.
type ZScoreCommand struct {
	Key    []byte
	Member []byte
}

func parseZScore(args [][]byte) (Command, error) {
	if len(args) != 2 {
		return nil, usageError("ZSCORE", "ZSCORE key member")
	}
	return &ZScoreCommand{Key: args[0], Member: args[1]}, nil
}

func (c *ZScoreCommand) Execute(ctx *Context) resp.Value {
	e, ok := ctx.DB.Get(string(c.Key))
	if !ok {
		return resp.NullBulk()
	}
	z, err := e.Value.AsSortedSet()
	if err != nil {
		return resp.NewError(errWrongType.Error())
	}
	score, ok := z.Score(c.Member)
	if !ok {
		return resp.NullBulk()
	}
	return resp.NewBulkString(strconv.FormatFloat(score, 'g', -1, 64))
}

func (c *ZScoreCommand) IsWrite() bool { return false }

func (c *ZScoreCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("ZSCORE"), c.Key, c.Member)
}

// ZRankCommand implements ZRANK key member.
type ZRankCommand struct {
	Key    []byte
	Member []byte
}

func parseZRank(args [][]byte) (Command, error) {
	if len(args) != 2 {
		return nil, usageError("ZRANK", "ZRANK key member")
	}
	return &ZRankCommand{Key: args[0], Member: args[1]}, nil
}

func (c *ZRankCommand) Execute(ctx *Context) resp.Value {
	e, ok := ctx.DB.Get(string(c.Key))
	if !ok {
		return resp.NullBulk()
	}
	z, err := e.Value.AsSortedSet()
	if err != nil {
		return resp.NewError(errWrongType.Error())
	}
	rank, ok := z.Rank(c.Member)
	if !ok {
		return resp.NullBulk()
	}
	return resp.NewInteger(int64(rank))
}

func (c *ZRankCommand) IsWrite() bool { return false }

func (c *ZRankCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("ZRANK"), c.Key, c.Member)
}

// ZRangeCommand implements ZRANGE key start stop.
type ZRangeCommand struct {
	Key         []byte
	Start, Stop int64
}

func parseZRange(args [][]byte) (Command, error) {
	if len(args) != 3 {
		return nil, usageError("ZRANGE", "ZRANGE key start stop")
	}
	start, err1 := strconv.ParseInt(string(args[1]), 10, 64)
	stop, err2 := strconv.ParseInt(string(args[2]), 10, 64)
	if err1 != nil || err2 != nil {
		return nil, errNotInteger
	}
	return &ZRangeCommand{Key: args[0], Start: start, Stop: stop}, nil
}

func (c *ZRangeCommand) Execute(ctx *Context) resp.Value {
	e, ok := ctx.DB.Get(string(c.Key))
	if !ok {
		return resp.NewArray()
	}
	z, err := e.Value.AsSortedSet()
	if err != nil {
		return resp.NewError(errWrongType.Error())
	}
	members := z.Range(c.Start, c.Stop)
	elems := make([]resp.Value, len(members))
	for i, m := range members {
		elems[i] = resp.NewBulk(m.Member)
	}
	return resp.Value{Type: resp.Array, Array: elems}
}

func (c *ZRangeCommand) IsWrite() bool { return false }

func (c *ZRangeCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("ZRANGE"), c.Key,
		[]byte(strconv.FormatInt(c.Start, 10)), []byte(strconv.FormatInt(c.Stop, 10)))
}

// ZCardCommand implements ZCARD key.
type ZCardCommand struct {
	Key []byte
}

func parseZCard(args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, usageError("ZCARD", "ZCARD key")
	}
	return &ZCardCommand{Key: args[0]}, nil
}

func (c *ZCardCommand) Execute(ctx *Context) resp.Value {
	e, ok := ctx.DB.Get(string(c.Key))
	if !ok {
		return resp.NewInteger(0)
	}
	z, err := e.Value.AsSortedSet()
	if err != nil {
		return resp.NewError(errWrongType.Error())
	}
	return resp.NewInteger(int64(z.Len()))
}

func (c *ZCardCommand) IsWrite() bool { return false }

func (c *ZCardCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("ZCARD"), c.Key)
}
