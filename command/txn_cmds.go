package command

import (
	"github.com/rkvdb/rkv/resp"
)

// MultiCommand implements MULTI.
type MultiCommand struct{}

func parseMulti(args [][]byte) (Command, error) {
	if len(args) != 0 {
		return nil, usageError("MULTI", "MULTI")
	}
	return &MultiCommand{}, nil
}

func (c *MultiCommand) Execute(ctx *Context) resp.Value {
	if err := ctx.Txn.Begin(); err != nil {
		return resp.NewError(err.Error())
	}
	return resp.NewSimpleString("OK")
}

func (c *MultiCommand) IsWrite() bool           { return false }
func (c *MultiCommand) ToWireArray() resp.Value { return resp.BulkStringsArray([]byte("MULTI")) }

// DiscardCommand implements DISCARD.
type DiscardCommand struct{}

func parseDiscard(args [][]byte) (Command, error) {
	if len(args) != 0 {
		return nil, usageError("DISCARD", "DISCARD")
	}
	return &DiscardCommand{}, nil
}

func (c *DiscardCommand) Execute(ctx *Context) resp.Value {
	if err := ctx.Txn.Discard(); err != nil {
		return resp.NewError(err.Error())
	}
	return resp.NewSimpleString("OK")
}

func (c *DiscardCommand) IsWrite() bool           { return false }
func (c *DiscardCommand) ToWireArray() resp.Value { return resp.BulkStringsArray([]byte("DISCARD")) }

// ExecCommand implements EXEC: it runs every queued command in submission
// order and replies with an array of their individual replies. A failure
// partway through does not abort the remaining queued commands (spec.md
// §4.8: "no implicit rollback").
type ExecCommand struct{}

func parseExec(args [][]byte) (Command, error) {
	if len(args) != 0 {
		return nil, usageError("EXEC", "EXEC")
	}
	return &ExecCommand{}, nil
}

func (c *ExecCommand) Execute(ctx *Context) resp.Value {
	queued, err := ctx.Txn.Exec()
	if err != nil {
		return resp.NewError(err.Error())
	}
	replies := make([]resp.Value, len(queued))
	for i, q := range queued {
		cmd, ok := q.(Command)
		if !ok {
			replies[i] = resp.NewError("ERR internal: queued item is not a command")
			continue
		}
		replies[i] = cmd.Execute(ctx)
		if cmd.IsWrite() && ctx.Propagate != nil {
			ctx.Propagate(cmd)
		}
	}
	return resp.Value{Type: resp.Array, Array: replies}
}

func (c *ExecCommand) IsWrite() bool           { return false }
func (c *ExecCommand) ToWireArray() resp.Value { return resp.BulkStringsArray([]byte("EXEC")) }
