package command

import (
	"fmt"

	"github.com/rkvdb/rkv/resp"
)

// ConfigGetCommand implements CONFIG GET param [param ...] (spec.md §6:
// "returns a flat array of <name>, <value> pairs for each recognised
// key"). Unrecognised parameters are silently omitted.
type ConfigGetCommand struct {
	Params [][]byte
}

func parseConfigGet(args [][]byte) (Command, error) {
	if len(args) < 1 {
		return nil, usageError("CONFIG GET", "CONFIG GET param [param ...]")
	}
	return &ConfigGetCommand{Params: args}, nil
}

func (c *ConfigGetCommand) Execute(ctx *Context) resp.Value {
	var flat [][]byte
	for _, p := range c.Params {
		v, ok := ctx.Server.ConfigValue(string(p))
		if !ok {
			continue
		}
		flat = append(flat, p, []byte(v))
	}
	return resp.BulkStringsArray(flat...)
}

func (c *ConfigGetCommand) IsWrite() bool { return false }

func (c *ConfigGetCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray(append([][]byte{[]byte("CONFIG"), []byte("GET")}, c.Params...)...)
}

// InfoCommand implements INFO [section]. The section argument is accepted
// but the reply is the same fixed replication block regardless of its
// value, since spec.md §6 only specifies the replication section.
type InfoCommand struct {
	Section []byte // may be nil
}

func parseInfo(args [][]byte) (Command, error) {
	switch len(args) {
	case 0:
		return &InfoCommand{}, nil
	case 1:
		return &InfoCommand{Section: args[0]}, nil
	default:
		return nil, usageError("INFO", "INFO [section]")
	}
}

func (c *InfoCommand) Execute(ctx *Context) resp.Value {
	body := fmt.Sprintf("role:%s\r\nmaster_replid:%s\r\nmaster_repl_offset:%d",
		ctx.Server.Role(), ctx.Server.ReplID(), ctx.Server.ReplOffset())
	return resp.NewBulkString(body)
}

func (c *InfoCommand) IsWrite() bool { return false }

func (c *InfoCommand) ToWireArray() resp.Value {
	if c.Section == nil {
		return resp.BulkStringsArray([]byte("INFO"))
	}
	return resp.BulkStringsArray([]byte("INFO"), c.Section)
}
