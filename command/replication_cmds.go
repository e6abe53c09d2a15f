package command

import (
	"strconv"

	"github.com/rkvdb/rkv/resp"
)

// ReplConfCommand implements the REPLCONF subcommands a follower sends
// during the handshake (spec.md §4.10 steps 2-3): "listening-port <port>"
// and "capa psync2". Both simply acknowledge with +OK; the leader doesn't
// act on the announced port or capability list.
type ReplConfCommand struct {
	Args [][]byte
}

// ReplConfAckCommand implements "REPLCONF ACK <offset>", sent by a
// follower in response to REPLCONF GETACK. The leader records nothing
// beyond having read it and never writes a reply: conn's dispatch loop
// drops the +OK that Execute returns (spec.md §4.10's exchange is
// one-directional here).
type ReplConfAckCommand struct {
	Offset int64
}

// ReplConfGetAckCommand implements "REPLCONF GETACK *", sent by the
// leader on the replication stream. The follower answers with its own
// "REPLCONF ACK <offset>" command on the same connection, which is why
// Execute's reply is itself a command-shaped array rather than a simple
// acknowledgement (spec.md §4.10, §9 Open Questions #3).
type ReplConfGetAckCommand struct{}

func parseReplConf(args [][]byte) (Command, error) {
	if len(args) < 1 {
		return nil, usageError("REPLCONF", "REPLCONF subcommand ...")
	}
	switch {
	case equalFoldASCII(args[0], "GETACK"):
		return &ReplConfGetAckCommand{}, nil
	case equalFoldASCII(args[0], "ACK") && len(args) == 2:
		n, err := strconv.ParseInt(string(args[1]), 10, 64)
		if err != nil {
			return nil, errNotInteger
		}
		return &ReplConfAckCommand{Offset: n}, nil
	default:
		return &ReplConfCommand{Args: args}, nil
	}
}

func (c *ReplConfCommand) Execute(ctx *Context) resp.Value { return resp.NewSimpleString("OK") }
func (c *ReplConfCommand) IsWrite() bool                   { return false }
func (c *ReplConfCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray(append([][]byte{[]byte("REPLCONF")}, c.Args...)...)
}

func (c *ReplConfAckCommand) Execute(ctx *Context) resp.Value { return resp.NewSimpleString("OK") }
func (c *ReplConfAckCommand) IsWrite() bool                   { return false }
func (c *ReplConfAckCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("REPLCONF"), []byte("ACK"), []byte(strconv.FormatInt(c.Offset, 10)))
}

func (c *ReplConfGetAckCommand) Execute(ctx *Context) resp.Value {
	return resp.BulkStringsArray([]byte("REPLCONF"), []byte("ACK"),
		[]byte(strconv.FormatInt(ctx.Server.ReplOffset(), 10)))
}
func (c *ReplConfGetAckCommand) IsWrite() bool { return false }
func (c *ReplConfGetAckCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("REPLCONF"), []byte("GETACK"), []byte("*"))
}

// PSyncCommand implements PSYNC replicationid offset. This server only
// ever supports a full resync: it replies FULLRESYNC with its own
// replication id and current offset, then (handled by the dispatcher,
// since it requires writing raw bytes outside the reply codec and
// registering the connection as a follower) sends an inline empty RDB
// payload and promotes the connection (spec.md §4.7 step 7).
type PSyncCommand struct {
	ReplicationID string
	Offset        string
}

func parsePSync(args [][]byte) (Command, error) {
	if len(args) != 2 {
		return nil, usageError("PSYNC", "PSYNC replicationid offset")
	}
	return &PSyncCommand{ReplicationID: string(args[0]), Offset: string(args[1])}, nil
}

func (c *PSyncCommand) Execute(ctx *Context) resp.Value {
	return resp.NewSimpleString("FULLRESYNC " + ctx.Server.ReplID() + " " + strconv.FormatInt(ctx.Server.ReplOffset(), 10))
}

func (c *PSyncCommand) IsWrite() bool { return false }

func (c *PSyncCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("PSYNC"), []byte(c.ReplicationID), []byte(c.Offset))
}
