package command

import "github.com/rkvdb/rkv/resp"

// PingCommand implements PING [message].
type PingCommand struct {
	Message []byte // nil if no argument was given
}

func parsePing(args [][]byte) (Command, error) {
	switch len(args) {
	case 0:
		return &PingCommand{}, nil
	case 1:
		return &PingCommand{Message: args[0]}, nil
	default:
		return nil, usageError("PING", "PING [message]")
	}
}

func (c *PingCommand) Execute(ctx *Context) resp.Value {
	if c.Message == nil {
		return resp.NewSimpleString("PONG")
	}
	return resp.NewBulk(c.Message)
}

func (c *PingCommand) IsWrite() bool { return false }

func (c *PingCommand) ToWireArray() resp.Value {
	if c.Message == nil {
		return resp.BulkStringsArray([]byte("PING"))
	}
	return resp.BulkStringsArray([]byte("PING"), c.Message)
}

// EchoCommand implements ECHO message.
type EchoCommand struct {
	Message []byte
}

func parseEcho(args [][]byte) (Command, error) {
	if len(args) != 1 {
		return nil, usageError("ECHO", "ECHO message")
	}
	return &EchoCommand{Message: args[0]}, nil
}

func (c *EchoCommand) Execute(ctx *Context) resp.Value {
	return resp.NewBulk(c.Message)
}

func (c *EchoCommand) IsWrite() bool { return false }

func (c *EchoCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("ECHO"), c.Message)
}
