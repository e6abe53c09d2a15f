package command

import (
	"github.com/rkvdb/rkv/pubsub"
	"github.com/rkvdb/rkv/resp"
)

// SubscribeCommand implements SUBSCRIBE channel [channel ...].
type SubscribeCommand struct {
	Channels [][]byte
}

func parseSubscribe(args [][]byte) (Command, error) {
	if len(args) < 1 {
		return nil, usageError("SUBSCRIBE", "SUBSCRIBE channel [channel ...]")
	}
	return &SubscribeCommand{Channels: args}, nil
}

// Execute registers ctx's connection on every listed channel and returns
// the last confirmation; per-channel confirmations before the last are
// written directly to ctx, since SUBSCRIBE's real reply is one array per
// channel rather than a single aggregate value (spec.md §4.9).
func (c *SubscribeCommand) Execute(ctx *Context) resp.Value {
	var last resp.Value
	for i, ch := range c.Channels {
		name := string(ch)
		if _, already := ctx.Subs[name]; !already {
			ctx.Subs[name] = ctx.PubSub.Subscribe(name)
		}
		last = resp.NewArray(
			resp.NewBulkString("subscribe"),
			resp.NewBulk(ch),
			resp.NewInteger(int64(len(ctx.Subs))),
		)
		if i < len(c.Channels)-1 && ctx.EmitExtra != nil {
			ctx.EmitExtra(last)
		}
	}
	return last
}

func (c *SubscribeCommand) IsWrite() bool { return false }

func (c *SubscribeCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray(append([][]byte{[]byte("SUBSCRIBE")}, c.Channels...)...)
}

// UnsubscribeCommand implements UNSUBSCRIBE [channel ...]. With no
// channel argument it unsubscribes from every channel the connection is
// currently on.
type UnsubscribeCommand struct {
	Channels [][]byte
}

func parseUnsubscribe(args [][]byte) (Command, error) {
	return &UnsubscribeCommand{Channels: args}, nil
}

func (c *UnsubscribeCommand) Execute(ctx *Context) resp.Value {
	channels := c.Channels
	if len(channels) == 0 {
		for name := range ctx.Subs {
			channels = append(channels, []byte(name))
		}
	}
	if len(channels) == 0 {
		return resp.NewArray(
			resp.NewBulkString("unsubscribe"),
			resp.NullBulk(),
			resp.NewInteger(0),
		)
	}

	var last resp.Value
	for i, ch := range channels {
		name := string(ch)
		if sub, ok := ctx.Subs[name]; ok {
			sub.Unsubscribe()
			delete(ctx.Subs, name)
		}
		last = resp.NewArray(
			resp.NewBulkString("unsubscribe"),
			resp.NewBulk(ch),
			resp.NewInteger(int64(len(ctx.Subs))),
		)
		if i < len(channels)-1 && ctx.EmitExtra != nil {
			ctx.EmitExtra(last)
		}
	}
	return last
}

func (c *UnsubscribeCommand) IsWrite() bool { return false }

func (c *UnsubscribeCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray(append([][]byte{[]byte("UNSUBSCRIBE")}, c.Channels...)...)
}

// PublishCommand implements PUBLISH channel message.
type PublishCommand struct {
	Channel []byte
	Message []byte
}

func parsePublish(args [][]byte) (Command, error) {
	if len(args) != 2 {
		return nil, usageError("PUBLISH", "PUBLISH channel message")
	}
	return &PublishCommand{Channel: args[0], Message: args[1]}, nil
}

func (c *PublishCommand) Execute(ctx *Context) resp.Value {
	n := ctx.PubSub.Publish(string(c.Channel), c.Message)
	return resp.NewInteger(int64(n))
}

func (c *PublishCommand) IsWrite() bool { return false }

func (c *PublishCommand) ToWireArray() resp.Value {
	return resp.BulkStringsArray([]byte("PUBLISH"), c.Channel, c.Message)
}

// PubSubMessageValue builds the wire shape a subscriber receives for a
// published message (spec.md §4.9).
func PubSubMessageValue(m pubsub.Message) resp.Value {
	return resp.NewArray(
		resp.NewBulkString("message"),
		resp.NewBulkString(m.Channel),
		resp.NewBulk(m.Payload),
	)
}
