// Package command implements the closed family of typed commands the
// dispatcher parses argument vectors into: argument parsing, execution
// against a Context, write-propagation classification, and canonical
// re-encoding for replication.
package command

import (
	"context"

	"github.com/rkvdb/rkv/database"
	"github.com/rkvdb/rkv/pubsub"
	"github.com/rkvdb/rkv/resp"
	"github.com/rkvdb/rkv/txn"
)

// Command is the common interface every parsed command satisfies
// (spec.md §4.7).
type Command interface {
	// Execute runs the command against ctx and returns the reply value.
	Execute(ctx *Context) resp.Value

	// IsWrite reports whether this is a mutating command that must be
	// propagated to followers once it has executed locally.
	IsWrite() bool

	// ToWireArray re-encodes the command as an array of bulks for
	// propagation to followers: normally the array it was parsed from,
	// but XADD carries its resolved id and BLPOP is sent as LPOP.
	ToWireArray() resp.Value
}

// ServerInfo is the slice of Server state commands need to read —
// defined here rather than imported, so command has no dependency on
// the server package (server depends on command, not the reverse).
type ServerInfo interface {
	Role() string
	ReplID() string
	ReplOffset() int64
	ConfigValue(name string) (string, bool)
}

// Context is everything a Command needs to run: the selected database,
// the full keyspace (for SELECT), the pub/sub registry and this
// connection's live subscriptions, its transaction slot, server
// metadata, and a context.Context for blocking commands to derive
// their timeout/cancellation from.
type Context struct {
	Keyspace *database.Keyspace
	DB       *database.Database
	DBIndex  int

	PubSub *pubsub.Registry
	Subs   map[string]*pubsub.Subscription

	Txn *txn.Slot

	Server ServerInfo

	// Ctx is the context the owning connection's Serve loop runs under;
	// blocking commands derive a per-call timeout from it with
	// context.WithTimeout. It is cancelled only when that context is: a
	// client that disconnects while a command is blocked does not cancel
	// it.
	Ctx context.Context

	// EmitExtra, if set, writes an out-of-band reply immediately rather
	// than returning it from Execute — used by SUBSCRIBE/UNSUBSCRIBE when
	// given more than one channel, which reply with one array per
	// channel instead of a single aggregate value.
	EmitExtra func(resp.Value)

	// Propagate, if set, is called for each write command a transaction
	// runs via EXEC, since EXEC itself is not IsWrite but its queued
	// commands individually are (spec.md §4.6 invariant: "only write
	// commands are propagated").
	Propagate func(Command)
}

// SelectDB switches the context's current database to index, returning
// false if index is out of range (leaving DB/DBIndex unchanged).
func (c *Context) SelectDB(index int) bool {
	db := c.Keyspace.Get(index)
	if db == nil {
		return false
	}
	c.DB = db
	c.DBIndex = index
	return true
}

// InSubscriberMode reports whether this connection has at least one
// active channel subscription, which restricts which commands a client
// may issue (spec.md §3 invariant 4).
func (c *Context) InSubscriberMode() bool {
	return len(c.Subs) > 0
}
