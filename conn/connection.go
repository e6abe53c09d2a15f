// Package conn owns one client byte stream end to end: decoding
// commands, dispatching them through the transaction queue or straight
// to execution, encoding replies, and forwarding pub/sub messages that
// arrive asynchronously while the connection is parked reading its next
// command. It mirrors the teacher's per-connection relay struct
// (proxy/postgres/conn.go, proxy/mysql/conn.go) adapted from a two-sided
// relay to a single-sided request/reply loop.
package conn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/rkvdb/rkv/command"
	"github.com/rkvdb/rkv/database"
	"github.com/rkvdb/rkv/pubsub"
	"github.com/rkvdb/rkv/rdb"
	"github.com/rkvdb/rkv/resp"
	"github.com/rkvdb/rkv/txn"
)

// Host is the slice of server state a Connection needs from the process
// that accepted it. Defined here, rather than imported from the server
// package, so conn has no dependency on server (server depends on conn,
// not the reverse) — the same back-edge discipline spec.md §9's Design
// Notes call for between Connection and Server.
type Host interface {
	command.ServerInfo
	Keyspace() *database.Keyspace
	PubSub() *pubsub.Registry
	Propagate(cmd command.Command)
	AddFollower(c *Connection)
	RemoveFollower(c *Connection)
}

// Connection owns one client's net.Conn for its whole lifetime: its
// framed reader/writer, its selected database, its transaction slot, and
// its live channel subscriptions.
type Connection struct {
	netConn net.Conn
	dec     *resp.Decoder
	writeMu sync.Mutex
	enc     *resp.Encoder

	peer string
	host Host

	keyspace *database.Keyspace
	db       *database.Database
	dbIndex  int

	pubsub *pubsub.Registry
	subs   map[string]*pubsub.Subscription

	txn txn.Slot

	// fromLeader marks the follower's single upstream connection to its
	// leader: commands arriving on it are applied but not replied to,
	// except REPLCONF GETACK (spec.md §4.7 step 5, §4.10).
	fromLeader bool

	subWG sync.WaitGroup
}

// New wraps an accepted client connection. fromLeader should be true
// only for the one connection a follower opens to its leader.
func New(nc net.Conn, host Host, keyspace *database.Keyspace, reg *pubsub.Registry, fromLeader bool) *Connection {
	return &Connection{
		netConn:  nc,
		dec:      resp.NewDecoder(nc),
		enc:      resp.NewEncoder(nc),
		peer:     nc.RemoteAddr().String(),
		host:     host,
		keyspace: keyspace,
		db:       keyspace.Get(0),
		dbIndex:  0,
		pubsub:   reg,
		subs:     make(map[string]*pubsub.Subscription),
	}
}

// Peer returns the remote address this connection was accepted from.
func (c *Connection) Peer() string { return c.peer }

// Close tears down the underlying socket and every live subscription.
func (c *Connection) Close() error {
	for _, s := range c.subs {
		s.Unsubscribe()
	}
	return c.netConn.Close()
}

// writeValue serializes and writes v, safe to call concurrently with
// itself (pub/sub forwarders and the main dispatch loop share one
// socket).
func (c *Connection) writeValue(v resp.Value) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.enc.Encode(v)
}

// writeRaw writes a non-codec payload (the inline RDB transfer that
// follows a PSYNC reply).
func (c *Connection) writeRaw(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.netConn.Write(b)
	return err
}

// Serve runs the decode-dispatch-encode loop until the connection closes
// or ctx is cancelled. A clean close between frames is reported as nil;
// anything else is returned for the caller to log.
func (c *Connection) Serve(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.netConn.Close()
		case <-done:
		}
	}()
	defer func() {
		for _, s := range c.subs {
			s.Unsubscribe()
		}
		c.subWG.Wait()
	}()

	for {
		args, err := resp.DecodeCommand(c.dec)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if c.fromLeader && errors.Is(err, resp.ErrNotCommand) {
				continue
			}
			return fmt.Errorf("conn: %s: decode: %w", c.peer, err)
		}

		if err := c.handle(ctx, args); err != nil {
			return err
		}
	}
}

// handle parses and dispatches one argument vector, per spec.md §4.7's
// dispatch loop.
func (c *Connection) handle(ctx context.Context, args [][]byte) error {
	cmd, err := command.Parse(args)
	if err != nil {
		return c.replyParseError(err)
	}

	if c.txn.IsQueued() && !command.IsControlCommand(args) {
		c.txn.Enqueue(cmd)
		if !c.fromLeader {
			return c.writeValue(resp.NewSimpleString("QUEUED"))
		}
		return nil
	}

	if err := c.enforceSubscriberMode(cmd); err != nil {
		return c.writeValue(resp.NewError(err.Error()))
	}

	var preSubs map[string]bool
	if _, ok := cmd.(*command.SubscribeCommand); ok {
		preSubs = make(map[string]bool, len(c.subs))
		for k := range c.subs {
			preSubs[k] = true
		}
	}

	cctx := c.buildContext(ctx)
	reply := cmd.Execute(cctx)
	c.syncSelection(cctx)

	_, isGetAck := cmd.(*command.ReplConfGetAckCommand)
	_, isAck := cmd.(*command.ReplConfAckCommand)
	if (!c.fromLeader || isGetAck) && !isAck {
		if err := c.writeValue(reply); err != nil {
			return err
		}
	}

	// Forwarder goroutines start only after the SUBSCRIBE confirmation is
	// on the wire, so a fast PUBLISH can never race ahead of it.
	if sc, ok := cmd.(*command.SubscribeCommand); ok {
		var fresh []*pubsub.Subscription
		for _, ch := range sc.Channels {
			name := string(ch)
			if preSubs[name] {
				continue
			}
			if sub, ok := c.subs[name]; ok {
				fresh = append(fresh, sub)
			}
		}
		c.afterSubscribe(fresh)
	}

	if cmd.IsWrite() {
		c.host.Propagate(cmd)
	}

	if psync, ok := cmd.(*command.PSyncCommand); ok {
		return c.becomeFollowerSink(psync)
	}

	return nil
}

// enforceSubscriberMode applies spec.md §3 invariant 4: once a
// connection has at least one subscription, only pub/sub bookkeeping and
// connection-health commands remain legal.
func (c *Connection) enforceSubscriberMode(cmd command.Command) error {
	if len(c.subs) == 0 {
		return nil
	}
	switch cmd.(type) {
	case *command.SubscribeCommand, *command.UnsubscribeCommand, *command.PingCommand:
		return nil
	default:
		return fmt.Errorf("ERR only (UN)SUBSCRIBE / PING are allowed in this context")
	}
}

func (c *Connection) replyParseError(err error) error {
	if c.fromLeader {
		log.Printf("conn: %s: ignoring malformed replicated command: %v", c.peer, err)
		return nil
	}
	return c.writeValue(resp.NewError(err.Error()))
}

// buildContext assembles the per-command Context, wiring EmitExtra (for
// multi-channel SUBSCRIBE/UNSUBSCRIBE) and Propagate (for writes queued
// inside a transaction) back into this connection.
func (c *Connection) buildContext(ctx context.Context) *command.Context {
	return &command.Context{
		Keyspace: c.keyspace,
		DB:       c.db,
		DBIndex:  c.dbIndex,
		PubSub:   c.pubsub,
		Subs:     c.subs,
		Txn:      &c.txn,
		Server:   c.host,
		Ctx:      ctx,
		EmitExtra: func(v resp.Value) {
			_ = c.writeValue(v)
		},
		Propagate: func(cmd command.Command) {
			c.host.Propagate(cmd)
		},
	}
}

// SelectDB is invoked by the SELECT command through Context.SelectDB,
// which mutates the Context in place; buildContext is called fresh per
// command, so the Connection's own db/dbIndex only needs to track the
// result of that mutation for the *next* command.
func (c *Connection) syncSelection(cctx *command.Context) {
	c.db = cctx.DB
	c.dbIndex = cctx.DBIndex
}

// afterSubscribe starts a forwarder goroutine for every subscription a
// SUBSCRIBE call just created, pushing published messages to this
// connection's socket as they arrive.
func (c *Connection) afterSubscribe(newlyAdded []*pubsub.Subscription) {
	for _, sub := range newlyAdded {
		c.subWG.Add(1)
		go func(sub *pubsub.Subscription) {
			defer c.subWG.Done()
			for {
				select {
				case msg, ok := <-sub.Messages:
					if !ok {
						return
					}
					if err := c.writeValue(command.PubSubMessageValue(msg)); err != nil {
						return
					}
				case <-sub.Done():
					return
				}
			}
		}(sub)
	}
}

// becomeFollowerSink sends the inline empty-RDB payload PSYNC's reply is
// followed by and registers this connection in the server's follower set
// (spec.md §4.7 step 7, §4.10's leader side).
func (c *Connection) becomeFollowerSink(_ *command.PSyncCommand) error {
	if err := c.writeRaw(inlineSnapshotFrame()); err != nil {
		return fmt.Errorf("conn: %s: psync: send snapshot: %w", c.peer, err)
	}
	c.host.AddFollower(c)
	return nil
}

// SendCommand writes cmd's canonical wire encoding directly to this
// connection's socket, bypassing command dispatch. The leader uses this
// on every registered follower connection to propagate a write (spec.md
// §4.10).
func (c *Connection) SendCommand(cmd command.Command) error {
	return c.writeValue(cmd.ToWireArray())
}

// inlineSnapshotFrame renders rdb.EmptySnapshot as the bulk-style header
// PSYNC's snapshot transfer uses: "$<len>\r\n<bytes>" with no trailing
// CRLF (spec.md §4.7 step 7).
func inlineSnapshotFrame() []byte {
	var buf bytes.Buffer
	_ = resp.EncodeRaw(&buf, rdb.EmptySnapshot())
	return buf.Bytes()
}

// IsFromLeader reports whether this connection is the follower's single
// upstream link to its leader.
func (c *Connection) IsFromLeader() bool { return c.fromLeader }

// MarkFromLeader flags this connection as the replication upstream link,
// set once by the replica package right after the handshake completes.
func (c *Connection) MarkFromLeader() { c.fromLeader = true }
