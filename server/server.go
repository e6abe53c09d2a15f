// Package server assembles the accept loop, the keyspace, and the
// replication state a daemon process needs around the core command
// engine: it is the composition root spec.md §3 calls Server. It mirrors
// cmd/sql-tapd/main.go's run() for startup order (listen, spawn accept
// goroutine, wait on signal context) and server/server.go's New/Serve
// method shape, adapted from a gRPC server to a raw TCP accept loop.
package server

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rkvdb/rkv/command"
	"github.com/rkvdb/rkv/config"
	"github.com/rkvdb/rkv/conn"
	"github.com/rkvdb/rkv/database"
	"github.com/rkvdb/rkv/pubsub"
	"github.com/rkvdb/rkv/rdb"
	"github.com/rkvdb/rkv/resp"
)

const (
	RoleMaster = "master"
	RoleSlave  = "slave"
)

// Server owns the numbered keyspace, the pub/sub registry, the
// configuration bag, and the replication state (role, replication id,
// offset, and the set of connected followers).
type Server struct {
	keyspace *database.Keyspace
	pubsub   *pubsub.Registry
	config   *config.Bag

	role   string
	replID string

	replOffset atomic.Int64

	mu        sync.Mutex
	followers map[*conn.Connection]struct{}
}

// New builds a Server with ndbs empty databases. role should be
// RoleMaster or RoleSlave; the caller decides based on whether
// -replicaof was given.
func New(cfg *config.Bag, ndbs int, role string) *Server {
	return &Server{
		keyspace:  database.NewKeyspace(ndbs),
		pubsub:    pubsub.New(),
		config:    cfg,
		role:      role,
		replID:    newReplID(),
		followers: make(map[*conn.Connection]struct{}),
	}
}

func newReplID() string {
	a := strings.ReplaceAll(uuid.New().String(), "-", "")
	b := strings.ReplaceAll(uuid.New().String(), "-", "")
	return (a + b)[:40]
}

// Keyspace implements conn.Host.
func (s *Server) Keyspace() *database.Keyspace { return s.keyspace }

// PubSub implements conn.Host.
func (s *Server) PubSub() *pubsub.Registry { return s.pubsub }

// Role implements command.ServerInfo.
func (s *Server) Role() string { return s.role }

// ReplID implements command.ServerInfo.
func (s *Server) ReplID() string { return s.replID }

// ReplOffset implements command.ServerInfo.
func (s *Server) ReplOffset() int64 { return s.replOffset.Load() }

// ConfigValue implements command.ServerInfo, delegating to the
// read-only config bag.
func (s *Server) ConfigValue(name string) (string, bool) { return s.config.Get(name) }

// LoadSnapshot populates the keyspace from the dump file named by the
// dir/dbfilename config parameters. A missing file leaves every database
// empty; any other error is fatal at startup (spec.md §4.5, §9 Open
// Questions #2).
func (s *Server) LoadSnapshot() error {
	kvs, err := rdb.Load(s.config.DumpPath())
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return fmt.Errorf("server: load snapshot: %w", err)
	}
	for _, kv := range kvs {
		db := s.keyspace.Get(kv.DBIndex)
		if db == nil {
			continue
		}
		db.Set(kv.Key, kv.Entry)
	}
	return nil
}

func isNotExist(err error) bool {
	return strings.Contains(err.Error(), "no such file") || strings.Contains(err.Error(), "cannot find the file")
}

// AddFollower registers c as a replication sink; every subsequent write
// command is propagated to it.
func (s *Server) AddFollower(c *conn.Connection) {
	s.mu.Lock()
	s.followers[c] = struct{}{}
	s.mu.Unlock()
	log.Printf("server: %s promoted to follower", c.Peer())
}

// RemoveFollower drops c from the follower set. Safe to call on a
// connection that was never a follower.
func (s *Server) RemoveFollower(c *conn.Connection) {
	s.mu.Lock()
	_, ok := s.followers[c]
	delete(s.followers, c)
	s.mu.Unlock()
	if ok {
		log.Printf("server: follower %s disconnected", c.Peer())
	}
}

// Propagate sends cmd's canonical wire encoding to every connected
// follower, in this call's order, and advances the replication offset by
// the encoded length (spec.md §8: "every connected follower eventually
// receives a byte-exact encoding of C.to_wire_array() in the leader's
// issue order").
func (s *Server) Propagate(cmd command.Command) {
	encoded := encodeCommand(cmd)
	s.replOffset.Add(int64(len(encoded)))

	s.mu.Lock()
	targets := make([]*conn.Connection, 0, len(s.followers))
	for f := range s.followers {
		targets = append(targets, f)
	}
	s.mu.Unlock()

	for _, f := range targets {
		if err := f.SendCommand(cmd); err != nil {
			log.Printf("server: propagate to %s: %v", f.Peer(), err)
			s.RemoveFollower(f)
		}
	}
}

func encodeCommand(cmd command.Command) []byte {
	var buf bytes.Buffer
	if err := (resp.NewEncoder(&buf)).Encode(cmd.ToWireArray()); err != nil {
		return nil
	}
	return buf.Bytes()
}

// Serve runs the accept loop on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("server: accept: %w", err)
			}
		}
		c := conn.New(nc, s, s.keyspace, s.pubsub, false)
		go s.handleConnection(ctx, c)
	}
}

func (s *Server) handleConnection(ctx context.Context, c *conn.Connection) {
	defer func() {
		s.RemoveFollower(c)
		_ = c.Close()
	}()
	if err := c.Serve(ctx); err != nil {
		log.Printf("server: %s: %v", c.Peer(), err)
	}
}

// ServeUpstream runs an already-handshaken replication connection (the
// follower's link to its leader) through the same dispatch loop, with
// replies suppressed per spec.md §4.7 step 5.
func (s *Server) ServeUpstream(ctx context.Context, c *conn.Connection) error {
	c.MarkFromLeader()
	return c.Serve(ctx)
}

// NewConnection builds a Connection bound to this server's keyspace and
// pub/sub registry, for callers outside the accept loop (the replica
// package's upstream link).
func (s *Server) NewConnection(nc net.Conn) *conn.Connection {
	return conn.New(nc, s, s.keyspace, s.pubsub, false)
}
