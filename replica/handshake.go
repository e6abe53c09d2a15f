// Package replica implements the follower side of leader-follower
// replication: dialing the leader, running the PING/REPLCONF/PSYNC
// handshake, and handing the resulting connection off to the ordinary
// per-connection dispatch loop for ongoing write propagation. It mirrors
// the teacher's proxy dial-then-relay shape (proxy/proxy.go) adapted from
// a transparent two-sided relay to a one-shot client handshake followed
// by a one-sided apply loop.
package replica

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/rkvdb/rkv/conn"
	"github.com/rkvdb/rkv/resp"
	"github.com/rkvdb/rkv/server"
)

// Connect dials the leader at addr, runs the full replication handshake
// (spec.md §4.10 steps 1-5), and returns a *conn.Connection already
// wrapping the resulting socket, marked as the leader's replication
// stream. The caller is responsible for running its Serve loop.
func Connect(ctx context.Context, s *server.Server, addr, listenPort string) (*conn.Connection, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("replica: dial %s: %w", addr, err)
	}

	br := bufio.NewReader(nc)
	hs := &handshake{nc: nc, r: br}
	if err := hs.run(listenPort); err != nil {
		_ = nc.Close()
		return nil, err
	}

	// br may already hold bytes read ahead of the handshake (the start of
	// the leader's write stream); wrap nc so the connection's own decoder
	// drains that buffer first instead of losing it.
	c := s.NewConnection(&bufferedConn{Conn: nc, r: br})
	c.MarkFromLeader()
	return c, nil
}

// bufferedConn is a net.Conn whose reads are served from a pre-filled
// bufio.Reader, so a handshake performed on the same underlying socket
// never drops bytes it read ahead of where the caller's own framing
// resumes.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (b *bufferedConn) Read(p []byte) (int, error) { return b.r.Read(p) }

// handshake drives the leader dialogue, reading through a bufio.Reader
// that may read ahead into the write stream that follows; Connect hands
// those bytes on to the connection's own decoder through bufferedConn.
type handshake struct {
	nc net.Conn
	r  *bufio.Reader
}

func (h *handshake) run(listenPort string) error {
	if err := h.roundTrip("PING"); err != nil {
		return fmt.Errorf("replica: ping: %w", err)
	}
	if err := h.roundTrip("REPLCONF", "listening-port", listenPort); err != nil {
		return fmt.Errorf("replica: replconf listening-port: %w", err)
	}
	if err := h.roundTrip("REPLCONF", "capa", "psync2"); err != nil {
		return fmt.Errorf("replica: replconf capa: %w", err)
	}
	if err := h.sendCommand("PSYNC", "?", "-1"); err != nil {
		return fmt.Errorf("replica: psync: %w", err)
	}
	if _, err := h.readLine(); err != nil { // +FULLRESYNC <replid> <offset>
		return fmt.Errorf("replica: psync reply: %w", err)
	}
	if err := h.readInlineSnapshot(); err != nil {
		return fmt.Errorf("replica: read snapshot: %w", err)
	}
	return nil
}

func (h *handshake) roundTrip(args ...string) error {
	if err := h.sendCommand(args...); err != nil {
		return err
	}
	_, err := h.readLine()
	return err
}

func (h *handshake) sendCommand(args ...string) error {
	parts := make([][]byte, len(args))
	for i, a := range args {
		parts[i] = []byte(a)
	}
	return resp.NewEncoder(h.nc).Encode(resp.BulkStringsArray(parts...))
}

// readLine reads one CRLF-or-LF terminated line, mirroring
// resp.Decoder.readLine but against the handshake's own bufio.Reader
// rather than the pgproto3 ChunkReader the ordinary dispatch loop uses.
func (h *handshake) readLine() ([]byte, error) {
	line, err := h.r.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	line = line[:len(line)-1]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line, nil
}

// readInlineSnapshot consumes the leader's "$<len>\r\n<bytes>" transfer
// (spec.md §4.7 step 7), which is deliberately not a full bulk-string
// frame: it carries no trailing CRLF, since the payload is an opaque RDB
// byte stream rather than a protocol value. This server discards the
// bytes outright — the follower's own keyspace starts empty and catches
// up purely from the write stream that follows (spec.md §9 Open
// Questions #3: the empty snapshot exists only to complete the
// handshake shape, not to carry real state).
func (h *handshake) readInlineSnapshot() error {
	header, err := h.readLine()
	if err != nil {
		return err
	}
	if len(header) == 0 || header[0] != '$' {
		return fmt.Errorf("replica: malformed snapshot header %q", header)
	}
	n, err := strconv.Atoi(string(header[1:]))
	if err != nil {
		return fmt.Errorf("replica: malformed snapshot length %q: %w", header, err)
	}
	if _, err := h.r.Discard(n); err != nil {
		return fmt.Errorf("replica: discard snapshot body: %w", err)
	}
	return nil
}
