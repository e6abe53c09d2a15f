package replica_test

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/rkvdb/rkv/config"
	"github.com/rkvdb/rkv/rdb"
	"github.com/rkvdb/rkv/replica"
	"github.com/rkvdb/rkv/resp"
	"github.com/rkvdb/rkv/server"
)

// runFakeLeader accepts one connection and plays the leader side of the
// handshake, then writes extraAfterSnapshot immediately behind the
// inline snapshot frame, in the same burst of bytes, so the test also
// exercises that the follower never drops bytes buffered ahead of the
// handshake boundary.
func runFakeLeader(t *testing.T, ln net.Listener, extraAfterSnapshot []byte) {
	t.Helper()
	nc, err := ln.Accept()
	if err != nil {
		t.Errorf("fake leader: accept: %v", err)
		return
	}
	defer nc.Close()

	r := bufio.NewReader(nc)
	readArray := func() error {
		_, err := resp.NewDecoder(r).Decode()
		return err
	}

	for _, reply := range []string{"+PONG\r\n", "+OK\r\n", "+OK\r\n"} {
		if err := readArray(); err != nil {
			t.Errorf("fake leader: read command: %v", err)
			return
		}
		if _, err := nc.Write([]byte(reply)); err != nil {
			t.Errorf("fake leader: write reply: %v", err)
			return
		}
	}

	if err := readArray(); err != nil { // PSYNC ? -1
		t.Errorf("fake leader: read psync: %v", err)
		return
	}
	if _, err := nc.Write([]byte("+FULLRESYNC 0123456789012345678901234567890123456789 0\r\n")); err != nil {
		t.Errorf("fake leader: write fullresync: %v", err)
		return
	}

	var burst bytes.Buffer
	_ = resp.EncodeRaw(&burst, rdb.EmptySnapshot())
	burst.Write(extraAfterSnapshot)
	if _, err := nc.Write(burst.Bytes()); err != nil {
		t.Errorf("fake leader: write snapshot burst: %v", err)
		return
	}

	// Keep the connection open long enough for the follower to read the
	// buffered command that followed the snapshot.
	time.Sleep(200 * time.Millisecond)
}

func TestConnectCompletesHandshakeAndAppliesBufferedWrite(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	var setCmd bytes.Buffer
	if err := resp.NewEncoder(&setCmd).Encode(resp.BulkStringsArray([]byte("SET"), []byte("fromleader"), []byte("1"))); err != nil {
		t.Fatalf("encode fixture command: %v", err)
	}

	go runFakeLeader(t, ln, setCmd.Bytes())

	cfg := config.New(t.TempDir(), "dump.rdb", "0")
	s := server.New(cfg, 1, server.RoleSlave)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := replica.Connect(ctx, s, ln.Addr().String(), "6380")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if !c.IsFromLeader() {
		t.Fatal("Connect did not mark the connection as the leader upstream")
	}

	serveDone := make(chan struct{})
	go func() {
		_ = c.Serve(ctx)
		close(serveDone)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if e, ok := s.Keyspace().Get(0).Get("fromleader"); ok {
			str, err := e.Value.AsString()
			if err != nil || string(str.Bytes()) != "1" {
				t.Fatalf("replicated value = %v (err %v), want \"1\"", str, err)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the buffered write to be applied")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-serveDone
}
