package command_test

import (
	"context"
	"testing"

	"github.com/rkvdb/rkv/command"
	"github.com/rkvdb/rkv/database"
	"github.com/rkvdb/rkv/pubsub"
	"github.com/rkvdb/rkv/txn"
)

// fakeServer is a minimal command.ServerInfo for tests that never touch
// replication state.
type fakeServer struct {
	role       string
	replID     string
	replOffset int64
	config     map[string]string
}

func (f *fakeServer) Role() string        { return f.role }
func (f *fakeServer) ReplID() string      { return f.replID }
func (f *fakeServer) ReplOffset() int64   { return f.replOffset }
func (f *fakeServer) ConfigValue(name string) (string, bool) {
	v, ok := f.config[name]
	return v, ok
}

func newContext() (*command.Context, *database.Keyspace) {
	ks := database.NewKeyspace(2)
	ctx := &command.Context{
		Keyspace: ks,
		DB:       ks.Get(0),
		DBIndex:  0,
		PubSub:   pubsub.New(),
		Subs:     make(map[string]*pubsub.Subscription),
		Txn:      &txn.Slot{},
		Server:   &fakeServer{role: "master", replID: "0123456789012345678901234567890123456789", config: map[string]string{"dir": "/tmp"}},
		Ctx:      context.Background(),
	}
	return ctx, ks
}

func mustParse(t *testing.T, args ...string) command.Command {
	t.Helper()
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	cmd, err := command.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%v) error: %v", args, err)
	}
	return cmd
}
