package txn_test

import (
	"errors"
	"testing"

	"github.com/rkvdb/rkv/txn"
)

func TestBeginEnqueueExec(t *testing.T) {
	t.Parallel()

	var s txn.Slot
	if err := s.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !s.IsQueued() {
		t.Fatal("IsQueued() should be true after Begin")
	}

	s.Enqueue("SET a 1")
	s.Enqueue("SET b 2")

	cmds, err := s.Exec()
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("Exec() = %v, want 2 commands", cmds)
	}
	if s.IsQueued() {
		t.Fatal("IsQueued() should be false after Exec")
	}
}

func TestNestedMulti(t *testing.T) {
	t.Parallel()

	var s txn.Slot
	_ = s.Begin()
	if err := s.Begin(); !errors.Is(err, txn.ErrNestedMulti) {
		t.Fatalf("err = %v, want ErrNestedMulti", err)
	}
}

func TestExecWithoutMulti(t *testing.T) {
	t.Parallel()

	var s txn.Slot
	if _, err := s.Exec(); !errors.Is(err, txn.ErrExecWithoutMulti) {
		t.Fatalf("err = %v, want ErrExecWithoutMulti", err)
	}
}

func TestDiscardWithoutMulti(t *testing.T) {
	t.Parallel()

	var s txn.Slot
	if err := s.Discard(); !errors.Is(err, txn.ErrDiscardWithoutMulti) {
		t.Fatalf("err = %v, want ErrDiscardWithoutMulti", err)
	}
}

func TestDiscardDropsQueue(t *testing.T) {
	t.Parallel()

	var s txn.Slot
	_ = s.Begin()
	s.Enqueue("SET a 1")
	if err := s.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if s.IsQueued() {
		t.Fatal("IsQueued() should be false after Discard")
	}
}
