package config_test

import (
	"testing"

	"github.com/rkvdb/rkv/config"
)

func TestGetIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	b := config.New("/data", "dump.rdb", "6379")

	for _, name := range []string{"dir", "DIR", "Dir"} {
		v, ok := b.Get(name)
		if !ok || v != "/data" {
			t.Fatalf("Get(%q) = %q, %v; want /data, true", name, v, ok)
		}
	}
}

func TestGetUnknownParam(t *testing.T) {
	t.Parallel()

	b := config.New("/data", "dump.rdb", "6379")
	if _, ok := b.Get("maxmemory"); ok {
		t.Fatal("Get() of unknown param returned ok=true")
	}
}

func TestDumpPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dir, file, want string
	}{
		{"/data", "dump.rdb", "/data/dump.rdb"},
		{"", "dump.rdb", "dump.rdb"},
	}
	for _, tt := range tests {
		b := config.New(tt.dir, tt.file, "6379")
		if got := b.DumpPath(); got != tt.want {
			t.Errorf("DumpPath() with dir=%q file=%q = %q, want %q", tt.dir, tt.file, got, tt.want)
		}
	}
}

func TestSplitHostPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in         string
		host, port string
		ok         bool
	}{
		{"localhost 6380", "localhost", "6380", true},
		{"  10.0.0.1 6380  ", "10.0.0.1", "6380", true},
		{"", "", "", false},
		{"localhost", "", "", false},
	}
	for _, tt := range tests {
		host, port, ok := config.SplitHostPort(tt.in)
		if host != tt.host || port != tt.port || ok != tt.ok {
			t.Errorf("SplitHostPort(%q) = %q, %q, %v; want %q, %q, %v",
				tt.in, host, port, ok, tt.host, tt.port, tt.ok)
		}
	}
}
