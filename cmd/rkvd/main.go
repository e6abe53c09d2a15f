package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rkvdb/rkv/config"
	"github.com/rkvdb/rkv/database"
	"github.com/rkvdb/rkv/replica"
	"github.com/rkvdb/rkv/server"
)

var version = "dev"

func main() {
	fs := flag.NewFlagSet("rkvd", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "rkvd — RESP-compatible in-memory key-value server\n\nUsage:\n  rkvd [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	dir := fs.String("dir", ".", "directory holding the snapshot file")
	dbfilename := fs.String("dbfilename", "dump.rdb", "snapshot file name")
	port := fs.String("port", "6379", "listen port")
	replicaof := fs.String("replicaof", "", "\"<host> <port>\" of a leader to replicate from")
	showVersion := fs.Bool("version", false, "show version and exit")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("rkvd %s\n", version)
		return
	}

	if err := run(*dir, *dbfilename, *port, *replicaof); err != nil {
		log.Fatal(err)
	}
}

func run(dir, dbfilename, port, replicaof string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.New(dir, dbfilename, port)

	role := server.RoleMaster
	if replicaof != "" {
		role = server.RoleSlave
	}
	s := server.New(cfg, database.DefaultDatabaseCount, role)

	if err := s.LoadSnapshot(); err != nil {
		return fmt.Errorf("rkvd: %w", err)
	}

	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("rkvd: listen: %w", err)
	}
	log.Printf("rkvd: listening on :%s (role=%s)", port, role)

	if replicaof != "" {
		host, leaderPort, ok := config.SplitHostPort(replicaof)
		if !ok {
			return fmt.Errorf("rkvd: -replicaof must be \"<host> <port>\", got %q", replicaof)
		}
		go replicateFrom(ctx, s, net.JoinHostPort(host, leaderPort), port)
	}

	return s.Serve(ctx, ln)
}

// replicateFrom runs the follower's upstream link for the process
// lifetime, reconnecting is deliberately not attempted: a dropped leader
// link is fatal to replication but not to serving reads/writes locally
// (spec.md §9 Open Questions #3 scopes reconnect logic out).
func replicateFrom(ctx context.Context, s *server.Server, leaderAddr, listenPort string) {
	c, err := replica.Connect(ctx, s, leaderAddr, listenPort)
	if err != nil {
		log.Printf("rkvd: replication: %v", err)
		return
	}
	defer c.Close()

	if err := c.Serve(ctx); err != nil {
		log.Printf("rkvd: replication: %v", err)
	}
}
