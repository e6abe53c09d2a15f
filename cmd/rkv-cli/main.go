// Command rkv-cli is the installable form of the root rkv monitor
// binary (mirroring the teacher's split between a thin root main.go and
// its cmd/sql-tapd counterpart): `go install .../cmd/rkv-cli` gives the
// same tool `go run .` at the repo root does.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rkvdb/rkv/tui"
)

var version = "dev"

func main() {
	fs := flag.NewFlagSet("rkv-cli", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "rkv-cli — monitor pub/sub traffic on an rkv server\n\nUsage:\n  rkv-cli [flags] <addr> [channel ...]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	showVersion := fs.Bool("version", false, "show version and exit")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("rkv-cli %s\n", version)
		return
	}

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	channels := fs.Args()[1:]
	if len(channels) == 0 {
		channels = []string{"rkv"}
	}

	if err := tui.Run(fs.Arg(0), channels); err != nil {
		log.Fatal(err)
	}
}
