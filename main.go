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
	fs := flag.NewFlagSet("rkv", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "rkv — monitor pub/sub traffic on an rkv server\n\nUsage:\n  rkv [flags] <addr> [channel ...]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	showVersion := fs.Bool("version", false, "show version and exit")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("rkv %s\n", version)
		return
	}

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	monitor(fs.Arg(0), fs.Args()[1:])
}

func monitor(addr string, channels []string) {
	if len(channels) == 0 {
		channels = []string{"rkv"}
	}
	if err := tui.Run(addr, channels); err != nil {
		log.Fatal(err)
	}
}
