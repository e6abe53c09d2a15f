// Package config is the read-only string bag CONFIG GET reads from and
// the server takes its snapshot path from. It is deliberately thin: spec.md §1 lists the configuration bag
// as an external collaborator whose only contract is "a set of strings
// read by the CONFIG GET and INFO surfaces", not a component designed
// here.
package config

import "strings"

// Bag is a read-only map populated once, at startup, from parsed flags.
type Bag struct {
	values map[string]string
}

// New builds a Bag from the daemon's parsed flags. dir and dbfilename
// are the two parameters spec.md §6 requires CONFIG GET to recognise;
// port is carried along too, so CONFIG GET port also answers, even
// though spec.md doesn't name it as a CONFIG GET parameter.
func New(dir, dbfilename, port string) *Bag {
	return &Bag{values: map[string]string{
		"dir":        dir,
		"dbfilename": dbfilename,
		"port":       port,
	}}
}

// Get returns the value for a recognised, case-insensitive parameter
// name.
func (b *Bag) Get(name string) (string, bool) {
	v, ok := b.values[strings.ToLower(name)]
	return v, ok
}

// DumpPath joins dir and dbfilename into the snapshot file path the
// server loads at startup.
func (b *Bag) DumpPath() string {
	dir, _ := b.Get("dir")
	file, _ := b.Get("dbfilename")
	if dir == "" {
		return file
	}
	return dir + "/" + file
}

// SplitHostPort splits a "-replicaof" flag value of the form
// "<host> <port>" into its two parts.
func SplitHostPort(replicaof string) (host, port string, ok bool) {
	host, port, found := strings.Cut(strings.TrimSpace(replicaof), " ")
	if !found || host == "" || port == "" {
		return "", "", false
	}
	return host, port, true
}
