package database

// DefaultDatabaseCount is the number of databases a Keyspace is built
// with unless a caller has a specific reason to deviate (spec.md §2:
// "16 independently-addressed Database instances").
const DefaultDatabaseCount = 16

// Keyspace is the server's fixed-size vector of numbered databases
// (spec.md §2: "16 independently-addressed Database instances, selected
// by SELECT").
type Keyspace struct {
	dbs []*Database
}

// NewKeyspace builds a Keyspace of n empty, independent databases.
func NewKeyspace(n int) *Keyspace {
	dbs := make([]*Database, n)
	for i := range dbs {
		dbs[i] = New()
	}
	return &Keyspace{dbs: dbs}
}

// Len reports how many databases the keyspace holds.
func (k *Keyspace) Len() int {
	return len(k.dbs)
}

// Get returns database index, or nil if index is out of range.
func (k *Keyspace) Get(index int) *Database {
	if index < 0 || index >= len(k.dbs) {
		return nil
	}
	return k.dbs[index]
}
