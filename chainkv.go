// Package chainkv ties the store adapter, cache, write session, undo
// stack, and views into one handle. Database.Open picks a backend the
// way cmd/start.go's newServer picks a SQL storage engine, and
// everything it builds on top mirrors storage/kvrows/kvrows.go's
// makeStore: open the engine, load whatever state it already persisted,
// hand back a ready handle.
package chainkv

import (
	"fmt"

	"github.com/maho-db/chainkv/config"
	"github.com/maho-db/chainkv/kv"
	"github.com/maho-db/chainkv/session"
	"github.com/maho-db/chainkv/undo"
	"github.com/maho-db/chainkv/view"
)

// undoPrefix is the fixed keyspace region the undo stack uses for its
// state record and segments. It must not start with a sentinel byte;
// kv.CheckPrefix enforces that at undo.Open.
var undoPrefix = []byte{0x01}

// Database is an open store plus its undo stack. A Database has no
// state of its own beyond what it was opened with; all reads and writes
// happen through a Session or View obtained from it.
type Database struct {
	db    kv.DB
	undo  *undo.Stack
	store string
}

// Open opens (creating if necessary) the backend named by cfg.Engine at
// cfg.DataDir and loads its persisted undo state.
func Open(cfg *config.Config) (*Database, error) {
	opts := kv.Options{
		CreateIfMissing: true,
		Parallelism:     cfg.Parallelism,
		MaxOpenFiles:    cfg.MaxOpenFiles,
	}

	var db kv.DB
	var err error
	switch cfg.Engine {
	case "pebble":
		db, err = kv.OpenPebble(cfg.DataDir, opts)
	case "badger":
		db, err = kv.OpenBadger(cfg.DataDir, opts)
	case "bbolt":
		db, err = kv.OpenBolt(cfg.DataDir, opts)
	default:
		return nil, fmt.Errorf("chainkv: got %s for engine; want pebble, badger, or bbolt", cfg.Engine)
	}
	if err != nil {
		return nil, fmt.Errorf("chainkv: %s", err)
	}

	stack, err := undo.Open(db, undoPrefix, cfg.TargetSegmentSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("chainkv: %s", err)
	}

	return &Database{db: db, undo: stack, store: cfg.Engine}, nil
}

// Close releases the underlying store.
func (d *Database) Close() error {
	return d.db.Close()
}

// NewSession returns a fresh write session over the database. The
// session's cache starts empty; every key it touches is lazily loaded
// from the store on first access.
func (d *Database) NewSession() *session.Session {
	return session.New(d.db)
}

// NewView returns a view rooted at prefix, backed by s. prefix must not
// start with a sentinel byte.
func (d *Database) NewView(s *session.Session, prefix []byte) (*view.View, error) {
	return view.New(s, prefix)
}

// Revision returns the undo stack's current revision.
func (d *Database) Revision() int64 { return d.undo.Revision() }

// UndoDepth reports how many undo frames are currently pushed, so a
// caller can decide whether Squash or Undo are legal before calling
// them.
func (d *Database) UndoDepth() int { return d.undo.Depth() }

// SetRevision sets the undo stack's revision number directly; only
// valid while the stack holds no pushed frames.
func (d *Database) SetRevision(revision int64) error { return d.undo.SetRevision(revision) }

// Push starts a new undo frame at the next revision.
func (d *Database) Push() error { return d.undo.Push() }

// Squash merges the top two undo frames into one.
func (d *Database) Squash() error { return d.undo.Squash() }

// Undo reverses every change recorded in the top undo frame and pops it.
func (d *Database) Undo() error { return d.undo.Undo() }

// Commit drops every undo frame older than revision, making their
// changes permanent and irreversible.
func (d *Database) Commit(revision int64) error { return d.undo.Commit(revision) }

// WriteChanges persists every dirty entry in s's change list to the
// store, recording a reverse delta in the current undo frame if one is
// open, and clears the change list on success.
func (d *Database) WriteChanges(s *session.Session) error {
	return d.undo.WriteChanges(s.Cache(), s.Cache().ChangeList())
}

// Flush asks the underlying store to flush any buffered writes to disk.
func (d *Database) Flush(allowStall, wait bool) error {
	return d.db.Flush(allowStall, wait)
}
