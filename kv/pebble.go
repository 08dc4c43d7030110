package kv

import (
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
	log "github.com/sirupsen/logrus"
)

// Options configures how OpenPebble/OpenBadger/OpenBolt open their
// underlying engine. Unset fields take engine-specific defaults.
type Options struct {
	CreateIfMissing bool
	Parallelism     int
	MaxOpenFiles    int
	Logger          *log.Logger
}

type pebbleDB struct {
	db *pebble.DB
	mu sync.Mutex // serializes WriteBatch, mirroring storage/kvrows/pebble.go's pebbleKV.mutex
}

type pebbleBatch struct {
	b *pebble.Batch
}

type pebbleIterator struct {
	it *pebble.Iterator
}

// OpenPebble opens (creating if necessary) a pebble-backed DB at path and
// ensures the sentinel keys exist. Pebble is chainkv's primary engine: a
// block-based, RocksDB-like LSM store, matching spec.md's description of
// the intended underlying engine most directly.
func OpenPebble(path string, opts Options) (DB, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}

	popts := &pebble.Options{}
	if opts.Logger != nil {
		popts.Logger = opts.Logger
	}
	if opts.MaxOpenFiles > 0 {
		popts.MaxOpenFiles = opts.MaxOpenFiles
	}
	if opts.Parallelism > 0 {
		popts.MaxConcurrentCompactions = opts.Parallelism
	}

	pdb, err := pebble.Open(path, popts)
	if err != nil {
		return nil, err
	}

	db := &pebbleDB{db: pdb}
	if err := EnsureSentinels(db); err != nil {
		pdb.Close()
		return nil, err
	}
	return db, nil
}

func (p *pebbleDB) Get(key []byte) ([]byte, bool, error) {
	val, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := append([]byte(nil), val...)
	closer.Close()
	return out, true, nil
}

func (p *pebbleDB) NewBatch() Batch {
	return &pebbleBatch{b: p.db.NewBatch()}
}

func (p *pebbleDB) WriteBatch(b Batch) error {
	pb := b.(*pebbleBatch)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.db.Apply(pb.b, pebble.NoSync)
}

func (p *pebbleDB) NewIterator() Iterator {
	return &pebbleIterator{it: p.db.NewIter(nil)}
}

func (p *pebbleDB) Flush(allowStall, wait bool) error {
	if !wait {
		_, err := p.db.AsyncFlush()
		return err
	}
	return p.db.Flush()
}

func (p *pebbleDB) Close() error {
	return p.db.Close()
}

func (b *pebbleBatch) Put(key, value []byte) {
	b.b.Set(key, value, nil)
}

func (b *pebbleBatch) Delete(key []byte) {
	b.b.Delete(key, nil)
}

func (b *pebbleBatch) DeleteRange(start, end []byte) {
	b.b.DeleteRange(start, end, nil)
}

func (b *pebbleBatch) Len() int {
	return int(b.b.Count())
}

func (it *pebbleIterator) Seek(target []byte) bool { return it.it.SeekGE(target) }
func (it *pebbleIterator) SeekToLast() bool        { return it.it.Last() }
func (it *pebbleIterator) Next() bool              { return it.it.Next() }
func (it *pebbleIterator) Prev() bool              { return it.it.Prev() }
func (it *pebbleIterator) Valid() bool             { return it.it.Valid() }
func (it *pebbleIterator) Key() []byte             { return it.it.Key() }
func (it *pebbleIterator) Value() []byte           { return it.it.Value() }
func (it *pebbleIterator) Status() error           { return it.it.Error() }
func (it *pebbleIterator) Close() error            { return it.it.Close() }
