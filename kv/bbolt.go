package kv

import (
	"bytes"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var chainkvBucket = []byte("chainkv")

type boltDB struct {
	db *bbolt.DB
}

type boltOp struct {
	del      bool
	delRange bool
	key, end []byte
	value    []byte
}

type boltBatch struct {
	ops []boltOp
}

type boltIterator struct {
	tx    *bbolt.Tx
	cur   *bbolt.Cursor
	key   []byte
	value []byte
	ok    bool
}

// OpenBolt opens (creating if necessary) a bbolt-backed DB at path and
// ensures the sentinel keys exist. All keys live in one bucket, since
// chainkv's key codec already partitions the keyspace by prefix.
// DeleteRange has no bbolt primitive, so it scans the cursor range and
// deletes each key within the same write transaction, matching
// storage/kvrows/bbolt.go's transaction-per-Updater lifecycle.
func OpenBolt(path string, opts Options) (DB, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}

	bdb, err := bbolt.Open(filepath.Join(path, "chainkv.bbolt"), 0644, nil)
	if err != nil {
		return nil, err
	}
	// Durability is obtained only via explicit Flush, per spec.md §5;
	// disable bbolt's own fsync-on-commit to match that contract.
	bdb.NoSync = true

	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(chainkvBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, err
	}

	db := &boltDB{db: bdb}
	if err := EnsureSentinels(db); err != nil {
		bdb.Close()
		return nil, err
	}
	return db, nil
}

func (d *boltDB) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	var found bool
	err := d.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket(chainkvBucket).Get(key)
		if val != nil {
			found = true
			out = append([]byte(nil), val...)
		}
		return nil
	})
	return out, found, err
}

func (d *boltDB) NewBatch() Batch {
	return &boltBatch{}
}

func (d *boltDB) WriteBatch(b Batch) error {
	bb := b.(*boltBatch)
	return d.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(chainkvBucket)
		for _, op := range bb.ops {
			switch {
			case op.delRange:
				if err := deleteRangeBucket(bkt, op.key, op.end); err != nil {
					return err
				}
			case op.del:
				if err := bkt.Delete(op.key); err != nil {
					return err
				}
			default:
				if err := bkt.Put(op.key, op.value); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func deleteRangeBucket(bkt *bbolt.Bucket, start, end []byte) error {
	cur := bkt.Cursor()
	var keys [][]byte
	for k, _ := cur.Seek(start); k != nil; k, _ = cur.Next() {
		if end != nil && bytes.Compare(k, end) >= 0 {
			break
		}
		keys = append(keys, append([]byte(nil), k...))
	}
	for _, k := range keys {
		if err := bkt.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (d *boltDB) NewIterator() Iterator {
	tx, err := d.db.Begin(false)
	if err != nil {
		return &boltIterator{}
	}
	return &boltIterator{tx: tx, cur: tx.Bucket(chainkvBucket).Cursor()}
}

func (d *boltDB) Flush(allowStall, wait bool) error {
	return d.db.Sync()
}

func (d *boltDB) Close() error {
	return d.db.Close()
}

func (b *boltBatch) Put(key, value []byte) {
	b.ops = append(b.ops, boltOp{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
}

func (b *boltBatch) Delete(key []byte) {
	b.ops = append(b.ops, boltOp{del: true, key: append([]byte(nil), key...)})
}

func (b *boltBatch) DeleteRange(start, end []byte) {
	b.ops = append(b.ops, boltOp{
		delRange: true,
		key:      append([]byte(nil), start...),
		end:      append([]byte(nil), end...),
	})
}

func (b *boltBatch) Len() int { return len(b.ops) }

func (it *boltIterator) set(k, v []byte) bool {
	if k == nil {
		it.ok = false
		it.key, it.value = nil, nil
		return false
	}
	it.ok = true
	it.key = append([]byte(nil), k...)
	it.value = append([]byte(nil), v...)
	return true
}

func (it *boltIterator) Seek(target []byte) bool {
	if it.cur == nil {
		return false
	}
	return it.set(it.cur.Seek(target))
}

func (it *boltIterator) SeekToLast() bool {
	if it.cur == nil {
		return false
	}
	return it.set(it.cur.Last())
}

func (it *boltIterator) Next() bool {
	if it.cur == nil {
		return false
	}
	return it.set(it.cur.Next())
}

func (it *boltIterator) Prev() bool {
	if it.cur == nil {
		return false
	}
	return it.set(it.cur.Prev())
}

func (it *boltIterator) Valid() bool   { return it.ok }
func (it *boltIterator) Key() []byte   { return it.key }
func (it *boltIterator) Value() []byte { return it.value }
func (it *boltIterator) Status() error { return nil }

func (it *boltIterator) Close() error {
	if it.tx != nil {
		return it.tx.Rollback()
	}
	return nil
}
