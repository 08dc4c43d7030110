package kv_test

import (
	"bytes"
	"testing"

	"github.com/maho-db/chainkv/kv"
	"github.com/maho-db/chainkv/testutil"
)

// openers lists every backend that must pass the same behavioral
// contract, mirroring storage/kvrows's pattern of running one shared
// test body against each of its storage.Store implementations.
func openers(t *testing.T) map[string]func() kv.DB {
	return map[string]func() kv.DB{
		"pebble": func() kv.DB {
			db, err := kv.OpenPebble(testutil.TempDir(t, "pebble"), kv.Options{CreateIfMissing: true})
			if err != nil {
				t.Fatalf("OpenPebble: %s", err)
			}
			return db
		},
		"badger": func() kv.DB {
			db, err := kv.OpenBadger(testutil.TempDir(t, "badger"), kv.Options{CreateIfMissing: true})
			if err != nil {
				t.Fatalf("OpenBadger: %s", err)
			}
			return db
		},
		"bbolt": func() kv.DB {
			db, err := kv.OpenBolt(testutil.TempDir(t, "bbolt"), kv.Options{CreateIfMissing: true})
			if err != nil {
				t.Fatalf("OpenBolt: %s", err)
			}
			return db
		},
	}
}

func TestSentinelsPresent(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			db := open()
			defer db.Close()

			for _, key := range [][]byte{kv.LowSentinel, kv.HighSentinel} {
				_, found, err := db.Get(key)
				if err != nil {
					t.Fatalf("Get(%x): %s", key, err)
				}
				if !found {
					t.Fatalf("sentinel %x missing after open", key)
				}
			}
		})
	}
}

func TestPutGetDelete(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			db := open()
			defer db.Close()

			b := db.NewBatch()
			b.Put([]byte("a"), []byte("1"))
			b.Put([]byte("b"), []byte("2"))
			if err := db.WriteBatch(b); err != nil {
				t.Fatalf("WriteBatch: %s", err)
			}

			val, found, err := db.Get([]byte("a"))
			if err != nil || !found || !bytes.Equal(val, []byte("1")) {
				t.Fatalf("Get(a) = %q, %v, %v", val, found, err)
			}

			b = db.NewBatch()
			b.Delete([]byte("a"))
			if err := db.WriteBatch(b); err != nil {
				t.Fatalf("WriteBatch delete: %s", err)
			}

			_, found, err = db.Get([]byte("a"))
			if err != nil || found {
				t.Fatalf("Get(a) after delete: found=%v err=%v", found, err)
			}
		})
	}
}

func TestIteratorOrder(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			db := open()
			defer db.Close()

			b := db.NewBatch()
			for _, k := range []string{"m", "a", "z", "c"} {
				b.Put([]byte(k), []byte(k))
			}
			if err := db.WriteBatch(b); err != nil {
				t.Fatalf("WriteBatch: %s", err)
			}

			it := db.NewIterator()
			defer it.Close()

			var got []string
			for ok := it.Seek([]byte{0x00}); ok; ok = it.Next() {
				got = append(got, string(it.Key()))
			}
			if err := it.Status(); err != nil {
				t.Fatalf("iterator status: %s", err)
			}

			want := []string{string(kv.LowSentinel), "a", "c", "m", "z", string(kv.HighSentinel)}
			if len(got) != len(want) {
				t.Fatalf("got %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("got[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
				}
			}
		})
	}
}

func TestDeleteRange(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			db := open()
			defer db.Close()

			b := db.NewBatch()
			for _, k := range []string{"a", "b", "c", "d"} {
				b.Put([]byte(k), []byte(k))
			}
			if err := db.WriteBatch(b); err != nil {
				t.Fatalf("WriteBatch: %s", err)
			}

			b = db.NewBatch()
			b.DeleteRange([]byte("b"), []byte("d"))
			if err := db.WriteBatch(b); err != nil {
				t.Fatalf("WriteBatch DeleteRange: %s", err)
			}

			for _, k := range []string{"b", "c"} {
				_, found, _ := db.Get([]byte(k))
				if found {
					t.Fatalf("key %q still present after DeleteRange", k)
				}
			}
			for _, k := range []string{"a", "d"} {
				_, found, _ := db.Get([]byte(k))
				if !found {
					t.Fatalf("key %q was wrongly deleted by DeleteRange", k)
				}
			}
		})
	}
}
