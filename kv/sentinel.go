package kv

import "github.com/maho-db/chainkv/kverrors"

// Sentinel keys bracket the legitimate keyspace so that range iteration
// over any view or undo prefix always finds a neighbor, never falling
// off the ends into the engine's "invalid" iterator state.
var (
	LowSentinel  = []byte{0x00}
	HighSentinel = []byte{0xff}
)

// EnsureSentinels writes LowSentinel and HighSentinel with empty values
// if either is absent, the same one-time startup step storage/kvrows's
// makeStore performs for its version/epoch records. Safe to call on
// every open; it is a no-op once the sentinels exist.
func EnsureSentinels(db DB) error {
	b := db.NewBatch()
	wrote := false

	for _, key := range [][]byte{LowSentinel, HighSentinel} {
		_, found, err := db.Get(key)
		if err != nil {
			return kverrors.Store("kv: ensure sentinels", err)
		}
		if !found {
			b.Put(key, []byte{})
			wrote = true
		}
	}

	if !wrote {
		return nil
	}
	if err := db.WriteBatch(b); err != nil {
		return kverrors.Store("kv: ensure sentinels", err)
	}
	return db.Flush(false, true)
}

// CheckPrefix validates that p is legal as a view prefix or the undo
// prefix: non-empty, and its first byte in [0x01,0xfe] so it can never
// collide with a sentinel.
func CheckPrefix(p []byte) error {
	if len(p) == 0 {
		return kverrors.Programming("kv: prefix must be non-empty")
	}
	if p[0] == 0x00 || p[0] == 0xff {
		return kverrors.Programming("kv: prefix %x collides with a sentinel", p)
	}
	return nil
}
