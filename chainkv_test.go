package chainkv_test

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"

	"github.com/maho-db/chainkv"
	"github.com/maho-db/chainkv/config"
	"github.com/maho-db/chainkv/testutil"
)

func openDatabase(t *testing.T) *chainkv.Database {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg := config.New(fs)
	cfg.DataDir = testutil.TempDir(t, "chainkv")
	cfg.Engine = "pebble"

	d, err := chainkv.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestEndToEndCommitAndUndo(t *testing.T) {
	d := openDatabase(t)

	s := d.NewSession()
	v, err := d.NewView(s, []byte{0x70})
	if err != nil {
		t.Fatalf("NewView: %s", err)
	}

	if err := v.Set(1, []byte("a"), []byte("1")); err != nil {
		t.Fatalf("Set: %s", err)
	}
	if err := d.WriteChanges(s); err != nil {
		t.Fatalf("WriteChanges: %s", err)
	}

	if err := d.Push(); err != nil {
		t.Fatalf("Push: %s", err)
	}
	if err := v.Set(1, []byte("a"), []byte("2")); err != nil {
		t.Fatalf("Set: %s", err)
	}
	if err := d.WriteChanges(s); err != nil {
		t.Fatalf("WriteChanges: %s", err)
	}

	val, found, err := v.Get(1, []byte("a"))
	if err != nil || !found || !bytes.Equal(val, []byte("2")) {
		t.Fatalf("Get after write = %q, %v, %v", val, found, err)
	}

	if err := d.Undo(); err != nil {
		t.Fatalf("Undo: %s", err)
	}

	s2 := d.NewSession()
	v2, err := d.NewView(s2, []byte{0x70})
	if err != nil {
		t.Fatalf("NewView: %s", err)
	}
	val, found, err = v2.Get(1, []byte("a"))
	if err != nil || !found || !bytes.Equal(val, []byte("1")) {
		t.Fatalf("Get after undo = %q, %v, %v (want \"1\")", val, found, err)
	}

	if d.Revision() != 0 {
		t.Fatalf("Revision after undo = %d, want 0", d.Revision())
	}
}

func TestCommitDropsUndoHistory(t *testing.T) {
	d := openDatabase(t)

	s := d.NewSession()
	v, err := d.NewView(s, []byte{0x70})
	if err != nil {
		t.Fatalf("NewView: %s", err)
	}

	if err := d.Push(); err != nil {
		t.Fatalf("Push: %s", err)
	}
	if err := v.Set(1, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set: %s", err)
	}
	if err := d.WriteChanges(s); err != nil {
		t.Fatalf("WriteChanges: %s", err)
	}
	if err := d.Commit(d.Revision()); err != nil {
		t.Fatalf("Commit: %s", err)
	}

	if err := d.Undo(); err == nil {
		t.Fatal("Undo succeeded after Commit dropped all undo history")
	}

	val, found, err := v.Get(1, []byte("k"))
	if err != nil || !found || !bytes.Equal(val, []byte("v")) {
		t.Fatalf("Get after commit = %q, %v, %v", val, found, err)
	}
}
