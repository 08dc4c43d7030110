package cache_test

import (
	"testing"

	"github.com/maho-db/chainkv/cache"
)

func TestDirtyInvariant(t *testing.T) {
	e := &cache.Entry{FullKey: []byte("k"), OrigPresent: true, OrigValue: []byte("a"),
		CurPresent: true, CurrentValue: []byte("a")}
	if e.Dirty() {
		t.Fatal("entry with equal orig/current should not be dirty")
	}

	e.CurrentValue = []byte("b")
	if !e.Dirty() {
		t.Fatal("entry with differing orig/current should be dirty")
	}

	e.CurPresent = false
	if !e.Dirty() {
		t.Fatal("erased entry with a prior value should be dirty")
	}
}

func TestChangeListLIFOAndDedup(t *testing.T) {
	c := cache.New()
	a := &cache.Entry{FullKey: []byte("a")}
	b := &cache.Entry{FullKey: []byte("b")}
	c.Insert(a)
	c.Insert(b)

	c.Changed(a)
	c.Changed(b)
	c.Changed(a) // re-dirtying a must not duplicate it in the list

	list := c.ChangeList()
	if len(list) != 2 {
		t.Fatalf("change list length = %d, want 2", len(list))
	}
	if list[0] != b || list[1] != a {
		t.Fatalf("change list order = %v, want [b, a] (LIFO)", list)
	}

	c.ClearChangeList()
	if len(c.ChangeList()) != 0 {
		t.Fatal("change list should be empty after ClearChangeList")
	}
	if a.InChangeList || b.InChangeList {
		t.Fatal("entries should be unlinked after ClearChangeList")
	}
}

func TestAscendDescend(t *testing.T) {
	c := cache.New()
	for _, k := range []string{"m", "a", "z", "c"} {
		c.Insert(&cache.Entry{FullKey: []byte(k)})
	}

	var asc []string
	c.AscendGreaterOrEqual([]byte("c"), func(e *cache.Entry) bool {
		asc = append(asc, string(e.FullKey))
		return true
	})
	want := []string{"c", "m", "z"}
	if len(asc) != len(want) {
		t.Fatalf("ascend = %v, want %v", asc, want)
	}
	for i := range want {
		if asc[i] != want[i] {
			t.Fatalf("ascend[%d] = %q, want %q", i, asc[i], want[i])
		}
	}

	var desc []string
	c.DescendLessOrEqual([]byte("m"), func(e *cache.Entry) bool {
		desc = append(desc, string(e.FullKey))
		return true
	})
	wantDesc := []string{"m", "c", "a"}
	for i := range wantDesc {
		if desc[i] != wantDesc[i] {
			t.Fatalf("descend[%d] = %q, want %q", i, desc[i], wantDesc[i])
		}
	}
}
