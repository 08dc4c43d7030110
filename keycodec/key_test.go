package keycodec_test

import (
	"bytes"
	"testing"

	"github.com/maho-db/chainkv/keycodec"
)

func TestFullKeyOrdering(t *testing.T) {
	prefix := []byte{0x70}

	a := keycodec.FullKey(prefix, 1, []byte{0x01})
	b := keycodec.FullKey(prefix, 1, []byte{0x02})
	c := keycodec.FullKey(prefix, 2, []byte{0x00})

	if bytes.Compare(a, b) >= 0 {
		t.Fatalf("expected %x < %x", a, b)
	}
	if bytes.Compare(b, c) >= 0 {
		t.Fatalf("expected %x < %x (contract order must dominate)", b, c)
	}
}

func TestNextPrefix(t *testing.T) {
	tests := []struct {
		in   []byte
		want []byte
	}{
		{[]byte{0x01}, []byte{0x02}},
		{[]byte{0x01, 0xff}, []byte{0x02}},
		{[]byte{0xfe}, []byte{0xff}},
		{[]byte{0xff}, nil},
		{nil, nil},
	}

	for _, tc := range tests {
		got := keycodec.NextPrefix(tc.in)
		if !bytes.Equal(got, tc.want) {
			t.Errorf("NextPrefix(%x) = %x, want %x", tc.in, got, tc.want)
		}
	}
}

func TestNextPrefixBoundsRange(t *testing.T) {
	prefix := []byte{0x30, 0x40}
	next := keycodec.NextPrefix(prefix)

	inside := []byte{0x30, 0x40, 0xff, 0xff}
	outside := []byte{0x30, 0x41}

	if bytes.Compare(inside, next) >= 0 {
		t.Fatalf("expected %x < next prefix %x", inside, next)
	}
	if bytes.Compare(outside, next) < 0 {
		t.Fatalf("expected %x >= next prefix %x", outside, next)
	}
}

func TestStripPrefix(t *testing.T) {
	prefix := []byte{0x70}
	full := keycodec.FullKey(prefix, 0x1234, []byte{0xaa, 0xbb})

	got := keycodec.StripPrefix(full, prefix)
	if !bytes.Equal(got, []byte{0xaa, 0xbb}) {
		t.Errorf("StripPrefix = %x, want aabb", got)
	}
}
