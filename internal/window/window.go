// Package window derives a reproducible slice of the participant dataset from
// a free-text key. The same key always selects the same records, which makes
// the participants endpoint behave like a seeded pseudo-random generator
// without storing anything per key.
package window

import (
	"crypto/md5"
	"encoding/binary"

	"github.com/tinoosan/chrono/internal/dataset"
)

// DefaultKey is used when a request carries no course.
const DefaultKey = "defaut"

const (
	minSize   = 140
	sizeMod   = 500
	offsetMod = 60000
)

// Window is the offset/size pair derived from a key. End is exclusive and may
// run past the dataset; callers slice with saturating bounds.
type Window struct {
	Offset int
	Size   int
}

// End returns the exclusive upper index. It covers Size+1 records.
func (w Window) End() int { return w.Offset + w.Size + 1 }

// Selection is the outcome of Select.
type Selection struct {
	Key     string
	Size    int
	Offset  int
	Records []dataset.Record
}

// Fingerprint returns the first 16 hex digits of the MD5 digest of key read as
// an unsigned base-16 integer, i.e. the first 8 digest bytes big-endian.
// MD5 is used for determinism only.
func Fingerprint(key string) uint64 {
	sum := md5.Sum([]byte(key))
	return binary.BigEndian.Uint64(sum[:8])
}

// Compute derives the window for key.
func Compute(key string) Window {
	h := Fingerprint(key)
	size := int(h % sizeMod)
	if size < minSize {
		size = minSize
	}
	return Window{Offset: int(h % offsetMod), Size: size}
}

// Select returns the records of ds covered by key's window. It never fails:
// an empty dataset or an offset past the end gives an empty Records slice.
func Select(ds *dataset.Dataset, key string) Selection {
	w := Compute(key)
	return Selection{
		Key:     key,
		Size:    w.Size,
		Offset:  w.Offset,
		Records: ds.Slice(w.Offset, w.End()),
	}
}
