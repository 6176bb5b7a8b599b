package terrainipc

import (
	"encoding/binary"

	"github.com/annel0/mmo-game/internal/werr"
	"github.com/dgraph-io/badger/v3"
)

// SummaryCache is a generator-side store of per-plane summary blobs,
// keyed by stable plane id — the summary/ subtree mentioned in §6.2,
// kept as a BadgerDB of small point records rather than a flat file per
// plane, the same access pattern the teacher's
// internal/storage/world_storage.go used BadgerDB for. The reference
// generator in cmd/terraingen does not open one.
type SummaryCache struct {
	db *badger.DB
}

func OpenSummaryCache(dir string) (*SummaryCache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, werr.New(werr.NotFound, "terrainipc.OpenSummaryCache", err)
	}
	return &SummaryCache{db: db}, nil
}

func (c *SummaryCache) Close() error { return c.db.Close() }

func summaryKey(stablePlane uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], stablePlane)
	return b[:]
}

// Get returns the cached summary for a plane, or ok=false if none exists.
func (c *SummaryCache) Get(stablePlane uint64) (data []byte, ok bool, err error) {
	err = c.db.View(func(txn *badger.Txn) error {
		item, ierr := txn.Get(summaryKey(stablePlane))
		if ierr == badger.ErrKeyNotFound {
			return nil
		}
		if ierr != nil {
			return ierr
		}
		ok = true
		return item.Value(func(v []byte) error {
			data = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, false, werr.New(werr.NotFound, "terrainipc.SummaryCache.Get", err)
	}
	return data, ok, nil
}

// Put stores (or replaces) a plane's summary.
func (c *SummaryCache) Put(stablePlane uint64, data []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(summaryKey(stablePlane), data)
	})
	if err != nil {
		return werr.New(werr.NotFound, "terrainipc.SummaryCache.Put", err)
	}
	return nil
}

// Forget drops a plane's cached summary, mirroring ForgetPlane.
func (c *SummaryCache) Forget(stablePlane uint64) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(summaryKey(stablePlane))
	})
	if err != nil {
		return werr.New(werr.NotFound, "terrainipc.SummaryCache.Forget", err)
	}
	return nil
}
