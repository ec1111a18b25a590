package store

import (
	"bytes"
	"fmt"

	"github.com/google/btree"

	"github.com/concord-labs/concord"
)

const (
	// DefaultFreeListSize is the size we hold for free nodes in btree
	DefaultFreeListSize = btree.DefaultFreeListSize
)

// MemStore returns an empty, in-memory store that supports
// cache-wrapping. There is no persistence here.
func MemStore() concord.CacheableKVStore {
	e := EmptyKVStore{}
	return NewBTreeCacheWrap(e, e.NewBatch(), nil)
}

// BTreeCacheable adds a simple btree-based CacheWrap
// strategy to a KVStore
type BTreeCacheable struct {
	concord.KVStore
}

var _ concord.CacheableKVStore = BTreeCacheable{}

// CacheWrap returns a BTreeCacheWrap that can be later
// written to this store, or rolled back
func (b BTreeCacheable) CacheWrap() concord.KVCacheWrap {
	return NewBTreeCacheWrap(b.KVStore, NewNonAtomicBatch(b.KVStore), nil)
}

// BTreeCacheWrap places a btree cache over a KVStore
type BTreeCacheWrap struct {
	bt    *btree.BTree
	free  *btree.FreeList
	back  concord.ReadOnlyKVStore
	batch Batch
}

var _ concord.KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap initializes a BTree to cache around this
// kv store. Use ReadOnlyKVStore to emphasize that all writes
// must go through the Batch.
//
// free may be nil, but set to an existing list to reuse it
// for memory savings
func NewBTreeCacheWrap(kv concord.ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:    btree.NewWithFreeList(2, free),
		free:  free,
		back:  kv,
		batch: batch,
	}
}

// CacheWrap layers another BTree on top of this one.
// Don't change horses in mid-stream....
//
// Uses NonAtomicBatch as it is only backed by another in-memory batch
func (b BTreeCacheWrap) CacheWrap() concord.KVCacheWrap {
	return NewBTreeCacheWrap(b, NewNonAtomicBatch(b), b.free)
}

// Write syncs with the underlying store.
// And then cleans up
func (b BTreeCacheWrap) Write() {
	b.batch.Write()
	b.Discard()
}

// Discard invalidates this CacheWrap and releases all data
func (b BTreeCacheWrap) Discard() {
	// clean up the btree -> freelist
	for stop := false; !stop; {
		rem := b.bt.DeleteMin()
		stop = (rem == nil)
	}
}

// Set writes to the BTree and to the batch
func (b BTreeCacheWrap) Set(key, value []byte) {
	b.bt.ReplaceOrInsert(newSetItem(key, value))
	b.batch.Set(key, value)
}

// Delete deletes from the BTree and to the batch
func (b BTreeCacheWrap) Delete(key []byte) {
	b.bt.ReplaceOrInsert(newDeletedItem(key))
	b.batch.Delete(key)
}

// Get reads from btree if there, else backing store
func (b BTreeCacheWrap) Get(key []byte) []byte {
	res := b.bt.Get(bkey{key})
	if res != nil {
		switch t := res.(type) {
		case setItem:
			return t.value
		case deletedItem:
			return nil
		default:
			panic(fmt.Sprintf("unknown item in btree: %#v", res))
		}
	}
	return b.back.Get(key)
}

// Has reads from btree if there, else backing store
func (b BTreeCacheWrap) Has(key []byte) bool {
	res := b.bt.Get(bkey{key})
	if res != nil {
		switch res.(type) {
		case setItem:
			return true
		case deletedItem:
			return false
		default:
			panic(fmt.Sprintf("unknown item in btree: %#v", res))
		}
	}
	return b.back.Has(key)
}

// Iterator over a domain of keys in ascending order.
// Combines snapshots of the cache and the backing store.
func (b BTreeCacheWrap) Iterator(start, end []byte) concord.Iterator {
	return b.merged(start, end, false)
}

// ReverseIterator over a domain of keys in descending order.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) concord.Iterator {
	return b.merged(start, end, true)
}

func (b BTreeCacheWrap) merged(start, end []byte, reverse bool) concord.Iterator {
	// Snapshot both sources, then merge with cache items taking
	// precedence over the parent and deletes shadowing parent keys.
	parent := make([]keyValue, 0)
	var it concord.Iterator
	if reverse {
		it = b.back.ReverseIterator(start, end)
	} else {
		it = b.back.Iterator(start, end)
	}
	for ; it.Valid(); it.Next() {
		parent = append(parent, keyValue{it.Key(), it.Value()})
	}
	it.Close()

	cached := make(map[string]btree.Item)
	collect := func(item btree.Item) bool {
		k := string(item.(keyer).getKey())
		cached[k] = item
		return true
	}
	if start == nil && end == nil {
		b.bt.Ascend(collect)
	} else if start == nil {
		b.bt.AscendLessThan(bkey{end}, collect)
	} else if end == nil {
		b.bt.AscendGreaterOrEqual(bkey{start}, collect)
	} else {
		b.bt.AscendRange(bkey{start}, bkey{end}, collect)
	}

	out := make([]keyValue, 0, len(parent)+len(cached))
	for _, kv := range parent {
		if _, ok := cached[string(kv.key)]; !ok {
			out = append(out, kv)
		}
	}
	for _, item := range cached {
		if set, ok := item.(setItem); ok {
			out = append(out, keyValue{set.key, set.value})
		}
	}
	sortKeyValues(out, reverse)
	return &sliceIterator{data: out}
}

//////////////////////////////////////////////
// btree items

// keyer is implemented by all items to expose the sort key
type keyer interface {
	getKey() []byte
}

// bkey is used for searching, it has no value
type bkey struct {
	key []byte
}

type setItem struct {
	bkey
	value []byte
}

type deletedItem struct {
	bkey
}

func (k bkey) getKey() []byte {
	return k.key
}

// Less returns true if this key is smaller than the given item's key
func (k bkey) Less(item btree.Item) bool {
	cmp := item.(keyer).getKey()
	return bytes.Compare(k.key, cmp) < 0
}

func newSetItem(key, value []byte) setItem {
	return setItem{bkey{key}, value}
}

func newDeletedItem(key []byte) deletedItem {
	return deletedItem{bkey{key}}
}

//////////////////////////////////////////////
// EmptyKVStore

// EmptyKVStore never holds any data and silently swallows all writes.
// It is useful as the bottom layer of a cache-wrap stack, and for tests.
type EmptyKVStore struct{}

var _ concord.KVStore = EmptyKVStore{}

func (EmptyKVStore) Get(key []byte) []byte { return nil }

func (EmptyKVStore) Has(key []byte) bool { return false }

func (EmptyKVStore) Set(key, value []byte) {}

func (EmptyKVStore) Delete(key []byte) {}

func (EmptyKVStore) Iterator(start, end []byte) concord.Iterator {
	return &sliceIterator{}
}

func (EmptyKVStore) ReverseIterator(start, end []byte) concord.Iterator {
	return &sliceIterator{}
}

// NewBatch returns a batch that writes into this store (a noop).
func (e EmptyKVStore) NewBatch() Batch {
	return NewNonAtomicBatch(e)
}
