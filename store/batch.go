package store

import "github.com/concord-labs/concord"

// SetDeleter is the write subset of a KVStore.
type SetDeleter interface {
	Set(key, value []byte)
	Delete(key []byte)
}

// Batch groups a series of writes, to be applied to a backing
// store in one Write call.
type Batch interface {
	SetDeleter
	Write()
}

var _ SetDeleter = concord.KVStore(nil)

type op struct {
	key    []byte
	value  []byte
	delete bool
}

func (o op) apply(out SetDeleter) {
	if o.delete {
		out.Delete(o.key)
	} else {
		out.Set(o.key, o.value)
	}
}

// NonAtomicBatch just piles up ops and dumps them into the parent
// store on Write. It does not try to make this atomic; atomicity of
// the cache-wrap layer comes from writing or discarding the wrap as
// a whole.
type NonAtomicBatch struct {
	out SetDeleter
	ops []op
}

var _ Batch = (*NonAtomicBatch)(nil)

// NewNonAtomicBatch creates an empty batch, which writes to the given
// store
func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{
		out: out,
	}
}

// Set adds a set operation to the batch
func (b *NonAtomicBatch) Set(key, value []byte) {
	b.ops = append(b.ops, op{key: key, value: value})
}

// Delete adds a delete operation to the batch
func (b *NonAtomicBatch) Delete(key []byte) {
	b.ops = append(b.ops, op{key: key, delete: true})
}

// Write applies all pending operations to the parent store, in order,
// and resets the batch.
func (b *NonAtomicBatch) Write() {
	for _, o := range b.ops {
		o.apply(b.out)
	}
	b.ops = nil
}
