package orm

import (
	"encoding/binary"

	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/errors"
)

// Counter is a simple model to show bucket usage and to power tests.
// It stores one number.
type Counter struct {
	Count int64
}

var _ Model = (*Counter)(nil)

func (c *Counter) Marshal() ([]byte, error) {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(c.Count))
	return bz, nil
}

func (c *Counter) Unmarshal(bz []byte) error {
	if len(bz) != 8 {
		return errors.Wrapf(errors.ErrInput, "counter length: %d", len(bz))
	}
	c.Count = int64(binary.BigEndian.Uint64(bz))
	return nil
}

func (c *Counter) Validate() error {
	if c == nil {
		return errors.Wrap(errors.ErrEmpty, "counter")
	}
	if c.Count < 0 {
		return errors.Wrap(errors.ErrState, "count must be non-negative")
	}
	return nil
}

// NewCounterBucket creates a bucket for counters under the given name.
func NewCounterBucket(name string) Bucket {
	return NewBucket(name, NewSimpleObj(nil, new(Counter)))
}

// LoadCounter is a helper to get a typed counter out of the bucket.
func LoadCounter(db concord.ReadOnlyKVStore, b Bucket, key []byte) (*Counter, error) {
	obj, err := b.Get(db, key)
	if err != nil {
		return nil, err
	}
	if obj == nil || obj.Value() == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "counter %X", key)
	}
	cntr, ok := obj.Value().(*Counter)
	if !ok {
		return nil, errors.Wrapf(errors.ErrModel, "invalid type: %T", obj.Value())
	}
	return cntr, nil
}
