package store

import (
	"bytes"
	"sort"
)

type keyValue struct {
	key   []byte
	value []byte
}

func sortKeyValues(data []keyValue, reverse bool) {
	sort.Slice(data, func(i, j int) bool {
		cmp := bytes.Compare(data[i].key, data[j].key)
		if reverse {
			return cmp > 0
		}
		return cmp < 0
	})
}

// sliceIterator wraps an in-memory snapshot of key-value pairs.
type sliceIterator struct {
	data []keyValue
	idx  int
}

func (s *sliceIterator) Valid() bool {
	return s.idx < len(s.data)
}

func (s *sliceIterator) Next() {
	s.assertValid()
	s.idx++
}

func (s *sliceIterator) Key() []byte {
	s.assertValid()
	return s.data[s.idx].key
}

func (s *sliceIterator) Value() []byte {
	s.assertValid()
	return s.data[s.idx].value
}

func (s *sliceIterator) Close() {
	s.data = nil
}

func (s *sliceIterator) assertValid() {
	if s.idx >= len(s.data) {
		panic("iterator is invalid")
	}
}
