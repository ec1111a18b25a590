package orm

import (
	"github.com/concord-labs/concord"
)

// Model is implemented by any entity that can be stored in a Bucket.
// It couples serialization with validation, so no invalid model is
// ever persisted.
type Model interface {
	concord.Persistent
	Validate() error
}

// Object wraps a Model with its storage key.
//
// This allows constructing a new object of the proper type for
// deserialization (Cloneable) and validating the full key-value pair
// before it hits the disk.
type Object interface {
	Validate() error

	Key() []byte
	Value() Model
	SetKey([]byte)
}

// Cloneable is implemented by objects that can return a new, empty
// version of themselves to deserialize into.
type Cloneable interface {
	Clone() Object
}

// CloneableObject is what a Bucket requires as a prototype.
type CloneableObject interface {
	Object
	Cloneable
}
