package concordtest

import "github.com/concord-labs/concord"

// Tx represents a concord transaction.
// It carries a single message that is to be processed within this
// transaction.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg concord.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ concord.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (concord.Msg, error) {
	return tx.Msg, tx.Err
}

func (tx *Tx) Unmarshal([]byte) error {
	panic("not implemented")
}

func (tx *Tx) Marshal() ([]byte, error) {
	panic("not implemented")
}

// Msg represents a mock concord message.
type Msg struct {
	// RoutePath is returned by the Path method, consumed by
	// the router.
	RoutePath string
	// Serialized represents the serialized form of this message.
	Serialized []byte
	// Err if set is returned by any method call.
	Err error
}

var _ concord.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Unmarshal(b []byte) error {
	m.Serialized = b
	return m.Err
}

func (m *Msg) Marshal() ([]byte, error) {
	return m.Serialized, m.Err
}
