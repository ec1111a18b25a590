package concord

// Msg is a request for the state machine to take an action
// (make a state transition). It is just the request, and
// must be validated by the Handlers. All authentication
// information is in the wrapping Tx.
type Msg interface {
	Persistent

	// Path returns the routing path of the message.
	// This is used by the Router to locate the proper Handler.
	// Msg should be created alongside the Handler that corresponds
	// to it.
	//
	// Must be alphanumeric [0-9A-Za-z_/\-]+
	Path() string
}

// Tx represents the requests to the application. Each Tx
// carries exactly one Msg to be processed. Authentication
// information (signatures, multisig references) lives on the
// transaction envelope, not on the message.
type Tx interface {
	Persistent

	// GetMsg returns the action we wish to communicate
	GetMsg() (Msg, error)
}

// Marshaller is anything that can be represented in binary.
//
// Marshal may validate the data before serializing it and
// unless you previously validated the struct, errors should
// be expected.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal
//
// This is separated from Marshaller, as Unmarshal almost always
// requires a pointer, and functions that only need to marshal
// bytes can use the Marshaller interface to access non-pointers.
//
// As with Marshaller, this may do internal validation on the data
// and errors should be expected.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}
