/*
Package concord defines the common interfaces that tie the framework
together: transactions and messages, handlers and decorators, the
key-value storage contract, and the condition based identity scheme.

Authorization in concord is expressed through Conditions. A Condition
describes who (or what) may authorize an action and is hashed into a
short Address. Extensions derive conditions for the entities they
manage, for example a multisig contract derives a condition from its own
id so that the contract itself can act as a signer once a quorum of its
owners approved.

State transitions are requests (Msg) wrapped in a transaction (Tx) and
routed by path to a Handler. Handlers implement Check for cheap
validation and Deliver for the actual state change. Decorators wrap
handlers to provide shared functionality such as authentication.
*/
package concord
