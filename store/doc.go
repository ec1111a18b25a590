/*
Package store provides the implementations of the concord.KVStore
interfaces.

The only backing provided here is an in-memory btree. It supports
cache-wrapping, so a set of writes can be accumulated and then either
written to the parent store or discarded as one unit. Handlers rely on
this to keep multi-step state transitions atomic.
*/
package store
