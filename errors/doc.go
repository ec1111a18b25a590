/*
Package errors implements custom error interfaces for concord.

The idea is to reuse as many errors from this package as possible and
define custom package errors when absolutely necessary. Each root error
is registered with a unique code so that it can be reported over the
wire without leaking internal details. Extensions register their own
root errors with codes from a range assigned to them.

Use Wrap and Wrapf to add context to an error while keeping the root
cause intact. Use the root error's Is method to test for a kind:

	if errors.ErrNotFound.Is(err) { ... }
*/
package errors
