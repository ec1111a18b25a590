/*
Package x contains the extensions built on top of the core framework
interfaces, as well as the Authenticator abstraction they share to
check permissions on a request context.

Extensions are wired into an application by registering their handlers
with a router and, when they provide one, adding their decorator to the
middleware stack.
*/
package x
