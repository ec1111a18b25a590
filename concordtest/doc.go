/*
Package concordtest provides mocks and helpers for testing code built
on top of the concord framework. Mocks are zero-value usable and each
attribute can be overwritten to control the behaviour.
*/
package concordtest
