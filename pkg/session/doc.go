/*
Package session guards access to per-player session records.

The Manager wraps a ports.SessionStore with per-player locks that are
reference counted and dropped when idle. When several processes share one
store, an optional ports.DistributedLocker extends the same guarantee across
them.
*/
package session
