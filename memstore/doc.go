// Package memstore provides a process-local key/value cache with optional
// per-key time-to-live expiry. It backs all ephemeral state in the assistant:
// conversation contexts, per-user domain ledgers and in-flight calculator
// sessions. Keys are namespaced by domain (e.g. "expense:<user>:expenses",
// "ctx:<conversation>"), which doubles as the cross-conversation isolation
// discipline. Process restart clears all entries; durable records belong to
// the external repository boundary.
package memstore
