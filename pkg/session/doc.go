/*
Package session implements session management and persistence orchestration.

The Manager records every analysed command into a session's history, keeps
the history bounded, and builds automaton and fan-out views from consistent
snapshots. Concurrent access to one session is serialized with per-session
reference-counted mutexes, optionally backed by a distributed lock so several
replicas can share a store.
*/
package session
