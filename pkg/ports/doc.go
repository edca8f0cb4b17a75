/*
Package ports defines the driven ports (interfaces) for the vozgraph engine.

These interfaces decouple session handling from concrete backends, so the same
manager runs against memory, files or Redis.

# Key Interfaces

  - SessionStore: Persists and loads the command history of a session.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
