/*
Package domain contains the core domain models for the vozgraph engine.

It defines the vocabulary shared by the grammar, the automaton builder and the
adapters: tokens, command categories, grammar graphs, history entries and the
per-session automaton. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Token: A normalized, lowercase word produced from recognized speech.
  - Classification: The command category a token sequence belongs to (tagged variant).
  - Graph: A node/edge list consumed by renderers (derivation trees, fan-out views).
  - HistoryEntry: One recorded attempt to issue a voice command during a session.
  - Automaton: The linear state/transition path built from a session history.
*/
package domain
