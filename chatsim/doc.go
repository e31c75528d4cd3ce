// Package chatsim implements the simulated live-chat core: a bounded,
// insertion-ordered message buffer and a randomized-interval scheduler that
// feeds it.
//
// It provides two pieces:
//   - Buffer: holds at most MaxSize messages, strict FIFO eviction from the
//     front regardless of priority. Appends come in two flavours: synthetic
//     (template chosen deterministically by an externally-owned cursor,
//     author drawn at random from a pool) and priority (tip confirmations,
//     reserved author, caller-supplied or default text).
//   - Scheduler: a single-shot timer that re-arms itself after every firing
//     with a fresh delay drawn uniformly from [MinDelay, MaxDelay]. Cancel is
//     immediate and unconditional: once it returns, no further synthetic
//     append can reach the buffer, even from a timer already in flight. A
//     cancelled scheduler may be activated again.
//
// The buffer is deliberately cursor-free so the eviction/ordering logic stays
// decoupled from injection cadence and testable without any timer.
package chatsim
