// Package repositories implements SQLite persistence for the client's local state.
//
// Key Implementations:
//   - [KeyValueRepository] : durable string store backing [store.Store] (token, pending job ids, settings)
//   - [JobRepository] : finished job history with kind and status queries
//   - [VoiceAssignmentRepository] : the speaker to voice mapping of the current script
//
// Job records carry sequence numbers for stable ordering independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
// Deleted jobs are soft deleted via deleted_at and excluded from queries by default.
package repositories
