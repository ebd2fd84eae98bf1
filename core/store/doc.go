// Package store persists range fetch results and provider discrepancies.
//
// Two tables make up the logical schema, identical across the embedded sqlite
// backend and the mysql backend:
//
//   - log_ranges: one row per (from_block, to_block, provider), last-write-wins
//     through an upsert on the natural key. OK rows carry a count; ERROR rows
//     carry a failure type and a truncated message.
//   - rpc_discrepancies: append-only findings from comparing two providers
//     over a stored range.
//
// Provider strings are matched through their canonical identity (scheme and
// trailing slash stripped), so cleanup and reads find rows regardless of the
// textual variant that was stored.
package store
