// Package journal persists session events to PostgreSQL.
//
// The Writer is a wallet.EventSink: Record never blocks, and events that do
// not fit in the buffer are dropped and counted. Rows are append-only and
// keyed by event ID, so a replayed event is a conflict, not a duplicate.
package journal
