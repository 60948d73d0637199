// Package repositories stores the optional organize history in SQLite.
//
// Tables are created by the embedded migrations in the shared package:
//   - sessions: one row per recorded organize run with its final phase
//   - classifications: model replies and parsed genres, keyed by normalized title and artist
//   - filings: the outcome of every track-genre pair
//
// [HistoryRecorder] adapts the repositories to tasks.Recorder and classifier.Store.
// History is an audit trail; sessions are never resumed from it.
package repositories
