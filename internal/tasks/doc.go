// Package tasks runs the organize session that sorts saved tracks into genre playlists.
//
// # Session Loop
//
// [SessionEngine.Run] moves through the phases [Fetching] → [Classifying] → [Filing] → [PromptContinue]
// and back to [Fetching] while the operator answers yes. The session ends when a fetch returns no
// tracks, the operator declines, the batch cap is reached, or the context is cancelled.
//
// Each batch's classifications are returned by the classifier and appended to
// [SessionResult.Assignments] in fetch order, so every track has exactly one assignment.
//
// # Filing
//
// [Filer] searches the catalog for each classified track, finds or creates a playlist named after
// each genre (case-insensitive), and appends the track unless the playlist already holds it.
// Tracks missing from the catalog are reported and skipped.
//
// # Progress Reporting
//
// Progress goes to an optional [Reporter] synchronously, so console output never interleaves with
// the continue prompt. The [ProgressUpdate] struct contains phase, step counters, a message, and
// optional data.
//
// # History
//
// The optional [Recorder] stores sessions, classifications, and filings as an audit trail
// (repositories.HistoryRecorder). Recording failures are logged and ignored.
package tasks
