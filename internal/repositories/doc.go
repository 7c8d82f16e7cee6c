// Package repositories implements the local SQLite history of jobs and upscale tasks.
//
// The backend remains the source of truth; this history only records what the client observed.
//
// Key Implementations:
//   - [JobRepository] : last snapshot of every synced job, with first-seen and sync counters
//   - [TaskRepository] : finished upscale tasks with their final logs
//   - [HistoryRecorder] : adapts both repositories to the optional stores consumed by the sync engine
//
// Job snapshots are upserted by backend job id, so repeated polls of the same job update one row.
package repositories
