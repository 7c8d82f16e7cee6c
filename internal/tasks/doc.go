// Package tasks keeps the client's view of remote jobs and upscale operations in step with the backend.
//
// # Polling
//
// [Poller] is the recurring-fetch primitive every other component builds on:
//   - the first fetch is issued at Start, then one per interval
//   - fetches never overlap; [Poller.Trigger] queues an immediate one
//   - failures go to onError and polling continues
//   - [Poller.Stop] is idempotent, may run inside a callback, and drops in-flight results
//
// # Job Synchronization
//
// [JobSync] polls a job and its videos together and applies the pair as one snapshot.
// If either request fails the previous state is kept. Videos are grouped by prompt number and the
// [SelectionSet] is pruned to completed videos after every snapshot.
//
// Selection changes made through [JobSync.Toggle] and [JobSync.ExtendTo] are mirrored to the backend
// by a throttled background notifier. Mirroring is advisory: failures are logged and ignored.
//
// # Upscale Tracking
//
// [TaskTracker] follows one upscale task:
//
//	idle -> running -> completed | failed | timed_out
//
// Server mode polls the task status every second and times out after a fixed number of poll cycles.
// Simulated mode is used when the backend returns no task id; it fabricates a linear ramp and always
// completes. On completion the tracker asks its [Resyncer] (normally the job's [JobSync]) to refresh.
//
// # Progress Reporting
//
// All components report through [ProgressUpdate] values sent on an optional channel without blocking.
// A full channel drops the update.
//
// # History
//
// The optional [SnapshotStore] and [TaskStore] interfaces persist snapshots and finished tasks
// (repositories.JobRepository and repositories.TaskRepository). Store errors are logged and never
// interrupt synchronization.
package tasks
