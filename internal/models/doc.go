// Package models defines the wire and view types shared by the vgen client.
//
// The package contains three groups of types:
//
// 1. Backend resources, decoded from the REST contract:
//   - [Job] : one batch generation request and its counters
//   - [Video] : one generated output tied to a prompt and an output slot
//   - [UpscaleStatus] : server-side status of an upscale task
//
// 2. Client-side state:
//   - [UpscaleTask] : locally tracked upscale operation with its log
//   - [LogEntry] : one append-only log line with a [Severity]
//
// 3. Closed enumerations:
//   - [JobStatus], [VideoStatus], [ErrorType]
//   - [Quality] presets and download [Resolution]
//
// Server payloads are the source of truth: a [Job] or [Video] is replaced wholesale on every poll and is never edited in place by the user.
package models
