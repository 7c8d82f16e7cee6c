// Package services implements the HTTP side of the vgen client.
//
// # Raw API
//
// [APIService] issues JSON requests against the backend base URL (`<backend.url>/api`) and returns an [APIResponse] holding status, headers and body.
// Every request carries an X-Request-ID so client logs can be matched to backend logs.
//
// # Backend Client
//
// [BackendService] maps each endpoint of the REST contract to a typed method:
//   - jobs: create, upload (multipart with progress), start, get, list, delete
//   - videos: list per job, get, select, regenerate
//   - upscale: start, status
//   - download: streamed zip archive
//
// # Error Handling
//
// Non-2xx responses become an [*APIError] carrying the status code and the server "detail" message.
// APIError unwraps to a shared sentinel:
//   - [shared.ErrJobNotFound] : 404 on a job route
//   - [shared.ErrVideoNotFound] : 404 on a video route
//   - [shared.ErrTaskNotFound] : 404 on an upscale status route
//   - [shared.ErrAPIRequest] : anything else
//
// # Upload Progress
//
// [UploadProgress] wraps the multipart body and reports the fraction of bytes handed to the transport.
package services
