package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/desertthunder/vgen/internal/models"
)

// FakeBackend is an in-memory implementation of the generation backend REST contract.
//
// Mount Handler on an httptest server; routes live under /api.
type FakeBackend struct {
	mu       sync.Mutex
	nextID   int
	Jobs     map[string]*models.Job
	Videos   map[string][]models.Video
	Upscales map[string]*models.UpscaleStatus
	Uploads  map[string][]string // job id -> multipart field names received
	Requests []string            // "METHOD path" in arrival order

	// TaskID is returned by POST /videos/upscale; empty simulates a backend without task tracking.
	TaskID    string
	Archive   []byte
	FailPaths map[string]int // "METHOD path" -> status code to fail with
}

// NewFakeBackend returns an empty backend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Jobs:      map[string]*models.Job{},
		Videos:    map[string][]models.Video{},
		Upscales:  map[string]*models.UpscaleStatus{},
		Uploads:   map[string][]string{},
		FailPaths: map[string]int{},
		TaskID:    "task-1",
		Archive:   []byte("PK\x03\x04fake-zip"),
	}
}

// AddJob seeds a job and its videos.
func (f *FakeBackend) AddJob(job models.Job, videos ...models.Video) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := job
	f.Jobs[job.ID] = &j
	f.Videos[job.ID] = append([]models.Video(nil), videos...)
}

// SetUpscale replaces the status reported for a task.
func (f *FakeBackend) SetUpscale(st models.UpscaleStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := st
	f.Upscales[st.TaskID] = &s
}

// SetTaskID changes the task id returned by later upscale requests.
func (f *FakeBackend) SetTaskID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TaskID = id
}

// Calls returns the recorded requests.
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Requests...)
}

// Job returns a copy of a stored job.
func (f *FakeBackend) Job(id string) (models.Job, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.Jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *j, true
}

// Video returns a copy of a stored video.
func (f *FakeBackend) Video(id string) (models.Video, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.findVideo(id)
	if v == nil {
		return models.Video{}, false
	}
	return *v, true
}

// UploadedFields returns the multipart field names received for a job.
func (f *FakeBackend) UploadedFields(jobID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Uploads[jobID]...)
}

// Fail makes every request matching "METHOD path" answer with code.
func (f *FakeBackend) Fail(key string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailPaths[key] = code
}

// Handler builds the routed handler.
func (f *FakeBackend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/jobs/create", f.createJob)
	mux.HandleFunc("POST /api/jobs/{id}/upload", f.upload)
	mux.HandleFunc("POST /api/jobs/{id}/start", f.startJob)
	mux.HandleFunc("GET /api/jobs/{id}", f.getJob)
	mux.HandleFunc("GET /api/jobs", f.listJobs)
	mux.HandleFunc("DELETE /api/jobs/{id}", f.deleteJob)
	mux.HandleFunc("GET /api/videos/job/{id}", f.jobVideos)
	mux.HandleFunc("GET /api/videos/{id}", f.getVideo)
	mux.HandleFunc("PUT /api/videos/{id}/select", f.selectVideo)
	mux.HandleFunc("POST /api/videos/{id}/regenerate", f.regenerate)
	mux.HandleFunc("POST /api/videos/upscale", f.startUpscale)
	mux.HandleFunc("GET /api/videos/upscale/status/{id}", f.upscaleStatus)
	mux.HandleFunc("POST /api/videos/download", f.download)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.Requests = append(f.Requests, key)
		code, fail := f.FailPaths[key]
		f.mu.Unlock()
		if fail {
			writeDetail(w, code, "forced failure")
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func (f *FakeBackend) createJob(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"job_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "job_name is required")
		return
	}
	f.mu.Lock()
	f.nextID++
	id := "job-" + strconv.Itoa(f.nextID)
	f.Jobs[id] = &models.Job{ID: id, Name: body.Name, Status: models.JobPending}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, models.CreateJobResponse{ID: id, Name: body.Name, Status: models.JobPending})
}

func (f *FakeBackend) upload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	mr, err := r.MultipartReader()
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	var fields []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		fields = append(fields, part.FormName())
		io.Copy(io.Discard, part)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Jobs[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	f.Uploads[id] = fields
	writeJSON(w, http.StatusOK, map[string]any{"job_id": id, "uploaded": true})
}

func (f *FakeBackend) startJob(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.Jobs[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	job.Status = models.JobProcessing
	writeJSON(w, http.StatusOK, map[string]any{"job_id": job.ID, "status": job.Status})
}

func (f *FakeBackend) getJob(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.Jobs[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (f *FakeBackend) listJobs(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Job{}
	for _, j := range f.Jobs {
		if status != "" && string(j.Status) != status {
			continue
		}
		out = append(out, *j)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeBackend) deleteJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Jobs[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	delete(f.Jobs, id)
	delete(f.Videos, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Job deleted"})
}

func (f *FakeBackend) jobVideos(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	videos, ok := f.Videos[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

// findVideo must be called with f.mu held.
func (f *FakeBackend) findVideo(id string) *models.Video {
	for jobID := range f.Videos {
		for i := range f.Videos[jobID] {
			if f.Videos[jobID][i].ID == id {
				return &f.Videos[jobID][i]
			}
		}
	}
	return nil
}

func (f *FakeBackend) getVideo(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.findVideo(r.PathValue("id"))
	if v == nil {
		writeDetail(w, http.StatusNotFound, "Video not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (f *FakeBackend) selectVideo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Selected bool `json:"selected"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.findVideo(r.PathValue("id"))
	if v == nil {
		writeDetail(w, http.StatusNotFound, "Video not found")
		return
	}
	v.Selected = body.Selected
	writeJSON(w, http.StatusOK, v)
}

func (f *FakeBackend) regenerate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewPrompt string `json:"new_prompt"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.findVideo(r.PathValue("id"))
	if v == nil {
		writeDetail(w, http.StatusNotFound, "Video not found")
		return
	}
	v.Status = models.VideoQueued
	v.ErrorType = ""
	v.ErrorMessage = ""
	if body.NewPrompt != "" {
		v.PromptText = body.NewPrompt
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Video queued for regeneration"})
}

func (f *FakeBackend) startUpscale(w http.ResponseWriter, r *http.Request) {
	var req models.UpscaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.VideoIDs) == 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "video_ids is required")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := models.UpscaleStartResponse{
		Started:    true,
		TaskID:     f.TaskID,
		VideoCount: len(req.VideoIDs),
		Quality:    req.Quality,
		Message:    fmt.Sprintf("Upscaling %d videos", len(req.VideoIDs)),
	}
	if f.TaskID != "" {
		if _, ok := f.Upscales[f.TaskID]; !ok {
			f.Upscales[f.TaskID] = &models.UpscaleStatus{
				TaskID:      f.TaskID,
				Status:      "queued",
				TotalVideos: len(req.VideoIDs),
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeBackend) upscaleStatus(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.Upscales[r.PathValue("id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (f *FakeBackend) download(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VideoIDs   []string `json:"video_ids"`
		FolderName string   `json:"folder_name"`
		Resolution string   `json:"resolution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.VideoIDs) == 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "video_ids is required")
		return
	}
	f.mu.Lock()
	archive := f.Archive
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.zip", body.FolderName))
	w.WriteHeader(http.StatusOK)
	w.Write(archive)
}
