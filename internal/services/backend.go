package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/vgen/internal/models"
	"github.com/desertthunder/vgen/internal/shared"
)

// BackendService is the typed client for the generation backend REST contract.
type BackendService struct {
	api *APIService
}

// NewBackendService wraps a raw [APIService].
func NewBackendService(api *APIService) *BackendService {
	return &BackendService{api: api}
}

// API exposes the underlying raw service.
func (b *BackendService) API() *APIService { return b.api }

func (b *BackendService) getJSON(ctx context.Context, path string, notFound error, out any) error {
	resp, err := b.api.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := checkResponse(http.MethodGet, path, resp, notFound); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func (b *BackendService) sendJSON(ctx context.Context, method, path string, body any, notFound error, out any) error {
	var data []byte
	if body != nil {
		encoded, err := shared.MarshalJSON(body, false)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		data = encoded
	}

	var (
		resp *APIResponse
		err  error
	)
	switch method {
	case http.MethodPost:
		resp, err = b.api.Post(ctx, path, data)
	case http.MethodPut:
		resp, err = b.api.Put(ctx, path, data)
	case http.MethodDelete:
		resp, err = b.api.Delete(ctx, path)
	default:
		return fmt.Errorf("%w: unsupported method %s", shared.ErrInvalidInput, method)
	}
	if err != nil {
		return err
	}
	if err := checkResponse(method, path, resp, notFound); err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.Decode(out)
}

// CreateJob registers a new job and returns its id.
func (b *BackendService) CreateJob(ctx context.Context, name string) (*models.CreateJobResponse, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: job name is required", shared.ErrMissingArgument)
	}
	var out models.CreateJobResponse
	if err := b.sendJSON(ctx, http.MethodPost, "/jobs/create", map[string]string{"job_name": name}, nil, &out); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("create job: %w: response has no job_id", shared.ErrAPIRequest)
	}
	return &out, nil
}

// StartJob begins automation of an uploaded job.
func (b *BackendService) StartJob(ctx context.Context, jobID string) error {
	path := "/jobs/" + url.PathEscape(jobID) + "/start"
	if err := b.sendJSON(ctx, http.MethodPost, path, nil, shared.ErrJobNotFound, nil); err != nil {
		return fmt.Errorf("start job %s: %w", jobID, err)
	}
	return nil
}

// GetJob fetches one job.
func (b *BackendService) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := b.getJSON(ctx, "/jobs/"+url.PathEscape(jobID), shared.ErrJobNotFound, &job); err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	return &job, nil
}

// ListJobs fetches the most recent jobs. An empty status lists all; a non-positive limit uses the server default.
func (b *BackendService) ListJobs(ctx context.Context, status models.JobStatus, limit int) ([]models.Job, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", string(status))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/jobs"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var jobs []models.Job
	if err := b.getJSON(ctx, path, nil, &jobs); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// DeleteJob removes a job and its videos on the backend.
func (b *BackendService) DeleteJob(ctx context.Context, jobID string) error {
	if err := b.sendJSON(ctx, http.MethodDelete, "/jobs/"+url.PathEscape(jobID), nil, shared.ErrJobNotFound, nil); err != nil {
		return fmt.Errorf("delete job %s: %w", jobID, err)
	}
	return nil
}

// GetJobVideos lists every video of a job in server order.
func (b *BackendService) GetJobVideos(ctx context.Context, jobID string) ([]models.Video, error) {
	var videos []models.Video
	if err := b.getJSON(ctx, "/videos/job/"+url.PathEscape(jobID), shared.ErrJobNotFound, &videos); err != nil {
		return nil, fmt.Errorf("get videos for job %s: %w", jobID, err)
	}
	for i := range videos {
		if videos[i].JobID == "" {
			videos[i].JobID = jobID
		}
	}
	return videos, nil
}

// GetVideo fetches one video.
func (b *BackendService) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	var v models.Video
	if err := b.getJSON(ctx, "/videos/"+url.PathEscape(videoID), shared.ErrVideoNotFound, &v); err != nil {
		return nil, fmt.Errorf("get video %s: %w", videoID, err)
	}
	return &v, nil
}

// SetVideoSelected records the selection flag of a video on the backend.
func (b *BackendService) SetVideoSelected(ctx context.Context, videoID string, selected bool) error {
	path := "/videos/" + url.PathEscape(videoID) + "/select"
	if err := b.sendJSON(ctx, http.MethodPut, path, map[string]bool{"selected": selected}, shared.ErrVideoNotFound, nil); err != nil {
		return fmt.Errorf("select video %s: %w", videoID, err)
	}
	return nil
}

// RegenerateVideo queues a video for generation again, optionally with a new prompt.
func (b *BackendService) RegenerateVideo(ctx context.Context, videoID, newPrompt string) error {
	payload := map[string]string{}
	if newPrompt != "" {
		payload["new_prompt"] = newPrompt
	}
	path := "/videos/" + url.PathEscape(videoID) + "/regenerate"
	if err := b.sendJSON(ctx, http.MethodPost, path, payload, shared.ErrVideoNotFound, nil); err != nil {
		return fmt.Errorf("regenerate video %s: %w", videoID, err)
	}
	return nil
}

// StartUpscale asks the backend to upscale the given videos.
func (b *BackendService) StartUpscale(ctx context.Context, videoIDs []string, quality models.Quality) (*models.UpscaleStartResponse, error) {
	if len(videoIDs) == 0 {
		return nil, shared.ErrNoSelection
	}
	if _, ok := quality.Preset(); !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidQuality, quality)
	}
	req := models.UpscaleRequest{VideoIDs: videoIDs, Quality: quality}
	var out models.UpscaleStartResponse
	if err := b.sendJSON(ctx, http.MethodPost, "/videos/upscale", req, nil, &out); err != nil {
		return nil, fmt.Errorf("start upscale: %w", err)
	}
	return &out, nil
}

// GetUpscaleStatus fetches the server report for an upscale task.
func (b *BackendService) GetUpscaleStatus(ctx context.Context, taskID string) (*models.UpscaleStatus, error) {
	var st models.UpscaleStatus
	path := "/videos/upscale/status/" + url.PathEscape(taskID)
	if err := b.getJSON(ctx, path, shared.ErrTaskNotFound, &st); err != nil {
		return nil, fmt.Errorf("upscale status %s: %w", taskID, err)
	}
	return &st, nil
}

// DownloadRequest is the body of POST /videos/download.
type DownloadRequest struct {
	VideoIDs   []string          `json:"video_ids"`
	FolderName string            `json:"folder_name"`
	Resolution models.Resolution `json:"resolution"`
}

// DownloadVideos streams the archive of the requested videos into w and returns the byte count.
func (b *BackendService) DownloadVideos(ctx context.Context, req DownloadRequest, w io.Writer) (int64, error) {
	if len(req.VideoIDs) == 0 {
		return 0, shared.ErrNoSelection
	}
	if req.Resolution == "" {
		req.Resolution = models.Resolution720p
	}
	data, err := shared.MarshalJSON(req, false)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	const path = "/videos/download"
	resp, err := b.api.Stream(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json", int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("download videos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("download videos: %w", checkResponse(http.MethodPost, path,
			&APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, shared.ErrVideoNotFound))
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download videos: failed to write archive: %w", err)
	}
	return n, nil
}
