package models

// VideoStatus is the generation state of one [Video].
type VideoStatus string

const (
	VideoQueued     VideoStatus = "queued"
	VideoGenerating VideoStatus = "generating"
	VideoCompleted  VideoStatus = "completed"
	VideoFailed     VideoStatus = "failed"
)

// ErrorType is the backend failure code attached to a failed [Video].
type ErrorType string

const (
	ErrorHighDemand      ErrorType = "high_demand"
	ErrorTimeout         ErrorType = "timeout"
	ErrorProminentPeople ErrorType = "prominent_people"
	ErrorPolicyViolation ErrorType = "policy_violation"
	ErrorNetwork         ErrorType = "network_error"
	ErrorDownload        ErrorType = "download_error"
	ErrorUnknown         ErrorType = "unknown"
)

// Video is one generated output file for a job, an input image and an output slot.
//
// ID is stable across polls; every other field may change between snapshots.
type Video struct {
	ID              string      `json:"video_id"`
	JobID           string      `json:"job_id,omitempty"`
	PromptNumber    int         `json:"prompt_number"`
	PromptText      string      `json:"prompt_text"`
	ImageFilename   string      `json:"image_filename"`
	VideoIndex      int         `json:"video_index"`
	Status          VideoStatus `json:"status"`
	ErrorType       ErrorType   `json:"error_type,omitempty"`
	ErrorMessage    string      `json:"error_message,omitempty"`
	CloudflareURL   string      `json:"cloudflare_url,omitempty"`
	TelegramURL     string      `json:"telegram_url,omitempty"`
	Upscaled4KURL   string      `json:"upscaled_4k_url,omitempty"`
	DurationSeconds float64     `json:"duration_seconds,omitempty"`
	Resolution      string      `json:"resolution,omitempty"`
	Upscaled        bool        `json:"upscaled"`
	Selected        bool        `json:"selected"`
}

// MediaURL returns the best playable URL for the video, preferring the 4K rendition.
func (v Video) MediaURL() string {
	switch {
	case v.Upscaled && v.Upscaled4KURL != "":
		return v.Upscaled4KURL
	case v.CloudflareURL != "":
		return v.CloudflareURL
	default:
		return v.TelegramURL
	}
}

// Completed reports whether the video can be selected, upscaled or downloaded.
func (v Video) Completed() bool {
	return v.Status == VideoCompleted
}

// PromptGroup is the set of videos generated from one prompt, in server order.
type PromptGroup struct {
	PromptNumber  int
	PromptText    string
	ImageFilename string
	Videos        []Video
}

// CompletedIDs returns the ids of the completed videos in the group.
func (g PromptGroup) CompletedIDs() []string {
	ids := make([]string, 0, len(g.Videos))
	for _, v := range g.Videos {
		if v.Completed() {
			ids = append(ids, v.ID)
		}
	}
	return ids
}
