package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// UploadProgress tracks one multipart transfer and reports the fraction sent.
//
// The callback fires whenever the whole-percent value changes and once more at completion.
type UploadProgress struct {
	mu         sync.Mutex
	total      int64
	sent       int64
	lastPct    int
	onProgress func(fraction float64)
}

// NewUploadProgress creates a tracker for a body of total bytes.
func NewUploadProgress(total int64, onProgress func(fraction float64)) *UploadProgress {
	return &UploadProgress{total: total, lastPct: -1, onProgress: onProgress}
}

// Add records n more bytes handed to the transport.
func (p *UploadProgress) Add(n int64) {
	p.mu.Lock()
	p.sent += n
	if p.total > 0 && p.sent > p.total {
		p.sent = p.total
	}
	frac := p.fractionLocked()
	pct := int(frac*100 + 0.5)
	notify := pct != p.lastPct
	if notify {
		p.lastPct = pct
	}
	fn := p.onProgress
	p.mu.Unlock()

	if notify && fn != nil {
		fn(frac)
	}
}

// Fraction returns sent/total in [0,1]. An unknown total reports 0.
func (p *UploadProgress) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fractionLocked()
}

// Percent returns the rounded whole percentage.
func (p *UploadProgress) Percent() int {
	return int(p.Fraction()*100 + 0.5)
}

func (p *UploadProgress) fractionLocked() float64 {
	if p.total <= 0 {
		return 0
	}
	return float64(p.sent) / float64(p.total)
}

// Reader wraps r so every read advances the tracker.
func (p *UploadProgress) Reader(r io.Reader) io.Reader {
	return &progressReader{r: r, p: p}
}

type progressReader struct {
	r io.Reader
	p *UploadProgress
}

func (pr *progressReader) Read(b []byte) (int, error) {
	n, err := pr.r.Read(b)
	if n > 0 {
		pr.p.Add(int64(n))
	}
	return n, err
}

// UploadFiles posts the image archive and prompts file for a job as multipart form data.
//
// The form is staged in a temp file so the request carries a Content-Length and progress has a known total.
func (b *BackendService) UploadFiles(ctx context.Context, jobID, imagesPath, promptsPath string, onProgress func(fraction float64)) error {
	body, contentType, size, err := stageMultipart(map[string]string{
		"images_folder": imagesPath,
		"prompts_file":  promptsPath,
	}, []string{"images_folder", "prompts_file"})
	if err != nil {
		return fmt.Errorf("upload files: %w", err)
	}
	defer func() {
		body.Close()
		os.Remove(body.Name())
	}()

	tracker := NewUploadProgress(size, onProgress)
	path := "/jobs/" + url.PathEscape(jobID) + "/upload"
	resp, err := b.api.Stream(ctx, http.MethodPost, path, tracker.Reader(body), contentType, size)
	if err != nil {
		return fmt.Errorf("upload files: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("upload files: failed to read response: %w", err)
	}
	apiResp := &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}
	if err := checkResponse(http.MethodPost, path, apiResp, nil); err != nil {
		return fmt.Errorf("upload files: %w", err)
	}
	return nil
}

// stageMultipart writes the named files into a multipart body on disk, rewound and ready to send.
func stageMultipart(files map[string]string, order []string) (*os.File, string, int64, error) {
	tmp, err := os.CreateTemp("", "vgen-upload-*.multipart")
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to create staging file: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	mw := multipart.NewWriter(tmp)
	for _, field := range order {
		path := files[field]
		if err := copyFormFile(mw, field, path); err != nil {
			cleanup()
			return nil, "", 0, err
		}
	}
	if err := mw.Close(); err != nil {
		cleanup()
		return nil, "", 0, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		cleanup()
		return nil, "", 0, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, "", 0, err
	}
	return tmp, mw.FormDataContentType(), size, nil
}

func copyFormFile(mw *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", field, err)
	}
	defer f.Close()

	part, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy %s: %w", field, err)
	}
	return nil
}
