package services

import (
	"bytes"
	"context"
	"io"
	"os"
	"slices"
	"strings"
	"testing"

	tu "github.com/desertthunder/vgen/internal/testing"
)

func TestUploadProgress(t *testing.T) {
	t.Run("Reports Monotonic Fractions", func(t *testing.T) {
		var got []float64
		p := NewUploadProgress(1000, func(f float64) { got = append(got, f) })

		r := p.Reader(bytes.NewReader(make([]byte, 1000)))
		buf := make([]byte, 100)
		for {
			if _, err := r.Read(buf); err == io.EOF {
				break
			}
		}

		if len(got) != 10 {
			t.Fatalf("expected 10 notifications, got %d: %v", len(got), got)
		}
		if !slices.IsSorted(got) {
			t.Errorf("expected non-decreasing fractions, got %v", got)
		}
		if got[len(got)-1] != 1 {
			t.Errorf("expected final fraction 1, got %v", got[len(got)-1])
		}
		if p.Percent() != 100 {
			t.Errorf("expected 100 percent, got %d", p.Percent())
		}
	})

	t.Run("Suppresses Same Percent", func(t *testing.T) {
		calls := 0
		p := NewUploadProgress(10_000, func(float64) { calls++ })
		p.Add(1)
		p.Add(1)
		p.Add(1)
		if calls != 1 {
			t.Errorf("expected one notification for sub-percent steps, got %d", calls)
		}
	})

	t.Run("Clamps Overflow", func(t *testing.T) {
		p := NewUploadProgress(10, nil)
		p.Add(50)
		if p.Fraction() != 1 {
			t.Errorf("expected clamped fraction 1, got %v", p.Fraction())
		}
	})

	t.Run("Unknown Total", func(t *testing.T) {
		p := NewUploadProgress(0, nil)
		p.Add(50)
		if p.Fraction() != 0 {
			t.Errorf("expected 0 for unknown total, got %v", p.Fraction())
		}
	})
}

func TestUploadFiles(t *testing.T) {
	t.Run("Sends Both Fields", func(t *testing.T) {
		b, fake := newTestBackend(t)
		seedJob(fake)
		dir := t.TempDir()
		images := tu.MustWriteFile(t, dir, "images.zip", bytes.Repeat([]byte("z"), 64*1024))
		prompts := tu.MustWriteFile(t, dir, "prompts.txt", []byte("a cat\na dog\n"))

		var last float64
		err := b.UploadFiles(context.Background(), "job-a", images, prompts, func(f float64) { last = f })
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := fake.UploadedFields("job-a"); !slices.Equal(got, []string{"images_folder", "prompts_file"}) {
			t.Errorf("unexpected fields %v", got)
		}
		if last != 1 {
			t.Errorf("expected progress to reach 1, got %v", last)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		b, fake := newTestBackend(t)
		seedJob(fake)
		err := b.UploadFiles(context.Background(), "job-a", "/does/not/exist.zip", "/nope.txt", nil)
		if err == nil || !strings.Contains(err.Error(), "images_folder") {
			t.Errorf("expected open error naming the field, got %v", err)
		}
	})

	t.Run("Unknown Job", func(t *testing.T) {
		b, _ := newTestBackend(t)
		dir := t.TempDir()
		images := tu.MustWriteFile(t, dir, "images.zip", []byte("z"))
		prompts := tu.MustWriteFile(t, dir, "prompts.txt", []byte("p"))
		if err := b.UploadFiles(context.Background(), "nope", images, prompts, nil); err == nil {
			t.Error("expected error for unknown job")
		}
	})

	t.Run("Stage Multipart", func(t *testing.T) {
		dir := t.TempDir()
		images := tu.MustWriteFile(t, dir, "images.zip", []byte("z"))
		body, ctype, size, err := stageMultipart(map[string]string{"images_folder": images}, []string{"images_folder"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer os.Remove(body.Name())
		defer body.Close()

		if !strings.HasPrefix(ctype, "multipart/form-data; boundary=") {
			t.Errorf("unexpected content type %s", ctype)
		}
		info, _ := body.Stat()
		if info.Size() != size {
			t.Errorf("expected size %d, got %d", info.Size(), size)
		}
	})
}
