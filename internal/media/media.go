// Package media classifies attachments and models upload progress.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/4xmen/chatview/internal/models"
)

const (
	DefaultStep     = 20
	DefaultInterval = 500 * time.Millisecond
)

var (
	ErrProgressRegression = errors.New("upload progress cannot go backward")
	ErrUploadFinished     = errors.New("upload already finished")
)

// Classify maps a MIME type to a media kind. Anything that is not an image,
// video or audio stream is a document.
func Classify(mimeType string) models.MediaKind {
	base := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(base, "image/"):
		return models.MediaImage
	case strings.HasPrefix(base, "video/"):
		return models.MediaVideo
	case strings.HasPrefix(base, "audio/"):
		return models.MediaAudio
	default:
		return models.MediaDocument
	}
}

// Sniff detects the MIME type of r from its leading bytes and drops any
// parameters such as charset.
func Sniff(r io.Reader) (string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to detect mime type: %w", err)
	}
	base, _, _ := strings.Cut(mt.String(), ";")
	return strings.TrimSpace(base), nil
}

// Describe builds the descriptor of a freshly attached file whose upload has
// not started yet.
func Describe(filename, url, mimeType string, size int64) models.MediaDescriptor {
	return models.MediaDescriptor{
		Kind:        Classify(mimeType),
		URL:         url,
		Filename:    filename,
		Size:        size,
		MIMEType:    mimeType,
		IsUploading: true,
	}
}

// Apply moves the upload of md to percent. Values are clamped to [0,100],
// progress never decreases, reaching 100 ends the upload, and an ended
// upload is frozen.
func Apply(md *models.MediaDescriptor, percent int) error {
	if !md.IsUploading {
		return ErrUploadFinished
	}
	percent = max(0, min(percent, 100))
	if percent < md.UploadProgress {
		return fmt.Errorf("%w: %d < %d", ErrProgressRegression, percent, md.UploadProgress)
	}
	md.UploadProgress = percent
	if percent == 100 {
		md.IsUploading = false
	}
	return nil
}

// Simulate emits increasing upload percentages, step every interval, until
// it reaches 100 or ctx is cancelled. The channel is closed when done.
// Non-positive arguments fall back to DefaultStep and DefaultInterval.
func Simulate(ctx context.Context, step int, interval time.Duration) <-chan int {
	if step <= 0 {
		step = DefaultStep
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	out := make(chan int)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		progress := 0
		for progress < 100 {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			progress = min(progress+step, 100)
			select {
			case out <- progress:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
