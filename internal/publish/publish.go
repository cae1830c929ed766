// Package publish pushes flattened page exports to the backend: each page's
// PNG is PUT to a pre-signed location, then the returned key is published as
// the page's canonical annotated artifact. The backend versions the shared
// submission document, so pages go out strictly one at a time.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sheet-marker/internal/export"
	"sheet-marker/internal/submission"
)

// DefaultBackoff is the pause before the single version-conflict retry.
const DefaultBackoff = 500 * time.Millisecond

// Target is a write location for one page's export blob.
type Target struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// TargetSource obtains a pre-signed upload target for a page.
type TargetSource interface {
	UploadTarget(ctx context.Context, submissionID string, pageIndex int) (Target, error)
}

// Uploader PUTs export bytes to a pre-signed location.
type Uploader interface {
	Put(ctx context.Context, url string, data []byte) error
}

// Publisher marks an uploaded key as a page's published artifact. A version
// conflict must be reported as a *PublishConflictError.
type Publisher interface {
	Publish(ctx context.Context, submissionID string, pageIndex int, key string, version int64) error
}

// PageStatus is the per-page outcome of a batch publish.
type PageStatus struct {
	PageIndex int
	Key       string
	Err       error
}

// Pipeline runs the export-upload-publish sequence for a submission.
type Pipeline struct {
	Targets   TargetSource
	Uploader  Uploader
	Publisher Publisher

	// Backoff before the one conflict retry. Zero means DefaultBackoff.
	Backoff time.Duration
}

// PublishAll uploads and publishes every export result sequentially. Pages
// whose export already failed are recorded and skipped; the rest of the
// batch still goes out. An upload or publish failure aborts the batch and
// is returned alongside the statuses accumulated so far. Already-published
// pages are not rolled back.
func (p *Pipeline) PublishAll(ctx context.Context, sub *submission.Submission, results []export.Result) ([]PageStatus, error) {
	statuses := make([]PageStatus, 0, len(results))

	for _, r := range results {
		if r.Err != nil {
			statuses = append(statuses, PageStatus{PageIndex: r.PageIndex, Err: r.Err})
			continue
		}

		status, err := p.publishPage(ctx, sub, r)
		statuses = append(statuses, status)
		if err != nil {
			return statuses, err
		}
	}
	return statuses, nil
}

func (p *Pipeline) publishPage(ctx context.Context, sub *submission.Submission, r export.Result) (PageStatus, error) {
	data, err := export.EncodePNG(r.Image)
	if err != nil {
		uerr := &UploadError{PageIndex: r.PageIndex, Err: err}
		return PageStatus{PageIndex: r.PageIndex, Err: uerr}, uerr
	}

	target, err := p.Targets.UploadTarget(ctx, sub.ID, r.PageIndex)
	if err != nil {
		uerr := &UploadError{PageIndex: r.PageIndex, Err: err}
		return PageStatus{PageIndex: r.PageIndex, Err: uerr}, uerr
	}

	if err := p.Uploader.Put(ctx, target.URL, data); err != nil {
		uerr := &UploadError{PageIndex: r.PageIndex, Err: err}
		return PageStatus{PageIndex: r.PageIndex, Err: uerr}, uerr
	}

	if err := p.publishWithRetry(ctx, sub, r.PageIndex, target.Key); err != nil {
		return PageStatus{PageIndex: r.PageIndex, Key: target.Key, Err: err}, err
	}
	return PageStatus{PageIndex: r.PageIndex, Key: target.Key}, nil
}

// publishWithRetry publishes once, and on a version conflict waits out the
// backoff and tries exactly once more. Any other failure, or a second
// conflict, is fatal.
func (p *Pipeline) publishWithRetry(ctx context.Context, sub *submission.Submission, pageIndex int, key string) error {
	err := p.Publisher.Publish(ctx, sub.ID, pageIndex, key, sub.Version)
	var conflict *PublishConflictError
	if !errors.As(err, &conflict) {
		return err
	}

	backoff := p.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	log.Printf("publish: page %d version conflict, retrying in %v", pageIndex, backoff)

	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return fmt.Errorf("publish page %d: %w", pageIndex, ctx.Err())
	}
	return p.Publisher.Publish(ctx, sub.ID, pageIndex, key, sub.Version)
}
