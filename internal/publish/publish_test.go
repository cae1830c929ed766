package publish

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"
	"time"

	"sheet-marker/internal/export"
	"sheet-marker/internal/submission"
)

func testSubmission() *submission.Submission {
	return &submission.Submission{ID: "sub-1", Version: 4}
}

func okResults(n int) []export.Result {
	results := make([]export.Result, n)
	for i := range results {
		results[i] = export.Result{
			PageIndex: i,
			Image:     image.NewRGBA(image.Rect(0, 0, 4, 4)),
		}
	}
	return results
}

type fakeTargets struct {
	calls   int
	failAll bool
}

func (f *fakeTargets) UploadTarget(_ context.Context, submissionID string, pageIndex int) (Target, error) {
	f.calls++
	if f.failAll {
		return Target{}, errors.New("sign rejected")
	}
	return Target{
		URL: fmt.Sprintf("https://storage/%s/%d", submissionID, pageIndex),
		Key: fmt.Sprintf("key-%d", pageIndex),
	}, nil
}

type fakeUploader struct {
	urls   []string
	failOn string
}

func (f *fakeUploader) Put(_ context.Context, url string, data []byte) error {
	f.urls = append(f.urls, url)
	if url == f.failOn {
		return errors.New("storage unreachable")
	}
	if len(data) == 0 {
		return errors.New("empty body")
	}
	return nil
}

type fakePublisher struct {
	keys         []string
	conflictHits map[string]int // key -> remaining conflicts to report
}

func (f *fakePublisher) Publish(_ context.Context, _ string, pageIndex int, key string, version int64) error {
	f.keys = append(f.keys, key)
	if f.conflictHits[key] > 0 {
		f.conflictHits[key]--
		return &PublishConflictError{PageIndex: pageIndex, Version: version}
	}
	return nil
}

func newPipeline(targets *fakeTargets, up *fakeUploader, pub *fakePublisher) *Pipeline {
	return &Pipeline{Targets: targets, Uploader: up, Publisher: pub, Backoff: time.Millisecond}
}

func TestPublishAll_SequentialInPageOrder(t *testing.T) {
	targets := &fakeTargets{}
	up := &fakeUploader{}
	pub := &fakePublisher{}

	statuses, err := newPipeline(targets, up, pub).PublishAll(context.Background(), testSubmission(), okResults(3))
	if err != nil {
		t.Fatalf("PublishAll failed: %v", err)
	}

	if len(statuses) != 3 {
		t.Fatalf("statuses: got %d, want 3", len(statuses))
	}
	for i, s := range statuses {
		if s.Err != nil {
			t.Errorf("page %d: unexpected error %v", i, s.Err)
		}
		if want := fmt.Sprintf("key-%d", i); s.Key != want {
			t.Errorf("page %d key: got %q, want %q", i, s.Key, want)
		}
	}
	want := []string{"key-0", "key-1", "key-2"}
	for i, key := range pub.keys {
		if key != want[i] {
			t.Fatalf("publish order: got %v, want %v", pub.keys, want)
		}
	}
}

func TestPublishAll_ConflictRetriedExactlyOnce(t *testing.T) {
	targets := &fakeTargets{}
	up := &fakeUploader{}
	pub := &fakePublisher{conflictHits: map[string]int{"key-1": 1}}

	statuses, err := newPipeline(targets, up, pub).PublishAll(context.Background(), testSubmission(), okResults(3))
	if err != nil {
		t.Fatalf("single conflict must recover, got: %v", err)
	}
	if statuses[1].Err != nil {
		t.Errorf("page 1 status: got %v, want success after retry", statuses[1].Err)
	}

	// key-1 published twice (conflict + retry), others once.
	counts := map[string]int{}
	for _, k := range pub.keys {
		counts[k]++
	}
	if counts["key-1"] != 2 || counts["key-0"] != 1 || counts["key-2"] != 1 {
		t.Errorf("publish attempts: got %v", counts)
	}
}

func TestPublishAll_SecondConflictAbortsBatch(t *testing.T) {
	targets := &fakeTargets{}
	up := &fakeUploader{}
	pub := &fakePublisher{conflictHits: map[string]int{"key-1": 2}}

	statuses, err := newPipeline(targets, up, pub).PublishAll(context.Background(), testSubmission(), okResults(3))

	var conflict *PublishConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want PublishConflictError", err)
	}
	if conflict.PageIndex != 1 {
		t.Errorf("conflict page: got %d, want 1", conflict.PageIndex)
	}

	// Page 0 published and kept, page 2 never attempted, nothing rolled back.
	if len(statuses) != 2 {
		t.Fatalf("statuses: got %d, want 2", len(statuses))
	}
	if statuses[0].Err != nil {
		t.Errorf("already-published page 0 must keep its success status, got %v", statuses[0].Err)
	}
	for _, k := range pub.keys {
		if k == "key-2" {
			t.Error("page 2 must not be attempted after the abort")
		}
	}
}

func TestPublishAll_ExportFailureSkipsPageOnly(t *testing.T) {
	targets := &fakeTargets{}
	up := &fakeUploader{}
	pub := &fakePublisher{}

	results := okResults(3)
	results[1] = export.Result{PageIndex: 1, Err: &export.ExportError{PageIndex: 1, Err: errors.New("no background")}}

	statuses, err := newPipeline(targets, up, pub).PublishAll(context.Background(), testSubmission(), results)
	if err != nil {
		t.Fatalf("export failure must not abort the batch, got: %v", err)
	}

	if statuses[1].Err == nil {
		t.Error("failed export page must carry its error")
	}
	if statuses[0].Err != nil || statuses[2].Err != nil {
		t.Errorf("healthy pages failed: %v, %v", statuses[0].Err, statuses[2].Err)
	}
	if targets.calls != 2 {
		t.Errorf("upload targets requested: got %d, want 2", targets.calls)
	}
}

func TestPublishAll_UploadFailureAborts(t *testing.T) {
	targets := &fakeTargets{}
	up := &fakeUploader{failOn: "https://storage/sub-1/1"}
	pub := &fakePublisher{}

	statuses, err := newPipeline(targets, up, pub).PublishAll(context.Background(), testSubmission(), okResults(3))

	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("got %v, want UploadError", err)
	}
	if uploadErr.PageIndex != 1 {
		t.Errorf("failing page: got %d, want 1", uploadErr.PageIndex)
	}
	if len(statuses) != 2 {
		t.Errorf("statuses: got %d, want 2 (pages 0 and 1)", len(statuses))
	}
	if len(pub.keys) != 1 {
		t.Errorf("published pages: got %v, want only key-0", pub.keys)
	}
}
