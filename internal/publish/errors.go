package publish

import "fmt"

// UploadError reports a failed export upload: obtaining the write location
// or PUTting the bytes.
type UploadError struct {
	PageIndex int
	Err       error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload page %d: %v", e.PageIndex, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PublishConflictError reports an optimistic-concurrency version conflict
// from the publish backend. One conflict is retried after a short backoff;
// a second is fatal for the whole batch.
type PublishConflictError struct {
	PageIndex int
	Version   int64
}

func (e *PublishConflictError) Error() string {
	return fmt.Sprintf("publish page %d: version conflict at %d", e.PageIndex, e.Version)
}
