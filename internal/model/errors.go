package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrSubmissionInFlight = errors.New("a submission is already in flight for this session")
	ErrAlreadySubmitted   = errors.New("this session has already been submitted")
	ErrNotAuthenticated   = errors.New("no user is signed in")
)

// ValidationError is returned before any network call when a composition cannot be sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UploadError reports the first media upload that failed. Siblings that finished
// before the failure are listed in Uploaded and are left in the object store.
type UploadError struct {
	Index    int
	LocalURI string
	Uploaded []string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of media #%d (%s) failed: %v", e.Index, e.LocalURI, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// SubmissionError wraps a failed backend create or update.
type SubmissionError struct {
	Op     string
	PostID PostID
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.PostID != "" {
		return fmt.Sprintf("%s post %s: %v", e.Op, e.PostID, e.Err)
	}
	return fmt.Sprintf("%s post: %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// DeletionError is never surfaced to the user; it is logged and published as an event.
type DeletionError struct {
	Paths []string
	Err   error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("deleting %d object(s) [%s]: %v", len(e.Paths), strings.Join(e.Paths, ", "), e.Err)
}

func (e *DeletionError) Unwrap() error {
	return e.Err
}
