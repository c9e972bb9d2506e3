package sideload

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of reasons a sideload can fail
type ErrorKind int

const (
	KindInvalidURL ErrorKind = iota + 1
	KindUnsupportedType
	KindDownloadFailed
	KindUploadError
	KindAttachmentError
)

// Code returns the machine-readable code reported to API callers
func (k ErrorKind) Code() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindUnsupportedType:
		return "invalid_file_type"
	case KindDownloadFailed:
		return "download_failed"
	case KindUploadError:
		return "upload_error"
	case KindAttachmentError:
		return "attachment_error"
	default:
		return "unknown_error"
	}
}

func (k ErrorKind) String() string {
	return k.Code()
}

// Error is returned by every pipeline stage. Message is safe to show to the
// caller; Err carries the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the machine-readable code of the error
func (e *Error) Code() string {
	return e.Kind.Code()
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf extracts the ErrorKind from err, or 0 if err is not a sideload error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
