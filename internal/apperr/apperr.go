package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a user-visible failure with an HTTP status and an optional
// machine-readable code.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// From converts err into an *Error. Errors that are not part of the
// taxonomy become a generic internal error so that no raw error text
// leaks unclassified.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// Unauthorized reports a caller with neither a session nor a valid
// upload secret or file token.
func Unauthorized() *Error {
	return &Error{Status: http.StatusUnauthorized, Message: "Unauthorized"}
}

// InvalidInput reports a missing or malformed request field.
func InvalidInput(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// PayloadTooLarge reports a missing upload or one whose declared size
// exceeds the configured ceiling.
func PayloadTooLarge() *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: "Either no file was provided or the size exceeded the predefined limit of the server",
	}
}

// TransportError reports a non-zero transport error code from the
// upload boundary.
func TransportError(code int) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("An unexpected error happened, upload did not succeed. Info: %d", code),
	}
}

// UnsupportedFormat reports a media format the pipeline cannot process.
func UnsupportedFormat(format string) *Error {
	return &Error{
		Status:  http.StatusUnsupportedMediaType,
		Message: fmt.Sprintf("File type '%s' not supported", format),
	}
}

// CorruptMedia reports media that could not be decoded.
func CorruptMedia(err error) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: "File could not be decoded",
		Err:     err,
	}
}

// MediaAnalysisFailed reports a container analysis failure. The
// analyzer flag distinguishes a structured analyzer-reported error
// from an unknown one.
func MediaAnalysisFailed(detail string, analyzer bool, err error) *Error {
	msg := "An unknown error happened while retrieving the file's dimensions"
	if analyzer {
		msg = "An error happened while analyzing the file: " + detail
	} else if detail != "" {
		msg += ": " + detail
	}
	return &Error{Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// ThumbnailGenerationFailed reports that the external renderer did not
// produce a thumbnail.
func ThumbnailGenerationFailed(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: "Generating thumbnail did not succeed",
		Err:     err,
	}
}

// StorageWriteFailed reports a failed artifact write.
func StorageWriteFailed(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: "File could not be written to storage",
		Err:     err,
	}
}

// StorageDeleteFailed reports an artifact that could not be removed,
// naming the offending file.
func StorageDeleteFailed(name string, err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("File %s could not be deleted", name),
		Err:     err,
	}
}

// StorageUnavailable reports that the artifact directory could not be
// scanned.
func StorageUnavailable(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    "error.directoryNotFound",
		Message: "Directory empty or was not found",
		Err:     err,
	}
}

// TokenNotFound reports a malformed token or one that resolves to no
// file.
func TokenNotFound() *Error {
	return &Error{Status: http.StatusBadRequest, Message: "Provided token not found"}
}

// UnsupportedAction reports an unknown batch edit action.
func UnsupportedAction() *Error {
	return &Error{Status: http.StatusBadRequest, Message: "Provided action does not exist"}
}
