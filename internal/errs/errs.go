// Package errs defines common error variables used across the application.
package errs

import "errors"

// Input errors.
var (
	// ErrNoTargets indicates that neither the command line nor the targets file named any target.
	ErrNoTargets = errors.New("no targets supplied")
)

// Fetch errors.
var (
	// ErrAccessDenied indicates that the media endpoint answered 403. It is never retried.
	ErrAccessDenied = errors.New("access denied")
	// ErrRetriesExhausted indicates that every download attempt failed.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrUnexpectedStatus indicates a non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Catalog errors.
var (
	// ErrUserNotFound indicates that the search call resolved no user for a target.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmptyCatalog indicates that the user has no items.
	ErrEmptyCatalog = errors.New("empty catalog")
	// ErrMalformedResponse indicates a response missing expected fields or not decodable.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrTooManyPages indicates that pagination did not terminate within the page limit.
	ErrTooManyPages = errors.New("too many pages")
)

// Queue errors.
var (
	// ErrQueueClosed indicates that the work queue is closed.
	ErrQueueClosed = errors.New("queue is closed")
)

// Storage errors.
var (
	// ErrFolderLocked indicates that another process holds the lock of a user folder.
	ErrFolderLocked = errors.New("folder is locked by another process")
	// ErrInvalidPath indicates an identifier that would escape its destination folder.
	ErrInvalidPath = errors.New("invalid path")
)
