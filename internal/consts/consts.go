// Package consts defines application-wide constants.
package consts

import "time"

const (
	// DefaultWorkers is the size of the download worker pool.
	DefaultWorkers = 10
	// DefaultRetries is the number of attempts per item.
	DefaultRetries = 5
	// DefaultFetchTimeout bounds connecting and every body read of one attempt.
	DefaultFetchTimeout = 10 * time.Second
	// DefaultChunkSize is the size of each streamed write to disk.
	DefaultChunkSize = 1024
	// DefaultMaxPages guards catalog pagination against a server that never reports the end.
	DefaultMaxPages = 10000
)

// Files.
const (
	// MediaExt is the extension of every downloaded item.
	MediaExt = ".mp4"
	// PartialSuffix marks in-flight temp files next to their destination.
	PartialSuffix = ".part-"
	// LockFilename is the advisory lock file inside each user folder.
	LockFilename = ".lock"
	// ChallengePrefix marks a challenge token in the target list.
	ChallengePrefix = "#"
)

// Catalog listing.
const (
	// PageSize is the number of items requested per listing call.
	PageSize = 21
	// SearchCount is the number of search hits requested when resolving a target.
	SearchCount = 20
)

// Playback parameters sent with every media request.
const (
	PlaybackLine     = "1"
	PlaybackAppID    = "1112"
	PlaybackVQuality = "normal"
	PlaybackQuality  = "720p"
)

// Item outcomes, used as metric labels and report values.
const (
	OutcomeDownloaded = "downloaded"
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"
	OutcomeDenied     = "denied"
	OutcomeNoop       = "noop"
)

// Target statuses.
const (
	TargetFinished  = "finished"
	TargetNotFound  = "not_found"
	TargetEmpty     = "empty"
	TargetPartial   = "partial"
	TargetError     = "error"
	TargetChallenge = "challenge"
)
