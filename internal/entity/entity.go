// Package entity defines the core entities used in the application.
package entity

import (
	"log/slog"
	"strings"
	"time"

	"hotsoonripper/internal/consts"
)

// TargetKind tells plain user targets apart from challenge tokens.
type TargetKind string

const (
	// TargetKindPlain is a user number whose catalog gets downloaded.
	TargetKindPlain TargetKind = "plain"
	// TargetKindChallenge is a '#'-prefixed token. It is recorded but not processed.
	TargetKindChallenge TargetKind = "challenge"
)

// Target is one raw input token.
type Target struct {
	Raw   string     `json:"raw"`
	Value string     `json:"value"`
	Kind  TargetKind `json:"kind"`
}

// ParseTarget classifies a single token. ok is false for blank tokens.
func ParseTarget(raw string) (target Target, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, false
	}

	if value, found := strings.CutPrefix(raw, consts.ChallengePrefix); found {
		return Target{Raw: raw, Value: value, Kind: TargetKindChallenge}, true
	}

	return Target{Raw: raw, Value: raw, Kind: TargetKindPlain}, true
}

// ParseTargets partitions tokens into plain identifiers and challenge values, keeping input order.
func ParseTargets(tokens []string) (plain, challenges []string) {
	for _, tok := range tokens {
		target, ok := ParseTarget(tok)
		if !ok {
			continue
		}

		switch target.Kind {
		case TargetKindChallenge:
			challenges = append(challenges, target.Value)
		case TargetKindPlain:
			plain = append(plain, target.Value)
		}
	}

	return plain, challenges
}

// WorkItem is one item identifier paired with its destination folder.
// It is passed by value and never modified after it is enqueued.
type WorkItem struct {
	ID     string `json:"id"`
	Folder string `json:"folder"`
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (w WorkItem) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", w.ID),
		slog.String("folder", w.Folder),
	)
}

// TargetReport summarizes what happened to one target.
type TargetReport struct {
	Target     string        `json:"target"`
	UserID     string        `json:"userId,omitempty"`
	Status     string        `json:"status"`
	Total      int           `json:"total"`
	Downloaded int           `json:"downloaded"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Bytes      int64         `json:"bytes"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (r TargetReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("target", r.Target),
		slog.String("user_id", r.UserID),
		slog.String("status", r.Status),
		slog.Int("total", r.Total),
		slog.Int("downloaded", r.Downloaded),
		slog.Int("skipped", r.Skipped),
		slog.Int("failed", r.Failed),
		slog.Int64("bytes", r.Bytes),
		slog.Duration("duration", r.Duration),
	)
}

// RunSnapshot is a point-in-time view of a running process.
type RunSnapshot struct {
	RunID   string         `json:"runId"`
	Current string         `json:"current,omitempty"`
	Queued  int            `json:"queued"`
	Pending int            `json:"pending"`
	Reports []TargetReport `json:"reports"`
}
