package domain

import (
	"context"
	"time"
)

// MessageSource produces the full message set a question is answered against.
type MessageSource interface {
	Name() string
	Fetch(ctx context.Context) ([]Record, error)
}

// SnapshotStore keeps fetched transcripts on disk so questions can be asked
// offline. It is also a MessageSource returning the latest snapshot.
type SnapshotStore interface {
	MessageSource
	SaveSnapshot(ctx context.Context, source string, records []Record) (Snapshot, error)
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
	Close() error
}

// Snapshot describes one stored transcript.
type Snapshot struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Records   int       `json:"records"`
	CreatedAt time.Time `json:"created_at"`
}

// Answer is what the service returns for a question.
type Answer struct {
	Question string `json:"-"`
	Intent   Intent `json:"-"`
	Name     string `json:"-"`
	Text     string `json:"answer"`
}
