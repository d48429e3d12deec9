package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrSessionRequired rejects refs without a session.
	ErrSessionRequired = errors.New("state: session is required")
	// ErrRecordIDRequired rejects records that were never assigned an id.
	ErrRecordIDRequired = errors.New("state: record id is required")
)

// Ref identifies the frame a record belongs to within a session.
type Ref struct {
	Session string
	Frame   string
}

// Identifier returns the canonical storage key for the ref.
func (r Ref) Identifier() (string, error) {
	session := strings.TrimSpace(r.Session)
	if session == "" {
		return "", ErrSessionRequired
	}
	frame := strings.TrimSpace(r.Frame)
	if frame == "" {
		frame = "-"
	}
	return fmt.Sprintf("%s/%s", session, frame), nil
}

// Record is one persisted capture.
type Record struct {
	ID         string    `json:"id"`
	Session    string    `json:"session"`
	Frame      string    `json:"frame,omitempty"`
	Names      []string  `json:"names"`
	Dropped    []string  `json:"dropped,omitempty"`
	Locals     string    `json:"locals"`
	Globals    string    `json:"globals"`
	CapturedAt time.Time `json:"captured_at"`
}

// Ref returns the ref the record was stored under.
func (r Record) Ref() Ref {
	return Ref{Session: r.Session, Frame: r.Frame}
}

// Store appends and reads records.
type Store interface {
	Append(ctx context.Context, record Record) error
	// Latest returns the most recently appended record for ref.
	Latest(ctx context.Context, ref Ref) (Record, bool, error)
	// List returns every record of session in append order.
	List(ctx context.Context, session string) ([]Record, error)
}

// Delta lists the binding names that appeared and disappeared between two
// captures of the same frame, sorted.
type Delta struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Empty reports whether nothing changed.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

func validateRecord(record Record) error {
	if strings.TrimSpace(record.ID) == "" {
		return ErrRecordIDRequired
	}
	_, err := record.Ref().Identifier()
	return err
}

func normalizeRecord(record Record) Record {
	record.ID = strings.TrimSpace(record.ID)
	record.Session = strings.TrimSpace(record.Session)
	record.Frame = strings.TrimSpace(record.Frame)
	return record
}

func cloneRecord(record Record) Record {
	out := record
	out.Names = cloneNames(record.Names)
	out.Dropped = cloneNames(record.Dropped)
	return out
}

func cloneNames(names []string) []string {
	if names == nil {
		return nil
	}
	return append([]string{}, names...)
}
