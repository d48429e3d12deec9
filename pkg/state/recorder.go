package state

import (
	"context"
	"errors"
	"fmt"
	"slices"

	locals "github.com/goliatone/go-locals"
	"github.com/goliatone/go-locals/pkg/activity"
)

// Recorder captures frames and keeps their history in a Store.
type Recorder struct {
	Inspector *locals.Inspector
	Store     Store
	// Hooks, when set, receive a bindings.changed event whenever a frame's
	// set of names differs from its previous record.
	Hooks activity.Hooks
}

// Record captures local and global for ref, appends the capture and returns
// the names added and removed since the previous record of the same frame.
// The first record of a frame reports every name as added. Activity hook
// failures are returned joined after the record has been stored.
func (r Recorder) Record(ctx context.Context, ref Ref, local, global locals.Scope) (Record, Delta, error) {
	if r.Store == nil {
		return Record{}, Delta{}, fmt.Errorf("state: store is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return Record{}, Delta{}, err
	}
	inspector := r.Inspector
	if inspector == nil {
		inspector = locals.New()
	}

	capture, hookErr := inspector.CaptureFrame(ctx, ref.Frame, local, global)
	record := normalizeRecord(Record{
		ID:         capture.ID,
		Session:    ref.Session,
		Frame:      ref.Frame,
		Names:      capture.Names,
		Dropped:    capture.Dropped,
		Locals:     capture.Locals,
		Globals:    capture.Globals,
		CapturedAt: capture.CapturedAt,
	})

	previous, found, err := r.Store.Latest(ctx, record.Ref())
	if err != nil {
		return Record{}, Delta{}, fmt.Errorf("state: latest %q: %w", record.Session, err)
	}
	if err := r.Store.Append(ctx, record); err != nil {
		return Record{}, Delta{}, fmt.Errorf("state: append %q: %w", record.Session, err)
	}

	delta := Diff(previous.Names, record.Names)
	errs := []error{hookErr}
	if found && !delta.Empty() {
		emitter := activity.NewEmitter(r.Hooks, activity.Config{Enabled: true})
		errs = append(errs, emitter.Emit(ctx, activity.BuildBindingsChangedEvent(activity.SnapshotEventInput{
			CaptureID:  record.ID,
			Frame:      activity.FrameContext{Session: record.Session, Name: record.Frame},
			Added:      delta.Added,
			Removed:    delta.Removed,
			OccurredAt: record.CapturedAt,
		})))
	}
	return record, delta, errors.Join(errs...)
}

// Diff compares two name lists by membership.
func Diff(before, after []string) Delta {
	prev := nameSet(before)
	next := nameSet(after)
	return Delta{
		Added:   sortedNames(locals.Difference(next, prev)),
		Removed: sortedNames(locals.Difference(prev, next)),
	}
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func sortedNames(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
