package reconcile

import (
	"fmt"

	"github.com/rs/zerolog"
)

type WarningKind string

const (
	WarnMissingCredential WarningKind = "missing_credential"
	WarnMissingAuthor     WarningKind = "missing_author"
	WarnAdminImmutable    WarningKind = "admin_immutable"
	WarnPasshashResynced  WarningKind = "passhash_resynced"
)

// Warning is a non-fatal diagnostic about one id.
type Warning struct {
	Kind WarningKind
	ID   string
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnMissingCredential:
		return fmt.Sprintf("authors directory contains user without credential: %q", w.ID)
	case WarnMissingAuthor:
		return fmt.Sprintf("credential directory contains user without authors entry: %q", w.ID)
	case WarnAdminImmutable:
		return fmt.Sprintf("ignore %q, is the admin user", w.ID)
	case WarnPasshashResynced:
		return fmt.Sprintf("passhash for %q did not match its htpasswd, recomputed", w.ID)
	default:
		return fmt.Sprintf("%s: %q", w.Kind, w.ID)
	}
}

type EventKind string

const (
	EventAdded   EventKind = "added"
	EventChanged EventKind = "changed"
)

// Event records one mutation of the store.
type Event struct {
	Kind  EventKind
	ID    string
	Field string
	Old   string
	New   string
}

func (e Event) String() string {
	if e.Kind == EventAdded {
		return fmt.Sprintf("added user %q", e.ID)
	}
	return fmt.Sprintf("changed %q %s from %q to %q", e.ID, e.Field, e.Old, e.New)
}

// Report is the outcome of one reconciliation pass. Entries appear in the
// order ids were processed.
type Report struct {
	Warnings []Warning
	Events   []Event
	Errors   []error
}

// Changed reports whether the pass mutated the store.
func (r Report) Changed() bool {
	return len(r.Events) > 0
}

// Counts summarizes the report by category.
func (r Report) Counts() (added, changed, warnings, errs int) {
	for _, e := range r.Events {
		if e.Kind == EventAdded {
			added++
		} else {
			changed++
		}
	}
	return added, changed, len(r.Warnings), len(r.Errors)
}

// Log writes the report to logger: warnings, then events, then errors.
func (r Report) Log(logger zerolog.Logger) {
	for _, w := range r.Warnings {
		logger.Warn().Str("id", w.ID).Str("kind", string(w.Kind)).Msg(w.String())
	}
	for _, e := range r.Events {
		logger.Info().Str("id", e.ID).Str("kind", string(e.Kind)).Msg(e.String())
	}
	for _, err := range r.Errors {
		logger.Error().Err(err).Msg("skipped user")
	}
}
