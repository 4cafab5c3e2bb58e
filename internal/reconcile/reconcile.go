// Package reconcile merges the authors and credential directories into the
// lab's user store.
package reconcile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danmuck/labctl/internal/auth"
	"github.com/danmuck/labctl/internal/data"
	"github.com/danmuck/labctl/internal/sources"
)

// diffFields are compared between the stored user and the feeds, in order.
var diffFields = []string{data.FieldName, data.FieldEmail, data.FieldHtpasswd}

// Reconcile applies authors and creds to d and reports what it did. The
// user keyed by adminID is never touched. A malformed authors entry, either
// unreadable in the feed or not of the form "Name <email>", only skips its
// own id.
func Reconcile(authors sources.Authors, creds map[string]sources.Credential, d *data.Data, secret, adminID string) Report {
	var report Report
	known := make(map[string]struct{}, len(authors.Entries)+len(authors.Invalid))
	for _, id := range authors.IDs() {
		known[id] = struct{}{}
	}

	for _, id := range difference(known, creds) {
		report.Warnings = append(report.Warnings, Warning{Kind: WarnMissingCredential, ID: id})
	}
	for _, id := range difference(creds, known) {
		report.Warnings = append(report.Warnings, Warning{Kind: WarnMissingAuthor, ID: id})
	}

	for _, id := range intersection(known, creds) {
		if id == adminID {
			report.Warnings = append(report.Warnings, Warning{Kind: WarnAdminImmutable, ID: id})
			continue
		}

		raw, ok := authors.Entries[id]
		if !ok {
			report.Errors = append(report.Errors, authors.Invalid[id])
			continue
		}
		name, email, err := sources.SplitNameAndEmail(raw)
		if err != nil {
			var pe *sources.ParseError
			if errors.As(err, &pe) {
				scoped := *pe
				scoped.ID = id
				err = &scoped
			}
			report.Errors = append(report.Errors, err)
			continue
		}

		htpasswd := creds[id].Hash
		candidate := auth.Passhash(htpasswd, secret)

		existing, ok := d.User(id)
		if !ok {
			// The credential itself is the initial password.
			d.Put(data.User{
				ID:       id,
				Passhash: candidate,
				Name:     name,
				Email:    email,
				Htpasswd: htpasswd,
			})
			report.Events = append(report.Events, Event{Kind: EventAdded, ID: id})
			continue
		}

		updated, events, err := diff(existing, map[string]string{
			data.FieldName:     name,
			data.FieldEmail:    email,
			data.FieldHtpasswd: htpasswd,
		})
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w", id, err))
			continue
		}
		report.Events = append(report.Events, events...)

		if updated.Passhash != candidate {
			if updated.Htpasswd == existing.Htpasswd {
				report.Warnings = append(report.Warnings, Warning{Kind: WarnPasshashResynced, ID: id})
			}
			updated.Passhash = candidate
		}
		if updated != existing {
			d.Put(updated)
		}
	}

	return report
}

// diff builds the user that results from applying want to u, with one
// change event per differing field.
func diff(u data.User, want map[string]string) (data.User, []Event, error) {
	var events []Event
	out := u
	for _, field := range diffFields {
		old, err := u.Field(field)
		if err != nil {
			return data.User{}, nil, err
		}
		next := want[field]
		if next == old {
			continue
		}
		if out, err = out.With(field, next); err != nil {
			return data.User{}, nil, err
		}
		events = append(events, Event{Kind: EventChanged, ID: u.ID, Field: field, Old: old, New: next})
	}
	return out, events, nil
}

func difference[A, B any](a map[string]A, b map[string]B) []string {
	var out []string
	for id := range a {
		if _, ok := b[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func intersection[A, B any](a map[string]A, b map[string]B) []string {
	var out []string
	for id := range a {
		if _, ok := b[id]; ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
