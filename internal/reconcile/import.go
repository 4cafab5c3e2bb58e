package reconcile

import (
	"fmt"

	"github.com/danmuck/labctl/internal/data"
	"github.com/danmuck/labctl/internal/sources"
)

type ImportOptions struct {
	// DryRun reconciles in memory and skips the save.
	DryRun bool
}

// Import loads the store, reconciles it and commits the result with a
// single Save. A load or save failure aborts the run; the prior document
// stays intact.
func Import(store data.Store, authors sources.Authors, creds map[string]sources.Credential, secret, adminID string, opts ImportOptions) (Report, error) {
	d, err := store.Load()
	if err != nil {
		return Report{}, fmt.Errorf("import: %w", err)
	}

	report := Reconcile(authors, creds, d, secret, adminID)

	if opts.DryRun {
		return report, nil
	}
	if err := store.Save(d); err != nil {
		return report, fmt.Errorf("import: %w", err)
	}
	return report, nil
}
