package reconcile

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/danmuck/labctl/internal/data"
	"github.com/danmuck/labctl/internal/sources"
	"github.com/danmuck/labctl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	doc     *data.Data
	saves   int
	loadErr error
	saveErr error
}

func (m *memStore) Load() (*data.Data, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.doc.Clone(), nil
}

func (m *memStore) Save(d *data.Data) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.doc = d.Clone()
	return nil
}

var (
	jdoeAuthors = sources.Authors{Entries: map[string]string{"jdoe": "Jane Doe <jane@x.org>"}}
	jdoeCreds   = map[string]sources.Credential{"jdoe": {Hash: "abc123", Module: "llvm"}}
)

func TestImportCommitsOnce(t *testing.T) {
	testlog.Start(t)
	store := &memStore{doc: data.New()}

	report, err := Import(store, jdoeAuthors, jdoeCreds, secret, "admin", ImportOptions{})
	require.NoError(t, err)
	assert.Len(t, report.Events, 1)
	assert.Equal(t, 1, store.saves)
	_, ok := store.doc.User("jdoe")
	assert.True(t, ok)

	report, err = Import(store, jdoeAuthors, jdoeCreds, secret, "admin", ImportOptions{})
	require.NoError(t, err)
	assert.Empty(t, report.Events)
}

func TestImportDryRunDoesNotSave(t *testing.T) {
	store := &memStore{doc: data.New()}
	report, err := Import(store, jdoeAuthors, jdoeCreds, secret, "admin", ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.Len(t, report.Events, 1)
	assert.Zero(t, store.saves)
	assert.Empty(t, store.doc.Users)
}

func TestImportLoadFailureIsFatal(t *testing.T) {
	store := &memStore{loadErr: &data.StorageError{Op: "load", Path: "x", Err: errors.New("boom")}}
	_, err := Import(store, jdoeAuthors, jdoeCreds, secret, "admin", ImportOptions{})
	assert.ErrorIs(t, err, data.ErrStorage)
	assert.Zero(t, store.saves)
}

func TestImportSaveFailureKeepsPriorStore(t *testing.T) {
	store := &memStore{doc: data.New(), saveErr: &data.StorageError{Op: "save", Path: "x", Err: errors.New("disk full")}}
	_, err := Import(store, jdoeAuthors, jdoeCreds, secret, "admin", ImportOptions{})
	assert.ErrorIs(t, err, data.ErrStorage)
	assert.Empty(t, store.doc.Users)
}

func TestImportAgainstFileStoreKeepsAdmin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab-data.json")
	admin := data.User{ID: "admin", Passhash: "ph", Name: "Administrator", Email: "admin@example.com"}
	store := data.NewFileStore(path, &admin)
	require.NoError(t, store.Save(data.New()))

	authors := sources.Authors{Entries: map[string]string{"admin": "Mallory <m@x.org>", "jdoe": "Jane Doe <jane@x.org>"}}
	creds := map[string]sources.Credential{"admin": {Hash: "x"}, "jdoe": {Hash: "abc123"}}
	report, err := Import(store, authors, creds, secret, admin.ID, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, []Warning{{Kind: WarnAdminImmutable, ID: "admin"}}, report.Warnings)

	d, err := store.Load()
	require.NoError(t, err)
	got, ok := d.Admin()
	require.True(t, ok)
	assert.Equal(t, admin, got)
	assert.Equal(t, []string{"admin", "jdoe"}, d.IDs())
}
