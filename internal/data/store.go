package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/jsonc"
)

// Store loads and saves the whole user/machine collection. Both operations
// act on the complete document.
type Store interface {
	Load() (*Data, error)
	Save(*Data) error
}

// document is the on-disk shape of Data.
type document struct {
	Users    []User            `json:"users"`
	Machines []json.RawMessage `json:"machines"`
}

// FileStore keeps Data in a single JSON document. When Admin is set it is
// attached on Load and left out of the document on Save, so the admin
// record always comes from the installation config.
type FileStore struct {
	Path  string
	Admin *User
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string, admin *User) *FileStore {
	return &FileStore{Path: path, Admin: admin}
}

func (s *FileStore) Load() (*Data, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, &StorageError{Op: "load", Path: s.Path, Err: err}
	}
	d, err := Decode(raw)
	if err != nil {
		return nil, &StorageError{Op: "decode", Path: s.Path, Err: err}
	}
	if s.Admin != nil {
		d.SetAdmin(*s.Admin)
	}
	return d, nil
}

func (s *FileStore) Save(d *Data) error {
	payload, err := Encode(d)
	if err != nil {
		return &StorageError{Op: "encode", Path: s.Path, Err: err}
	}
	if err := WriteFileAtomic(s.Path, payload, 0o600); err != nil {
		return &StorageError{Op: "save", Path: s.Path, Err: err}
	}
	return nil
}

// Decode parses a data document. Comments and trailing commas are accepted.
func Decode(raw []byte) (*Data, error) {
	var doc document
	if err := json.Unmarshal(jsonc.ToJSON(raw), &doc); err != nil {
		return nil, err
	}
	d := New()
	for _, u := range doc.Users {
		if u.ID == "" {
			return nil, fmt.Errorf("user entry without id")
		}
		if _, dup := d.Users[u.ID]; dup {
			return nil, fmt.Errorf("duplicate user id %q", u.ID)
		}
		d.Users[u.ID] = u
	}
	if doc.Machines != nil {
		d.Machines = doc.Machines
	}
	return d, nil
}

// Encode renders d as an indented document with users sorted by id. The
// admin identity is omitted.
func Encode(d *Data) ([]byte, error) {
	doc := document{
		Users:    make([]User, 0, len(d.Users)),
		Machines: d.Machines,
	}
	if doc.Machines == nil {
		doc.Machines = []json.RawMessage{}
	}
	for id, u := range d.Users {
		if d.AdminID != "" && id == d.AdminID {
			continue
		}
		doc.Users = append(doc.Users, u)
	}
	sort.Slice(doc.Users, func(i, j int) bool { return doc.Users[i].ID < doc.Users[j].ID })

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
