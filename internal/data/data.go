package data

import (
	"encoding/json"
	"sort"
)

// Data is the in-memory user/machine store. AdminID names the admin
// identity; the admin record itself is supplied by the installation config.
type Data struct {
	Users    map[string]User
	Machines []json.RawMessage
	AdminID  string
}

// New returns an empty store.
func New() *Data {
	return &Data{
		Users:    make(map[string]User),
		Machines: []json.RawMessage{},
	}
}

// User looks up a user by id.
func (d *Data) User(id string) (User, bool) {
	u, ok := d.Users[id]
	return u, ok
}

// Put inserts or replaces the user keyed by u.ID.
func (d *Data) Put(u User) {
	if d.Users == nil {
		d.Users = make(map[string]User)
	}
	d.Users[u.ID] = u
}

// Admin returns the admin identity when one is attached.
func (d *Data) Admin() (User, bool) {
	if d.AdminID == "" {
		return User{}, false
	}
	return d.User(d.AdminID)
}

// SetAdmin attaches the admin identity, replacing any stored user with the
// same id.
func (d *Data) SetAdmin(admin User) {
	d.Put(admin)
	d.AdminID = admin.ID
}

// IDs returns all user ids in lexicographic order.
func (d *Data) IDs() []string {
	ids := make([]string, 0, len(d.Users))
	for id := range d.Users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy.
func (d *Data) Clone() *Data {
	out := &Data{
		Users:    make(map[string]User, len(d.Users)),
		Machines: make([]json.RawMessage, len(d.Machines)),
		AdminID:  d.AdminID,
	}
	for id, u := range d.Users {
		out.Users[id] = u
	}
	for i, m := range d.Machines {
		out.Machines[i] = append(json.RawMessage(nil), m...)
	}
	return out
}
