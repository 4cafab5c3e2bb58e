// Package data holds the lab's user/machine store and its on-disk documents.
package data

import "fmt"

// User is one identity record. Values are never mutated in place; updates
// build a new User and replace it in Data.Users.
type User struct {
	ID       string `json:"id"`
	Passhash string `json:"passhash"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Htpasswd string `json:"htpasswd"`
}

// Field names accepted by User.Field and User.With.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldHtpasswd = "htpasswd"
	FieldPasshash = "passhash"
)

// Field returns the named field's value.
func (u User) Field(name string) (string, error) {
	switch name {
	case FieldName:
		return u.Name, nil
	case FieldEmail:
		return u.Email, nil
	case FieldHtpasswd:
		return u.Htpasswd, nil
	case FieldPasshash:
		return u.Passhash, nil
	default:
		return "", fmt.Errorf("data: unknown user field %q", name)
	}
}

// With returns a copy of u with the named field set to value. The id is
// immutable and cannot be set this way.
func (u User) With(name, value string) (User, error) {
	switch name {
	case FieldName:
		u.Name = value
	case FieldEmail:
		u.Email = value
	case FieldHtpasswd:
		u.Htpasswd = value
	case FieldPasshash:
		u.Passhash = value
	default:
		return User{}, fmt.Errorf("data: unknown user field %q", name)
	}
	return u, nil
}
