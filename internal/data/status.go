package data

import (
	"encoding/json"
	"os"

	"github.com/tidwall/jsonc"
)

// Status is the build status document. Its contents belong to the server;
// this package only seeds and carries it.
type Status map[string]json.RawMessage

func LoadStatus(path string) (Status, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Op: "load", Path: path, Err: err}
	}
	status := Status{}
	if err := json.Unmarshal(jsonc.ToJSON(raw), &status); err != nil {
		return nil, &StorageError{Op: "decode", Path: path, Err: err}
	}
	return status, nil
}

func SaveStatus(path string, status Status) error {
	if status == nil {
		status = Status{}
	}
	payload, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Path: path, Err: err}
	}
	payload = append(payload, '\n')
	if err := WriteFileAtomic(path, payload, 0o600); err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	return nil
}
