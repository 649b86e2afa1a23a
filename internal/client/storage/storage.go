// Package storage holds the client's durable credential slot.
package storage

import (
	"encoding/json"
	"os"
)

// CredentialStore is the single durable slot the session keeps its
// bearer token in between runs.
type CredentialStore interface {
	// Load reads the persisted token. An absent slot is not an error:
	// it returns "" and a nil error.
	Load() (string, error)
	// Save overwrites the slot with token.
	Save(token string) error
	// Clear empties the slot. Clearing an empty slot is a no-op.
	Clear() error
}

const defaultFile = "session.json"

// FileStore persists the credential as a small JSON file.
type FileStore struct {
	// Path is the file location; empty means "session.json" in the
	// working directory.
	Path string
}

type fileState struct {
	Token string `json:"token"`
}

func (fs *FileStore) path() string {
	if fs.Path == "" {
		return defaultFile
	}
	return fs.Path
}

func (fs *FileStore) Load() (string, error) {
	f, err := os.Open(fs.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	var st fileState
	if err := json.NewDecoder(f).Decode(&st); err != nil {
		return "", err
	}
	return st.Token, nil
}

func (fs *FileStore) Save(token string) error {
	f, err := os.OpenFile(fs.path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(fileState{Token: token})
}

func (fs *FileStore) Clear() error {
	err := os.Remove(fs.path())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemStore is an in-memory CredentialStore for tests.
type MemStore struct {
	Token string
	// LoadErr, when set, is returned by Load to simulate unavailable storage.
	LoadErr error
}

func (ms *MemStore) Load() (string, error) {
	if ms.LoadErr != nil {
		return "", ms.LoadErr
	}
	return ms.Token, nil
}

func (ms *MemStore) Save(token string) error {
	ms.Token = token
	return nil
}

func (ms *MemStore) Clear() error {
	ms.Token = ""
	return nil
}
