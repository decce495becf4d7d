// Package preferences loads user preferences from a YAML file, typically a
// mounted ConfigMap.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of the preferences file.
//
//	defaults:
//	  theme: light
//	users:
//	  u1:
//	    theme: dark
type File struct {
	Defaults map[string]string            `yaml:"defaults"`
	Users    map[string]map[string]string `yaml:"users"`
}

// FileStore reads preferences from a YAML file on every lookup so that updates
// to a mounted ConfigMap are picked up without a restart.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path. An empty path yields no preferences.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// GetPreferences returns the defaults overlaid with the user's own preferences.
func (s *FileStore) GetPreferences(_ context.Context, userID string) (map[string]string, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}

	prefs := make(map[string]string, len(file.Defaults)+len(file.Users[userID]))
	for k, v := range file.Defaults {
		prefs[k] = v
	}
	for k, v := range file.Users[userID] {
		prefs[k] = v
	}
	return prefs, nil
}

func (s *FileStore) load() (*File, error) {
	var file File
	if s.path == "" {
		return &file, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &file, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing preferences: %w", err)
	}
	return &file, nil
}
