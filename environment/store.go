// Package environment persists the named SFMC environments this service can
// talk to.
package environment

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/nsiqueira/sfmcli/model"

	"gopkg.in/yaml.v3"
)

// Store is a YAML-file backed registry of SFMC environments. All methods
// read and rewrite the whole file under a lock; the file is small by nature
// (a handful of business units).
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

type storeFile struct {
	Environments []model.Environment `yaml:"environments"`
}

// NewStore creates a store at the given file path. A missing file is treated
// as an empty registry until the first Add.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// List returns all environments in file order.
func (s *Store) List() ([]model.Environment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return file.Environments, nil
}

// Get returns the environment with the given name.
func (s *Store) Get(name string) (model.Environment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return model.Environment{}, err
	}

	for _, environment := range file.Environments {
		if environment.Name == name {
			return environment, nil
		}
	}
	return model.Environment{}, fmt.Errorf("environment %s not found", name)
}

// Add appends a new environment. Names are unique.
func (s *Store) Add(environment model.Environment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	for _, existing := range file.Environments {
		if existing.Name == environment.Name {
			return fmt.Errorf("environment %s already exists", environment.Name)
		}
	}

	file.Environments = append(file.Environments, environment)

	if err := s.save(file); err != nil {
		return err
	}

	s.logger.Info("Added environment", "name", environment.Name)
	return nil
}

// Remove deletes the environment with the given name.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	kept := make([]model.Environment, 0, len(file.Environments))
	for _, environment := range file.Environments {
		if environment.Name != name {
			kept = append(kept, environment)
		}
	}
	if len(kept) == len(file.Environments) {
		return fmt.Errorf("environment %s not found", name)
	}

	file.Environments = kept

	if err := s.save(file); err != nil {
		return err
	}

	s.logger.Info("Removed environment", "name", name)
	return nil
}

func (s *Store) load() (*storeFile, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &storeFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read environments file: %w", err)
	}

	file := &storeFile{}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("parse environments file: %w", err)
	}
	return file, nil
}

func (s *Store) save(file *storeFile) error {
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshal environments file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("create environments directory: %w", err)
	}

	// Credentials live in this file, keep it owner-only.
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write environments file: %w", err)
	}
	return nil
}
