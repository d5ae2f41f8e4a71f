package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-client/internal/client"
)

// StorageKey is the single well-known key the session token is kept under.
const StorageKey = "token"

// TokenStore is the durable slot holding the session token.
type TokenStore interface {
	// Get returns the stored token and false when the slot is empty.
	Get() (string, bool, error)
	Set(token string) error
	// Delete empties the slot. Deleting an empty slot is not an error.
	Delete() error
}

type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore keeps the token in a JSON document at path. The file
// and its directory are created on first write.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Path() string {
	return s.path
}

func (s *FileTokenStore) Get() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read token file: %w", err)
	}

	var doc map[string]string
	err = json.Unmarshal(data, &doc)
	if err != nil {
		return "", false, fmt.Errorf("failed to decode token file: %w", err)
	}

	token := doc[StorageKey]
	return token, token != "", nil
}

func (s *FileTokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(map[string]string{StorageKey: token})
	if err != nil {
		return fmt.Errorf("failed to encode token file: %w", err)
	}

	dir := filepath.Dir(s.path)
	err = os.MkdirAll(dir, 0o700)
	if err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(0o600)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write temp token file: %w", err)
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Get() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != "", nil
}

func (s *MemoryTokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

type storeTokenSource struct {
	logger zerolog.Logger
	store  TokenStore
}

// NewTokenSource gives the transport read-only access to the stored token.
func NewTokenSource(logger zerolog.Logger, store TokenStore) client.TokenSource {
	return storeTokenSource{logger: logger, store: store}
}

func (s storeTokenSource) Token() (string, bool) {
	token, ok, err := s.store.Get()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to read session token")
		return "", false
	}
	return token, ok
}
