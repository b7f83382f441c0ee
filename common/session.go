package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// Session holds the opaque token issued at login. It is an
// oauth2.TokenSource so the HTTP layer can attach it to outgoing requests;
// Token returns ErrUnauthenticated while no one is logged in.
type Session interface {
	oauth2.TokenSource
	SetToken(token string) error
	Clear() error
}

var (
	_ Session = (*MemorySession)(nil)
	_ Session = (*FileSession)(nil)
)

// MemorySession keeps the token for the lifetime of the process.
type MemorySession struct {
	mu    sync.RWMutex
	token string
}

// NewMemorySession returns a session, optionally pre-populated with token.
func NewMemorySession(token string) *MemorySession {
	return &MemorySession{token: strings.TrimSpace(token)}
}

func (s *MemorySession) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return nil, ErrUnauthenticated
	}
	return &oauth2.Token{AccessToken: s.token}, nil
}

func (s *MemorySession) SetToken(token string) error {
	s.mu.Lock()
	s.token = strings.TrimSpace(token)
	s.mu.Unlock()
	return nil
}

func (s *MemorySession) Clear() error {
	return s.SetToken("")
}

// FileSession persists the token to a file readable only by the owner, so
// a session survives between CLI invocations.
type FileSession struct {
	mu   sync.RWMutex
	path string
}

// NewFileSession returns a session stored at path. The file is created on
// the first SetToken.
func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

func (s *FileSession) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return nil, ErrUnauthenticated
	}
	return &oauth2.Token{AccessToken: token}, nil
}

func (s *FileSession) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(strings.TrimSpace(token)), 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (s *FileSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
