package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	domai "github.com/bryanwahyu/docsense/internal/domain/ai"
)

// ErrNotConfigured is returned when an analysis is requested before an API
// key has been saved.
var ErrNotConfigured = errors.New("api key not configured")

// Settings are the runtime-mutable knobs for the classification model.
type Settings struct {
	APIKey            string `json:"api_key"`
	Model             string `json:"model"`
	MaxTokens         int    `json:"max_tokens"`
	AutoDeleteUploads bool   `json:"auto_delete_uploads"`
	RetentionDays     int    `json:"retention_days"`
}

// Update carries a partial settings change; nil fields are left as-is.
type Update struct {
	APIKey            *string `json:"api_key"`
	Model             *string `json:"model"`
	MaxTokens         *int    `json:"max_tokens"`
	AutoDeleteUploads *bool   `json:"auto_delete_uploads"`
	RetentionDays     *int    `json:"retention_days"`
}

func defaults() Settings {
	return Settings{
		Model:             "gpt-4o-2024-08-06",
		MaxTokens:         4096,
		AutoDeleteUploads: true,
		RetentionDays:     30,
	}
}

// Store persists settings to a JSON file and serializes access to them.
type Store struct {
	mu   sync.RWMutex
	path string
	cur  Settings
}

// Open loads settings from path, falling back to defaults when the file
// does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, cur: defaults()}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.cur); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns a copy of the active settings.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Credential resolves the oracle credential, refusing when no key is set.
func (s *Store) Credential() (domai.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur.APIKey == "" {
		return domai.Credential{}, ErrNotConfigured
	}
	return domai.Credential{
		APIKey:    s.cur.APIKey,
		Model:     s.cur.Model,
		MaxTokens: s.cur.MaxTokens,
	}, nil
}

// Apply merges a partial update and flushes the result to disk before
// returning.
func (s *Store) Apply(u Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.APIKey != nil {
		s.cur.APIKey = *u.APIKey
	}
	if u.Model != nil {
		s.cur.Model = *u.Model
	}
	if u.MaxTokens != nil {
		s.cur.MaxTokens = *u.MaxTokens
	}
	if u.AutoDeleteUploads != nil {
		s.cur.AutoDeleteUploads = *u.AutoDeleteUploads
	}
	if u.RetentionDays != nil {
		s.cur.RetentionDays = *u.RetentionDays
	}
	return s.flush()
}

// APIConfigured reports whether an API key has been saved.
func (s *Store) APIConfigured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.APIKey != ""
}

// ModelID returns the configured model identifier.
func (s *Store) ModelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Model
}

// Masked returns the settings for API exposure with the key obscured.
func (s *Store) Masked() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	masked := ""
	if s.cur.APIKey != "" {
		if len(s.cur.APIKey) > 12 {
			masked = s.cur.APIKey[:8] + "..." + s.cur.APIKey[len(s.cur.APIKey)-4:]
		} else {
			masked = "***configured***"
		}
	}
	return map[string]any{
		"api_key":             masked,
		"api_key_set":         s.cur.APIKey != "",
		"model":               s.cur.Model,
		"max_tokens":          s.cur.MaxTokens,
		"auto_delete_uploads": s.cur.AutoDeleteUploads,
		"retention_days":      s.cur.RetentionDays,
	}
}

func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.cur, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
