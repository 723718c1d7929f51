package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gbguki/modelcutAI/internal/domain"
)

const profileFile = "profile.json"

// Profile is the locally registered user identity. There is exactly one per
// installation; it never leaves the machine.
type Profile struct {
	Name         string `json:"name"`
	RegisteredAt int64  `json:"registeredAt"`
}

// Store persists the profile as a single JSON file under the data directory.
type Store struct {
	mu      sync.Mutex
	path    string
	profile Profile
	now     func() time.Time
}

// NewStore reads the profile from dataPath, tolerating its absence. The data
// directory is created when missing.
func NewStore(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("identity: create data dir: %w", err)
	}
	s := &Store{path: filepath.Join(dataPath, profileFile), now: time.Now}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("identity: read profile: %w", err)
	}
	if err := json.Unmarshal(raw, &s.profile); err != nil {
		return nil, fmt.Errorf("identity: decode profile: %w", err)
	}
	return s, nil
}

// UserName returns the registered display name, empty when registration has
// not happened yet.
func (s *Store) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Name
}

// Registered reports whether a display name has been stored.
func (s *Store) Registered() bool {
	return s.UserName() != ""
}

// Register stores the display name, replacing any previous one.
func (s *Store) Register(name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, domain.Validationf("display name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	profile := Profile{Name: name, RegisteredAt: s.now().UnixMilli()}
	raw, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return Profile{}, fmt.Errorf("identity: encode profile: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return Profile{}, fmt.Errorf("identity: write profile: %w", err)
	}
	s.profile = profile
	return profile, nil
}
