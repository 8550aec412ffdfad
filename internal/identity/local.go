package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Local persists the identity under ~/.flaprace/identity.yaml. The first call
// to Current generates an id and a default name and writes the file; later
// runs reuse it so the player keeps the same id across sessions.
type Local struct {
	// Path overrides the identity file location. Empty means the default.
	Path string

	mu     sync.Mutex
	cached *User
}

// Current loads or creates the persistent identity.
func (l *Local) Current() (User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return *l.cached, nil
	}

	path := l.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return User{}, fmt.Errorf("identity: resolve home dir: %w", err)
		}
		path = filepath.Join(home, ".flaprace", "identity.yaml")
	}

	if data, err := os.ReadFile(path); err == nil {
		var u User
		if err := yaml.Unmarshal(data, &u); err != nil {
			return User{}, fmt.Errorf("identity: parse %s: %w", path, err)
		}
		if u.ID != "" {
			l.cached = &u
			return u, nil
		}
	}

	u := User{
		ID:          uuid.NewString(),
		DisplayName: defaultName(),
	}
	if err := l.save(path, u); err != nil {
		return User{}, err
	}
	l.cached = &u
	return u, nil
}

// SetDisplayName updates and persists the display name.
func (l *Local) SetDisplayName(name string) error {
	u, err := l.Current()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	u.DisplayName = name
	path := l.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("identity: resolve home dir: %w", err)
		}
		path = filepath.Join(home, ".flaprace", "identity.yaml")
	}
	if err := l.save(path, u); err != nil {
		return err
	}
	l.cached = &u
	return nil
}

func (l *Local) save(path string, u User) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("identity: create dir: %w", err)
	}
	data, err := yaml.Marshal(u)
	if err != nil {
		return fmt.Errorf("identity: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("identity: write %s: %w", path, err)
	}
	return nil
}

func defaultName() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "player-" + uuid.NewString()[:4]
}
