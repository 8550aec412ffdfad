package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCurrentCreatesIdentityFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	l := &Local{Path: path}

	u, err := l.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected a generated id")
	}
	if u.DisplayName == "" {
		t.Fatal("expected a default display name")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("identity file not written: %v", err)
	}
}

func TestCurrentReusesPersistedIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")

	first, err := (&Local{Path: path}).Current()
	if err != nil {
		t.Fatalf("first Current: %v", err)
	}

	// A fresh provider against the same file must resolve the same player.
	second, err := (&Local{Path: path}).Current()
	if err != nil {
		t.Fatalf("second Current: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("id changed across runs: %q then %q", first.ID, second.ID)
	}
}

func TestSetDisplayNamePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	l := &Local{Path: path}

	before, err := l.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if err := l.SetDisplayName("speedy"); err != nil {
		t.Fatalf("SetDisplayName: %v", err)
	}

	after, err := (&Local{Path: path}).Current()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.DisplayName != "speedy" {
		t.Errorf("display name = %q, expected %q", after.DisplayName, "speedy")
	}
	if after.ID != before.ID {
		t.Error("rename must not change the player id")
	}
}
