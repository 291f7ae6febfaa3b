package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	parsed, err := ParseArgon2idHash(hash)
	if err != nil {
		t.Fatalf("ParseArgon2idHash: %v", err)
	}
	if !parsed.Verify("secret-password") {
		t.Fatal("expected password to verify")
	}
	if parsed.Verify("wrong-password") {
		t.Fatal("expected password to fail verification")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, phc := range []string{
		"",
		"$argon2id$v=19$m=65536,t=3$short",
		"$bcrypt$v=19$m=65536,t=3,p=1$c2FsdA$c3Vt",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$c3Vt",
		"$argon2id$v=19$m=65536,t=3,p=1$!!$c3Vt",
	} {
		if _, err := ParseArgon2idHash(phc); err == nil {
			t.Errorf("ParseArgon2idHash(%q) succeeded, want error", phc)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.txt")

	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	content := "# comment\n\nalice:" + hash + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write auth file: %v", err)
	}

	users, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	entry, ok := users["alice"]
	if !ok {
		t.Fatal("expected user alice")
	}
	if !entry.Verify("secret") {
		t.Fatal("expected password to verify for alice")
	}
}

func TestLoadFileRejectsBadLines(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"no-colon":   "alice\n",
		"empty-hash": "alice:\n",
		"plaintext":  "alice:password\n",
		"duplicate":  "alice:$argon2id$v=19$m=65536,t=3,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA\nalice:$argon2id$v=19$m=65536,t=3,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA\n",
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadFile(path); err == nil {
			t.Errorf("LoadFile(%s) succeeded, want error", name)
		}
	}
}

func TestCredentials(t *testing.T) {
	c, err := NewCredentials("bob", "hunter2", "")
	if err != nil {
		t.Fatalf("NewCredentials: %v", err)
	}
	if !c.Enabled() {
		t.Fatal("expected auth enabled")
	}
	if !c.Authenticate("bob", "hunter2") {
		t.Error("valid env credentials rejected")
	}
	if c.Authenticate("bob", "wrong") || c.Authenticate("eve", "hunter2") {
		t.Error("invalid credentials accepted")
	}
}

func TestCredentialsEnvHash(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	c, err := NewCredentials("bob", hash, "")
	if err != nil {
		t.Fatalf("NewCredentials: %v", err)
	}
	if !c.Authenticate("bob", "secret") {
		t.Error("hashed env credentials rejected")
	}
	if c.Authenticate("bob", hash) {
		t.Error("hash accepted as password")
	}
}

func TestCredentialsDisabled(t *testing.T) {
	c, err := NewCredentials("", "", "")
	if err != nil {
		t.Fatalf("NewCredentials: %v", err)
	}
	if c.Enabled() {
		t.Fatal("expected auth disabled with no accounts")
	}
	if c.Authenticate("anyone", "anything") {
		t.Error("disabled credentials authenticated a user")
	}
}
