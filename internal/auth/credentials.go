package auth

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"
)

// Credentials is the set of accounts allowed to reach the server. With no
// accounts configured authentication is disabled; the server then trusts
// whatever is in front of it.
type Credentials struct {
	hashes map[string]*Argon2idHash
	// Plaintext fallback from the environment for single-user setups.
	envUser string
	envPass string
}

// NewCredentials assembles the account set from an optional auth file plus
// an optional environment user/password pair. An env hash (argon2id PHC
// string in the password slot) is recognized and verified as a hash.
func NewCredentials(envUser, envPass, authFile string) (*Credentials, error) {
	c := &Credentials{hashes: make(map[string]*Argon2idHash)}

	if authFile != "" {
		users, err := LoadFile(authFile)
		if err != nil {
			return nil, err
		}
		c.hashes = users
	}
	if envUser != "" {
		if strings.HasPrefix(envPass, "$argon2id$") {
			parsed, err := ParseArgon2idHash(envPass)
			if err != nil {
				return nil, fmt.Errorf("parse env password hash: %w", err)
			}
			c.hashes[envUser] = parsed
		} else {
			c.envUser = envUser
			c.envPass = envPass
		}
	}
	return c, nil
}

// Enabled reports whether any account is configured.
func (c *Credentials) Enabled() bool {
	return len(c.hashes) > 0 || c.envUser != ""
}

// Authenticate checks one user/password pair.
func (c *Credentials) Authenticate(user, password string) bool {
	if h, ok := c.hashes[user]; ok {
		return h.Verify(password)
	}
	if c.envUser == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.envUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.envPass)) == 1
	return userOK && passOK
}

// LoadFile reads a user:hash file, one account per line. Blank lines and
// #-comments are skipped.
func LoadFile(path string) (map[string]*Argon2idHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open auth file: %w", err)
	}
	defer f.Close()

	users := make(map[string]*Argon2idHash)
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid auth line %d: expected user:hash", lineNum)
		}
		user := strings.TrimSpace(parts[0])
		hash := strings.TrimSpace(parts[1])
		if user == "" || hash == "" {
			return nil, fmt.Errorf("invalid auth line %d: empty user or hash", lineNum)
		}
		if _, exists := users[user]; exists {
			return nil, fmt.Errorf("duplicate user %q in auth file", user)
		}
		if !strings.HasPrefix(hash, "$argon2id$") {
			return nil, fmt.Errorf("invalid auth line %d: expected argon2id hash", lineNum)
		}
		parsed, err := ParseArgon2idHash(hash)
		if err != nil {
			return nil, fmt.Errorf("invalid auth line %d: %w", lineNum, err)
		}
		users[user] = parsed
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read auth file: %w", err)
	}

	return users, nil
}
