// Package keyring persists CLI settings and provider credentials in a local
// sqlite database. Secret values are sealed with a machine-bound key.
package keyring

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// Well-known keys.
const (
	OpenAIKey     = "openai_api_key"
	GeminiKey     = "gemini_api_key"
	AnthropicKey  = "anthropic_api_key"
	ElevenLabsKey = "elevenlabs_api_key"
	HFToken       = "hf_api_token"
)

// EnvFallback maps keys to the environment variable consulted when the key is unset.
var EnvFallback = map[string]string{
	OpenAIKey:     "OPENAI_API_KEY",
	GeminiKey:     "GEMINI_API_KEY",
	AnthropicKey:  "ANTHROPIC_API_KEY",
	ElevenLabsKey: "ELEVENLABS_API_KEY",
	HFToken:       "HF_API_TOKEN",
}

// IsSecret reports whether values under key are sealed before storage.
func IsSecret(key string) bool {
	return strings.HasSuffix(key, "_api_key") || strings.HasSuffix(key, "_token")
}

// Entry is a stored setting as shown to users.
type Entry struct {
	Key    string
	Value  string
	Secret bool
}

type Keyring struct {
	db   *sql.DB
	seal *sealer
}

// DefaultPath returns ~/.sunolab/settings.db.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".sunolab", "settings.db")
}

func Open(path string) (*Keyring, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	s, err := newSealer(machineKey())
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Keyring{db: db, seal: s}, nil
}

func (k *Keyring) Close() error {
	return k.db.Close()
}

func (k *Keyring) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("empty setting key")
	}
	stored := value
	if IsSecret(key) {
		sealed, err := k.seal.seal(value)
		if err != nil {
			return fmt.Errorf("failed to seal %s: %w", key, err)
		}
		stored = sealed
	}
	_, err := k.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, stored)
	return err
}

// Get returns the value for key, or "" when it is not set.
func (k *Keyring) Get(key string) (string, error) {
	var stored string
	err := k.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&stored)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return k.seal.unseal(stored)
}

// Lookup returns the stored value for key, falling back to its environment variable.
func (k *Keyring) Lookup(key string) string {
	if k != nil {
		if v, err := k.Get(key); err == nil && v != "" {
			return v
		}
	}
	if env, ok := EnvFallback[key]; ok {
		return os.Getenv(env)
	}
	return ""
}

// List returns every setting sorted by key. Secret values are masked.
func (k *Keyring) List() ([]Entry, error) {
	rows, err := k.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var stored string
		if err := rows.Scan(&e.Key, &stored); err != nil {
			return nil, err
		}
		e.Secret = IsSecret(e.Key)
		if e.Secret {
			plain, err := k.seal.unseal(stored)
			if err != nil {
				return nil, fmt.Errorf("failed to unseal %s: %w", e.Key, err)
			}
			e.Value = Mask(plain)
		} else {
			e.Value = stored
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}
