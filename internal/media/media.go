// Package media manages generated audio files: a staging area for clips that
// have not been accepted yet, and per-session permanent storage.
package media

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
)

// StagingDirName is the sub-directory of the media root holding unaccepted clips.
const StagingDirName = "tmp"

// URLPrefix is where the HTTP layer serves the media root.
const URLPrefix = "/media"

// Library owns a media root directory.
type Library struct {
	root string
}

// New creates the media root and its staging area if needed.
func New(root string) (*Library, error) {
	if root == "" {
		return nil, errors.New("media root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, StagingDirName), 0750); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Library{root: root}, nil
}

func (l *Library) Root() string {
	return l.root
}

func (l *Library) StagingDir() string {
	return filepath.Join(l.root, StagingDirName)
}

// StagingGlob matches every file in the staging area. Glob metacharacters in
// the root are escaped.
func (l *Library) StagingGlob() string {
	return doublestar.EscapeMeta(filepath.ToSlash(filepath.Clean(l.StagingDir()))) + "/**"
}

// StagePath returns a fresh, unused path in the staging area.
func (l *Library) StagePath(index int) (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate staging name: %w", err)
	}
	name := fmt.Sprintf("tmp_%d_%s.wav", index, hex.EncodeToString(b[:]))
	return filepath.Join(l.StagingDir(), name), nil
}

// Promote moves a staged clip to <root>/<session>/<track>.wav and returns the
// new path and its URL.
func (l *Library) Promote(staged string, sessionID, trackID uuid.UUID) (string, string, error) {
	dir := filepath.Join(l.root, sessionID.String())
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", "", fmt.Errorf("failed to create session media directory: %w", err)
	}
	dst := filepath.Join(dir, trackID.String()+".wav")
	if err := os.Rename(staged, dst); err != nil {
		return "", "", fmt.Errorf("failed to promote %s: %w", staged, err)
	}
	return dst, URL(sessionID, trackID), nil
}

// Discard deletes a staged clip. A file that is already gone is not an error.
func (l *Library) Discard(staged string) error {
	if err := os.Remove(staged); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to discard %s: %w", staged, err)
	}
	return nil
}

// Clear removes everything under the media root and recreates the staging area.
func (l *Library) Clear() error {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.MkdirAll(l.StagingDir(), 0750)
		}
		return fmt.Errorf("failed to read media root: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(l.root, e.Name())); err != nil {
			return fmt.Errorf("failed to clear %s: %w", e.Name(), err)
		}
	}
	return os.MkdirAll(l.StagingDir(), 0750)
}

// Sweep deletes staged WAV files last modified before now-olderThan and
// returns how many were removed. Staged files normally live only for the
// duration of one workflow; leftovers come from crashed processes.
func (l *Library) Sweep(olderThan time.Duration) (int, error) {
	matches, err := doublestar.Glob(os.DirFS(l.StagingDir()), "**/*.wav")
	if err != nil {
		return 0, fmt.Errorf("failed to scan staging area: %w", err)
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, m := range matches {
		p := filepath.Join(l.StagingDir(), filepath.FromSlash(m))
		info, err := os.Stat(p)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(p); err == nil {
			removed++
		}
	}
	return removed, nil
}

// URL is the public path of a promoted track.
func URL(sessionID, trackID uuid.UUID) string {
	return path.Join(URLPrefix, sessionID.String(), trackID.String()+".wav")
}
