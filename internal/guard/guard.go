// Package guard enforces request limits before any generation work starts.
package guard

import (
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// Policy defines the limits for a single workflow call.
type Policy struct {
	MinClips       int      `json:"min_clips" yaml:"min_clips"`
	MaxBatchSize   int      `json:"max_batch_size" yaml:"max_batch_size"`
	MaxBriefChars  int      `json:"max_brief_chars" yaml:"max_brief_chars"`
	MaxDurationSec float64  `json:"max_duration_sec" yaml:"max_duration_sec"`
	StagingGlobs   []string `json:"staging_globs" yaml:"staging_globs"`
}

// DefaultPolicy mirrors the default process configuration.
var DefaultPolicy = Policy{
	MinClips:       1,
	MaxBatchSize:   6,
	MaxBriefChars:  2000,
	MaxDurationSec: 30,
	StagingGlobs:   []string{"media/tmp/**"},
}

// Violation represents a specific breach of policy.
type Violation struct {
	Rule    string
	Message string
}

func (v *Violation) Error() string {
	return v.Rule + ": " + v.Message
}

// Guard enforces the policy.
type Guard struct {
	policy Policy
}

func New(p Policy) *Guard {
	return &Guard{policy: p}
}

// Policy returns the guard's current policy configuration.
func (g *Guard) Policy() Policy {
	return g.policy
}

// CheckClipCount verifies 1 <= n <= MaxBatchSize.
func (g *Guard) CheckClipCount(n int) *Violation {
	lo := max(g.policy.MinClips, 1)
	if n < lo || n > g.policy.MaxBatchSize {
		return &Violation{
			Rule:    "num_clips",
			Message: fmt.Sprintf("num_clips must be between %d and %d, got %d", lo, g.policy.MaxBatchSize, n),
		}
	}
	return nil
}

// CheckBrief verifies the brief is non-empty and within the character limit.
func (g *Guard) CheckBrief(brief string) *Violation {
	n := utf8.RuneCountInString(brief)
	if n == 0 {
		return &Violation{Rule: "brief", Message: "brief is required"}
	}
	if g.policy.MaxBriefChars > 0 && n > g.policy.MaxBriefChars {
		return &Violation{Rule: "brief", Message: fmt.Sprintf("brief exceeds %d characters", g.policy.MaxBriefChars)}
	}
	return nil
}

// CheckDuration verifies 0 < sec <= MaxDurationSec.
func (g *Guard) CheckDuration(sec float64) *Violation {
	if sec <= 0 || (g.policy.MaxDurationSec > 0 && sec > g.policy.MaxDurationSec) {
		return &Violation{Rule: "duration_sec", Message: fmt.Sprintf("duration_sec must be in (0, %g], got %g", g.policy.MaxDurationSec, sec)}
	}
	return nil
}

// CheckStagedPath verifies a generator-reported file lives in the staging
// area before it is moved or deleted.
func (g *Guard) CheckStagedPath(path string) *Violation {
	clean := filepath.ToSlash(filepath.Clean(path))
	for _, pattern := range g.policy.StagingGlobs {
		if ok, err := doublestar.Match(filepath.ToSlash(pattern), clean); err == nil && ok {
			return nil
		}
	}
	return &Violation{Rule: "staging_globs", Message: "file is outside the staging area: " + path}
}
