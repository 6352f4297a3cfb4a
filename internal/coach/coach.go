// Package coach loads generation briefs from disk and lints them before a session starts.
package coach

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/NielsdaWheelz/suno-demo/internal/store"
)

// BriefSpec is the file form of a create request.
type BriefSpec struct {
	Brief  string            `json:"brief" yaml:"brief" validate:"required,max=2000"`
	Clips  int               `json:"num_clips" yaml:"num_clips" validate:"omitempty,min=1"`
	Params store.BriefParams `json:"params" yaml:"params"`
}

// ValidationResult represents the outcome of a linting pass.
type ValidationResult struct {
	Valid    bool
	Warnings []string
	Errors   []string
}

// Coach validates briefs.
type Coach struct {
	validate *validator.Validate
}

func New() *Coach {
	return &Coach{validate: validator.New()}
}

// LoadBrief reads a brief from a .json, .yaml or .yml file.
func (c *Coach) LoadBrief(path string) (*BriefSpec, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read brief file: %w", err)
	}

	var spec BriefSpec
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON brief: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML brief: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported brief format: %s (use .json or .yaml)", ext)
	}
	return &spec, nil
}

// Validate reports hard errors (the brief cannot be used) and warnings
// (it can, but results will likely be poor).
func (c *Coach) Validate(spec BriefSpec) ValidationResult {
	res := ValidationResult{
		Valid:    true,
		Warnings: []string{},
		Errors:   []string{},
	}

	if err := c.validate.Struct(spec); err != nil {
		res.Valid = false
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				res.Errors = append(res.Errors, fmt.Sprintf("%s fails %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			res.Errors = append(res.Errors, err.Error())
		}
	}

	brief := strings.TrimSpace(spec.Brief)
	if brief != "" && len(strings.Fields(brief)) < 3 {
		res.Warnings = append(res.Warnings, "Brief is very short; mention genre, mood or instrumentation")
	}
	if strings.Contains(brief, "|") {
		res.Warnings = append(res.Warnings, "Brief contains '|', which is also the prompt field separator")
	}
	if spec.Params.DurationSec > 0 && spec.Params.DurationSec < 2 {
		res.Warnings = append(res.Warnings, "Clips shorter than 2s rarely cluster well")
	}

	return res
}
