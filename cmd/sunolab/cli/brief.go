package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/suno-demo/internal/coach"
	"github.com/NielsdaWheelz/suno-demo/internal/store"
)

// briefOptions are the flags shared by create and explore.
type briefOptions struct {
	brief     string
	briefFile string
	clips     int
	energy    float64
	density   float64
	duration  float64
}

func (o *briefOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.brief, "brief", "b", "", "Text brief describing the music")
	cmd.Flags().StringVarP(&o.briefFile, "brief-file", "f", "", "Load the brief from a YAML or JSON file")
	cmd.Flags().IntVarP(&o.clips, "clips", "n", 3, "Number of clips per batch")
	cmd.Flags().Float64Var(&o.energy, "energy", 0.5, "Energy in [0, 1]")
	cmd.Flags().Float64Var(&o.density, "density", 0.5, "Density in [0, 1]")
	cmd.Flags().Float64Var(&o.duration, "duration", 8, "Clip duration in seconds")
}

// resolve merges flags with an optional brief file and lints the result.
// Flags explicitly set on the command line win over file values.
func (o *briefOptions) resolve(cmd *cobra.Command, warnings io.Writer) (coach.BriefSpec, error) {
	spec := coach.BriefSpec{
		Brief: o.brief,
		Clips: o.clips,
		Params: store.BriefParams{
			Energy:      o.energy,
			Density:     o.density,
			DurationSec: o.duration,
		},
	}

	c := coach.New()
	if o.briefFile != "" {
		loaded, err := c.LoadBrief(o.briefFile)
		if err != nil {
			return spec, err
		}
		flags := cmd.Flags()
		if !flags.Changed("brief") {
			spec.Brief = loaded.Brief
		}
		if !flags.Changed("clips") && loaded.Clips > 0 {
			spec.Clips = loaded.Clips
		}
		if !flags.Changed("energy") {
			spec.Params.Energy = loaded.Params.Energy
		}
		if !flags.Changed("density") {
			spec.Params.Density = loaded.Params.Density
		}
		if !flags.Changed("duration") && loaded.Params.DurationSec > 0 {
			spec.Params.DurationSec = loaded.Params.DurationSec
		}
	}
	if spec.Brief == "" {
		return spec, errors.New("a brief is required (--brief or --brief-file)")
	}

	result := c.Validate(spec)
	for _, w := range result.Warnings {
		fmt.Fprintf(warnings, "warning: %s\n", w)
	}
	if !result.Valid {
		return spec, fmt.Errorf("invalid brief: %s", strings.Join(result.Errors, "; "))
	}
	return spec, nil
}
