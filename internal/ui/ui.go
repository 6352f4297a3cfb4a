// Package ui reports workflow progress to the user.
package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/NielsdaWheelz/suno-demo/internal/runtime"
)

type UI interface {
	UpdateStatus(status string)
	UpdateProgress(done, total int)
	Log(msg string)
}

type SilentUI struct{}

func (s SilentUI) UpdateStatus(status string)     {}
func (s SilentUI) UpdateProgress(done, total int) {}
func (s SilentUI) Log(msg string)                 {}

// Console writes one line per update.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) UpdateStatus(status string) {
	c.printf("» %s\n", status)
}

func (c *Console) UpdateProgress(done, total int) {
	c.printf("  [%d/%d]\n", done, total)
}

func (c *Console) Log(msg string) {
	c.printf("  %s\n", msg)
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// Attach forwards workflow events on bus to u until the returned function
// is called.
func Attach(bus *runtime.EventBus, u UI) (detach func()) {
	return bus.SubscribeAll(func(e runtime.Event) {
		switch e.Type {
		case runtime.EventBatchStarted:
			u.UpdateStatus(fmt.Sprintf("generating %d clips", e.Int("num_clips")))
		case runtime.EventClipsGenerated:
			u.UpdateStatus(fmt.Sprintf("embedding %d of %d clips", e.Int("generated"), e.Int("requested")))
			u.UpdateProgress(0, e.Int("generated"))
		case runtime.EventClipEmbedded:
			u.UpdateProgress(e.Int("index")+1, e.Int("total"))
		case runtime.EventClustersFormed:
			u.UpdateStatus(fmt.Sprintf("formed %d clusters", e.Int("clusters")))
		case runtime.EventClusterNamed:
			msg := fmt.Sprintf("cluster %d: %s", e.Int("position"), e.Str("label"))
			if fallback, _ := e.Data["fallback"].(bool); fallback {
				msg += " (fallback)"
			}
			u.Log(msg)
		case runtime.EventClipDiscarded:
			u.Log("discarded clip: " + e.Str("reason"))
		case runtime.EventBatchCommitted:
			u.UpdateStatus(fmt.Sprintf("batch ready: %d clusters, %d tracks", e.Int("clusters"), e.Int("tracks")))
		case runtime.EventWorkflowFailed:
			u.UpdateStatus("failed: " + e.Str("error"))
		}
	})
}
