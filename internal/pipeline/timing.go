package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Phase is one named, timed pipeline step.
type Phase struct {
	Name     string
	Duration time.Duration
}

// Report is an ordered collection of phase timings plus derived totals.
// Purely diagnostic: it never affects the pipeline outcome. Phases are
// appended in execution order, so the rendered block reads as a timeline.
type Report struct {
	phases []Phase
	wall   time.Duration
}

func (r *Report) Add(name string, d time.Duration) {
	r.phases = append(r.phases, Phase{Name: name, Duration: d})
}

// SetWall records the measured wall-clock total. It may diverge from Sum
// since not every elapsed moment belongs to a named phase; both are
// reported.
func (r *Report) SetWall(d time.Duration) { r.wall = d }

// Sum returns the total of all recorded phase durations.
func (r *Report) Sum() time.Duration {
	var total time.Duration
	for _, p := range r.phases {
		total += p.Duration
	}
	return total
}

// Phases returns the recorded phases in execution order.
func (r *Report) Phases() []Phase { return r.phases }

// Render produces the human-readable timing block embedded in the result
// envelope.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("=== Timing ===\n")
	for _, p := range r.phases {
		fmt.Fprintf(&b, "%s: %v\n", p.Name, p.Duration)
	}
	fmt.Fprintf(&b, "Sum of phases: %v\n", r.Sum())
	fmt.Fprintf(&b, "Total time: %v", r.wall)
	return b.String()
}
