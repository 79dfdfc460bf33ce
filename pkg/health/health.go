// Package health probes the backing services of the platform.
package health

import (
	"context"
	"sync"
	"time"
)

// State names reported per probe.
const (
	StateOK          = "ok"
	StateUnavailable = "unavailable"
)

// Probe checks one service. A nil error means the service answered.
type Probe func(ctx context.Context) error

type namedProbe struct {
	name  string
	probe Probe
}

// Checker runs registered probes. It is safe for concurrent use.
type Checker struct {
	mu     sync.Mutex
	probes []namedProbe
}

// NewChecker creates a Checker with no probes.
func NewChecker() *Checker {
	return &Checker{}
}

// Register adds a probe. Probes are reported in registration order.
func (c *Checker) Register(name string, p Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes = append(c.probes, namedProbe{name: name, probe: p})
}

// Status is the outcome of one probe.
type Status struct {
	Name    string        `json:"name"`
	State   string        `json:"state"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// Report holds the outcome of every probe.
type Report struct {
	Statuses []Status `json:"statuses"`
}

// Healthy reports whether every probe succeeded.
func (r Report) Healthy() bool {
	for _, s := range r.Statuses {
		if s.State != StateOK {
			return false
		}
	}
	return true
}

// Failed returns the names of the probes that failed.
func (r Report) Failed() []string {
	var names []string
	for _, s := range r.Statuses {
		if s.State != StateOK {
			names = append(names, s.Name)
		}
	}
	return names
}

// Run executes the probes one after another in registration order. Each
// probe sees ctx as given.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.Lock()
	probes := append([]namedProbe(nil), c.probes...)
	c.mu.Unlock()

	statuses := make([]Status, 0, len(probes))
	for _, np := range probes {
		start := time.Now()
		err := np.probe(ctx)
		s := Status{Name: np.name, State: StateOK, Elapsed: time.Since(start)}
		if err != nil {
			s.State = StateUnavailable
			s.Error = err.Error()
		}
		statuses = append(statuses, s)
	}

	return Report{Statuses: statuses}
}
