package app

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// Profiler keeps the last CPU time of named scopes plus a smoothed
// average, and a set of integer counters.
type Profiler struct {
	Scopes     map[string]time.Duration
	Averages   map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string
	// Smoothing is the weight of the newest sample in Averages.
	Smoothing float64
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		Averages:   make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		Smoothing:  0.1,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = time.Now()
	if !slices.Contains(p.Order, name) {
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) {
	start, ok := p.StartTimes[name]
	if !ok {
		return
	}
	p.record(name, time.Since(start))
}

func (p *Profiler) record(name string, d time.Duration) {
	p.Scopes[name] = d
	avg, seen := p.Averages[name]
	if !seen {
		p.Averages[name] = d
		return
	}
	p.Averages[name] = time.Duration(float64(avg)*(1-p.Smoothing) + float64(d)*p.Smoothing)
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

func (p *Profiler) Reset() {
	clear(p.Scopes)
	clear(p.Averages)
}

func (p *Profiler) GetStatsString() string {
	var sb strings.Builder

	sb.WriteString("Timings (CPU, last / avg):\n")
	for _, name := range p.Order {
		fmt.Fprintf(&sb, "  %-15s: %6.2f / %6.2f ms\n", name, ms(p.Scopes[name]), ms(p.Averages[name]))
	}

	sb.WriteString("Stats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-15s: %d\n", k, p.Counts[k])
	}
	return sb.String()
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
