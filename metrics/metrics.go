// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics is a trimmed descendant of go-ethereum's metrics package:
// it keeps the Counter/Meter/Gauge primitives and a process-wide registry,
// dropping the EWMA rate tracker and the export backends (influxdb, opentsdb,
// prometheus) the pool has no use for.
package metrics

import "sync"

// Counter holds a monotonically adjustable int64.
type Counter struct {
	mu    sync.Mutex
	count int64
}

func NewCounter() *Counter { return &Counter{} }

func (c *Counter) Inc(delta int64) {
	c.mu.Lock()
	c.count += delta
	c.mu.Unlock()
}

func (c *Counter) Dec(delta int64) { c.Inc(-delta) }

func (c *Counter) Count() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *Counter) Clear() {
	c.mu.Lock()
	c.count = 0
	c.mu.Unlock()
}

// Meter counts the total number of marked events. Unlike go-ethereum's full
// Meter it does not track moving-average rates: the pool only ever reports
// totals (eviction counts, implied-eviction counts, reject counts).
type Meter struct {
	c Counter
}

func NewMeter() *Meter { return &Meter{} }

func (m *Meter) Mark(n int64) { m.c.Inc(n) }
func (m *Meter) Count() int64 { return m.c.Count() }

// Gauge holds the current value of an instantaneously-measured quantity
// (e.g. live item counts per bucket).
type Gauge struct {
	mu  sync.Mutex
	val int64
}

func NewGauge() *Gauge { return &Gauge{} }

func (g *Gauge) Update(v int64) {
	g.mu.Lock()
	g.val = v
	g.mu.Unlock()
}

func (g *Gauge) Inc(delta int64) {
	g.mu.Lock()
	g.val += delta
	g.mu.Unlock()
}

func (g *Gauge) Dec(delta int64) { g.Inc(-delta) }

func (g *Gauge) Value() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.val
}

// Registry is a flat namespace of named metrics, mirroring the subset of
// go-ethereum's Registry interface the pool actually calls.
type Registry struct {
	mu      sync.Mutex
	meters  map[string]*Meter
	gauges  map[string]*Gauge
	counter map[string]*Counter
}

func NewRegistry() *Registry {
	return &Registry{
		meters:  make(map[string]*Meter),
		gauges:  make(map[string]*Gauge),
		counter: make(map[string]*Counter),
	}
}

func (r *Registry) Meter(name string) *Meter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.meters[name]; ok {
		return m
	}
	m := NewMeter()
	r.meters[name] = m
	return m
}

func (r *Registry) Gauge(name string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := NewGauge()
	r.gauges[name] = g
	return g
}

func (r *Registry) Counter(name string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counter[name]; ok {
		return c
	}
	c := NewCounter()
	r.counter[name] = c
	return c
}

// DefaultRegistry is the process-wide registry used when a component is not
// handed one explicitly, matching go-ethereum's metrics.DefaultRegistry.
var DefaultRegistry = NewRegistry()
