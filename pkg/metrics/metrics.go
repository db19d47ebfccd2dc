// Package metrics is a small in-process collector for workflow
// counters, latencies and payload sizes, exposed on /metrics.
package metrics

import (
	"sync"
	"time"
)

const keepObservations = 100

type Collector struct {
	mu        sync.RWMutex
	counters  map[string]int64
	latencies map[string][]time.Duration
	sizes     map[string][]float64
}

func NewCollector() *Collector {
	return &Collector{
		counters:  make(map[string]int64),
		latencies: make(map[string][]time.Duration),
		sizes:     make(map[string][]float64),
	}
}

func (c *Collector) IncrementCounter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name]++
}

func (c *Collector) ObserveLatency(name string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obs := append(c.latencies[name], d)
	if len(obs) > keepObservations {
		obs = obs[len(obs)-keepObservations:]
	}
	c.latencies[name] = obs
}

func (c *Collector) ObserveSize(name string, bytes float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obs := append(c.sizes[name], bytes)
	if len(obs) > keepObservations {
		obs = obs[len(obs)-keepObservations:]
	}
	c.sizes[name] = obs
}

func (c *Collector) Counters() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int64, len(c.counters))
	for name, v := range c.counters {
		out[name] = v
	}
	return out
}

// Latencies reports the rolling average per operation in milliseconds.
func (c *Collector) Latencies() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64, len(c.latencies))
	for name, obs := range c.latencies {
		if len(obs) == 0 {
			continue
		}
		var sum time.Duration
		for _, d := range obs {
			sum += d
		}
		out[name] = float64(sum) / float64(len(obs)) / float64(time.Millisecond)
	}
	return out
}

// Sizes reports rolling average and max payload size in bytes.
func (c *Collector) Sizes() map[string]map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]map[string]float64, len(c.sizes))
	for name, obs := range c.sizes {
		if len(obs) == 0 {
			continue
		}
		var sum, max float64
		for _, v := range obs {
			sum += v
			if v > max {
				max = v
			}
		}
		out[name] = map[string]float64{
			"avg_bytes": sum / float64(len(obs)),
			"max_bytes": max,
		}
	}
	return out
}
