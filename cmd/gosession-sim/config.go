package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	goSession "github.com/MrEthical07/goSession"
)

// loadConfig overlays the YAML file at path onto the defaults. An empty
// path returns the defaults.
func loadConfig(path string) (goSession.Config, error) {
	cfg := goSession.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// aggregate sums the metrics of every tab for one exporter.
type aggregate []*goSession.Manager

func (a aggregate) MetricsSnapshot() goSession.MetricsSnapshot {
	out := goSession.MetricsSnapshot{
		Counters:   map[goSession.MetricID]uint64{},
		Histograms: map[goSession.MetricID][]uint64{},
	}
	for _, m := range a {
		snap := m.MetricsSnapshot()
		for id, v := range snap.Counters {
			out.Counters[id] += v
		}
		for id, buckets := range snap.Histograms {
			sum := out.Histograms[id]
			if len(sum) < len(buckets) {
				grown := make([]uint64, len(buckets))
				copy(grown, sum)
				sum = grown
			}
			for i, v := range buckets {
				sum[i] += v
			}
			out.Histograms[id] = sum
		}
	}
	return out
}

func (a aggregate) AuditDropped() uint64 {
	var n uint64
	for _, m := range a {
		n += m.AuditDropped()
	}
	return n
}
