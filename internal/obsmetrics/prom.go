// Package obsmetrics implements cachedict.Recorder with Prometheus
// counters: one CounterVec per event, registered once at construction.
package obsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/geowatson/cachedict"
)

// Prom is a cachedict.Recorder backed by Prometheus counters, labeled by
// attribute name.
type Prom struct {
	hits         *prometheus.CounterVec
	misses       *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	refreshKeys  *prometheus.CounterVec
	sourceErrors *prometheus.CounterVec
}

var _ cachedict.Recorder = (*Prom)(nil)

// New builds and registers a Prom recorder under namespace.
func New(namespace string) *Prom {
	vec := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, []string{"attribute"})
	}

	p := &Prom{
		hits:         vec("hits_total", "Number of attribute lookups served from cache"),
		misses:       vec("misses_total", "Number of attribute lookups that missed the cache"),
		refreshes:    vec("refreshes_total", "Number of refresh operations started by lookups"),
		refreshKeys:  vec("refresh_keys_total", "Number of keys requested across refresh operations"),
		sourceErrors: vec("source_errors_total", "Number of refresh operations that failed"),
	}

	prometheus.MustRegister(p.hits, p.misses, p.refreshes, p.refreshKeys, p.sourceErrors)
	return p
}

func (p *Prom) Hit(attr string)  { p.hits.WithLabelValues(attr).Inc() }
func (p *Prom) Miss(attr string) { p.misses.WithLabelValues(attr).Inc() }

func (p *Prom) Refresh(attr string, keys int) {
	p.refreshes.WithLabelValues(attr).Inc()
	p.refreshKeys.WithLabelValues(attr).Add(float64(keys))
}

func (p *Prom) SourceError(attr string, _ error) {
	p.sourceErrors.WithLabelValues(attr).Inc()
}
