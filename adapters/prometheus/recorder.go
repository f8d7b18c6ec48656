package prometheus

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-cashier-fastspring/core"
)

// Recorder implements core.MetricsRecorder on a prometheus registry.
//
// Known cashier metrics are registered up front with fixed labels. Any other
// metric is registered on first use with the label names of its first tag
// set; later observations fill missing labels with "" and drop extra ones.
type Recorder struct {
	namespace  string
	registerer promclient.Registerer

	mu         sync.Mutex
	counters   map[string]*vecEntry[*promclient.CounterVec]
	histograms map[string]*vecEntry[*promclient.HistogramVec]
}

type vecEntry[V any] struct {
	vec    V
	labels []string
}

func NewRecorder(namespace string, registerer promclient.Registerer) (*Recorder, error) {
	if registerer == nil {
		registerer = promclient.DefaultRegisterer
	}
	r := &Recorder{
		namespace:  sanitize(namespace),
		registerer: registerer,
		counters:   map[string]*vecEntry[*promclient.CounterVec]{},
		histograms: map[string]*vecEntry[*promclient.HistogramVec]{},
	}
	if _, err := r.counter(core.MetricWebhookEvents, []string{"category", "status"}); err != nil {
		return nil, err
	}
	if _, err := r.counter(core.MetricWebhookBatches, []string{"status"}); err != nil {
		return nil, err
	}
	if _, err := r.histogram(core.MetricWebhookBatchDuration, nil); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	entry, err := r.counter(name, labelNames(tags))
	if err != nil {
		return
	}
	entry.vec.WithLabelValues(labelValues(entry.labels, tags)...).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	entry, err := r.histogram(name, labelNames(tags))
	if err != nil {
		return
	}
	entry.vec.WithLabelValues(labelValues(entry.labels, tags)...).Observe(value)
}

func (r *Recorder) counter(name string, labels []string) (*vecEntry[*promclient.CounterVec], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.counters[name]; ok {
		return entry, nil
	}
	vec := promclient.NewCounterVec(promclient.CounterOpts{
		Namespace: r.namespace,
		Name:      MetricName(name),
		Help:      "cashier counter " + name,
	}, labels)
	if err := r.registerer.Register(vec); err != nil {
		return nil, fmt.Errorf("prometheus: register counter %s: %w", name, err)
	}
	entry := &vecEntry[*promclient.CounterVec]{vec: vec, labels: labels}
	r.counters[name] = entry
	return entry, nil
}

func (r *Recorder) histogram(name string, labels []string) (*vecEntry[*promclient.HistogramVec], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.histograms[name]; ok {
		return entry, nil
	}
	vec := promclient.NewHistogramVec(promclient.HistogramOpts{
		Namespace: r.namespace,
		Name:      MetricName(name),
		Help:      "cashier histogram " + name,
		Buckets:   promclient.ExponentialBuckets(1, 2, 14),
	}, labels)
	if err := r.registerer.Register(vec); err != nil {
		return nil, fmt.Errorf("prometheus: register histogram %s: %w", name, err)
	}
	entry := &vecEntry[*promclient.HistogramVec]{vec: vec, labels: labels}
	r.histograms[name] = entry
	return entry, nil
}

// MetricName converts a dotted metric name into a prometheus name, e.g.
// cashier.webhook.events.total becomes cashier_webhook_events_total.
func MetricName(name string) string {
	return sanitize(name)
}

func sanitize(value string) string {
	value = strings.TrimSpace(value)
	var b strings.Builder
	for i, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for key := range tags {
		if name := sanitize(key); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func labelValues(labels []string, tags map[string]string) []string {
	byName := make(map[string]string, len(tags))
	for key, value := range tags {
		byName[sanitize(key)] = value
	}
	values := make([]string, len(labels))
	for i, label := range labels {
		values[i] = byName[label]
	}
	return values
}

var _ core.MetricsRecorder = (*Recorder)(nil)
