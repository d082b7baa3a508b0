// Package metrics exposes the chain's meters and control activity to
// Prometheus.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ChainMetrics holds the collectors for one processor.
type ChainMetrics struct {
	inputLevel    prometheus.Gauge
	outputLevel   prometheus.Gauge
	gainReduction prometheus.Gauge
	blocks        prometheus.Counter
	paramUpdates  *prometheus.CounterVec

	mu         sync.Mutex
	lastBlocks uint64

	collectors []prometheus.Collector
}

// NewChainMetrics creates the collectors and registers them with registry.
func NewChainMetrics(registry prometheus.Registerer) (*ChainMetrics, error) {
	m := &ChainMetrics{}
	m.initMetrics()

	if err := registry.Register(m); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *ChainMetrics) initMetrics() {
	m.inputLevel = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fxchain_input_level",
		Help: "Normalized input meter reading (0 = -60 dBFS, 1 = 0 dBFS)",
	})

	m.outputLevel = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fxchain_output_level",
		Help: "Normalized output meter reading (0 = -60 dBFS, 1 = 0 dBFS)",
	})

	m.gainReduction = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fxchain_gain_reduction_db",
		Help: "Largest compressor gain reduction in the latest block",
	})

	m.blocks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fxchain_blocks_processed_total",
		Help: "Total number of audio blocks processed",
	})

	m.paramUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxchain_param_updates_total",
			Help: "Total number of accepted parameter updates",
		},
		[]string{"param"},
	)

	m.collectors = []prometheus.Collector{
		m.inputLevel,
		m.outputLevel,
		m.gainReduction,
		m.blocks,
		m.paramUpdates,
	}
}

// Describe implements prometheus.Collector.
func (m *ChainMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *ChainMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// UpdateLevels sets the three meter gauges.
func (m *ChainMetrics) UpdateLevels(input, output, gainReductionDB float64) {
	m.inputLevel.Set(input)
	m.outputLevel.Set(output)
	m.gainReduction.Set(gainReductionDB)
}

// ObserveBlocks advances the block counter to the processor's running total.
// A total below the last one means the processor was prepared again; the
// counter then advances by the new total.
func (m *ChainMetrics) ObserveBlocks(total uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delta := total
	if total >= m.lastBlocks {
		delta = total - m.lastBlocks
	}
	m.lastBlocks = total

	if delta > 0 {
		m.blocks.Add(float64(delta))
	}
}

// ParamUpdated counts one accepted update of param. Its signature matches
// the parameter store's observer.
func (m *ChainMetrics) ParamUpdated(param string) {
	m.paramUpdates.WithLabelValues(param).Inc()
}
