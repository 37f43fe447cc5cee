package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/terratracer/traverse"
)

// Collector exposes solver and construction metrics. It implements
// traverse.Observer so it can be handed to an engine directly.
type Collector struct {
	gatherer prometheus.Gatherer

	Solves            *prometheus.CounterVec
	SolveIterations   *prometheus.HistogramVec
	SolveDuration     *prometheus.HistogramVec
	PointsRegistered  *prometheus.CounterVec
	PolygonsFinalized *prometheus.CounterVec
}

var _ traverse.Observer = (*Collector)(nil)

// NewCollector registers the traverse metrics against reg. A nil reg means
// the default registerer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	solves, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traverse_solves_total",
		Help: "Direct geodesic solves by method and convergence.",
	}, []string{"method", "converged"}), "traverse_solves_total")
	if err != nil {
		return nil, err
	}

	iterations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "traverse_solve_iterations",
		Help:    "Iterations used by iterative direct solvers.",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 8, 12, 20, 50, 100, 200},
	}, []string{"method"}), "traverse_solve_iterations")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "traverse_solve_duration_seconds",
		Help:    "Wall time of direct geodesic solves.",
		Buckets: []float64{1e-7, 5e-7, 1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 1e-3, 1e-2},
	}, []string{"method"}), "traverse_solve_duration_seconds")
	if err != nil {
		return nil, err
	}

	points, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traverse_points_registered_total",
		Help: "Points registered by role.",
	}, []string{"role"}), "traverse_points_registered_total")
	if err != nil {
		return nil, err
	}

	polygons, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traverse_polygons_finalized_total",
		Help: "Finalized polygons by closure.",
	}, []string{"closed"}), "traverse_polygons_finalized_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		Solves:            solves,
		SolveIterations:   iterations,
		SolveDuration:     duration,
		PointsRegistered:  points,
		PolygonsFinalized: polygons,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// SolveObserved counts a solve. Solves rejected before running are counted
// as not converged and are left out of the histograms.
func (c *Collector) SolveObserved(method traverse.Method, r traverse.Result, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	converged := err == nil && r.Converged
	c.Solves.WithLabelValues(string(method), strconv.FormatBool(converged)).Inc()
	if err != nil {
		return
	}
	c.SolveIterations.WithLabelValues(string(method)).Observe(float64(r.Iterations))
	c.SolveDuration.WithLabelValues(string(method)).Observe(elapsed.Seconds())
}

func (c *Collector) PointRegistered(p traverse.Point) {
	if c == nil {
		return
	}
	c.PointsRegistered.WithLabelValues(p.Role.String()).Inc()
}

func (c *Collector) PolygonFinalized(p traverse.Polygon) {
	if c == nil {
		return
	}
	c.PolygonsFinalized.WithLabelValues(strconv.FormatBool(p.Closed)).Inc()
}

// WriteFile writes the collector's metrics in the text exposition format.
func (c *Collector) WriteFile(path string) error {
	if c == nil {
		return fmt.Errorf("metrics: no collector")
	}
	return prometheus.WriteToTextfile(path, c.gatherer)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
