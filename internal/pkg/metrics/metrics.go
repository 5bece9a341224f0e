package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

//Register tries to register or reregister metric to the registerer
func Register(reg prometheus.Registerer, m prometheus.Collector) error {
	err := reg.Register(m)
	if err != nil {
		reg.Unregister(m)
		err = reg.Register(m)
	}
	return err
}

// Training tracks optimizer progress
type Training struct {
	Steps prometheus.Counter
	Loss  prometheus.Gauge
}

//NewTraining creates and registers the training collectors
func NewTraining(reg prometheus.Registerer) (*Training, error) {
	res := &Training{
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atae",
			Subsystem: "train",
			Name:      "steps_total",
			Help:      "Number of optimizer steps",
		}),
		Loss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atae",
			Subsystem: "train",
			Name:      "loss",
			Help:      "Loss of the last trained batch",
		}),
	}
	for _, c := range []prometheus.Collector{res.Steps, res.Loss} {
		if err := Register(reg, c); err != nil {
			return nil, errors.Wrap(err, "can't register metric")
		}
	}
	return res, nil
}

//Observe records one optimizer step
func (t *Training) Observe(loss float32) {
	t.Steps.Inc()
	t.Loss.Set(float64(loss))
}
