package light

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional observability hook for Supervisor: verification
// attempts, peer rotations, and forks detected. It never influences
// verification semantics; a nil *Metrics (the zero value of Supervisor's
// metrics field) simply records nothing.
type Metrics struct {
	VerificationAttempts prometheus.Counter
	PrimaryRotations     prometheus.Counter
	WitnessRotations     prometheus.Counter
	ForksDetected        prometheus.Counter
	TrustedHeight        prometheus.Gauge
}

// NewMetrics registers and returns a Metrics under the given namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VerificationAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "light_client", Name: "verification_attempts_total",
			Help: "Number of times the supervisor attempted to verify to a target height.",
		}),
		PrimaryRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "light_client", Name: "primary_rotations_total",
			Help: "Number of times the primary peer was replaced after a failure.",
		}),
		WitnessRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "light_client", Name: "witness_rotations_total",
			Help: "Number of times a witness was dropped for timing out or being faulty.",
		}),
		ForksDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "light_client", Name: "forks_detected_total",
			Help: "Number of confirmed forks for which evidence was submitted.",
		}),
		TrustedHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "light_client", Name: "trusted_height",
			Help: "Height of the highest block the supervisor currently trusts.",
		}),
	}
	reg.MustRegister(m.VerificationAttempts, m.PrimaryRotations, m.WitnessRotations, m.ForksDetected, m.TrustedHeight)
	return m
}

func (m *Metrics) incVerificationAttempt() {
	if m != nil {
		m.VerificationAttempts.Inc()
	}
}

func (m *Metrics) incPrimaryRotation() {
	if m != nil {
		m.PrimaryRotations.Inc()
	}
}

func (m *Metrics) incWitnessRotation() {
	if m != nil {
		m.WitnessRotations.Inc()
	}
}

func (m *Metrics) incForkDetected() {
	if m != nil {
		m.ForksDetected.Inc()
	}
}

func (m *Metrics) setTrustedHeight(h Height) {
	if m != nil {
		m.TrustedHeight.Set(float64(h))
	}
}
