package metrics

import "github.com/prometheus/client_golang/prometheus"

// SigningMetrics holds the domain-level Prometheus counters for the signing
// workflow. HTTP-level metrics live in the middleware package.
type SigningMetrics struct {
	DeedsCreated        prometheus.Counter
	TokensIssued        *prometheus.CounterVec
	TokensConsumed      *prometheus.CounterVec
	NotificationsFailed prometheus.Counter
}

// NewSigningMetrics creates and registers the signing counters on the given
// registry.
func NewSigningMetrics(reg prometheus.Registerer) (*SigningMetrics, error) {
	m := &SigningMetrics{
		DeedsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deeds_created_total",
			Help: "Total number of mortgage deeds created.",
		}),
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signing_tokens_issued_total",
			Help: "Total number of signing tokens issued, by signer kind.",
		}, []string{"signer_kind"}),
		TokensConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signing_tokens_consumed_total",
			Help: "Total number of signing tokens consumed, by signer kind.",
		}, []string{"signer_kind"}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signing_notifications_failed_total",
			Help: "Total number of signing notification sends that failed.",
		}),
	}

	for _, c := range []prometheus.Collector{m.DeedsCreated, m.TokensIssued, m.TokensConsumed, m.NotificationsFailed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
