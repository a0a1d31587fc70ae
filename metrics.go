package storefront

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "uploads_total",
		Help:      "Files stored per backend and result.",
	}, []string{"backend", "result"})

	uploadFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "upload_fallbacks_total",
		Help:      "Batches that fell back from the remote to the local backend.",
	})

	discardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "discards_total",
		Help:      "Descriptor deletes per backend and result.",
	}, []string{"backend", "result"})
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
