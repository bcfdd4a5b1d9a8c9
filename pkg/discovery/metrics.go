package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK         = "ok"
	resultFetchError = "fetch_error"
	resultMalformed  = "malformed"
)

var (
	queryResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solcandy",
		Name:      "queries_total",
		Help:      "Candy machine discovery queries by candy machine version and result",
	}, []string{"version", "result"})

	mintsDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "solcandy",
		Name:      "mints_discovered_total",
		Help:      "Mint addresses returned by successful discovery queries",
	})
)
