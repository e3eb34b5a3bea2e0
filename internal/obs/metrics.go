package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthRequests counts auth operations by kind (sign_up, sign_in, refresh,
	// logout, oauth, password_change) and outcome (ok, unauthorized,
	// bad_request, conflict, error).
	AuthRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_requests_total",
		Help: "Auth operations by kind and outcome.",
	}, []string{"kind", "outcome"})

	// CatalogCache counts catalog cache lookups by result (hit, miss).
	CatalogCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog cache lookups by result.",
	}, []string{"result"})
)
