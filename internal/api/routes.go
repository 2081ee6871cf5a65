package api

import (
	"net/http"

	"github.com/arbiterhq/arbiter/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Rules.Handler().Routes(),
		domain.Documents.Handler().Routes(),
		domain.Engine.Handler().Routes(),
		domain.Suggestions.Handler().Routes(),
		domain.Audit.Handler().Routes(),
	)
}
