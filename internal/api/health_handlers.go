package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports the catalog, favorite store, search index and event stream state",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// ComponentHealth is one probe result.
type ComponentHealth struct {
	Status  string `json:"status" enum:"healthy,degraded,unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Probe duration"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the /health body. Status is the worst component status.
type HealthResponse struct {
	Status     string                     `json:"status" enum:"healthy,degraded,unhealthy"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func severity(status string) int {
	switch status {
	case statusUnhealthy:
		return 2
	case statusDegraded:
		return 1
	default:
		return 0
	}
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	probes := map[string]func(context.Context) ComponentHealth{
		"catalog":   s.probeCatalog,
		"favorites": s.probeFavorites,
		"search":    s.probeSearch,
		"sse":       s.probeSSE,
	}

	resp := HealthResponse{Status: statusHealthy, Components: make(map[string]ComponentHealth, len(probes))}
	for name, probe := range probes {
		start := time.Now()
		c := probe(ctx)
		c.Latency = time.Since(start).String()
		resp.Components[name] = c
		if severity(c.Status) > severity(resp.Status) {
			resp.Status = c.Status
		}
	}
	return &HealthOutput{Body: resp}, nil
}

func (s *Server) probeCatalog(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: statusDegraded, Message: "database not configured"}
	}
	rev, err := s.store.CatalogRevision(ctx)
	switch {
	case err != nil:
		return ComponentHealth{Status: statusUnhealthy, Message: "database read failed"}
	case rev == 0:
		return ComponentHealth{Status: statusDegraded, Message: "catalog not imported"}
	}
	return ComponentHealth{Status: statusHealthy, Message: fmt.Sprintf("revision %d", rev)}
}

func (s *Server) probeFavorites(ctx context.Context) ComponentHealth {
	if s.services == nil || s.services.FavoriteStore == nil {
		return ComponentHealth{Status: statusDegraded, Message: "favorite store not configured"}
	}
	if err := s.services.FavoriteStore.Ping(ctx); err != nil {
		return ComponentHealth{Status: statusUnhealthy, Message: "favorite store unreachable"}
	}
	return ComponentHealth{Status: statusHealthy}
}

// probeSearch flags an index that lags the catalog, which happens while a
// reload is rebuilding it.
func (s *Server) probeSearch(ctx context.Context) ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search index not configured"}
	}
	docs, err := s.services.Search.DocumentCount()
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Message: "search index unreachable"}
	}
	if docs == 0 {
		return ComponentHealth{Status: statusDegraded, Message: "search index empty"}
	}

	indexed, err := s.services.Search.Revision()
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Message: "search index unreadable"}
	}
	if s.store != nil {
		if current, err := s.store.CatalogRevision(ctx); err == nil && current != indexed {
			return ComponentHealth{
				Status:  statusDegraded,
				Message: fmt.Sprintf("indexed revision %d, catalog at %d", indexed, current),
			}
		}
	}
	return ComponentHealth{Status: statusHealthy, Message: fmt.Sprintf("%d documents", docs)}
}

func (s *Server) probeSSE(context.Context) ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{Status: statusDegraded, Message: "SSE manager not configured"}
	}
	switch n := s.sseManager.ClientCount(); n {
	case 0:
		return ComponentHealth{Status: statusHealthy, Message: "no connected clients"}
	case 1:
		return ComponentHealth{Status: statusHealthy, Message: "1 connected client"}
	default:
		return ComponentHealth{Status: statusHealthy, Message: fmt.Sprintf("%d connected clients", n)}
	}
}
