package remote

import (
	"context"
	"net/http"
	"time"

	"vet-med-tracker/internal/platform/httpclient"
)

const defaultProbeTimeout = 3 * time.Second

// HealthProber consulta GET /health del API.
type HealthProber struct {
	http *httpclient.Client
}

func NewHealthProber(cfg Config) (*HealthProber, error) {
	if cfg.Timeout <= 0 || cfg.Timeout > defaultProbeTimeout {
		cfg.Timeout = defaultProbeTimeout
	}
	hc, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &HealthProber{http: hc}, nil
}

func (p *HealthProber) Probe(ctx context.Context) error {
	return p.http.DoJSON(ctx, http.MethodGet, "/health", nil, nil, nil)
}
