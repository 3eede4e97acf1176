package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vet-med-tracker/internal/offline/queue"
	"vet-med-tracker/internal/platform/httpclient"
)

const idempotencyHeader = "Idempotency-Key"

type Config struct {
	BaseURL string
	Timeout time.Duration

	// AuthToken va como Bearer. Sin token se usan los headers de debug (solo dev).
	AuthToken   string
	UserID      string
	HouseholdID string
}

// Dispatcher traduce cada mutación a su llamada HTTP contra el API.
type Dispatcher struct {
	http *httpclient.Client
}

func NewDispatcher(cfg Config) (*Dispatcher, error) {
	hc, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{http: hc}, nil
}

func newClient(cfg Config) (*httpclient.Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("remote: base url is required")
	}
	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if tok := strings.TrimSpace(cfg.AuthToken); tok != "" {
		hc.Header.Set("Authorization", "Bearer "+tok)
	} else {
		if cfg.UserID != "" {
			hc.Header.Set("X-Debug-User-ID", cfg.UserID)
		}
		if cfg.HouseholdID != "" {
			hc.Header.Set("X-Debug-Household-ID", cfg.HouseholdID)
		}
	}
	return hc, nil
}

// Dispatch implementa queue.Dispatcher. El body es el payload guardado tal cual;
// m solo decide la ruta.
func (d *Dispatcher) Dispatch(ctx context.Context, key string, m queue.Mutation, payload json.RawMessage) error {
	method, path, err := route(m)
	if err != nil {
		return err
	}

	var body any
	if _, ok := m.(queue.MarkInventoryInUse); !ok {
		if len(payload) == 0 {
			if _, payload, err = queue.Encode(m); err != nil {
				return fmt.Errorf("%w: %v", queue.ErrPermanent, err)
			}
		}
		body = payload
	}

	headers := map[string]string{idempotencyHeader: key}
	if err := d.http.DoJSON(ctx, method, path, headers, body, nil); err != nil {
		return classify(err)
	}
	return nil
}

func route(m queue.Mutation) (string, string, error) {
	switch v := m.(type) {
	case queue.CreateAdministration:
		return http.MethodPost, "/animals/" + url.PathEscape(v.AnimalID) + "/administrations", nil
	case queue.UpdateInventory:
		return http.MethodPatch, "/inventory/" + url.PathEscape(v.ItemID), nil
	case queue.MarkInventoryInUse:
		return http.MethodPost, "/inventory/" + url.PathEscape(v.ItemID) + "/in-use", nil
	default:
		return "", "", fmt.Errorf("%w: %T", queue.ErrUnknownMutationType, m)
	}
}

// classify: 4xx (salvo 408/429) no cambia reintentando.
func classify(err error) error {
	if httpclient.IsTransient(err) {
		return err
	}
	if httpclient.StatusCode(err) != 0 {
		return fmt.Errorf("%w: %v", queue.ErrPermanent, err)
	}
	return err
}
