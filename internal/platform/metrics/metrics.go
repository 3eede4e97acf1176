package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vetmed"

// Server agrupa los collectors del API.
type Server struct {
	Registry *prometheus.Registry

	AdministrationsRecorded *prometheus.CounterVec
	IdempotentReplays       prometheus.Counter
	CosignsCompleted        prometheus.Counter
	ClientStatusMismatches  prometheus.Counter
}

func NewServer() *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Server{
		Registry: reg,
		AdministrationsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "administrations_recorded_total",
			Help:      "Administraciones persistidas, por estado de puntualidad.",
		}, []string{"status"}),
		IdempotentReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "administrations_idempotent_replays_total",
			Help:      "Creaciones que devolvieron un registro existente por idempotency key.",
		}),
		CosignsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "administrations_cosigned_total",
			Help:      "Co-firmas completadas.",
		}),
		ClientStatusMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "administrations_client_status_mismatch_total",
			Help:      "Estados enviados por el cliente que no coinciden con el recalculado.",
		}),
	}
	reg.MustRegister(m.AdministrationsRecorded, m.IdempotentReplays, m.CosignsCompleted, m.ClientStatusMismatches)
	return m
}

func (m *Server) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Queue agrupa los collectors de la cola offline del cliente.
type Queue struct {
	Registry *prometheus.Registry

	Items *prometheus.CounterVec
	Size  prometheus.Gauge
	Runs  prometheus.Counter
}

func NewQueue() *Queue {
	reg := prometheus.NewRegistry()
	m := &Queue{
		Registry: reg,
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "items_total",
			Help:      "Mutaciones procesadas por la cola, por resultado.",
		}, []string{"result"}),
		Size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "size",
			Help:      "Mutaciones pendientes en la cola.",
		}),
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "drains_total",
			Help:      "Pasadas completas de sincronización.",
		}),
	}
	reg.MustRegister(m.Items, m.Size, m.Runs)
	return m
}

func (m *Queue) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
