package queue

import (
	"vet-med-tracker/internal/platform/logger"
	"vet-med-tracker/internal/platform/metrics"
)

type NoticeKind string

const (
	NoticeEnqueued       NoticeKind = "enqueued"
	NoticeSynced         NoticeKind = "synced"
	NoticeFailed         NoticeKind = "failed"
	NoticeDropped        NoticeKind = "dropped"
	NoticeRetryLimit     NoticeKind = "retry_limit"
	NoticeRejected       NoticeKind = "rejected"
	NoticeCleared        NoticeKind = "cleared"
	NoticeStorageWarning NoticeKind = "storage_warning"
)

// Notice es un aviso para el usuario (toast).
type Notice struct {
	Kind       NoticeKind
	Message    string
	Count      int
	MutationID string
	Type       Kind // solo en avisos de una mutación puntual
}

type Progress struct {
	Current int
	Total   int
}

// Observer recibe las transiciones de la cola. Es solo salida: no influye en el drenado.
type Observer interface {
	OnNotice(n Notice)
	OnProgress(p Progress)
	OnSize(size int)
	OnReport(r Report)
}

type nopObserver struct{}

func (nopObserver) OnNotice(Notice)     {}
func (nopObserver) OnProgress(Progress) {}
func (nopObserver) OnSize(int)          {}
func (nopObserver) OnReport(Report)     {}

// Observers reparte a varios observers en orden.
type Observers []Observer

func (os Observers) OnNotice(n Notice) {
	for _, o := range os {
		o.OnNotice(n)
	}
}

func (os Observers) OnProgress(p Progress) {
	for _, o := range os {
		o.OnProgress(p)
	}
}

func (os Observers) OnSize(size int) {
	for _, o := range os {
		o.OnSize(size)
	}
}

func (os Observers) OnReport(r Report) {
	for _, o := range os {
		o.OnReport(r)
	}
}

// LogObserver escribe cada evento con el logger.
type LogObserver struct {
	Log logger.Logger
}

func (o LogObserver) OnNotice(n Notice) {
	fields := map[string]any{"kind": string(n.Kind), "count": n.Count}
	if n.MutationID != "" {
		fields["mutation_id"] = n.MutationID
	}
	if n.Type != "" {
		fields["type"] = string(n.Type)
	}
	switch n.Kind {
	case NoticeStorageWarning, NoticeDropped, NoticeFailed, NoticeRetryLimit, NoticeRejected:
		o.Log.Warn(n.Message, fields)
	default:
		o.Log.Info(n.Message, fields)
	}
}

func (o LogObserver) OnProgress(p Progress) {
	o.Log.Debug("queue progress", map[string]any{"current": p.Current, "total": p.Total})
}

func (o LogObserver) OnSize(size int) {
	o.Log.Debug("queue size", map[string]any{"size": size})
}

func (o LogObserver) OnReport(r Report) {
	if r.Skipped {
		o.Log.Debug("queue drain skipped", map[string]any{"lease_held": r.LeaseHeld})
		return
	}
	o.Log.Info("queue drain finished", map[string]any{
		"total":     r.Total,
		"succeeded": r.Succeeded,
		"failed":    r.Failed,
		"dropped":   r.Dropped,
		"deferred":  r.Deferred,
	})
}

// MetricsObserver publica en prometheus.
type MetricsObserver struct {
	Metrics *metrics.Queue
}

func (o MetricsObserver) OnNotice(n Notice) {
	switch n.Kind {
	case NoticeEnqueued:
		o.Metrics.Items.WithLabelValues("enqueued").Add(float64(n.Count))
	case NoticeStorageWarning:
		o.Metrics.Items.WithLabelValues("rejected").Inc()
	}
}

func (o MetricsObserver) OnProgress(Progress) {}

func (o MetricsObserver) OnSize(size int) {
	o.Metrics.Size.Set(float64(size))
}

func (o MetricsObserver) OnReport(r Report) {
	if r.Skipped {
		return
	}
	o.Metrics.Runs.Inc()
	o.Metrics.Items.WithLabelValues("succeeded").Add(float64(r.Succeeded))
	o.Metrics.Items.WithLabelValues("failed").Add(float64(r.Failed))
	o.Metrics.Items.WithLabelValues("dropped").Add(float64(r.Dropped))
}
