package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vet-med-tracker/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrConfirmationRequired = errors.New("clearing the queue requires confirmation")

	// ErrPermanent lo envuelven los dispatchers cuando reintentar no puede cambiar el resultado.
	ErrPermanent = errors.New("permanent failure")
)

// Dispatcher ejecuta la operación remota de una mutación. key es la idempotency key;
// payload es el JSON tal como se guardó y es lo que viaja como body.
type Dispatcher interface {
	Dispatch(ctx context.Context, key string, m Mutation, payload json.RawMessage) error
}

// Prober dice si el servidor es alcanzable.
type Prober interface {
	Probe(ctx context.Context) error
}

type Result string

const (
	ResultSucceeded Result = "succeeded"
	ResultFailed    Result = "failed"
	ResultDropped   Result = "dropped"
	ResultDeferred  Result = "deferred"
)

type Outcome struct {
	ID        string
	Type      Kind
	Result    Result
	Retries   int
	LastError string
}

type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Dropped   int
	Deferred  int

	// Skipped: otra pasada ya estaba en curso (en este proceso o, con LeaseHeld, en otro).
	Skipped   bool
	LeaseHeld bool

	Outcomes []Outcome
}

func (r *Report) add(o Outcome) {
	switch o.Result {
	case ResultSucceeded:
		r.Succeeded++
	case ResultFailed:
		r.Failed++
	case ResultDropped:
		r.Dropped++
	case ResultDeferred:
		r.Deferred++
	}
	r.Outcomes = append(r.Outcomes, o)
}

type Options struct {
	HouseholdID string

	// Owner identifica a este proceso en el lease. Default: uuid.
	Owner string

	MaxRetries int
	RetryDelay time.Duration
	LeaseTTL   time.Duration

	Log      logger.Logger
	Observer Observer
}

type drainState int

const (
	stateIdle drainState = iota
	stateDraining
)

// Manager es la cola de un hogar. Una sola pasada de drenado a la vez.
type Manager struct {
	store      Store
	dispatcher Dispatcher
	opts       Options
	log        logger.Logger
	observer   Observer
	now        func() time.Time

	mu     sync.Mutex
	state  drainState
	closed bool

	online atomic.Bool

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(store Store, dispatcher Dispatcher, opts Options) (*Manager, error) {
	if store == nil || dispatcher == nil {
		return nil, errors.New("queue: store and dispatcher are required")
	}
	opts.HouseholdID = strings.TrimSpace(opts.HouseholdID)
	if opts.HouseholdID == "" {
		return nil, errors.New("queue: household id is required")
	}
	if strings.TrimSpace(opts.Owner) == "" {
		opts.Owner = uuid.NewString()
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = DefaultLeaseTTL
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	bg, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:      store,
		dispatcher: dispatcher,
		opts:       opts,
		log:        opts.Log.With(map[string]any{"household_id": opts.HouseholdID}),
		observer:   opts.Observer,
		now:        time.Now,
		bg:         bg,
		cancel:     cancel,
	}, nil
}

func (m *Manager) Online() bool {
	return m.online.Load()
}

// SetOnline registra el estado de conectividad; al pasar a online dispara un drenado.
func (m *Manager) SetOnline(online bool) {
	was := m.online.Swap(online)
	if online && !was {
		m.trigger()
	}
}

func (m *Manager) Size(ctx context.Context) (int, error) {
	return m.store.Count(ctx, m.opts.HouseholdID)
}

// Enqueue agrega la mutación con retries=0. key vacía genera una; el caller debería pasar
// una estable para que re-encolar la misma acción no duplique efectos.
func (m *Manager) Enqueue(ctx context.Context, mut Mutation, key string) (string, error) {
	return m.enqueue(ctx, mut, key, true)
}

// EnqueueIfOffline no guarda nada si hay conexión: el caller envía directo.
func (m *Manager) EnqueueIfOffline(ctx context.Context, mut Mutation, key string) (string, bool, error) {
	if m.Online() {
		return "", false, nil
	}
	id, err := m.enqueue(ctx, mut, key, false)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Submit envía directo si hay conexión y la cola está vacía; si no, o si falla de forma
// transitoria, encola. Los errores permanentes vuelven al caller.
func (m *Manager) Submit(ctx context.Context, mut Mutation, key string) (string, bool, error) {
	_, payload, err := Encode(mut)
	if err != nil {
		return "", false, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = uuid.NewString()
	}

	if !m.Online() {
		id, err := m.enqueue(ctx, mut, key, false)
		return id, err == nil, err
	}

	// Con pendientes, enviar directo adelantaría esta acción a las anteriores.
	n, err := m.Size(ctx)
	if err != nil {
		return "", false, err
	}
	if n > 0 {
		id, err := m.enqueue(ctx, mut, key, true)
		return id, err == nil, err
	}

	err = m.dispatcher.Dispatch(ctx, key, mut, payload)
	if err == nil {
		return key, false, nil
	}
	if isPermanent(err) {
		return key, false, err
	}

	m.log.Warn("direct submit failed, queued for retry", map[string]any{
		"mutation_id": key,
		"type":        string(mut.Kind()),
		"err":         err,
	})
	id, qerr := m.enqueue(ctx, mut, key, false)
	return id, qerr == nil, qerr
}

func (m *Manager) enqueue(ctx context.Context, mut Mutation, key string, trigger bool) (string, error) {
	kind, payload, err := Encode(mut)
	if err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = uuid.NewString()
	}

	qm := QueuedMutation{
		ID:          key,
		HouseholdID: m.opts.HouseholdID,
		Type:        kind,
		Payload:     payload,
		Timestamp:   m.now().UTC(),
		MaxRetries:  m.opts.MaxRetries,
	}
	if err := m.store.Put(ctx, qm); err != nil {
		// Sin almacenamiento la acción se pierde si no hay red: avisar fuerte.
		m.observer.OnNotice(Notice{
			Kind:       NoticeStorageWarning,
			Message:    "offline storage is full: new offline actions may be lost",
			Count:      1,
			MutationID: key,
		})
		return "", fmt.Errorf("enqueue %s: %w", kind, err)
	}

	m.observer.OnNotice(Notice{Kind: NoticeEnqueued, Message: "action saved for sync", Count: 1, MutationID: key})
	m.publishSize(ctx)

	if trigger && m.Online() {
		m.trigger()
	}
	return key, nil
}

// trigger lanza un drenado en background si no hay uno en curso.
func (m *Manager) trigger() {
	m.mu.Lock()
	if m.closed || m.state == stateDraining {
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		if _, err := m.ProcessQueue(m.bg); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Error("background drain failed", map[string]any{"err": err})
		}
	}()
}

// begin pasa a draining; el release devuelto vuelve a idle y se llama con defer.
func (m *Manager) begin() (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateDraining {
		return nil, false
	}
	m.state = stateDraining
	return func() {
		m.mu.Lock()
		m.state = stateIdle
		m.mu.Unlock()
	}, true
}

// ProcessQueue drena la cola en orden de encolado, de a una mutación.
func (m *Manager) ProcessQueue(ctx context.Context) (Report, error) {
	release, ok := m.begin()
	if !ok {
		r := Report{Skipped: true}
		m.observer.OnReport(r)
		return r, nil
	}
	defer release()

	hh, owner := m.opts.HouseholdID, m.opts.Owner

	held, err := m.store.AcquireLease(ctx, hh, owner, m.opts.LeaseTTL, m.now())
	if err != nil {
		return Report{}, fmt.Errorf("acquire lease: %w", err)
	}
	if !held {
		r := Report{Skipped: true, LeaseHeld: true}
		m.observer.OnReport(r)
		return r, nil
	}
	defer func() {
		if err := m.store.ReleaseLease(context.WithoutCancel(ctx), hh, owner); err != nil {
			m.log.Warn("release lease failed", map[string]any{"err": err})
		}
	}()

	items, err := m.store.ListByHousehold(ctx, hh)
	if err != nil {
		return Report{}, fmt.Errorf("list queue: %w", err)
	}

	report := Report{Total: len(items)}
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			m.finish(report)
			return report, err
		}

		report.add(m.processOne(ctx, it))
		m.observer.OnProgress(Progress{Current: i + 1, Total: len(items)})
		m.publishSize(ctx)

		// Renovar; si otro proceso lo tomó (lease vencido) cortamos acá.
		if i < len(items)-1 {
			held, err := m.store.AcquireLease(ctx, hh, owner, m.opts.LeaseTTL, m.now())
			if err != nil || !held {
				m.log.Warn("drain lease lost", map[string]any{"err": err, "processed": i + 1})
				break
			}
		}
	}

	m.finish(report)
	return report, nil
}

func (m *Manager) processOne(ctx context.Context, it QueuedMutation) Outcome {
	out := Outcome{ID: it.ID, Type: it.Type, Retries: it.Retries, LastError: it.LastError}
	fields := map[string]any{"mutation_id": it.ID, "type": string(it.Type)}
	now := m.now()

	if it.Exhausted() {
		m.remove(ctx, it.ID)
		m.log.Warn("mutation exceeded retry limit and was removed", fields)
		m.observer.OnNotice(Notice{
			Kind:       NoticeRetryLimit,
			Message:    fmt.Sprintf("%s exceeded retry limit and was removed", describe(it.Type)),
			Count:      1,
			MutationID: it.ID,
			Type:       it.Type,
		})
		out.Result = ResultDropped
		return out
	}
	if !it.ready(now) {
		out.Result = ResultDeferred
		return out
	}

	mut, err := Decode(it.Type, it.Payload)
	if err == nil {
		err = m.dispatcher.Dispatch(ctx, it.ID, mut, it.Payload)
	}
	if err == nil {
		m.remove(ctx, it.ID)
		out.Result = ResultSucceeded
		return out
	}

	// Cancelado por el caller: no es culpa de la mutación, no consume intento.
	if ctx.Err() != nil {
		out.Result = ResultDeferred
		return out
	}

	it.Retries++
	it.LastError = err.Error()
	out.Retries, out.LastError = it.Retries, it.LastError
	fields["retries"] = it.Retries
	fields["err"] = err

	if isPermanent(err) {
		m.remove(ctx, it.ID)
		m.log.Warn("mutation rejected and was removed", fields)
		m.observer.OnNotice(Notice{
			Kind:       NoticeRejected,
			Message:    fmt.Sprintf("%s was rejected and removed: %s", describe(it.Type), it.LastError),
			Count:      1,
			MutationID: it.ID,
			Type:       it.Type,
		})
		out.Result = ResultDropped
		return out
	}

	next := now.Add(m.opts.RetryDelay * time.Duration(it.Retries))
	it.NextAttemptAt = &next
	if err := m.store.Update(ctx, it); err != nil {
		m.log.Error("update queued mutation failed", map[string]any{"mutation_id": it.ID, "err": err})
	}
	m.log.Info("mutation failed, will retry", fields)
	out.Result = ResultFailed
	return out
}

// remove: si falla, la mutación se reintenta y el servidor la deduplica por key.
func (m *Manager) remove(ctx context.Context, id string) {
	if err := m.store.Delete(ctx, id); err != nil {
		m.log.Error("delete queued mutation failed", map[string]any{"mutation_id": id, "err": err})
	}
}

func (m *Manager) finish(r Report) {
	if r.Succeeded > 0 {
		m.observer.OnNotice(Notice{Kind: NoticeSynced, Message: fmt.Sprintf("%d synced", r.Succeeded), Count: r.Succeeded})
	}
	if r.Failed > 0 {
		m.observer.OnNotice(Notice{Kind: NoticeFailed, Message: fmt.Sprintf("%d failed, will retry", r.Failed), Count: r.Failed})
	}
	if r.Dropped > 0 {
		m.observer.OnNotice(Notice{Kind: NoticeDropped, Message: fmt.Sprintf("%d dropped", r.Dropped), Count: r.Dropped})
	}
	m.observer.OnReport(r)
}

func (m *Manager) publishSize(ctx context.Context) {
	n, err := m.Size(context.WithoutCancel(ctx))
	if err != nil {
		m.log.Warn("queue size unavailable", map[string]any{"err": err})
		return
	}
	m.observer.OnSize(n)
}

// ClearQueue borra todo lo pendiente del hogar. No se puede deshacer.
func (m *Manager) ClearQueue(ctx context.Context, confirmed bool) (int, error) {
	if !confirmed {
		return 0, ErrConfirmationRequired
	}
	n, err := m.store.DeleteAll(ctx, m.opts.HouseholdID)
	if err != nil {
		return 0, err
	}
	m.observer.OnNotice(Notice{Kind: NoticeCleared, Message: fmt.Sprintf("%d pending actions discarded", n), Count: n})
	m.publishSize(ctx)
	return n, nil
}

// Run sondea la conectividad cada interval y drena al volver la conexión o mientras
// queden pendientes. Corre hasta que ctx se cancele.
func (m *Manager) Run(ctx context.Context, prober Prober, interval time.Duration) error {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		m.tick(ctx, prober)
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (m *Manager) tick(ctx context.Context, prober Prober) {
	err := prober.Probe(ctx)
	online := err == nil
	was := m.online.Swap(online)

	if !online {
		if was {
			m.log.Warn("server unreachable, queueing writes", map[string]any{"err": err})
		}
		return
	}
	if !was {
		m.log.Info("back online", nil)
	}

	n, err := m.Size(ctx)
	if err != nil || n == 0 {
		return
	}
	if _, err := m.ProcessQueue(ctx); err != nil && !errors.Is(err, context.Canceled) {
		m.log.Error("drain failed", map[string]any{"err": err})
	}
}

// Wait espera los drenados lanzados en background.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close cancela los drenados en background y los espera.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrPermanent) ||
		errors.Is(err, ErrUnknownMutationType) ||
		errors.Is(err, ErrInvalidMutation)
}
