package administrations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vet-med-tracker/internal/domain/animals"
	"vet-med-tracker/internal/domain/caregivers"
	"vet-med-tracker/internal/domain/due"
	"vet-med-tracker/internal/domain/regimens"
	"vet-med-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, animalRefs caregivers.AnimalLookup, grantsSvc *caregivers.Service) {
	r.Route("/animals/{animalID}/administrations", func(ar chi.Router) {
		ar.Post("/", createAdministrationHandler(svc, animalRefs, grantsSvc))
		ar.Get("/", listAdministrationsHandler(svc, animalRefs, grantsSvc))
	})

	r.Route("/administrations/{administrationID}", func(ar chi.Router) {
		ar.Post("/cosign", cosignHandler(svc, animalRefs, grantsSvc))
		ar.Post("/void", voidHandler(svc, animalRefs, grantsSvc))
	})
}

type createAdministrationRequest struct {
	RegimenID      string     `json:"regimen_id"`
	AdministeredAt string     `json:"administered_at"` // RFC3339, default ahora
	IdempotencyKey string     `json:"idempotency_key"` // si no viene header Idempotency-Key
	Notes          string     `json:"notes"`
	Status         due.Status `json:"status" enums:"ON_TIME,LATE,VERY_LATE,MISSED,PRN"` // calculado offline (opcional)
}

type administrationResponse struct {
	ID             string       `json:"id"`
	RegimenID      string       `json:"regimen_id"`
	AnimalID       string       `json:"animal_id"`
	HouseholdID    string       `json:"household_id"`
	CaregiverID    string       `json:"caregiver_id"`
	RecordedAt     time.Time    `json:"recorded_at"`
	AdministeredAt time.Time    `json:"administered_at"`
	ScheduledFor   *time.Time   `json:"scheduled_for"`
	Status         due.Status   `json:"status"`
	PastCutoff     bool         `json:"past_cutoff"`
	IdempotencyKey string       `json:"idempotency_key"`
	Notes          string       `json:"notes"`
	CosignStatus   CosignStatus `json:"cosign_status"`
	CosignedBy     string       `json:"cosigned_by,omitempty"`
	CosignedAt     *time.Time   `json:"cosigned_at,omitempty"`
	Voided         bool         `json:"voided"`
	VoidedAt       *time.Time   `json:"voided_at,omitempty"`
}

// createAdministrationHandler godoc
// @Summary Registrar administración
// @Description Registra una dosis. Idempotente por `Idempotency-Key` (header o body): repetir la misma key devuelve el registro original (200) sin escribir. El estado de puntualidad lo calcula el servidor salvo que TRUST_CLIENT_STATUS esté activo. Miembros del hogar o cuidadores con `administrations:create`.
// @Tags administrations
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param Idempotency-Key header string false "Clave de idempotencia de la acción"
// @Param animalID path string true "ID del animal"
// @Param payload body createAdministrationRequest true "Datos de la dosis"
// @Success 201 {object} administrationResponse
// @Success 200 {object} administrationResponse "replay de una key existente"
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "animal not found / regimen not found"
// @Failure 409 {string} string "pauta inactiva / key usada para otra pauta"
// @Router /animals/{animalID}/administrations [post]
func createAdministrationHandler(svc *Service, animalRefs caregivers.AnimalLookup, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := animalRefs.Ref(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}
		if err := grantsSvc.Authorize(r.Context(), claims, a, caregivers.ScopeAdministrationsCreate); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req createAdministrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if key == "" {
			key = strings.TrimSpace(req.IdempotencyKey)
		}
		if key == "" {
			http.Error(w, "idempotency key required", http.StatusBadRequest)
			return
		}

		var at time.Time
		if strings.TrimSpace(req.AdministeredAt) != "" {
			at, err = time.Parse(time.RFC3339, req.AdministeredAt)
			if err != nil {
				http.Error(w, "administered_at must be RFC3339", http.StatusBadRequest)
				return
			}
		}

		var clientStatus *due.Status
		if req.Status != "" {
			st := req.Status
			clientStatus = &st
		}

		out, created, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			RegimenID:      req.RegimenID,
			AnimalID:       a.ID,
			AdministeredAt: at,
			IdempotencyKey: key,
			Notes:          req.Notes,
			ClientStatus:   clientStatus,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		status := http.StatusCreated
		if !created {
			status = http.StatusOK
		}
		writeJSON(w, status, toAdministrationResponse(out))
	}
}

// listAdministrationsHandler godoc
// @Summary Listar administraciones de un animal
// @Tags administrations
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Param regimen_ids query string false "CSV de pautas"
// @Param statuses query string false "CSV de estados (ON_TIME,LATE,...)"
// @Param from query string false "administered_at mínimo (RFC3339)"
// @Param to query string false "administered_at máximo (RFC3339)"
// @Param include_voided query bool false "Incluir anuladas"
// @Success 200 {array} administrationResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID}/administrations [get]
func listAdministrationsHandler(svc *Service, animalRefs caregivers.AnimalLookup, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := animalRefs.Ref(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}
		if err := grantsSvc.Authorize(r.Context(), claims, a, caregivers.ScopeAnimalRead); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByAnimal(r.Context(), a.ID, filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]administrationResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toAdministrationResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// cosignHandler godoc
// @Summary Co-firmar administración
// @Description Segunda firma para pautas de alto riesgo. No puede hacerla quien registró la dosis. Miembros del hogar o cuidadores con `administrations:cosign`.
// @Tags administrations
// @Produce json
// @Param administrationID path string true "ID de la administración"
// @Success 200 {object} administrationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "administration not found"
// @Failure 409 {string} string "invalid state"
// @Router /administrations/{administrationID}/cosign [post]
func cosignHandler(svc *Service, animalRefs caregivers.AnimalLookup, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adm, claimsUser, ok := loadAuthorized(w, r, svc, animalRefs, grantsSvc, caregivers.ScopeAdministrationsCosign)
		if !ok {
			return
		}
		updated, err := svc.Cosign(r.Context(), adm.ID, claimsUser)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAdministrationResponse(updated))
	}
}

// voidHandler godoc
// @Summary Anular (void) una administración
// @Tags administrations
// @Produce json
// @Param administrationID path string true "ID de la administración"
// @Success 200 {object} administrationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "administration not found"
// @Router /administrations/{administrationID}/void [post]
func voidHandler(svc *Service, animalRefs caregivers.AnimalLookup, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adm, claimsUser, ok := loadAuthorized(w, r, svc, animalRefs, grantsSvc, caregivers.ScopeAdministrationsCreate)
		if !ok {
			return
		}

		// Fuera del hogar, un cuidador solo anula lo que registró él mismo.
		claims, _ := middleware.GetClaims(r.Context())
		a, _ := animalRefs.Ref(r.Context(), adm.AnimalID)
		if !caregivers.IsHouseholdMember(claims, a) && adm.CaregiverID != claimsUser {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		updated, err := svc.Void(r.Context(), adm.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAdministrationResponse(updated))
	}
}

func loadAuthorized(w http.ResponseWriter, r *http.Request, svc *Service, animalRefs caregivers.AnimalLookup, grantsSvc *caregivers.Service, scope caregivers.Scope) (Administration, string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Administration{}, "", false
	}

	adm, err := svc.GetByID(r.Context(), chi.URLParam(r, "administrationID"))
	if err != nil {
		http.Error(w, "administration not found", http.StatusNotFound)
		return Administration{}, "", false
	}
	a, err := animalRefs.Ref(r.Context(), adm.AnimalID)
	if err != nil {
		http.Error(w, "administration not found", http.StatusNotFound)
		return Administration{}, "", false
	}
	if err := grantsSvc.Authorize(r.Context(), claims, a, scope); err != nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return Administration{}, "", false
	}
	return adm, claims.UserID, true
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	filter := ListFilter{Limit: limit, IncludeVoided: q.Get("include_voided") == "true"}

	filter.RegimenIDs = splitCSV(q.Get("regimen_ids"))
	for _, s := range splitCSV(q.Get("statuses")) {
		st := due.Status(strings.ToUpper(s))
		if !st.Valid() {
			return ListFilter{}, errors.New("invalid status filter")
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}
	return filter, nil
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "administration not found", http.StatusNotFound)
	case errors.Is(err, ErrBadState), errors.Is(err, ErrKeyConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, regimens.ErrNotFound):
		http.Error(w, "regimen not found", http.StatusNotFound)
	case errors.Is(err, animals.ErrNotFound):
		http.Error(w, "animal not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toAdministrationResponse(a Administration) administrationResponse {
	return administrationResponse{
		ID:             a.ID,
		RegimenID:      a.RegimenID,
		AnimalID:       a.AnimalID,
		HouseholdID:    a.HouseholdID,
		CaregiverID:    a.CaregiverID,
		RecordedAt:     a.RecordedAt,
		AdministeredAt: a.AdministeredAt,
		ScheduledFor:   a.ScheduledFor,
		Status:         a.Status,
		PastCutoff:     a.PastCutoff,
		IdempotencyKey: a.IdempotencyKey,
		Notes:          a.Notes,
		CosignStatus:   a.CosignStatus,
		CosignedBy:     a.CosignedBy,
		CosignedAt:     a.CosignedAt,
		Voided:         a.Voided,
		VoidedAt:       a.VoidedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
