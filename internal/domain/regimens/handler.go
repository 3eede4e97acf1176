package regimens

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vet-med-tracker/internal/domain/caregivers"
	"vet-med-tracker/internal/domain/schedule"
	"vet-med-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, animals caregivers.AnimalLookup, grantsSvc *caregivers.Service) {
	r.Route("/animals/{animalID}/regimens", func(rr chi.Router) {
		rr.Post("/", createRegimenHandler(svc, animals, grantsSvc))
		rr.Get("/", listRegimensHandler(svc, animals, grantsSvc))
	})

	r.Route("/regimens/{regimenID}", func(rr chi.Router) {
		rr.Get("/", getRegimenHandler(svc, animals, grantsSvc))
		rr.Patch("/", updateRegimenHandler(svc, animals, grantsSvc))
		rr.Delete("/", deactivateRegimenHandler(svc, animals, grantsSvc))
	})
}

type scheduleDTO struct {
	Kind          schedule.Kind `json:"kind" enums:"FIXED,INTERVAL,PRN"`
	TimesLocal    []string      `json:"times_local,omitempty"`
	IntervalHours int           `json:"interval_hours,omitempty"`
}

func (d scheduleDTO) toSchedule() schedule.Schedule {
	return schedule.Schedule{
		Kind:          schedule.Kind(strings.ToUpper(strings.TrimSpace(string(d.Kind)))),
		TimesLocal:    d.TimesLocal,
		IntervalHours: d.IntervalHours,
	}
}

type createRegimenRequest struct {
	MedicationName  string      `json:"medication_name"`
	Dose            string      `json:"dose"`
	DoseUnit        string      `json:"dose_unit"`
	Route           Route       `json:"route"`
	Schedule        scheduleDTO `json:"schedule"`
	CutoffMinutes   int         `json:"cutoff_minutes"`
	HighRisk        bool        `json:"high_risk"`
	RequiresCosign  bool        `json:"requires_cosign"`
	InventoryItemID string      `json:"inventory_item_id"`
	DoseQuantity    float64     `json:"dose_quantity"`
	StartDate       string      `json:"start_date"` // YYYY-MM-DD, default hoy
	EndDate         string      `json:"end_date"`   // YYYY-MM-DD opcional
	Notes           string      `json:"notes"`
}

type updateRegimenRequest struct {
	MedicationName  *string      `json:"medication_name"`
	Dose            *string      `json:"dose"`
	DoseUnit        *string      `json:"dose_unit"`
	Route           *Route       `json:"route"`
	Schedule        *scheduleDTO `json:"schedule"`
	CutoffMinutes   *int         `json:"cutoff_minutes"`
	HighRisk        *bool        `json:"high_risk"`
	RequiresCosign  *bool        `json:"requires_cosign"`
	InventoryItemID *string      `json:"inventory_item_id"`
	DoseQuantity    *float64     `json:"dose_quantity"`
	Active          *bool        `json:"active"`
	Notes           *string      `json:"notes"`
}

type regimenResponse struct {
	ID              string      `json:"id"`
	AnimalID        string      `json:"animal_id"`
	HouseholdID     string      `json:"household_id"`
	MedicationName  string      `json:"medication_name"`
	Dose            string      `json:"dose"`
	DoseUnit        string      `json:"dose_unit"`
	Route           Route       `json:"route"`
	Schedule        scheduleDTO `json:"schedule"`
	CutoffMinutes   int         `json:"cutoff_minutes"`
	HighRisk        bool        `json:"high_risk"`
	RequiresCosign  bool        `json:"requires_cosign"`
	InventoryItemID string      `json:"inventory_item_id,omitempty"`
	DoseQuantity    float64     `json:"dose_quantity,omitempty"`
	StartDate       string      `json:"start_date"`
	EndDate         *string     `json:"end_date,omitempty"`
	Active          bool        `json:"active"`
	DeletedAt       *time.Time  `json:"deleted_at,omitempty"`
	Notes           string      `json:"notes"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// createRegimenHandler godoc
// @Summary Crear pauta de medicación
// @Description Crea una pauta FIXED (horas locales), INTERVAL (cada N horas) o PRN (a demanda). Miembros del hogar o cuidadores con `regimens:manage`. Las pautas de alto riesgo siempre exigen co-firma.
// @Tags regimens
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param animalID path string true "ID del animal"
// @Param payload body createRegimenRequest true "Datos de la pauta"
// @Success 201 {object} regimenResponse
// @Failure 400 {string} string "invalid json / pauta inválida"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID}/regimens [post]
func createRegimenHandler(svc *Service, animals caregivers.AnimalLookup, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := animals.Ref(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}
		if err := grantsSvc.Authorize(r.Context(), claims, a, caregivers.ScopeRegimensManage); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req createRegimenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := parseOptionalDate(req.StartDate)
		if err != nil {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end, err := parseOptionalDate(req.EndDate)
		if err != nil {
			http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		reg, err := svc.Create(r.Context(), CreateInput{
			AnimalID:        a.ID,
			HouseholdID:     a.HouseholdID,
			MedicationName:  req.MedicationName,
			Dose:            req.Dose,
			DoseUnit:        req.DoseUnit,
			Route:           req.Route,
			Schedule:        req.Schedule.toSchedule(),
			CutoffMinutes:   req.CutoffMinutes,
			HighRisk:        req.HighRisk,
			RequiresCosign:  req.RequiresCosign,
			InventoryItemID: req.InventoryItemID,
			DoseQuantity:    req.DoseQuantity,
			StartDate:       start,
			EndDate:         end,
			Notes:           req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRegimenResponse(reg))
	}
}

// listRegimensHandler godoc
// @Summary Listar pautas de un animal
// @Tags regimens
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param include_inactive query bool false "Incluir pautas inactivas o borradas"
// @Success 200 {array} regimenResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID}/regimens [get]
func listRegimensHandler(svc *Service, animals caregivers.AnimalLookup, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := animals.Ref(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}
		if err := grantsSvc.Authorize(r.Context(), claims, a, caregivers.ScopeAnimalRead); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByAnimal(r.Context(), a.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		includeInactive := r.URL.Query().Get("include_inactive") == "true"
		out := make([]regimenResponse, 0, len(items))
		for _, reg := range items {
			if !includeInactive && (!reg.Active || reg.Deleted()) {
				continue
			}
			out = append(out, toRegimenResponse(reg))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getRegimenHandler godoc
// @Summary Ver pauta
// @Tags regimens
// @Produce json
// @Param regimenID path string true "ID de la pauta"
// @Success 200 {object} regimenResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "regimen not found"
// @Router /regimens/{regimenID} [get]
func getRegimenHandler(svc *Service, animals caregivers.AnimalLookup, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg, ok := loadAuthorized(w, r, svc, animals, grantsSvc, caregivers.ScopeAnimalRead)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toRegimenResponse(reg))
	}
}

// updateRegimenHandler godoc
// @Summary Modificar pauta
// @Description PATCH parcial. `end_date: null` quita la fecha de fin.
// @Tags regimens
// @Accept json
// @Produce json
// @Param regimenID path string true "ID de la pauta"
// @Param payload body updateRegimenRequest true "Campos a modificar"
// @Success 200 {object} regimenResponse
// @Failure 400 {string} string "invalid json / pauta inválida"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "regimen not found"
// @Router /regimens/{regimenID} [patch]
func updateRegimenHandler(svc *Service, animals caregivers.AnimalLookup, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg, ok := loadAuthorized(w, r, svc, animals, grantsSvc, caregivers.ScopeRegimensManage)
		if !ok {
			return
		}

		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		var req updateRegimenRequest
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			MedicationName:  req.MedicationName,
			Dose:            req.Dose,
			DoseUnit:        req.DoseUnit,
			Route:           req.Route,
			CutoffMinutes:   req.CutoffMinutes,
			HighRisk:        req.HighRisk,
			RequiresCosign:  req.RequiresCosign,
			InventoryItemID: req.InventoryItemID,
			DoseQuantity:    req.DoseQuantity,
			Active:          req.Active,
			Notes:           req.Notes,
		}
		if req.Schedule != nil {
			sc := req.Schedule.toSchedule()
			in.Schedule = &sc
		}
		if v, exists := raw["end_date"]; exists {
			in.EndDate.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "end_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				end, err := parseOptionalDate(s)
				if err != nil {
					http.Error(w, "end_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				in.EndDate.Value = end
			}
		}

		updated, err := svc.Update(r.Context(), reg.ID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRegimenResponse(updated))
	}
}

// deactivateRegimenHandler godoc
// @Summary Desactivar pauta
// @Description Borrado lógico; el historial de administraciones se conserva.
// @Tags regimens
// @Produce json
// @Param regimenID path string true "ID de la pauta"
// @Success 200 {object} regimenResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "regimen not found"
// @Router /regimens/{regimenID} [delete]
func deactivateRegimenHandler(svc *Service, animals caregivers.AnimalLookup, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg, ok := loadAuthorized(w, r, svc, animals, grantsSvc, caregivers.ScopeRegimensManage)
		if !ok {
			return
		}
		updated, err := svc.Deactivate(r.Context(), reg.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRegimenResponse(updated))
	}
}

// loadAuthorized resuelve la pauta y aplica permisos. Si devuelve false ya respondió.
func loadAuthorized(w http.ResponseWriter, r *http.Request, svc *Service, animals caregivers.AnimalLookup, grantsSvc *caregivers.Service, scope caregivers.Scope) (Regimen, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Regimen{}, false
	}

	reg, err := svc.GetByID(r.Context(), chi.URLParam(r, "regimenID"))
	if err != nil {
		http.Error(w, "regimen not found", http.StatusNotFound)
		return Regimen{}, false
	}
	a, err := animals.Ref(r.Context(), reg.AnimalID)
	if err != nil {
		http.Error(w, "regimen not found", http.StatusNotFound)
		return Regimen{}, false
	}
	if err := grantsSvc.Authorize(r.Context(), claims, a, scope); err != nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return Regimen{}, false
	}
	return reg, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "regimen not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toRegimenResponse(r Regimen) regimenResponse {
	out := regimenResponse{
		ID:             r.ID,
		AnimalID:       r.AnimalID,
		HouseholdID:    r.HouseholdID,
		MedicationName: r.MedicationName,
		Dose:           r.Dose,
		DoseUnit:       r.DoseUnit,
		Route:          r.Route,
		Schedule: scheduleDTO{
			Kind:          r.Schedule.Kind,
			TimesLocal:    r.Schedule.TimesLocal,
			IntervalHours: r.Schedule.IntervalHours,
		},
		CutoffMinutes:   r.CutoffMinutes,
		HighRisk:        r.HighRisk,
		RequiresCosign:  r.RequiresCosign,
		InventoryItemID: r.InventoryItemID,
		DoseQuantity:    r.DoseQuantity,
		StartDate:       r.StartDate.Format("2006-01-02"),
		Active:          r.Active,
		DeletedAt:       r.DeletedAt,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.EndDate != nil {
		s := r.EndDate.Format("2006-01-02")
		out.EndDate = &s
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
