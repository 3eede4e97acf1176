package dueboard

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vet-med-tracker/internal/domain/caregivers"
	"vet-med-tracker/internal/domain/due"
	"vet-med-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, animalRefs caregivers.AnimalLookup, grantsSvc *caregivers.Service) {
	r.Get("/animals/{animalID}/due", animalDueHandler(svc, animalRefs, grantsSvc))
	r.Get("/due", householdDueHandler(svc))
}

type entryResponse struct {
	RegimenID       string     `json:"regimen_id"`
	AnimalID        string     `json:"animal_id"`
	AnimalName      string     `json:"animal_name"`
	MedicationName  string     `json:"medication_name"`
	Dose            string     `json:"dose"`
	DoseUnit        string     `json:"dose_unit"`
	HighRisk        bool       `json:"high_risk"`
	MinutesUntilDue *int       `json:"minutes_until_due"`
	NextDoseAt      *time.Time `json:"next_dose_at,omitempty"`
}

type sectionResponse struct {
	Section due.Section     `json:"section"`
	Items   []entryResponse `json:"items"`
}

type boardResponse struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Sections    []sectionResponse `json:"sections"`
}

// animalDueHandler godoc
// @Summary Pendientes de un animal
// @Description Agrupa las pautas activas en secciones due, upcoming, as_needed y not_applicable, en ese orden; dentro de cada sección por minutos hasta la dosis.
// @Tags due
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param animalID path string true "ID del animal"
// @Param include_upcoming query bool false "Incluir sección upcoming"
// @Success 200 {object} boardResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID}/due [get]
func animalDueHandler(svc *Service, animalRefs caregivers.AnimalLookup, grantsSvc *caregivers.Service) http.HandlerFunc {
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

		board, err := svc.ForAnimal(r.Context(), a.ID, r.URL.Query().Get("include_upcoming") == "true")
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toBoardResponse(board))
	}
}

// householdDueHandler godoc
// @Summary Pendientes del hogar
// @Tags due
// @Produce json
// @Param include_upcoming query bool false "Incluir sección upcoming"
// @Success 200 {object} boardResponse
// @Failure 401 {string} string "unauthorized"
// @Router /due [get]
func householdDueHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		board, err := svc.ForHousehold(r.Context(), claims.Household(), r.URL.Query().Get("include_upcoming") == "true")
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toBoardResponse(board))
	}
}

func toBoardResponse(b Board) boardResponse {
	out := boardResponse{GeneratedAt: b.GeneratedAt, Sections: make([]sectionResponse, 0, 4)}
	for _, e := range b.Entries {
		// Entries ya viene ordenado por sección.
		if n := len(out.Sections); n == 0 || out.Sections[n-1].Section != e.Section {
			out.Sections = append(out.Sections, sectionResponse{Section: e.Section})
		}
		sec := &out.Sections[len(out.Sections)-1]
		sec.Items = append(sec.Items, entryResponse{
			RegimenID:       e.RegimenID,
			AnimalID:        e.AnimalID,
			AnimalName:      e.AnimalName,
			MedicationName:  e.MedicationName,
			Dose:            e.Dose,
			DoseUnit:        e.DoseUnit,
			HighRisk:        e.HighRisk,
			MinutesUntilDue: e.MinutesUntilDue,
			NextDoseAt:      e.NextDoseAt,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
