package compliance

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vet-med-tracker/internal/domain/caregivers"
	"vet-med-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, animalRefs caregivers.AnimalLookup, grantsSvc *caregivers.Service) {
	r.Get("/animals/{animalID}/compliance", getComplianceHandler(svc, animalRefs, grantsSvc))
}

type regimenResponse struct {
	RegimenID      string         `json:"regimen_id"`
	MedicationName string         `json:"medication_name"`
	Counts         map[string]int `json:"counts"`
	Total          int            `json:"total"`
	PRN            int            `json:"prn"`
	OnTimeRate     *float64       `json:"on_time_rate"`
}

type reportResponse struct {
	AnimalID string            `json:"animal_id"`
	From     time.Time         `json:"from"`
	To       time.Time         `json:"to"`
	Regimens []regimenResponse `json:"regimens"`
}

// getComplianceHandler godoc
// @Summary Adherencia por régimen
// @Description Conteos por estado y tasa de puntualidad; PRN se cuenta aparte. Por defecto los últimos 30 días.
// @Tags compliance
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param animalID path string true "ID del animal"
// @Param from query string false "RFC3339"
// @Param to query string false "RFC3339"
// @Success 200 {object} reportResponse
// @Failure 400 {string} string "invalid range"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID}/compliance [get]
func getComplianceHandler(svc *Service, animalRefs caregivers.AnimalLookup, grantsSvc *caregivers.Service) http.HandlerFunc {
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

		from, err := parseTime(r.URL.Query().Get("from"))
		if err != nil {
			http.Error(w, "from must be RFC3339", http.StatusBadRequest)
			return
		}
		to, err := parseTime(r.URL.Query().Get("to"))
		if err != nil {
			http.Error(w, "to must be RFC3339", http.StatusBadRequest)
			return
		}

		report, err := svc.ForAnimal(r.Context(), a.ID, from, to)
		if err != nil {
			if errors.Is(err, ErrInvalidRange) {
				http.Error(w, "invalid range", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := reportResponse{AnimalID: report.AnimalID, From: report.From, To: report.To, Regimens: make([]regimenResponse, 0, len(report.Regimens))}
		for _, s := range report.Regimens {
			counts := make(map[string]int, len(s.Counts))
			for k, v := range s.Counts {
				counts[string(k)] = v
			}
			resp.Regimens = append(resp.Regimens, regimenResponse{
				RegimenID:      s.RegimenID,
				MedicationName: s.MedicationName,
				Counts:         counts,
				Total:          s.Total,
				PRN:            s.PRN,
				OnTimeRate:     s.OnTimeRate,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
