package inventory

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

func RegisterRoutes(r chi.Router, svc *Service, grantsSvc *caregivers.Service) {
	r.Route("/inventory", func(ir chi.Router) {
		ir.Post("/", createItemHandler(svc, grantsSvc))
		ir.Get("/", listItemsHandler(svc))
		ir.Get("/{itemID}", getItemHandler(svc, grantsSvc))
		ir.Patch("/{itemID}", updateItemHandler(svc, grantsSvc))
		ir.Post("/{itemID}/in-use", markInUseHandler(svc, grantsSvc))
	})
}

type createItemRequest struct {
	HouseholdID       string  `json:"household_id"` // opcional, default el hogar del usuario
	MedicationName    string  `json:"medication_name"`
	Quantity          float64 `json:"quantity"`
	Unit              string  `json:"unit"`
	LowStockThreshold float64 `json:"low_stock_threshold"`
	ExpiresAt         string  `json:"expires_at"` // YYYY-MM-DD opcional
	Notes             string  `json:"notes"`
}

type updateItemRequest struct {
	QuantityDelta     *float64 `json:"quantity_delta"`
	IdempotencyKey    string   `json:"idempotency_key"`
	MedicationName    *string  `json:"medication_name"`
	Unit              *string  `json:"unit"`
	LowStockThreshold *float64 `json:"low_stock_threshold"`
	ExpiresAt         *string  `json:"expires_at"`
	Notes             *string  `json:"notes"`
}

type itemResponse struct {
	ID                string     `json:"id"`
	HouseholdID       string     `json:"household_id"`
	MedicationName    string     `json:"medication_name"`
	Quantity          float64    `json:"quantity"`
	Unit              string     `json:"unit"`
	LowStockThreshold float64    `json:"low_stock_threshold"`
	LowStock          bool       `json:"low_stock"`
	InUse             bool       `json:"in_use"`
	InUseSince        *time.Time `json:"in_use_since,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	Notes             string     `json:"notes"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// createItemHandler godoc
// @Summary Registrar stock de medicación
// @Tags inventory
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createItemRequest true "Datos del item"
// @Success 201 {object} itemResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /inventory [post]
func createItemHandler(svc *Service, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		household := strings.TrimSpace(req.HouseholdID)
		if household == "" {
			household = claims.Household()
		}
		if err := grantsSvc.AuthorizeHousehold(r.Context(), claims, household, caregivers.ScopeInventoryWrite); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var exp *time.Time
		if strings.TrimSpace(req.ExpiresAt) != "" {
			t, err := time.Parse("2006-01-02", req.ExpiresAt)
			if err != nil {
				http.Error(w, "expires_at must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			exp = &t
		}

		it, err := svc.Create(r.Context(), CreateInput{
			HouseholdID:       household,
			MedicationName:    req.MedicationName,
			Quantity:          req.Quantity,
			Unit:              req.Unit,
			LowStockThreshold: req.LowStockThreshold,
			ExpiresAt:         exp,
			Notes:             req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toItemResponse(it))
	}
}

// listItemsHandler godoc
// @Summary Listar inventario del hogar
// @Tags inventory
// @Produce json
// @Param low_stock query bool false "Solo items con stock bajo"
// @Success 200 {array} itemResponse
// @Failure 401 {string} string "unauthorized"
// @Router /inventory [get]
func listItemsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByHousehold(r.Context(), claims.Household())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		onlyLow := r.URL.Query().Get("low_stock") == "true"
		out := make([]itemResponse, 0, len(items))
		for _, it := range items {
			if onlyLow && !it.LowStock() {
				continue
			}
			out = append(out, toItemResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getItemHandler godoc
// @Summary Ver item de inventario
// @Tags inventory
// @Produce json
// @Param itemID path string true "ID del item"
// @Success 200 {object} itemResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "inventory item not found"
// @Router /inventory/{itemID} [get]
func getItemHandler(svc *Service, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, ok := loadAuthorized(w, r, svc, grantsSvc, caregivers.ScopeAnimalRead)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(it))
	}
}

// updateItemHandler godoc
// @Summary Ajustar inventario
// @Description Aplica un delta de cantidad y/o cambia campos. El delta no es idempotente por sí mismo: enviar `Idempotency-Key` (header o body) evita aplicarlo dos veces en reintentos.
// @Tags inventory
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Clave de idempotencia del ajuste"
// @Param itemID path string true "ID del item"
// @Param payload body updateItemRequest true "Delta y campos a modificar"
// @Success 200 {object} itemResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "inventory item not found"
// @Failure 409 {string} string "insufficient stock"
// @Router /inventory/{itemID} [patch]
func updateItemHandler(svc *Service, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, ok := loadAuthorized(w, r, svc, grantsSvc, caregivers.ScopeInventoryWrite)
		if !ok {
			return
		}

		var req updateItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if key == "" {
			key = strings.TrimSpace(req.IdempotencyKey)
		}

		in := UpdateInput{
			QuantityDelta:     req.QuantityDelta,
			IdempotencyKey:    key,
			MedicationName:    req.MedicationName,
			Unit:              req.Unit,
			LowStockThreshold: req.LowStockThreshold,
			Notes:             req.Notes,
		}
		if req.ExpiresAt != nil {
			t, err := time.Parse("2006-01-02", strings.TrimSpace(*req.ExpiresAt))
			if err != nil {
				http.Error(w, "expires_at must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.ExpiresAt = &t
		}

		updated, err := svc.Update(r.Context(), it.ID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(updated))
	}
}

// markInUseHandler godoc
// @Summary Marcar item en uso
// @Description Idempotente: volver a marcar conserva la fecha original.
// @Tags inventory
// @Produce json
// @Param itemID path string true "ID del item"
// @Success 200 {object} itemResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "inventory item not found"
// @Router /inventory/{itemID}/in-use [post]
func markInUseHandler(svc *Service, grantsSvc *caregivers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, ok := loadAuthorized(w, r, svc, grantsSvc, caregivers.ScopeInventoryWrite)
		if !ok {
			return
		}
		updated, err := svc.MarkAsInUse(r.Context(), it.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(updated))
	}
}

func loadAuthorized(w http.ResponseWriter, r *http.Request, svc *Service, grantsSvc *caregivers.Service, scope caregivers.Scope) (Item, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Item{}, false
	}

	it, err := svc.GetByID(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "inventory item not found", http.StatusNotFound)
		return Item{}, false
	}
	if err := grantsSvc.AuthorizeHousehold(r.Context(), claims, it.HouseholdID, scope); err != nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return Item{}, false
	}
	return it, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "inventory item not found", http.StatusNotFound)
	case errors.Is(err, ErrInsufficientStock):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toItemResponse(it Item) itemResponse {
	return itemResponse{
		ID:                it.ID,
		HouseholdID:       it.HouseholdID,
		MedicationName:    it.MedicationName,
		Quantity:          it.Quantity,
		Unit:              it.Unit,
		LowStockThreshold: it.LowStockThreshold,
		LowStock:          it.LowStock(),
		InUse:             it.InUse,
		InUseSince:        it.InUseSince,
		ExpiresAt:         it.ExpiresAt,
		Notes:             it.Notes,
		CreatedAt:         it.CreatedAt,
		UpdatedAt:         it.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
