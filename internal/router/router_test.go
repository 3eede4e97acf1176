package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vet-med-tracker/internal/domain/caregivers"
	"vet-med-tracker/internal/router"
)

type actor struct {
	userID      string
	householdID string
}

var (
	owner  = actor{userID: "owner-1", householdID: "h-1"}
	member = actor{userID: "member-2", householdID: "h-1"}
	sitter = actor{userID: "sitter-1", householdID: "h-9"}

	neighbor = actor{userID: "neighbor-1", householdID: "h-2"}
)

func TestHTTP_EndToEnd_RecordAndCosign(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	// 1) Owner crea animal y pauta PRN de alto riesgo
	animalID := createResource(t, ts.URL, owner, "/animals", map[string]any{
		"name":     "Milo",
		"species":  "dog",
		"timezone": "America/Santiago",
	})
	regimenID := createResource(t, ts.URL, owner, "/animals/"+animalID+"/regimens", map[string]any{
		"medication_name": "Insulina",
		"dose":            "2",
		"dose_unit":       "UI",
		"route":           "injection",
		"schedule":        map[string]any{"kind": "PRN"},
		"high_risk":       true,
		// Fecha de inicio anterior a "hoy" en cualquier zona horaria.
		"start_date": time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"),
	})

	// 2) Registrar dos veces con la misma key devuelve el mismo registro
	payload := map[string]any{
		"regimen_id":      regimenID,
		"administered_at": time.Now().UTC().Format(time.RFC3339),
	}
	st, body := doReq(t, ts.URL, "POST", "/animals/"+animalID+"/administrations", owner, payload, "key-1")
	if st != http.StatusCreated {
		t.Fatalf("expected 201 first create, got %d body=%s", st, string(body))
	}
	first := decodeAdministration(t, body)
	if first.Status != "PRN" || first.CosignStatus != "pending" {
		t.Fatalf("unexpected administration: %+v", first)
	}

	st, body = doReq(t, ts.URL, "POST", "/animals/"+animalID+"/administrations", owner, payload, "key-1")
	if st != http.StatusOK {
		t.Fatalf("expected 200 replay, got %d body=%s", st, string(body))
	}
	if replay := decodeAdministration(t, body); replay.ID != first.ID {
		t.Fatalf("replay returned a different record: %s vs %s", replay.ID, first.ID)
	}

	{
		st, body := doReq(t, ts.URL, "GET", "/animals/"+animalID+"/administrations", owner, nil, "")
		if st != http.StatusOK {
			t.Fatalf("expected 200 list, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected exactly 1 administration, got %d", len(items))
		}
	}

	// 3) Tablero: la pauta PRN cae en as_needed
	{
		st, body := doReq(t, ts.URL, "GET", "/due", owner, nil, "")
		if st != http.StatusOK {
			t.Fatalf("expected 200 due board, got %d body=%s", st, string(body))
		}
		var board struct {
			Sections []struct {
				Section string `json:"section"`
				Items   []struct {
					RegimenID string `json:"regimen_id"`
				} `json:"items"`
			} `json:"sections"`
		}
		if err := json.Unmarshal(body, &board); err != nil {
			t.Fatalf("decode board: %v", err)
		}
		found := false
		for _, s := range board.Sections {
			for _, it := range s.Items {
				if it.RegimenID == regimenID {
					found = s.Section == "as_needed"
				}
			}
		}
		if !found {
			t.Fatalf("regimen not listed as as_needed: %s", string(body))
		}
	}

	// 4) Quien registró no puede co-firmar; otro miembro del hogar sí
	{
		st, _ := doReq(t, ts.URL, "POST", "/administrations/"+first.ID+"/cosign", owner, nil, "")
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 self cosign, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/administrations/"+first.ID+"/cosign", member, nil, "")
		if st != http.StatusOK {
			t.Fatalf("expected 200 cosign by member, got %d body=%s", st, string(body))
		}
		if got := decodeAdministration(t, body); got.CosignStatus != "cosigned" || got.CosignedBy != member.userID {
			t.Fatalf("unexpected cosign result: %+v", got)
		}
	}

	// 5) Cumplimiento cuenta la dosis PRN
	{
		st, body := doReq(t, ts.URL, "GET", "/animals/"+animalID+"/compliance", owner, nil, "")
		if st != http.StatusOK {
			t.Fatalf("expected 200 compliance, got %d body=%s", st, string(body))
		}
		if !strings.Contains(string(body), regimenID) {
			t.Fatalf("compliance report missing regimen: %s", string(body))
		}
	}
}

func TestHTTP_CaregiverScopes(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	animalID := createResource(t, ts.URL, owner, "/animals", map[string]any{"name": "Luna", "species": "cat"})
	regimenID := createResource(t, ts.URL, owner, "/animals/"+animalID+"/regimens", map[string]any{
		"medication_name": "Meloxicam",
		"dose":            "0.5",
		"dose_unit":       "ml",
		"route":           "oral",
		"schedule":        map[string]any{"kind": "FIXED", "times_local": []string{"08:00", "20:00"}},
	})

	// Sin grant: 403
	{
		st, _ := doReq(t, ts.URL, "GET", "/animals/"+animalID+"/due", sitter, nil, "")
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 before grant, got %d", st)
		}
	}

	grantID := createResource(t, ts.URL, owner, "/animals/"+animalID+"/grants", map[string]any{
		"grantee_user_id": sitter.userID,
		"scopes": []string{
			string(caregivers.ScopeAnimalRead),
			string(caregivers.ScopeAdministrationsCreate),
		},
	})
	{
		st, body := doReq(t, ts.URL, "POST", "/grants/"+grantID+"/accept", sitter, nil, "")
		if st != http.StatusOK {
			t.Fatalf("expected 200 accept, got %d body=%s", st, string(body))
		}
	}

	{
		st, body := doReq(t, ts.URL, "GET", "/animals/"+animalID+"/due?include_upcoming=true", sitter, nil, "")
		if st != http.StatusOK {
			t.Fatalf("expected 200 due by sitter, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/animals/"+animalID+"/administrations", sitter, map[string]any{
			"regimen_id": regimenID,
		}, "sitter-key-1")
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create by sitter, got %d body=%s", st, string(body))
		}
	}

	// Sin scope de edición de pautas
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/regimens/"+regimenID, sitter, nil, "")
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 deactivate by sitter, got %d", st)
		}
	}

	{
		st, _ := doReq(t, ts.URL, "POST", "/grants/"+grantID+"/revoke", owner, nil, "")
		if st != http.StatusOK {
			t.Fatalf("expected 200 revoke, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/animals/"+animalID+"/administrations", sitter, map[string]any{
			"regimen_id": regimenID,
		}, "sitter-key-2")
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 after revoke, got %d", st)
		}
	}
}

func TestHTTP_IdempotencyKeyScopedToHousehold(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	prn := func(who actor, animalID, med string) string {
		return createResource(t, ts.URL, who, "/animals/"+animalID+"/regimens", map[string]any{
			"medication_name": med,
			"dose":            "1",
			"dose_unit":       "tab",
			"route":           "oral",
			"schedule":        map[string]any{"kind": "PRN"},
		})
	}

	ownAnimal := createResource(t, ts.URL, owner, "/animals", map[string]any{"name": "Milo", "species": "dog"})
	ownRegimen := prn(owner, ownAnimal, "Gabapentina")
	otherAnimal := createResource(t, ts.URL, neighbor, "/animals", map[string]any{"name": "Tom", "species": "cat"})
	otherRegimen := prn(neighbor, otherAnimal, "Prednisolona")

	st, body := doReq(t, ts.URL, "POST", "/animals/"+ownAnimal+"/administrations", owner, map[string]any{
		"regimen_id": ownRegimen, "notes": "privado",
	}, "shared-key")
	if st != http.StatusCreated {
		t.Fatalf("expected 201 owner create, got %d body=%s", st, string(body))
	}
	ownDose := decodeAdministration(t, body)

	// Otro hogar con la misma key: registro propio, sin ver el del vecino.
	st, body = doReq(t, ts.URL, "POST", "/animals/"+otherAnimal+"/administrations", neighbor, map[string]any{
		"regimen_id": otherRegimen,
	}, "shared-key")
	if st != http.StatusCreated {
		t.Fatalf("expected 201 neighbor create, got %d body=%s", st, string(body))
	}
	if strings.Contains(string(body), "privado") {
		t.Fatalf("neighbor response leaked owner data: %s", string(body))
	}
	otherDose := decodeAdministration(t, body)
	if otherDose.ID == ownDose.ID || otherDose.HouseholdID != neighbor.householdID || otherDose.CaregiverID != neighbor.userID {
		t.Fatalf("neighbor got a foreign record: %+v (owner %+v)", otherDose, ownDose)
	}

	// Replay del vecino resuelve a su propio registro.
	st, body = doReq(t, ts.URL, "POST", "/animals/"+otherAnimal+"/administrations", neighbor, map[string]any{
		"regimen_id": otherRegimen,
	}, "shared-key")
	if st != http.StatusOK {
		t.Fatalf("expected 200 neighbor replay, got %d body=%s", st, string(body))
	}
	if got := decodeAdministration(t, body); got.ID != otherDose.ID {
		t.Fatalf("neighbor replay returned %s, want %s", got.ID, otherDose.ID)
	}

	// La misma key para otra pauta del mismo hogar es conflicto.
	secondRegimen := prn(owner, ownAnimal, "Trazodona")
	st, body = doReq(t, ts.URL, "POST", "/animals/"+ownAnimal+"/administrations", owner, map[string]any{
		"regimen_id": secondRegimen,
	}, "shared-key")
	if st != http.StatusConflict {
		t.Fatalf("expected 409 key reused for another regimen, got %d body=%s", st, string(body))
	}

	// Sin acceso al animal ajeno, la key no sirve para leer nada.
	st, _ = doReq(t, ts.URL, "POST", "/animals/"+ownAnimal+"/administrations", neighbor, map[string]any{
		"regimen_id": ownRegimen,
	}, "shared-key")
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 on foreign animal, got %d", st)
	}
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	if st, _ := doReq(t, ts.URL, "GET", "/health", actor{}, nil, ""); st != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", st)
	}
	st, body := doReq(t, ts.URL, "GET", "/metrics", actor{}, nil, "")
	if st != http.StatusOK {
		t.Fatalf("expected 200 metrics, got %d", st)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("metrics output missing runtime collectors")
	}
	if st, _ := doReq(t, ts.URL, "GET", "/due", actor{}, nil, ""); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", st)
	}
}

type administrationView struct {
	ID           string `json:"id"`
	HouseholdID  string `json:"household_id"`
	CaregiverID  string `json:"caregiver_id"`
	RegimenID    string `json:"regimen_id"`
	Status       string `json:"status"`
	CosignStatus string `json:"cosign_status"`
	CosignedBy   string `json:"cosigned_by"`
}

func decodeAdministration(t *testing.T, body []byte) administrationView {
	t.Helper()
	var out administrationView
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode administration: %v body=%s", err, string(body))
	}
	return out
}

func createResource(t *testing.T, baseURL string, who actor, path string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", path, who, payload, "")
	if st != http.StatusCreated {
		t.Fatalf("expected 201 POST %s, got %d body=%s", path, st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("POST %s: missing id body=%s", path, string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path string, who actor, body any, idempotencyKey string) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who.userID != "" {
		req.Header.Set("X-Debug-User-ID", who.userID)
	}
	if who.householdID != "" {
		req.Header.Set("X-Debug-Household-ID", who.householdID)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
