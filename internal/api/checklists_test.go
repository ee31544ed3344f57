package api

import (
	"net/http"
	"strings"
	"testing"
)

func inspectionPayload() map[string]interface{} {
	return map[string]interface{}{
		"type": "rve",
		"data": map[string]interface{}{
			"cliente":   "Estación Central",
			"tecnico":   "J. Morales",
			"voltaje":   "230V",
			"resultado": "aprobado",
		},
	}
}

// ---------------------------------------------------------------------------
// Direct submission (public)
// ---------------------------------------------------------------------------

func TestSubmitChecklistWithoutCredentials(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, "POST", "/api/v1/checklists", "", inspectionPayload())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	resp := getJSON(t, w)
	id, _ := resp["id"].(string)
	if !strings.HasPrefix(id, "checklist_") {
		t.Errorf("id = %q, want checklist_ prefix", id)
	}
}

func TestSubmitChecklistWithoutData(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, "POST", "/api/v1/checklists", "", map[string]interface{}{"type": "rve"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Listing / update / delete (authenticated)
// ---------------------------------------------------------------------------

func TestListChecklistsRequiresToken(t *testing.T) {
	r := newTestRouter(t, nil)

	if w := doJSON(r, "GET", "/api/v1/checklists", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated list status = %d, want 401", w.Code)
	}
}

func TestListChecklistsNewestFirst(t *testing.T) {
	r := newTestRouter(t, nil)
	token := technicianToken(t, r)

	first := doJSON(r, "POST", "/api/v1/checklists", "", inspectionPayload())
	second := doJSON(r, "POST", "/api/v1/checklists", "", inspectionPayload())
	firstID := getJSON(t, first)["id"].(string)
	secondID := getJSON(t, second)["id"].(string)

	w := doJSON(r, "GET", "/api/v1/checklists", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}

	resp := getJSON(t, w)
	records, _ := resp["checklists"].([]interface{})
	if len(records) != 2 {
		t.Fatalf("list returned %d records, want 2", len(records))
	}
	got0 := records[0].(map[string]interface{})["id"]
	got1 := records[1].(map[string]interface{})["id"]
	if got0 != secondID || got1 != firstID {
		t.Errorf("order = [%v %v], want newest first [%v %v]", got0, got1, secondID, firstID)
	}
}

func TestUpdateChecklist(t *testing.T) {
	r := newTestRouter(t, nil)
	token := technicianToken(t, r)

	created := doJSON(r, "POST", "/api/v1/checklists", "", inspectionPayload())
	id := getJSON(t, created)["id"].(string)

	w := doJSON(r, "PUT", "/api/v1/checklists/"+id, token, map[string]interface{}{
		"data": map[string]interface{}{"resultado": "rechazado"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body: %s", w.Code, w.Body.String())
	}

	record, _ := getJSON(t, w)["checklist"].(map[string]interface{})
	if record == nil {
		t.Fatal("response missing 'checklist' object")
	}
	data, _ := record["data"].(map[string]interface{})
	if data["resultado"] != "rechazado" {
		t.Errorf("resultado = %v, want rechazado", data["resultado"])
	}
	if record["id"] != id {
		t.Errorf("id changed across update: %v", record["id"])
	}
}

func TestUpdateMissingChecklistIs404(t *testing.T) {
	r := newTestRouter(t, nil)
	token := technicianToken(t, r)

	w := doJSON(r, "PUT", "/api/v1/checklists/checklist_0_nonexistent", token, map[string]interface{}{
		"data": map[string]interface{}{"resultado": "aprobado"},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteChecklistScenario(t *testing.T) {
	r := newTestRouter(t, nil)
	token := technicianToken(t, r)

	created := doJSON(r, "POST", "/api/v1/checklists", "", inspectionPayload())
	id := getJSON(t, created)["id"].(string)

	if w := doJSON(r, "DELETE", "/api/v1/checklists/"+id, token, nil); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	// Record is gone from the listing.
	w := doJSON(r, "GET", "/api/v1/checklists", token, nil)
	records, _ := getJSON(t, w)["checklists"].([]interface{})
	if len(records) != 0 {
		t.Errorf("list returned %d records after delete, want 0", len(records))
	}

	// A second delete and an update both answer 404.
	if w := doJSON(r, "DELETE", "/api/v1/checklists/"+id, token, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
	upd := doJSON(r, "PUT", "/api/v1/checklists/"+id, token, map[string]interface{}{
		"data": map[string]interface{}{"x": "y"},
	})
	if upd.Code != http.StatusNotFound {
		t.Errorf("update after delete status = %d, want 404", upd.Code)
	}
}
