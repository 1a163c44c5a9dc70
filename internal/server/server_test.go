package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/loantools/loancalc/internal/config"
	"github.com/loantools/loancalc/internal/store"
)

func testScenario(name string) config.Scenario {
	return config.Scenario{
		Name:       name,
		Active:     true,
		Principal:  "100000",
		Rate:       6,
		Term:       12,
		StartMonth: "2024-01",
	}
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return NewHandler(nil, store.NewMemoryStore(), 0, "1.2.3")
}

func doJSON(t *testing.T, h http.Handler, method, path string, payload interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, rec.Body.String())
	}
}

func TestScheduleEndpoint(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/schedule", testScenario("web"), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Summary  map[string]interface{}   `json:"summary"`
		Schedule []map[string]interface{} `json:"schedule"`
		CSV      string                   `json:"csv"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Schedule) != 12 {
		t.Errorf("schedule has %d rows, expected 12", len(resp.Schedule))
	}
	for _, key := range []string{"principal_financed", "total_interest", "apr", "new_end_date"} {
		if _, ok := resp.Summary[key]; !ok {
			t.Errorf("summary missing key %q", key)
		}
	}
	if !strings.HasPrefix(resp.CSV, "Period,Date") {
		t.Errorf("csv payload missing header")
	}
}

func TestScheduleEndpointRejectsBadInput(t *testing.T) {
	h := newTestHandler(t)

	bad := testScenario("broken")
	bad.Principal = "plenty"
	rec := doJSON(t, h, http.MethodPost, "/api/schedule", bad, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unparseable scenario status = %d, expected 400", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["error"] == "" {
		t.Error("error response missing error field")
	}

	overfinanced := testScenario("overfinanced")
	overfinanced.DownPayment = "100000"
	rec = doJSON(t, h, http.MethodPost, "/api/schedule", overfinanced, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("overfinanced scenario status = %d, expected 400", rec.Code)
	}

	if rec := doJSON(t, h, http.MethodGet, "/api/schedule", nil, nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, expected 405", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/schedule", strings.NewReader("{not json"))
	plain := httptest.NewRecorder()
	h.ServeHTTP(plain, req)
	if plain.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON status = %d, expected 400", plain.Code)
	}
}

func TestScheduleEndpointDivergence(t *testing.T) {
	h := newTestHandler(t)

	diverging := testScenario("diverging")
	diverging.Term = 2
	diverging.Holidays = []string{"2024-01", "2024-02", "2024-03"}
	rec := doJSON(t, h, http.MethodPost, "/api/schedule", diverging, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("diverging scenario status = %d, expected 422: %s", rec.Code, rec.Body.String())
	}
}

func TestScheduleEndpointBodyLimit(t *testing.T) {
	h := NewHandler(nil, store.NewMemoryStore(), 64, "test")

	big := testScenario("big")
	for i := 0; i < 50; i++ {
		big.Holidays = append(big.Holidays, "2024-06")
	}
	rec := doJSON(t, h, http.MethodPost, "/api/schedule", big, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body status = %d, expected 413", rec.Code)
	}
}

func TestCompareEndpoint(t *testing.T) {
	h := newTestHandler(t)

	overpaid := testScenario("overpaid")
	overpaid.Overpayments = []string{"2024-06:20000:term"}
	rec := doJSON(t, h, http.MethodPost, "/api/compare", map[string]interface{}{
		"scenarios": []config.Scenario{testScenario("baseline"), overpaid},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []struct {
			Name     string                   `json:"name"`
			Summary  map[string]interface{}   `json:"summary"`
			Schedule []map[string]interface{} `json:"schedule"`
		} `json:"results"`
		Delta map[string]interface{} `json:"delta"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Name != "baseline" || resp.Results[1].Name != "overpaid" {
		t.Errorf("result names = %s, %s", resp.Results[0].Name, resp.Results[1].Name)
	}
	if resp.Delta["end_date_b"] != "2024-10" {
		t.Errorf("delta end_date_b = %v, expected 2024-10", resp.Delta["end_date_b"])
	}
	if !strings.HasPrefix(resp.Delta["total_interest"].(string), "-") {
		t.Errorf("total_interest delta = %v, expected negative", resp.Delta["total_interest"])
	}

	rec = doJSON(t, h, http.MethodPost, "/api/compare", map[string]interface{}{
		"scenarios": []config.Scenario{testScenario("alone")},
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("single-scenario compare status = %d, expected 400", rec.Code)
	}
}

func TestComparisonsLifecycle(t *testing.T) {
	h := newTestHandler(t)
	token := map[string]string{userTokenHeader: "user-1"}

	if rec := doJSON(t, h, http.MethodGet, "/api/comparisons", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing token status = %d, expected 400", rec.Code)
	}

	rec := doJSON(t, h, http.MethodPost, "/api/comparisons", map[string]interface{}{
		"name":     "my plan",
		"scenario": testScenario("web"),
	}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, expected 201: %s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	decodeBody(t, rec, &created)
	if created["id"] == "" {
		t.Fatal("save response missing id")
	}

	rec = doJSON(t, h, http.MethodGet, "/api/comparisons", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, expected 200", rec.Code)
	}
	var listed struct {
		Comparisons []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"comparisons"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Comparisons) != 1 || listed.Comparisons[0].Name != "my plan" {
		t.Fatalf("list = %+v, expected one entry named 'my plan'", listed.Comparisons)
	}

	// A different user sees nothing.
	rec = doJSON(t, h, http.MethodGet, "/api/comparisons", nil, map[string]string{userTokenHeader: "user-2"})
	var other struct {
		Comparisons []interface{} `json:"comparisons"`
	}
	decodeBody(t, rec, &other)
	if len(other.Comparisons) != 0 {
		t.Errorf("other user's list = %+v, expected empty", other.Comparisons)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/comparisons?id="+created["id"], nil, token)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, expected 204", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/comparisons", nil, token)
	decodeBody(t, rec, &listed)
	if len(listed.Comparisons) != 0 {
		t.Errorf("list after delete = %+v, expected empty", listed.Comparisons)
	}

	// Delete without an id clears everything.
	doJSON(t, h, http.MethodPost, "/api/comparisons", map[string]interface{}{"scenario": testScenario("a")}, token)
	doJSON(t, h, http.MethodPost, "/api/comparisons", map[string]interface{}{"scenario": testScenario("b")}, token)
	if rec := doJSON(t, h, http.MethodDelete, "/api/comparisons", nil, token); rec.Code != http.StatusNoContent {
		t.Errorf("clear status = %d, expected 204", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/comparisons", nil, token)
	decodeBody(t, rec, &listed)
	if len(listed.Comparisons) != 0 {
		t.Errorf("list after clear = %+v, expected empty", listed.Comparisons)
	}
}

func TestScenarioYAMLEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/scenario/yaml", testScenario("web"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("content type = %q, expected application/x-yaml", ct)
	}
	body := rec.Body.String()
	for _, fragment := range []string{"scenarios:", "name: web", "startMonth:", "2024-01"} {
		if !strings.Contains(body, fragment) {
			t.Errorf("yaml body missing %q:\n%s", fragment, body)
		}
	}

	bad := testScenario("broken")
	bad.StartMonth = "soon"
	if rec := doJSON(t, h, http.MethodPost, "/api/scenario/yaml", bad, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid scenario status = %d, expected 400", rec.Code)
	}
}

func TestVersionEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/version", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["version"] != "1.2.3" {
		t.Errorf("version = %q, expected 1.2.3", resp["version"])
	}

	if rec := doJSON(t, h, http.MethodPost, "/api/version", nil, nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, expected 405", rec.Code)
	}
}

func TestStaticIndex(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Loan Calculator") {
		t.Error("index page missing title")
	}
}
