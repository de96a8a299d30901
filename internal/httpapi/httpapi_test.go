package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gopkg.in/yaml.v3"

	"github.com/tinoosan/chrono/internal/config"
	"github.com/tinoosan/chrono/internal/dataset"
	"github.com/tinoosan/chrono/internal/service/participants"
	"github.com/tinoosan/chrono/internal/window"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type participantsResp struct {
	Course         string              `json:"course"`
	NbParticipants int                 `json:"nb_participants"`
	Participants   []map[string]string `json:"participants"`
}

func buildDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	b := dataset.NewBuilder([]string{"nom", "prenom", "dossard"}, dataset.Options{Policy: dataset.Strict})
	for i := 0; i < n; i++ {
		if err := b.Add(i+2, []string{"Nom" + strconv.Itoa(i), "Prenom" + strconv.Itoa(i), strconv.Itoa(i)}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	return b.Dataset()
}

func setup(t *testing.T, n int) http.Handler {
	t.Helper()
	return New(participants.New(buildDataset(t, n)), config.Default(), nil, testLogger()).Handler()
}

func do(h http.Handler, method, target string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBaseAndHeartbeat(t *testing.T) {
	h := setup(t, 2)
	for _, tc := range []struct{ path, msg string }{
		{"/api", "Api chrono course"},
		{"/api/", "Api chrono course"},
		{"/api/heartbeat", "Heartbeat"},
		{"/api/heartbeat/", "Heartbeat"},
	} {
		rec := do(h, http.MethodGet, tc.path, nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", tc.path, rec.Code, rec.Body.String())
		}
		var m messageResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if m.StatusCode != 200 || m.Message != tc.msg {
			t.Fatalf("%s: unexpected body %+v", tc.path, m)
		}
	}
}

func TestParticipants_DefaultCourse(t *testing.T) {
	h := setup(t, 40000)
	rec := do(h, http.MethodGet, "/api/participants", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var pr participantsResp
	if err := json.Unmarshal(rec.Body.Bytes(), &pr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pr.Course != window.DefaultKey || pr.NbParticipants != 290 {
		t.Fatalf("unexpected window: course=%q nb=%d", pr.Course, pr.NbParticipants)
	}
	if len(pr.Participants) != 291 {
		t.Fatalf("expected 291 participants, got %d", len(pr.Participants))
	}
	if pr.Participants[0]["dossard"] != "38790" || pr.Participants[290]["dossard"] != "39080" {
		t.Fatalf("unexpected bounds: first=%v last=%v", pr.Participants[0], pr.Participants[290])
	}
}

func TestParticipants_EmptyCourseIsHashed(t *testing.T) {
	h := setup(t, 40000)
	rec := do(h, http.MethodGet, "/api/participants?course=", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var pr participantsResp
	if err := json.Unmarshal(rec.Body.Bytes(), &pr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pr.Course != "" || pr.NbParticipants != 288 || len(pr.Participants) != 289 {
		t.Fatalf("unexpected window: course=%q nb=%d len=%d", pr.Course, pr.NbParticipants, len(pr.Participants))
	}
	if pr.Participants[0]["dossard"] != "30788" || pr.Participants[288]["dossard"] != "31076" {
		t.Fatalf("unexpected bounds: first=%v last=%v", pr.Participants[0], pr.Participants[288])
	}
}

func TestParticipants_CourseKeyAndFieldOrder(t *testing.T) {
	h := setup(t, 6000)
	rec := do(h, http.MethodGet, "/api/participants?course=test", nil, nil)
	var pr participantsResp
	if err := json.Unmarshal(rec.Body.Bytes(), &pr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pr.Course != "test" || pr.NbParticipants != 383 || len(pr.Participants) != 384 {
		t.Fatalf("unexpected window: %s %d %d", pr.Course, pr.NbParticipants, len(pr.Participants))
	}
	if !strings.Contains(rec.Body.String(), `{"nom":"Nom4883","prenom":"Prenom4883","dossard":"4883"}`) {
		t.Fatalf("expected header-ordered first record, got %s", rec.Body.String()[:200])
	}

	again := do(h, http.MethodGet, "/api/participants?course=test", nil, nil)
	if again.Body.String() != rec.Body.String() {
		t.Fatalf("same course must produce identical bodies")
	}
}

func TestParticipants_SaturatesOnSmallDataset(t *testing.T) {
	h := setup(t, 2)
	rec := do(h, http.MethodGet, "/api/participants?course=test", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"participants":[]`) {
		t.Fatalf("expected empty participants array, got %s", rec.Body.String())
	}
}

func TestResponseHeaders(t *testing.T) {
	h := setup(t, 2)
	rec := do(h, http.MethodGet, "/api/heartbeat", nil, nil)
	want := map[string]string{
		"Content-Type":  "application/json;charset=utf-8",
		"Cache-Control": "no-cache, no-store, must-revalidate",
		"Pragma":        "no-cache",
		"Expires":       "0",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Fatalf("%s: expected %q, got %q", k, v, got)
		}
	}
	id := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected generated uuid request id, got %q", id)
	}

	rec = do(h, http.MethodGet, "/api/heartbeat", nil, map[string]string{RequestIDHeader: "trace-42"})
	if got := rec.Header().Get(RequestIDHeader); got != "trace-42" {
		t.Fatalf("expected caller request id echoed, got %q", got)
	}
}

func TestPostParticipant(t *testing.T) {
	h := setup(t, 2)
	body := []byte(`{"raw":"Dupont;Jean;12"}`)

	rec := do(h, http.MethodPost, "/api/participants", bytes.NewReader(body), map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var msg string
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil || msg != participants.CreatedMessage {
		t.Fatalf("unexpected ack %q (%v)", rec.Body.String(), err)
	}

	rec = do(h, http.MethodPost, "/api/participants", bytes.NewReader(body), nil)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}

	rec = do(h, http.MethodPost, "/api/participants", strings.NewReader(`{"raw":`), map[string]string{"Content-Type": "application/json; charset=utf-8"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	// the dataset is untouched
	rec = do(h, http.MethodGet, "/api/smokeTest", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("smoke expected 200, got %d", rec.Code)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := setup(t, 2)
	for _, path := range []string{"/api/nope", "/elsewhere"} {
		rec := do(h, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
		var nf notFoundResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &nf); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(nf.Status.StatusContent) != 1 || nf.Status.StatusContent[0].Code != "404 - Not Found" {
			t.Fatalf("unexpected 404 body: %s", rec.Body.String())
		}
	}
	rec := do(h, http.MethodDelete, "/api/participants", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestSupervisionAndSmokeTest(t *testing.T) {
	cfg, err := config.Parse([]byte("port: 5002\nurl_prefix: api\nteam: timing\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	h := New(participants.New(buildDataset(t, 3)), cfg, nil, testLogger()).Handler()

	rec := do(h, http.MethodGet, "/api/supervision", nil, nil)
	var echo map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &echo); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if echo["team"] != "timing" || echo["port"] != float64(5002) || echo["url_prefix"] != "api" {
		t.Fatalf("unexpected config echo: %v", echo)
	}

	rec = do(h, http.MethodGet, "/api/smokeTest", nil, nil)
	var rep struct {
		Status        string `json:"status"`
		NbTestSuccess int    `json:"nbTestSuccess"`
		Resultats     []struct {
			Name  string `json:"name"`
			Cases []struct {
				Message string `json:"message"`
			} `json:"cases"`
		} `json:"resultats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Status != "SUCCESS" || rep.NbTestSuccess != 1 || rep.Resultats[0].Cases[0].Message != "model participants exists" {
		t.Fatalf("unexpected smoke report: %s", rec.Body.String())
	}
}

type failingReady struct{}

func (failingReady) Ready(context.Context) error { return errors.New("db down") }

func TestHealthAndReady(t *testing.T) {
	h := setup(t, 2)
	if rec := do(h, http.MethodGet, "/healthz", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz expected 200, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/readyz", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz expected 200, got %d", rec.Code)
	}
	down := New(participants.New(buildDataset(t, 1)), config.Default(), failingReady{}, testLogger()).Handler()
	if rec := do(down, http.MethodGet, "/readyz", nil, nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz expected 503, got %d", rec.Code)
	}
}

type panickingService struct{ participants.Service }

func (panickingService) Window(context.Context, string) window.Selection { panic("boom") }
func (panickingService) Size() int { return 0 }

func TestRecoverer(t *testing.T) {
	h := New(panickingService{}, config.Default(), nil, testLogger()).Handler()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "500"))
	rec := do(h, http.MethodGet, "/api/participants", nil, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var er errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil || er.Error != "internal_error" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "500")); got != before+1 {
		t.Fatalf("expected recovered panic counted as 500, counter went %v -> %v", before, got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := setup(t, 2)
	rec := do(h, http.MethodOptions, "/api/participants", nil, map[string]string{
		"Origin":                         "http://localhost:3000",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "Content-Type, Auth-Token",
	})
	if rec.Code != http.StatusOK && rec.Code != http.StatusNoContent {
		t.Fatalf("expected preflight success, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}

func TestEmptyPrefix(t *testing.T) {
	cfg := config.Default()
	cfg.URLPrefix = ""
	h := New(participants.New(buildDataset(t, 2)), cfg, nil, testLogger()).Handler()
	if rec := do(h, http.MethodGet, "/heartbeat", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 at root, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected base route at /, got %d", rec.Code)
	}
}

func TestDocs(t *testing.T) {
	h := setup(t, 2)

	rec := do(h, http.MethodGet, "/api/doc/openapi.json", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc struct {
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "/api" {
		t.Fatalf("unexpected servers: %+v", doc.Servers)
	}
	for _, p := range []string{"/", "/heartbeat", "/supervision", "/smokeTest", "/participants"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Fatalf("path %s missing from document", p)
		}
	}

	rec = do(h, http.MethodGet, "/api/doc/openapi.yaml", nil, nil)
	var y map[string]any
	if err := yaml.Unmarshal(rec.Body.Bytes(), &y); err != nil || y["openapi"] != "3.0.3" {
		t.Fatalf("unexpected yaml document (%v): %v", err, y["openapi"])
	}

	rec = do(h, http.MethodGet, "/api/doc/", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "swagger-ui") {
		t.Fatalf("expected swagger page, got %d", rec.Code)
	}
}

func TestParticipantsResponseMatchesOpenAPI(t *testing.T) {
	doc, err := loadOpenAPI()
	if err != nil {
		t.Fatalf("load openapi: %v", err)
	}
	h := setup(t, 6000)
	for _, target := range []string{"/api/participants?course=test", "/api/participants"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		item := doc.Paths.Find("/participants")
		route := &routers.Route{Spec: doc, Path: "/participants", PathItem: item, Method: http.MethodGet, Operation: item.Get}
		input := &openapi3filter.ResponseValidationInput{
			RequestValidationInput: &openapi3filter.RequestValidationInput{Request: req, Route: route},
			Status:                 rec.Code,
			Header:                 rec.Header(),
			Body:                   io.NopCloser(bytes.NewReader(rec.Body.Bytes())),
		}
		if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
			t.Fatalf("%s: response does not match document: %v", target, err)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := setup(t, 2)
	_ = do(h, http.MethodGet, "/api/heartbeat", nil, nil)
	rec := do(h, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"chrono_http_requests_total", "chrono_dataset_records"} {
		if !strings.Contains(body, name) {
			t.Fatalf("metric %s missing", name)
		}
	}
}
