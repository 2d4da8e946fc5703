package meals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"calotrack-server-go/internal/domain/image"
	"calotrack-server-go/internal/domain/meal"
	"calotrack-server-go/internal/domain/meal/store"
	"calotrack-server-go/internal/persistence"
	"calotrack-server-go/internal/platform/config"
	"calotrack-server-go/internal/platform/storage"
	httptransport "calotrack-server-go/internal/transport/http"
)

type stubAnalyzer struct {
	raw *meal.RawAnalysis
	err error
}

func (s *stubAnalyzer) Analyze(context.Context, meal.AnalyzeRequest) (*meal.RawAnalysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.raw, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubAnalyzer) {
	t.Helper()

	db, err := storage.OpenMemory(fmt.Sprintf("meals-http-%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	repo, err := persistence.NewRepository(db, nil, "en")
	if err != nil {
		t.Fatalf("NewRepository error: %v", err)
	}

	analyzer := &stubAnalyzer{
		raw: &meal.RawAnalysis{
			MealName:    "Ramen",
			Description: "Bowl of ramen",
			Ingredients: []any{"Noodles", map[string]any{"name": "Broth", "sodium": 900.0}},
		},
	}

	controller, err := meal.NewController(meal.Options{
		Analyzer:  analyzer,
		Persister: repo,
		Refs:      store.NewMemory(store.Config{}),
		Validator: image.NewValidator(&config.ImageConfig{MinPayloadChars: 16}, nil),
		Events:    noopPublisher{},
	})
	if err != nil {
		t.Fatalf("NewController error: %v", err)
	}

	cfg := &config.Config{}
	cfg.Log.Level = "error"

	router, err := httptransport.Build(httptransport.Options{Config: cfg})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	service, err := NewService(cfg, nil, controller, repo)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	if err := service.Register(context.Background(), router.API); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	return router.Engine, analyzer
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, ...interface{}) {}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(encoded)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) httptransport.APIResponse {
	t.Helper()
	var resp httptransport.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v\n%s", err, w.Body.String())
	}
	return resp
}

var testImage = strings.Repeat("Qk", 64)

func TestLifecycleOverHTTP(t *testing.T) {
	engine, _ := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/meals/analyze", AnalyzeRequest{Image: testImage})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze status %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, engine, http.MethodPatch, "/api/meals/draft", map[string]string{"name": "Tonkotsu Ramen"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, engine, http.MethodPost, "/api/meals/commit", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("commit status %d: %s", w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	data, _ := resp.Data.(map[string]any)
	mealID, _ := data["meal_id"].(string)
	if mealID == "" {
		t.Fatalf("expected a meal id in %v", resp.Data)
	}

	w = doJSON(t, engine, http.MethodGet, "/api/meals/records/"+mealID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("record status %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Tonkotsu Ramen") {
		t.Errorf("record should carry the edited name: %s", w.Body.String())
	}

	w = doJSON(t, engine, http.MethodPost, "/api/meals/update", UpdateRequest{Notes: "half portion"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, engine, http.MethodGet, "/api/meals/draft", nil)
	snapshot := decodeEnvelope(t, w)
	snapData, _ := snapshot.Data.(map[string]any)
	if state, _ := snapData["state"].(string); state != "idle" {
		t.Errorf("expected idle state after update, got %q", state)
	}
}

func TestAnalyzeRejectsBadPayload(t *testing.T) {
	engine, _ := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/meals/analyze", AnalyzeRequest{Image: "!!!"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, engine, http.MethodPost, "/api/meals/analyze", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing image, got %d", w.Code)
	}
}

func TestCommitWithoutDraftConflicts(t *testing.T) {
	engine, _ := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/meals/commit", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateWithoutPostIsLocalError(t *testing.T) {
	engine, _ := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/meals/analyze", AnalyzeRequest{Image: testImage})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze status %d", w.Code)
	}

	w = doJSON(t, engine, http.MethodPost, "/api/meals/update", UpdateRequest{Notes: "n"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for update without posted meal, got %d", w.Code)
	}
}

func TestDragReleaseEndpoint(t *testing.T) {
	engine, _ := newTestRouter(t)

	if w := doJSON(t, engine, http.MethodPost, "/api/meals/analyze", AnalyzeRequest{Image: testImage}); w.Code != http.StatusOK {
		t.Fatalf("analyze status %d", w.Code)
	}

	w := doJSON(t, engine, http.MethodPost, "/api/meals/draft/ingredients/ing_0/drag-release",
		DragReleaseRequest{DX: 30, DY: 40})
	resp := decodeEnvelope(t, w)
	data, _ := resp.Data.(map[string]any)
	if removed, _ := data["removed"].(bool); removed {
		t.Error("short drag should not remove")
	}

	w = doJSON(t, engine, http.MethodPost, "/api/meals/draft/ingredients/ing_0/drag-release",
		DragReleaseRequest{DX: 120, DY: 0})
	resp = decodeEnvelope(t, w)
	data, _ = resp.Data.(map[string]any)
	if removed, _ := data["removed"].(bool); !removed {
		t.Error("long drag should remove")
	}
}

func TestAnalysisFailureMapsToBadGateway(t *testing.T) {
	engine, analyzer := newTestRouter(t)
	analyzer.err = fmt.Errorf("provider down")

	w := doJSON(t, engine, http.MethodPost, "/api/meals/analyze", AnalyzeRequest{Image: testImage})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
}
