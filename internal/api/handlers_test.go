package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatehouse/internal/auth"
	"gatehouse/internal/config"
	"gatehouse/internal/constants"
	"gatehouse/internal/models/dtos"
	"gatehouse/internal/models/entities"

	"github.com/go-chi/chi/v5"
)

func newTestDeps(t *testing.T) *Dependencies {
	t.Helper()
	cfg := &config.Config{
		AppEnv:                "test",
		DataDir:               t.TempDir(),
		StorageBackend:        "json",
		StorageMissingAsEmpty: true,
		SessionTTL:            time.Hour,
		RoleCacheTTL:          time.Minute,
		FrontendURL:           "http://localhost:3000",
		ServerName:            "Test Server",
		EffectMaxAttempts:     1,
		SubmitRatePerMinute:   60,
		SubmitRateBurst:       10,
	}
	deps, err := InitDependencies(cfg, nil)
	if err != nil {
		t.Fatalf("InitDependencies failed: %v", err)
	}
	t.Cleanup(func() { deps.Close(context.Background()) })
	return deps
}

// withUser injects claims the way AuthMiddleware does.
func withUser(id string, access constants.AccessLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &auth.SessionClaims{
				SessionID:   "s-" + id,
				IdentityVal: entities.DiscordIdentity{ID: id, Username: "user" + id},
				AccessVal:   access,
			}
			next.ServeHTTP(w, r.WithContext(auth.SetUserClaims(r.Context(), claims)))
		})
	}
}

func newTestRouter(deps *Dependencies, userID string, access constants.AccessLevel) http.Handler {
	r := chi.NewRouter()
	r.Use(withUser(userID, access))
	r.Get("/eligibility", EligibilityHandler(deps))
	r.Post("/applications", SubmitApplicationHandler(deps))
	r.Get("/applications/mine", MyApplicationsHandler(deps))
	r.Get("/admin/applications", ListApplicationsHandler(deps))
	r.Get("/admin/applications/{id}", GetApplicationHandler(deps))
	r.Post("/admin/applications/{id}/review", ReviewApplicationHandler(deps))
	r.Post("/admin/applications/{id}/notes", AddNoteHandler(deps))
	r.Post("/admin/bans", AddModerationHandler(deps, BansPicker))
	r.Get("/admin/bans", ListModerationHandler(deps, BansPicker))
	r.Delete("/admin/bans/{discordId}", RemoveModerationHandler(deps, BansPicker))
	return r
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
		}
	}
	return rr, env
}

func submitReq() dtos.SubmitApplicationReq {
	return dtos.SubmitApplicationReq{
		ApplicationType: constants.DefaultApplicationType,
		Answers:         map[string]any{"characterName": "Vex"},
	}
}

func TestSubmitApplicationHandler_CreatesThenRejectsDuplicate(t *testing.T) {
	deps := newTestDeps(t)
	h := newTestRouter(deps, "100", constants.AccessMember)

	rr, env := do(t, h, http.MethodPost, "/applications", submitReq())
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var result dtos.SubmitResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Application == nil || result.Application.Status != constants.StatusPending {
		t.Errorf("Expected pending application, got %+v", result.Application)
	}

	rr, env = do(t, h, http.MethodPost, "/applications", submitReq())
	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rr.Code)
	}
	var decision dtos.EligibilityDecision
	if err := json.Unmarshal(env.Data, &decision); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if decision.CanReapply {
		t.Error("Expected canReapply false on duplicate pending")
	}
	if env.Message != constants.MsgPendingDuplicate {
		t.Errorf("Expected %q, got %q", constants.MsgPendingDuplicate, env.Message)
	}
}

func TestSubmitApplicationHandler_InvalidBody(t *testing.T) {
	deps := newTestDeps(t)
	h := newTestRouter(deps, "100", constants.AccessMember)

	req := httptest.NewRequest(http.MethodPost, "/applications", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestEligibilityHandler(t *testing.T) {
	deps := newTestDeps(t)
	h := newTestRouter(deps, "100", constants.AccessMember)

	rr, env := do(t, h, http.MethodGet, "/eligibility?type=whitelist", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var decision dtos.EligibilityDecision
	_ = json.Unmarshal(env.Data, &decision)
	if !decision.CanReapply {
		t.Errorf("Expected first-time applicant to be eligible, got %+v", decision)
	}
}

func TestReviewApplicationHandler_Flow(t *testing.T) {
	deps := newTestDeps(t)
	member := newTestRouter(deps, "100", constants.AccessMember)
	staff := newTestRouter(deps, "900", constants.AccessStaff)

	_, env := do(t, member, http.MethodPost, "/applications", submitReq())
	var result dtos.SubmitResult
	_ = json.Unmarshal(env.Data, &result)
	id := result.Application.ID

	rr, _ := do(t, staff, http.MethodPost, "/admin/applications/"+id+"/review",
		dtos.ReviewApplicationReq{Status: constants.StatusDenied, Reason: "too short"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr, _ = do(t, staff, http.MethodPost, "/admin/applications/"+id+"/review",
		dtos.ReviewApplicationReq{Status: constants.StatusApproved})
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected 409 on second review, got %d", rr.Code)
	}

	rr, env = do(t, staff, http.MethodGet, "/admin/applications/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var app entities.Application
	_ = json.Unmarshal(env.Data, &app)
	if app.Status != constants.StatusDenied || app.Reviewer == nil || app.Reviewer.ID != "900" {
		t.Errorf("Expected denied by 900, got %+v", app)
	}

	rr, env = do(t, staff, http.MethodGet, "/admin/applications", nil)
	var active []entities.Application
	_ = json.Unmarshal(env.Data, &active)
	if rr.Code != http.StatusOK || len(active) != 0 {
		t.Errorf("Expected empty active list, got %d items (code %d)", len(active), rr.Code)
	}

	rr, env = do(t, member, http.MethodGet, "/eligibility", nil)
	var decision dtos.EligibilityDecision
	_ = json.Unmarshal(env.Data, &decision)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if decision.TotalDenied == nil || *decision.TotalDenied != 1 {
		t.Errorf("Expected totalDenied 1, got %+v", decision)
	}
}

func TestReviewApplicationHandler_InvalidStatus(t *testing.T) {
	deps := newTestDeps(t)
	member := newTestRouter(deps, "100", constants.AccessMember)
	staff := newTestRouter(deps, "900", constants.AccessStaff)

	_, env := do(t, member, http.MethodPost, "/applications", submitReq())
	var result dtos.SubmitResult
	_ = json.Unmarshal(env.Data, &result)

	rr, _ := do(t, staff, http.MethodPost, "/admin/applications/"+result.Application.ID+"/review",
		dtos.ReviewApplicationReq{Status: "maybe"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestGetApplicationHandler_NotFound(t *testing.T) {
	deps := newTestDeps(t)
	staff := newTestRouter(deps, "900", constants.AccessStaff)

	rr, _ := do(t, staff, http.MethodGet, "/admin/applications/123", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
}

func TestAddNoteHandler(t *testing.T) {
	deps := newTestDeps(t)
	member := newTestRouter(deps, "100", constants.AccessMember)
	staff := newTestRouter(deps, "900", constants.AccessStaff)

	_, env := do(t, member, http.MethodPost, "/applications", submitReq())
	var result dtos.SubmitResult
	_ = json.Unmarshal(env.Data, &result)

	rr, _ := do(t, staff, http.MethodPost, "/admin/applications/"+result.Application.ID+"/notes", dtos.AddNoteReq{Content: "looks fine"})
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr, _ = do(t, staff, http.MethodPost, "/admin/applications/"+result.Application.ID+"/notes", dtos.AddNoteReq{Content: "  "})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty note, got %d", rr.Code)
	}
}

func TestBanBlocksSubmission(t *testing.T) {
	deps := newTestDeps(t)
	member := newTestRouter(deps, "100", constants.AccessMember)
	admin := newTestRouter(deps, "1", constants.AccessAdmin)

	rr, _ := do(t, admin, http.MethodPost, "/admin/bans", dtos.BanReq{DiscordID: "100", Reason: "griefing"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr, env := do(t, member, http.MethodPost, "/applications", submitReq())
	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for banned user, got %d", rr.Code)
	}
	if env.Message != constants.MsgBanned {
		t.Errorf("Expected %q, got %q", constants.MsgBanned, env.Message)
	}

	rr, _ = do(t, admin, http.MethodDelete, "/admin/bans/100", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 on unban, got %d", rr.Code)
	}
	rr, _ = do(t, member, http.MethodPost, "/applications", submitReq())
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected 201 after unban, got %d", rr.Code)
	}
}

func TestHealthCheckHandler(t *testing.T) {
	deps := newTestDeps(t)

	rr := httptest.NewRecorder()
	HealthCheckHandler(deps).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp entities.HealthReport
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Expected ok, got %q", resp.Status)
	}
	if resp.Components["redis"].State != entities.ComponentDisabled {
		t.Errorf("Expected redis disabled, got %q", resp.Components["redis"].State)
	}
	if resp.Components["storage"].State != entities.ComponentOK || !resp.Components["storage"].Required {
		t.Errorf("Expected required storage ok, got %+v", resp.Components["storage"])
	}
	if resp.StorageBackend == "" {
		t.Error("Expected storage backend to be reported")
	}
	if resp.Effects != nil {
		t.Errorf("Expected no effect backlog without redis, got %+v", resp.Effects)
	}
}

func TestSummarizeHealth(t *testing.T) {
	down := func(required bool) entities.ComponentHealth {
		return entities.ComponentHealth{State: entities.ComponentDown, Required: required}
	}
	ok := entities.ComponentHealth{State: entities.ComponentOK, Required: true}
	disabled := entities.ComponentHealth{State: entities.ComponentDisabled}

	cases := []struct {
		name       string
		components map[string]entities.ComponentHealth
		want       string
	}{
		{"all ok", map[string]entities.ComponentHealth{"storage": ok, "redis": disabled}, "ok"},
		{"audit mirror down", map[string]entities.ComponentHealth{"storage": ok, "audit_db": down(false)}, "degraded"},
		{"storage down", map[string]entities.ComponentHealth{"storage": down(true), "audit_db": down(false)}, "down"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := summarize(c.components); got != c.want {
				t.Errorf("Expected %s, got %s", c.want, got)
			}
		})
	}
}

func TestSafeReturnTo(t *testing.T) {
	cases := map[string]string{
		"/admin": "/admin",
		"": "/",
		"https://evil.test/": "/",
		"//evil.test": "/",
		"/\\evil.test": "/",
	}
	for in, want := range cases {
		if got := safeReturnTo(in); got != want {
			t.Errorf("safeReturnTo(%q): expected %q, got %q", in, want, got)
		}
	}
}
