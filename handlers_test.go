package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestApp wires an app around a scripted invoker. The corpus path is
// disabled so every name comes from the script.
func newTestApp(inv promptInvoker) *App {
	cfg := &Config{
		Bind:           "127.0.0.1",
		Port:           8080,
		Provider:       ProviderZhipu,
		APIKey:         "test-key",
		Category:       CategoryAny,
		MaxQuestions:   DefaultMaxQuestions,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
	app := newApp(cfg, nil)
	app.Names.Client = inv
	app.Names.corpusOdds = 0
	app.Names.retry.delay = 0
	app.Judge.Client = inv
	app.Judge.retry.delay = 0
	return app
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("Response %q is not JSON: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

func startedRouter(t *testing.T, inv *scriptedInvoker) (*App, *gin.Engine) {
	t.Helper()
	app := newTestApp(inv)
	router := app.newRouter()
	w, _ := doJSON(t, router, http.MethodPost, "/game/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Start returned %d: %s", w.Code, w.Body.String())
	}
	return app, router
}

func TestStartGame(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu"}}
	app, _ := startedRouter(t, inv)

	if inv.calls != 2 {
		t.Errorf("Invoke called %d times, want 2 (one name per player)", inv.calls)
	}
	if !strings.Contains(inv.prompts[1], "LiBai") {
		t.Error("Second name prompt should exclude the first name")
	}
	session := app.currentSession()
	if session.SecretName(1) != "LiBai" || session.SecretName(2) != "DuFu" {
		t.Error("Session secrets should match the generated names")
	}
}

func TestStartGameWithoutKey(t *testing.T) {
	app := newTestApp(nil)
	app.Config.APIKey = ""
	app.Names.Client = NewAIClient(ProviderZhipu, "")
	router := app.newRouter()

	w, body := doJSON(t, router, http.MethodPost, "/game/start", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400 for a missing key", w.Code)
	}
	if body["error"] == "" {
		t.Error("Error body should carry a message")
	}
}

func TestStateRedactsSecrets(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu"}}
	_, router := startedRouter(t, inv)

	w, body := doJSON(t, router, http.MethodGet, "/game/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("State returned %d", w.Code)
	}
	p1 := body["player1"].(map[string]any)
	if _, ok := p1["secretName"]; ok {
		t.Error("Active player's secret must not appear in the public state")
	}
	if p1["phase"] != string(PhasePlaying) {
		t.Errorf("Phase = %v, want playing", p1["phase"])
	}
}

func TestAskRecordsVerdict(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu", "CORRECT"}}
	app, router := startedRouter(t, inv)

	w, body := doJSON(t, router, http.MethodPost, "/game/1/ask", `{"text":"Was this person a poet?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Ask returned %d: %s", w.Code, w.Body.String())
	}
	if body["result"] != true {
		t.Errorf("Result = %v, want true", body["result"])
	}
	session := app.currentSession()
	if session.player(1).QuestionsUsed != 1 {
		t.Error("Ask should consume one question slot")
	}
}

func TestAskEmptyText(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu"}}
	_, router := startedRouter(t, inv)

	w, body := doJSON(t, router, http.MethodPost, "/game/1/ask", `{"text":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}
	if body["error"] != ErrorEmptyText {
		t.Errorf("Error = %v, want %q", body["error"], ErrorEmptyText)
	}
}

func TestAskInvalidPlayer(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu"}}
	_, router := startedRouter(t, inv)

	w, _ := doJSON(t, router, http.MethodPost, "/game/3/ask", `{"text":"q"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", w.Code)
	}
}

func TestAskBeforeStart(t *testing.T) {
	app := newTestApp(&scriptedInvoker{})
	router := app.newRouter()

	w, body := doJSON(t, router, http.MethodPost, "/game/1/ask", `{"text":"q"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Status = %d, want 409", w.Code)
	}
	if body["error"] != ErrorNoSession {
		t.Errorf("Error = %v, want %q", body["error"], ErrorNoSession)
	}
}

func TestAskPastBudget(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu"}}
	app, router := startedRouter(t, inv)

	app.withSessionLock(func() {
		session := app.Session
		for i := 0; i < app.Config.MaxQuestions; i++ {
			session.Record(1, newAskRecord("q", false))
		}
	})

	w, body := doJSON(t, router, http.MethodPost, "/game/1/ask", `{"text":"one more"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Status = %d, want 409", w.Code)
	}
	if body["error"] != ErrorNoMoreAsks {
		t.Errorf("Error = %v, want %q", body["error"], ErrorNoMoreAsks)
	}
}

func TestGuessWinsAndRevealsSecret(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu", "CORRECT"}}
	_, router := startedRouter(t, inv)

	w, body := doJSON(t, router, http.MethodPost, "/game/1/guess", `{"text":"Li Bai"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Guess returned %d: %s", w.Code, w.Body.String())
	}
	if body["result"] != true {
		t.Errorf("Result = %v, want true", body["result"])
	}
	state := body["state"].(map[string]any)
	p1 := state["player1"].(map[string]any)
	if p1["phase"] != string(PhaseWon) {
		t.Errorf("Phase = %v, want won", p1["phase"])
	}
	if p1["secretName"] != "LiBai" {
		t.Error("A finished player's secret should be revealed")
	}
}

func TestGuessAfterTerminal(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu"}}
	app, router := startedRouter(t, inv)

	app.withSessionLock(func() { app.Session.GiveUp(1) })

	w, body := doJSON(t, router, http.MethodPost, "/game/1/guess", `{"text":"Li Bai"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Status = %d, want 409", w.Code)
	}
	if body["error"] != ErrorPlayerFinished {
		t.Errorf("Error = %v, want %q", body["error"], ErrorPlayerFinished)
	}
}

func TestGuessJudgmentUnparseable(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu", "shrug", "shrug again"}}
	_, router := startedRouter(t, inv)

	w, _ := doJSON(t, router, http.MethodPost, "/game/1/guess", `{"text":"Du Fu"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502 for an unparseable verdict", w.Code)
	}
}

func TestHintConsumesQuestionSlot(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu", "drank under the moon"}}
	app, router := startedRouter(t, inv)

	w, body := doJSON(t, router, http.MethodPost, "/game/2/hint", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Hint returned %d: %s", w.Code, w.Body.String())
	}
	if body["hint"] != "drank under the moon" {
		t.Errorf("Hint = %v, want the cleaned reply", body["hint"])
	}
	session := app.currentSession()
	p := session.player(2)
	if p.QuestionsUsed != 1 {
		t.Error("Hint should consume one question slot")
	}
	if p.Records[0].Kind != RecordHint || p.Records[0].Text != "Hint: drank under the moon" {
		t.Errorf("Record = %+v, want a hint record", p.Records[0])
	}
}

func TestGiveUp(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu"}}
	_, router := startedRouter(t, inv)

	w, body := doJSON(t, router, http.MethodPost, "/game/1/give-up", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Give-up returned %d", w.Code)
	}
	p1 := body["player1"].(map[string]any)
	if p1["phase"] != string(PhaseGaveUp) {
		t.Errorf("Phase = %v, want gave_up", p1["phase"])
	}

	w, _ = doJSON(t, router, http.MethodPost, "/game/1/give-up", "")
	if w.Code != http.StatusConflict {
		t.Errorf("Second give-up returned %d, want 409", w.Code)
	}
}

// invokerFunc adapts a function to promptInvoker for tests that need to run
// side effects while a judgment is in flight.
type invokerFunc func(ctx context.Context, prompt string, temperature float64) (string, error)

func (f invokerFunc) Invoke(ctx context.Context, prompt string, temperature float64) (string, error) {
	return f(ctx, prompt, temperature)
}

func TestResetDuringInFlightJudgment(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu"}}
	app, router := startedRouter(t, inv)

	var kinds []EventKind
	app.Events.Subscribe(func(e Event) { kinds = append(kinds, e.Kind) })

	// The judgment call resets the game before replying, so the verdict
	// arrives for a session that has already been replaced.
	app.Judge.Client = invokerFunc(func(context.Context, string, float64) (string, error) {
		w, _ := doJSON(t, router, http.MethodPost, "/game/reset", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Reset returned %d", w.Code)
		}
		return "CORRECT", nil
	})

	w, body := doJSON(t, router, http.MethodPost, "/game/1/guess", `{"text":"Li Bai"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Status = %d, want 409 for a verdict landing after reset", w.Code)
	}
	if body["error"] != ErrorPlayerFinished {
		t.Errorf("Error = %v, want %q", body["error"], ErrorPlayerFinished)
	}
	if app.currentSession().Started {
		t.Error("The installed session should still be the idle replacement")
	}
	for _, kind := range kinds {
		if kind == EventPlayerWon || kind == EventGameOver {
			t.Errorf("Abandoned session leaked a %s event to live subscribers", kind)
		}
	}
}

func TestStartAnnouncesAfterInstall(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu"}}
	app := newTestApp(inv)
	router := app.newRouter()

	// Handlers run while replaceSession holds the write lock, so the field
	// read is safe here; the installed session must already be the one the
	// event describes.
	installed := 0
	app.Events.Subscribe(func(e Event) {
		if e.Kind == EventStateChange && e.State != nil && e.State.Started {
			if !app.Session.Started {
				t.Error("Start was announced before the session was installed")
			}
			installed++
		}
	})

	w, _ := doJSON(t, router, http.MethodPost, "/game/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Start returned %d: %s", w.Code, w.Body.String())
	}
	if installed == 0 {
		t.Error("Starting a game should announce a started stateChange")
	}
}

func TestReset(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu"}}
	app, router := startedRouter(t, inv)

	w, body := doJSON(t, router, http.MethodPost, "/game/reset", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Reset returned %d", w.Code)
	}
	if body["started"] != false {
		t.Error("Reset state should not be started")
	}
	if app.currentSession().Started {
		t.Error("Reset should install an idle session")
	}
}

func TestHealthz(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"LiBai", "DuFu"}}
	_, router := startedRouter(t, inv)

	w, body := doJSON(t, router, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Healthz returned %d", w.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("Status = %v, want ok", body["status"])
	}
	if body["provider"] != ProviderZhipu {
		t.Errorf("Provider = %v, want zhipu", body["provider"])
	}
	if body["game_started"] != true {
		t.Error("game_started should reflect the running session")
	}
	if body["game_over"] != false {
		t.Error("game_over should be false mid-game")
	}
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(&scriptedInvoker{})
	app.Config.RateLimitRPS = 1
	app.Config.RateLimitBurst = 1
	router := app.newRouter()

	w1, _ := doJSON(t, router, http.MethodPost, "/game/1/ask", `{"text":"q"}`)
	if w1.Code == http.StatusTooManyRequests {
		t.Fatal("First request should pass the limiter")
	}
	w2, _ := doJSON(t, router, http.MethodPost, "/game/1/ask", `{"text":"q"}`)
	if w2.Code != http.StatusTooManyRequests {
		t.Errorf("Second request returned %d, want 429", w2.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(&scriptedInvoker{})
	router := app.newRouter()

	w, _ := doJSON(t, router, http.MethodGet, "/healthz", "")
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("Responses should carry a request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-Id") != "fixed-id" {
		t.Error("An incoming request id should be echoed back")
	}
}

func TestGameRoutesAreUncacheable(t *testing.T) {
	app := newTestApp(&scriptedInvoker{})
	router := app.newRouter()

	w, _ := doJSON(t, router, http.MethodGet, "/game/state", "")
	cc := w.Header().Get("Cache-Control")
	if !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
}
