package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
	"github.com/luisherrera/finances-go/internal/handler"
	"github.com/luisherrera/finances-go/internal/infra/cache"
	"github.com/luisherrera/finances-go/internal/infra/client"
	"github.com/luisherrera/finances-go/internal/infra/observability"
	"github.com/luisherrera/finances-go/internal/infra/resilience"
	"github.com/luisherrera/finances-go/internal/infra/store"
	"github.com/luisherrera/finances-go/internal/service"
)

// TestIntegration_FullFlow spins up a mock generator API and drives the whole
// stack through the HTTP router.
func TestIntegration_FullFlow(t *testing.T) {
	// --- Mock generator API ---
	generatorServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding generator request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.ChatResponse{
			SessionID:   "gen-session",
			Reply:       "generated advice",
			RespondedAt: time.Now().UTC(),
		})
	}))
	defer generatorServer.Close()

	// --- Mock RAG provider ---
	ragServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ext/rag/documents" {
			t.Errorf("unexpected rag path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.RagReceipt{Status: "accepted", ID: "doc-1"})
	}))
	defer ragServer.Close()

	// --- Stack ---
	db, err := store.Open(filepath.Join(t.TempDir(), "finances.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer db.Close()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	snapshots := cache.New[*domain.RecommendationSnapshot]()

	remote := client.NewGeneratorClient(generatorServer.URL, "it-key",
		&http.Client{Timeout: 2 * time.Second},
		resilience.NewCircuitBreaker("generator-it"),
		resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond},
		metrics, logger)
	generator := client.NewResilientGenerator(remote,
		service.NewFallbackGenerator(logger), true, "fast", metrics, logger)

	budget := service.NewBudgetService(db, db, db, logger)
	insights := service.NewInsightService(budget, db, metrics, logger)
	contexts := service.NewContextService(db, db, logger)
	recommender := service.NewRecommendationService(
		service.RecommenderConfig{Enabled: true, Interval: time.Hour, LookbackDays: 30, CategoryKind: domain.KindExpense},
		db, contexts, generator, snapshots, metrics, logger,
	)
	ledger := service.NewLedgerService(db, recommender, logger)
	goals := service.NewGoalService(db, logger)
	rag := client.NewRagClient(ragServer.URL, "it-rag-key",
		&http.Client{Timeout: 2 * time.Second}, metrics, logger)

	router := handler.NewRouter(handler.Services{
		Ledger:          ledger,
		Budget:          budget,
		Insights:        insights,
		Contexts:        contexts,
		Recommendations: recommender,
		Goals:           goals,
		Generator:       generator,
		Rag:             rag,
	}, db, metrics, logger)

	srv := httptest.NewServer(router)
	defer srv.Close()

	post := func(path, body string) *http.Response {
		t.Helper()
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		return resp
	}
	get := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		return resp
	}

	// --- Seed over HTTP ---
	if resp := post("/v1/accounts", `{"name":"Main","currency":"EUR","opening_balance":"1000"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating account: status %d", resp.StatusCode)
	}
	if resp := post("/v1/planned-movements",
		`{"account_name":"Main","name":"payroll","amount":"2000","kind":"payroll","recurrence":"monthly","start_date":"2025-01-01"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating payroll plan: status %d", resp.StatusCode)
	}
	if resp := post("/v1/planned-movements",
		`{"account_name":"Main","name":"rent","amount":"800","kind":"fixed_expense","recurrence":"monthly","start_date":"2025-01-01"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating rent plan: status %d", resp.StatusCode)
	}
	if resp := post("/v1/transactions",
		`{"account_name":"Main","amount":"500","date":"2025-03-10","category":"salary","kind":"income"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("recording income: status %d", resp.StatusCode)
	}
	if resp := post("/v1/transactions",
		`{"account_name":"Main","amount":"100","date":"2025-03-15","category":"food","kind":"expense"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("recording expense: status %d", resp.StatusCode)
	}

	// --- Budget summary ---
	resp := get("/v1/accounts/Main/budget/summary?start_date=2025-03-01&end_date=2025-03-31")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("budget summary: status %d", resp.StatusCode)
	}
	var summary domain.BudgetSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if got := summary.ExpectedBalance.StringFixed(2); got != "2200.00" {
		t.Errorf("expected balance 2200.00, got %s", got)
	}
	if got := summary.ActualBalance.StringFixed(2); got != "1400.00" {
		t.Errorf("actual balance 1400.00, got %s", got)
	}

	// --- Recommendation refreshed by the movement events ---
	resp = get("/v1/accounts/Main/recommendation")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("latest recommendation: status %d", resp.StatusCode)
	}
	var snap domain.RecommendationSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.Recommendation != "generated advice" {
		t.Errorf("expected the remote reply cached, got %q", snap.Recommendation)
	}

	// --- Financial goals ---
	resp = post("/v1/goals", `{"account_name":"Main","name":"Vacation","target_amount":"1500","target_date":"2026-06-01"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating goal: status %d", resp.StatusCode)
	}
	var goal domain.FinancialGoal
	if err := json.NewDecoder(resp.Body).Decode(&goal); err != nil {
		t.Fatalf("decoding goal: %v", err)
	}

	resp = post("/v1/goals/"+goal.ID+"/progress", `{"amount":"250"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("adding goal progress: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&goal); err != nil {
		t.Fatalf("decoding goal: %v", err)
	}
	if got := goal.CurrentAmount.StringFixed(2); got != "250.00" {
		t.Errorf("expected goal progress 250.00, got %s", got)
	}

	// --- RAG document upload ---
	resp = post("/v1/ai/rag", `{"title":"Budget notes","content":"rent went up in March"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("uploading rag document: status %d", resp.StatusCode)
	}
	var receipt domain.RagReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		t.Fatalf("decoding rag receipt: %v", err)
	}
	if receipt.Status != "accepted" || receipt.ID != "doc-1" {
		t.Errorf("unexpected rag receipt %+v", receipt)
	}

	// --- Chat with enrichment ---
	resp = post("/v1/ai/chat", `{"message":"how are my finances?","context":{"account_name":"Main"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat: status %d", resp.StatusCode)
	}
	var chat domain.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		t.Fatalf("decoding chat response: %v", err)
	}
	if chat.Reply != "generated advice" {
		t.Errorf("unexpected chat reply %q", chat.Reply)
	}
}

// TestIntegration_FallbackWhenGeneratorDown verifies that a dead generator
// endpoint degrades to the local fallback instead of failing the request.
func TestIntegration_FallbackWhenGeneratorDown(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "finances.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer db.Close()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	// Point at a server that is already closed.
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	remote := client.NewGeneratorClient(deadURL, "",
		&http.Client{Timeout: 500 * time.Millisecond},
		resilience.NewCircuitBreaker("generator-dead"),
		resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond},
		metrics, logger)
	generator := client.NewResilientGenerator(remote,
		service.NewFallbackGenerator(logger), true, "fast", metrics, logger)

	contexts := service.NewContextService(db, db, logger)
	budget := service.NewBudgetService(db, db, db, logger)
	insights := service.NewInsightService(budget, db, metrics, logger)
	recommender := service.NewRecommendationService(
		service.RecommenderConfig{Enabled: false},
		db, contexts, generator, cache.New[*domain.RecommendationSnapshot](), metrics, logger,
	)
	ledger := service.NewLedgerService(db, recommender, logger)

	router := handler.NewRouter(handler.Services{
		Ledger:          ledger,
		Budget:          budget,
		Insights:        insights,
		Contexts:        contexts,
		Recommendations: recommender,
		Generator:       generator,
	}, db, metrics, logger)
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/ai/chat", "application/json",
		strings.NewReader(`{"message":"help"}`))
	if err != nil {
		t.Fatalf("chat request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected fallback answer, got status %d", resp.StatusCode)
	}

	var chat domain.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		t.Fatalf("decoding chat response: %v", err)
	}
	if !strings.Contains(chat.Reply, "Assessment:") {
		t.Errorf("expected a local assessment reply, got %q", chat.Reply)
	}
}
