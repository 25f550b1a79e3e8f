package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/refap/refap-backend/internal/logger"
	"github.com/refap/refap-backend/internal/session"
	"github.com/refap/refap-backend/internal/triage"
)

type fakeLLM struct {
	reply string
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeLLM) Complete(ctx context.Context, system string, history []ChatMessage, user string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.reply, f.err
}

func (f *fakeLLM) CompleteStream(ctx context.Context, system string, history []ChatMessage, user string, onDelta func(string)) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, part := range strings.SplitAfter(f.reply, " ") {
		if onDelta != nil {
			onDelta(part)
		}
	}
	return f.reply, nil
}

type fakeRetrieval struct {
	passages []Passage
	err      error
}

func (f *fakeRetrieval) Search(ctx context.Context, question string) ([]Passage, error) {
	return f.passages, f.err
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.entries[key]
	return val, ok
}

func (f *fakeCache) Set(ctx context.Context, key, reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.entries[key]; !exists {
		f.entries[key] = reply
	}
}

func newTestChatService(t *testing.T, llm LLMClient, retrieval RetrievalClient, cache ReplyCache) ChatService {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	catalog := triage.NewCatalog([]triage.CTA{
		{ID: triage.CTADiagnosticBooking, Type: triage.CTATypeDiagnostic, Label: "Prendre RDV diagnostic", URL: "https://example.test/rdv"},
		{ID: triage.CTADropOffShop, Type: triage.CTATypeProduct, Label: "Déposer mon FAP", URL: "https://example.test/depot"},
		{ID: triage.CTAGenericGarageFinder, Type: triage.CTATypeDiagnostic, Label: "Trouver un garage", URL: "https://example.test/garages"},
		{ID: triage.CTAInfoFAP, Type: triage.CTATypeInformational, Label: "Comprendre le FAP", URL: "https://example.test/blog"},
		{ID: triage.CTACallback, Type: triage.CTATypeCallback, Label: "Être rappelé", URL: "https://example.test/rappel"},
	})
	engine := triage.NewEngine(triage.DefaultPatterns(), catalog)
	manager := session.NewManager(engine, session.NewMemoryStore(log), log)
	return NewChatService(log, manager, llm, retrieval, cache, nil)
}

func TestHandleTurnShape(t *testing.T) {
	svc := newTestChatService(t, &fakeLLM{reply: "Le FAP semble encrassé, on va vérifier."}, &fakeRetrieval{}, nil)

	res, err := svc.HandleTurn(context.Background(), "", "voyant FAP allumé, perte de puissance, trajets courts en ville")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.SessionID == "" {
		t.Fatal("no session id returned")
	}
	if res.Reply == "" {
		t.Fatal("empty reply")
	}
	if len(res.CTAs) == 0 || len(res.CTAs) > 3 {
		t.Fatalf("cta count = %d", len(res.CTAs))
	}
	if res.CTA == nil || res.CTA.ID != res.CTAs[0].ID {
		t.Fatalf("primary cta mismatch: %+v vs %+v", res.CTA, res.CTAs[0])
	}
}

func TestHandleTurnRejectsEmptyMessage(t *testing.T) {
	svc := newTestChatService(t, &fakeLLM{reply: "ok"}, &fakeRetrieval{}, nil)
	if _, err := svc.HandleTurn(context.Background(), "", "   "); err == nil {
		t.Fatal("expected error for blank message")
	}
}

func TestHandleTurnSessionContinuity(t *testing.T) {
	svc := newTestChatService(t, &fakeLLM{reply: "bien noté"}, &fakeRetrieval{}, nil)
	ctx := context.Background()

	first, err := svc.HandleTurn(ctx, "", "Peugeot 206 1.6 HDi 2010")
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	second, err := svc.HandleTurn(ctx, first.SessionID, "fumée noire en ville")
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("session id changed across turns")
	}
	third, err := svc.HandleTurn(ctx, first.SessionID, "mode dégradé")
	if err != nil {
		t.Fatalf("turn 3: %v", err)
	}
	if third.Stage != string(session.StageReady) {
		t.Fatalf("stage after three informative turns = %s", third.Stage)
	}
}

func TestHandleTurnFallbackOnLLMFailure(t *testing.T) {
	svc := newTestChatService(t, &fakeLLM{err: fmt.Errorf("upstream down")}, &fakeRetrieval{}, nil)

	res, err := svc.HandleTurn(context.Background(), "", "voyant FAP allumé et perte de puissance")
	if err != nil {
		t.Fatalf("HandleTurn must not fail on LLM error: %v", err)
	}
	if res.Reply == "" {
		t.Fatal("fallback reply empty")
	}
	if len(res.CTAs) == 0 {
		t.Fatal("CTAs lost on fallback")
	}
	if svc.Stats().LLMFailures.Load() != 1 {
		t.Fatalf("llm failure counter = %d", svc.Stats().LLMFailures.Load())
	}
}

func TestHandleTurnRetrievalFailureIsSilent(t *testing.T) {
	svc := newTestChatService(t, &fakeLLM{reply: "ok"}, &fakeRetrieval{err: fmt.Errorf("index down")}, nil)

	res, err := svc.HandleTurn(context.Background(), "", "voyant FAP allumé")
	if err != nil {
		t.Fatalf("retrieval failure must not surface: %v", err)
	}
	if res.Reply == "" {
		t.Fatal("empty reply")
	}
}

func TestHandleTurnCacheHitSkipsLLM(t *testing.T) {
	llm := &fakeLLM{reply: "réponse générée"}
	cache := newFakeCache()
	svc := newTestChatService(t, llm, &fakeRetrieval{}, cache)
	ctx := context.Background()

	// Two fresh sessions with identical prompts: second turn replays the
	// cached reply without another model call.
	first, err := svc.HandleTurn(ctx, "", "voyant FAP allumé")
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	second, err := svc.HandleTurn(ctx, "", "voyant FAP allumé")
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	if first.Reply != second.Reply {
		t.Fatalf("cache replay differs: %q vs %q", first.Reply, second.Reply)
	}
	if llm.calls != 1 {
		t.Fatalf("llm calls = %d, want 1", llm.calls)
	}
	if svc.Stats().CacheHits.Load() != 1 {
		t.Fatalf("cache hit counter = %d", svc.Stats().CacheHits.Load())
	}
}

func TestStreamTurnDeltasAssemble(t *testing.T) {
	svc := newTestChatService(t, &fakeLLM{reply: "une réponse en plusieurs morceaux"}, &fakeRetrieval{}, nil)

	var streamed strings.Builder
	res, err := svc.StreamTurn(context.Background(), "", "voyant FAP allumé", func(delta string) {
		streamed.WriteString(delta)
	})
	if err != nil {
		t.Fatalf("StreamTurn: %v", err)
	}
	if strings.Join(strings.Fields(streamed.String()), " ") != res.Reply {
		t.Fatalf("streamed %q, final %q", streamed.String(), res.Reply)
	}
}

func TestChunkReply(t *testing.T) {
	chunks := ChunkReply("abcdefghij", 4)
	if len(chunks) != 3 {
		t.Fatalf("chunk count = %d", len(chunks))
	}
	if strings.Join(chunks, "") != "abcdefghij" {
		t.Fatalf("chunks lose text: %v", chunks)
	}
}

func TestPromptCacheKeyNormalizesWhitespace(t *testing.T) {
	a := PromptCacheKey("system", nil, "voyant   FAP\nallumé")
	b := PromptCacheKey("system", nil, "voyant FAP allumé")
	if a != b {
		t.Fatal("whitespace variants produce different cache keys")
	}
	c := PromptCacheKey("system", nil, "autre message")
	if a == c {
		t.Fatal("different prompts collide")
	}
}
