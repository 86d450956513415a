package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type callRecord struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeModels struct {
	mu    sync.Mutex
	calls []callRecord
	queue []fakeResponse
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, callRecord{model: model, contents: contents, config: config})
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}

	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestGenerator(models contentModels, maxRetries int) (*Generator, *[]time.Duration) {
	var waits []time.Duration
	g := newGenerator(models, "gemini-pro", maxRetries, zap.NewNop())
	g.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return g, &waits
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), "  ", "", 0, nil); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestGeneratorDefaults(t *testing.T) {
	g := newGenerator(&fakeModels{}, "", 0, nil)

	if g.Model() != defaultModel {
		t.Fatalf("expected default model, got %q", g.Model())
	}
	if g.maxRetries != defaultMaxRetries {
		t.Fatalf("expected default retries, got %d", g.maxRetries)
	}
}

func TestGeneratorSendsJSONRequest(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse(`{"ok": true}`), nil)

	g, _ := newTestGenerator(models, 1)

	output, err := g.GenerateContent(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != `{"ok": true}` {
		t.Fatalf("unexpected output: %q", output)
	}

	call := models.calls[0]
	if call.model != "gemini-pro" {
		t.Fatalf("unexpected model: %q", call.model)
	}
	if call.config.ResponseMIMEType != jsonMIMEType {
		t.Fatalf("expected json response type, got %q", call.config.ResponseMIMEType)
	}
	if call.config.SystemInstruction == nil || call.config.SystemInstruction.Parts[0].Text != "system" {
		t.Fatalf("expected system instruction to be set")
	}
	if len(call.contents) != 1 || call.contents[0].Parts[0].Text != "message" {
		t.Fatalf("unexpected contents: %+v", call.contents)
	}
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	g, waits := newTestGenerator(models, 2)

	output, err := g.GenerateContent(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
	if len(*waits) != 1 || (*waits)[0] != baseRetryDelay {
		t.Fatalf("expected one base delay wait, got %v", *waits)
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	g, _ := newTestGenerator(models, 2)

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g, _ := newTestGenerator(models, 3)

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error")
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorQuotaDelay(t *testing.T) {
	t.Run("short hint is honoured", func(t *testing.T) {
		models := &fakeModels{}
		models.enqueue(nil, genai.APIError{
			Code:    http.StatusTooManyRequests,
			Status:  "RESOURCE_EXHAUSTED",
			Message: "quota exhausted, retry in 1.5s",
		})
		models.enqueue(textResponse("ok"), nil)

		g, waits := newTestGenerator(models, 3)
		if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(*waits) != 1 || (*waits)[0] != 1500*time.Millisecond {
			t.Fatalf("expected hinted delay, got %v", *waits)
		}
	})

	t.Run("long hint is not retried", func(t *testing.T) {
		models := &fakeModels{}
		models.enqueue(nil, genai.APIError{
			Code:    http.StatusTooManyRequests,
			Status:  "RESOURCE_EXHAUSTED",
			Message: "quota exhausted, retry after 60 seconds",
		})

		g, _ := newTestGenerator(models, 3)
		if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
			t.Fatal("expected error when quota delay too long")
		}
		if len(models.calls) != 1 {
			t.Fatalf("expected single call, got %d", len(models.calls))
		}
	})
}

func TestGeneratorStopsOnCancelledWait(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError})

	g := newGenerator(models, "gemini-pro", 3, zap.NewNop())
	g.wait = func(context.Context, time.Duration) error { return context.Canceled }

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("   "), nil)

	g, _ := newTestGenerator(models, 1)
	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for empty response")
	}
}
