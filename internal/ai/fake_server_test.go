package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeCompletion is an OpenAI-compatible endpoint returning canned replies
type fakeCompletion struct {
	srv   *httptest.Server
	calls int32

	mu       sync.Mutex
	lastBody map[string]interface{}
	lastAuth string
}

func newFakeCompletion(t *testing.T, status int, choices ...string) *fakeCompletion {
	t.Helper()
	f := &fakeCompletion{}

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.calls, 1)

		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.lastBody = body
		f.lastAuth = r.Header.Get("Authorization")
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}

		replyChoices := make([]map[string]interface{}, 0, len(choices))
		for i, content := range choices {
			replyChoices = append(replyChoices, map[string]interface{}{
				"index":         i,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": replyChoices,
			"usage":   map[string]interface{}{"prompt_tokens": 120, "completion_tokens": 8, "total_tokens": 128},
		})
	}))
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeCompletion) provider() *OpenAIProvider {
	return NewOpenAIProvider(f.srv.URL+"/v1", "gpt-4o-mini").WithHTTPClient(f.srv.Client())
}

func (f *fakeCompletion) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

func (f *fakeCompletion) body() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

func (f *fakeCompletion) auth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

const testImage = "data:image/jpeg;base64,/9j/4AAQSkZJRgABAQ=="
