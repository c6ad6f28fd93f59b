package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"google.golang.org/genai"

	"github.com/shouni/gemini-image-studio/pkg/generator"
)

// --- Mocks ---

type fakeModel struct {
	mu           sync.Mutex
	calls        int
	lastModel    string
	lastContents []*genai.Content

	resp *genai.GenerateContentResponse
	err  error
}

func (m *fakeModel) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastModel = model
	m.lastContents = contents
	return m.resp, m.err
}

func (m *fakeModel) lastParts() []*genai.Part {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.lastContents) == 0 {
		return nil
	}
	return m.lastContents[0].Parts
}

// recordingConstructor は渡されたキーを記録して fakeModel を返します。
type recordingConstructor struct {
	mu    sync.Mutex
	keys  []string
	model *fakeModel
}

func (c *recordingConstructor) New(ctx context.Context, apiKey string) (generator.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, apiKey)
	return c.model, nil
}

func (c *recordingConstructor) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

func imageResponse(payloads ...[]byte) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(payloads))
	for _, p := range payloads {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: p}})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: parts},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// newTestServer は recordingConstructor を使う実際の Factory で Server を組み立てます。
func newTestServer(t *testing.T, defaultKey string, model *fakeModel, opts ...Option) (http.Handler, *recordingConstructor) {
	t.Helper()
	ctor := &recordingConstructor{model: model}
	factory := generator.NewFactory(defaultKey, ctor.New, generator.WithImageModel("test-image-model"))
	return New(FromFactory(factory), opts...).Handler(), ctor
}

func postJSON(t *testing.T, h http.Handler, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
