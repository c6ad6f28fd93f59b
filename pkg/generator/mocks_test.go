package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"google.golang.org/genai"
)

// --- Mocks ---

type mockModel struct {
	calls        int
	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig

	resp *genai.GenerateContentResponse
	err  error
}

func (m *mockModel) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls++
	m.lastModel = model
	m.lastContents = contents
	m.lastConfig = config
	return m.resp, m.err
}

// lastParts は直近の呼び出しで送られた最初のコンテンツのパーツを返します。
func (m *mockModel) lastParts() []*genai.Part {
	if len(m.lastContents) == 0 {
		return nil
	}
	return m.lastContents[0].Parts
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

// pngBase64 は w x h の単色 PNG を base64 で返すテスト用ヘルパーです。
func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestGenerator(t *testing.T, m *mockModel, opts ...CoreOption) *GeminiGenerator {
	t.Helper()
	core, err := NewGeminiImageCore(m, opts...)
	if err != nil {
		t.Fatalf("failed to create core: %v", err)
	}
	gen, err := NewGeminiGenerator(core, "test-image-model")
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	return gen
}
