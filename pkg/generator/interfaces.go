package generator

import (
	"context"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"google.golang.org/genai"
)

// Model は Gemini の GenerateContent 呼び出しを抽象化するインターフェースです。
// (*genai.Client).Models はこのインターフェースを満たします。
type Model interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ModelConstructor は API キーから Model を生成する関数です。
type ModelConstructor func(ctx context.Context, apiKey string) (Model, error)

// ImageGenerator はプロキシ層が利用する統合窓口です。
type ImageGenerator interface {
	// Generate はテキストと参照画像から画像を生成し、base64 の一覧を返します。
	Generate(ctx context.Context, req domain.GenerationRequest) ([]string, error)
	// Edit は元画像を指示に従って編集し、base64 の一覧を返します。
	Edit(ctx context.Context, req domain.EditRequest) ([]string, error)
	// Segment はモデルが返したテキスト（JSON のはず）をそのまま返します。
	Segment(ctx context.Context, req domain.SegmentationRequest) (string, error)
	// ValidateKey は軽いテキスト呼び出しで API キーが使えるか確認します。
	ValidateKey(ctx context.Context) error
}

var _ ImageGenerator = (*GeminiGenerator)(nil)
