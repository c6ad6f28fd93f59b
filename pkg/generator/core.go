package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-image-studio/pkg/imgutil"
	"google.golang.org/genai"
)

// GeminiImageCore は画像パーツの準備とモデル呼び出しを担う基盤クラスです。
type GeminiImageCore struct {
	aiClient           Model
	compressReferences bool
	jpegQuality        int
}

// CoreOption は GeminiImageCore の設定を変更します。
type CoreOption func(*GeminiImageCore)

// WithReferenceCompression は参照画像を JPEG に圧縮してから送るようにします。
// 元画像とマスクは圧縮しません。
func WithReferenceCompression(quality int) CoreOption {
	return func(c *GeminiImageCore) {
		c.compressReferences = true
		if quality > 0 && quality <= 100 {
			c.jpegQuality = quality
		}
	}
}

// NewGeminiImageCore は依存関係を注入して GeminiImageCore を初期化します。
func NewGeminiImageCore(aiClient Model, opts ...CoreOption) (*GeminiImageCore, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}

	c := &GeminiImageCore{
		aiClient:    aiClient,
		jpegQuality: DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// executeRequest はパーツを1つのユーザーコンテンツにまとめてモデルを呼び出します。
func (c *GeminiImageCore) executeRequest(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	return c.aiClient.GenerateContent(ctx, model, contents, config)
}

// toPart は base64（または data URI）を InlineData の genai.Part に変換します。
func (c *GeminiImageCore) toPart(encoded string) (*genai.Part, error) {
	data, mimeType, err := imgutil.DecodeBase64Image(encoded)
	if err != nil {
		return nil, err
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}, nil
}

// referencePart は参照画像用の Part を作ります。圧縮に失敗した場合は元データのまま送ります。
func (c *GeminiImageCore) referencePart(ctx context.Context, encoded string) (*genai.Part, error) {
	part, err := c.toPart(encoded)
	if err != nil || !c.compressReferences {
		return part, err
	}

	compressed, err := imgutil.CompressToJPEG(part.InlineData.Data, c.jpegQuality)
	if err != nil {
		slog.WarnContext(ctx, "参照画像の圧縮に失敗しました。元データで続行します", "mime", part.InlineData.MIMEType, "error", err)
		return part, nil
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: compressed}}, nil
}

// imageInput はパーツ化する画像1枚です。reference が true の場合は参照画像として扱います。
type imageInput struct {
	label     string
	data      string
	reference bool
}

// buildParts はテキストを先頭に、続けて inputs の順に画像パーツを並べます。
func (c *GeminiImageCore) buildParts(ctx context.Context, text string, inputs []imageInput) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, 1+len(inputs))
	parts = append(parts, &genai.Part{Text: text})

	for _, in := range inputs {
		var (
			part *genai.Part
			err  error
		)
		if in.reference {
			part, err = c.referencePart(ctx, in.data)
		} else {
			part, err = c.toPart(in.data)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.label, err)
		}
		parts = append(parts, part)
	}

	return parts, nil
}
