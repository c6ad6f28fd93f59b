package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/prompt"
	"github.com/shouni/gemini-image-studio/pkg/utils"
	"google.golang.org/genai"
)

// GeminiGenerator は生成・編集・セグメンテーションの3操作を担当する統合ジェネレーターです。
type GeminiGenerator struct {
	imgCore   *GeminiImageCore
	model     string
	textModel string
}

// GeneratorOption は GeminiGenerator の設定を変更します。
type GeneratorOption func(*GeminiGenerator)

// WithTextModel は API キー検証に使うモデルを変更します。
func WithTextModel(model string) GeneratorOption {
	return func(g *GeminiGenerator) {
		if model != "" {
			g.textModel = model
		}
	}
}

// NewGeminiGenerator は GeminiGenerator を初期化するのだ。
func NewGeminiGenerator(core *GeminiImageCore, model string, opts ...GeneratorOption) (*GeminiGenerator, error) {
	if core == nil {
		return nil, fmt.Errorf("core (GeminiImageCore) is required")
	}
	if model == "" {
		model = DefaultImageModel
	}

	g := &GeminiGenerator{
		imgCore:   core,
		model:     model,
		textModel: DefaultTextModel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Model は使用するモデル名を返します。
func (g *GeminiGenerator) Model() string {
	return g.model
}

// buildGenerateParts はプロンプト、参照画像の順に並べます（参照 N 枚で N+1 パーツ）。
func (g *GeminiGenerator) buildGenerateParts(ctx context.Context, req domain.GenerationRequest) ([]*genai.Part, error) {
	inputs := make([]imageInput, 0, len(req.ReferenceImages))
	for i, ref := range req.ReferenceImages {
		inputs = append(inputs, imageInput{label: fmt.Sprintf("reference image %d", i), data: ref, reference: true})
	}
	return g.imgCore.buildParts(ctx, req.Prompt, inputs)
}

// buildEditParts は編集プロンプト、元画像、参照画像、マスクの順に並べます。
// 参照 N 枚でマスクなしなら N+2、ありなら N+3 パーツです。
func (g *GeminiGenerator) buildEditParts(ctx context.Context, req domain.EditRequest) ([]*genai.Part, error) {
	inputs := make([]imageInput, 0, len(req.ReferenceImages)+2)
	inputs = append(inputs, imageInput{label: "original image", data: req.OriginalImage})
	for i, ref := range req.ReferenceImages {
		inputs = append(inputs, imageInput{label: fmt.Sprintf("reference image %d", i), data: ref, reference: true})
	}
	if req.HasMask() {
		inputs = append(inputs, imageInput{label: "mask image", data: req.MaskImage})
	}
	return g.imgCore.buildParts(ctx, prompt.BuildEditPrompt(req.Instruction, req.HasMask()), inputs)
}

// buildSegmentParts はセグメンテーションプロンプトと対象画像の2パーツです。
func (g *GeminiGenerator) buildSegmentParts(ctx context.Context, req domain.SegmentationRequest) ([]*genai.Part, error) {
	return g.imgCore.buildParts(ctx, prompt.BuildSegmentationPrompt(req.Query), []imageInput{
		{label: "image", data: req.Image},
	})
}

// Generate はテキストと参照画像から画像を生成するのだ。
func (g *GeminiGenerator) Generate(ctx context.Context, req domain.GenerationRequest) ([]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Gemini画像生成リクエスト準備中",
		"model", g.model, "prompt", utils.Truncate(req.Prompt, 80),
		"ref_count", len(req.ReferenceImages), "seed", utils.DereferenceSeed(req.Seed))

	parts, err := g.buildGenerateParts(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := g.imgCore.executeRequest(ctx, g.model, parts, generationConfig(req.Temperature, req.Seed))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	images, err := parseImages(resp)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	slog.InfoContext(ctx, "Gemini画像生成が完了しました", "images", len(images))
	return images, nil
}

// Edit は元画像を指示に従って編集するのだ。マスクがあれば白い領域だけを対象にする。
func (g *GeminiGenerator) Edit(ctx context.Context, req domain.EditRequest) ([]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Gemini画像編集リクエスト準備中",
		"model", g.model, "instruction", utils.Truncate(req.Instruction, 80),
		"ref_count", len(req.ReferenceImages), "has_mask", req.HasMask())

	parts, err := g.buildEditParts(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := g.imgCore.executeRequest(ctx, g.model, parts, generationConfig(req.Temperature, req.Seed))
	if err != nil {
		return nil, fmt.Errorf("gemini edit: %w", err)
	}

	images, err := parseImages(resp)
	if err != nil {
		return nil, fmt.Errorf("gemini edit: %w", err)
	}
	slog.InfoContext(ctx, "Gemini画像編集が完了しました", "images", len(images))
	return images, nil
}

// Segment はモデルのテキスト応答をそのまま返します。JSON かどうかの判定は呼び出し側で行います。
func (g *GeminiGenerator) Segment(ctx context.Context, req domain.SegmentationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	parts, err := g.buildSegmentParts(ctx, req)
	if err != nil {
		return "", err
	}

	resp, err := g.imgCore.executeRequest(ctx, g.model, parts, nil)
	if err != nil {
		return "", fmt.Errorf("gemini segment: %w", err)
	}

	text, err := parseText(resp)
	if err != nil {
		return "", fmt.Errorf("gemini segment: %w", err)
	}
	return text, nil
}

// ValidateKey は最小のテキスト呼び出しを行い、API キーが有効か確認します。
func (g *GeminiGenerator) ValidateKey(ctx context.Context) error {
	if _, err := g.imgCore.aiClient.GenerateContent(ctx, g.textModel, genai.Text(keyCheckPrompt), nil); err != nil {
		return fmt.Errorf("gemini key check: %w", err)
	}
	return nil
}
