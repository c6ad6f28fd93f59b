package generator

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Factory はリクエストごとの API キーから GeminiGenerator を組み立てます。
// キーが空の場合はデフォルトキーを使い、どちらも無ければ外部呼び出し前に ErrMissingAPIKey を返します。
type Factory struct {
	defaultKey string
	newModel   ModelConstructor
	imageModel string
	textModel  string
	coreOpts   []CoreOption
}

// FactoryOption は Factory の設定を変更します。
type FactoryOption func(*Factory)

// WithImageModel は生成・編集・セグメンテーションに使うモデルを指定します。
func WithImageModel(model string) FactoryOption {
	return func(f *Factory) {
		if model != "" {
			f.imageModel = model
		}
	}
}

// WithKeyCheckModel はキー検証に使うモデルを指定します。
func WithKeyCheckModel(model string) FactoryOption {
	return func(f *Factory) {
		if model != "" {
			f.textModel = model
		}
	}
}

// WithCoreOptions は生成される GeminiImageCore に渡すオプションを追加します。
func WithCoreOptions(opts ...CoreOption) FactoryOption {
	return func(f *Factory) {
		f.coreOpts = append(f.coreOpts, opts...)
	}
}

// NewFactory は Factory を初期化します。newModel が nil の場合は NewGenAIModel を使います。
func NewFactory(defaultKey string, newModel ModelConstructor, opts ...FactoryOption) *Factory {
	if newModel == nil {
		newModel = NewGenAIModel
	}
	f := &Factory{
		defaultKey: strings.TrimSpace(defaultKey),
		newModel:   newModel,
		imageModel: DefaultImageModel,
		textModel:  DefaultTextModel,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// HasDefaultKey はデフォルトキーが設定されているかを返します。
func (f *Factory) HasDefaultKey() bool {
	return f.defaultKey != ""
}

// ForKey は apiKey（空ならデフォルトキー）で GeminiGenerator を生成します。
func (f *Factory) ForKey(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = f.defaultKey
	}
	if key == "" {
		return nil, ErrMissingAPIKey
	}

	model, err := f.newModel(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	core, err := NewGeminiImageCore(model, f.coreOpts...)
	if err != nil {
		return nil, err
	}
	return NewGeminiGenerator(core, f.imageModel, WithTextModel(f.textModel))
}

// NewGenAIModel は Gemini API バックエンドの genai クライアントを作成します。
func NewGenAIModel(ctx context.Context, apiKey string) (Model, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}
