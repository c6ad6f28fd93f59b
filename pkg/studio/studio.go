package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/gemini-image-studio/pkg/client"
	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/generator"
)

var (
	// ErrBusy は生成中に別の呼び出しが来たことを表します。
	ErrBusy = errors.New("studio is busy with another request")
	// ErrNoCanvas はキャンバスに画像が無い状態で編集・セグメンテーションしようとしたことを表します。
	ErrNoCanvas = errors.New("no image on the canvas")
)

// Service は Studio が使う API です。*client.Client がこれを満たします。
type Service interface {
	Generate(ctx context.Context, req domain.GenerationRequest) ([]string, error)
	Edit(ctx context.Context, req domain.EditRequest) ([]string, error)
	Segment(ctx context.Context, req domain.SegmentationRequest) (*client.SegmentResponse, error)
}

var _ Service = (*client.Client)(nil)

// Studio はクライアントアダプターと Store をつなぎ、1度に1つの呼び出しだけを許します。
type Studio struct {
	svc          Service
	store        *Store
	modelVersion string
	now          func() time.Time
}

// Option は Studio の設定を変更します。
type Option func(*Studio)

// WithModelVersion は Generation に記録するモデル名を指定します。
func WithModelVersion(v string) Option {
	return func(s *Studio) {
		if v != "" {
			s.modelVersion = v
		}
	}
}

// WithClock はタイムスタンプの取得元を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *Studio) {
		if now != nil {
			s.now = now
		}
	}
}

// New は Studio を作成します。store が nil なら新しい Store を使います。
func New(svc Service, store *Store, opts ...Option) *Studio {
	if store == nil {
		store = NewStore()
	}
	s := &Studio{
		svc:          svc,
		store:        store,
		modelVersion: generator.DefaultImageModel,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store は状態を返します。
func (s *Studio) Store() *Store {
	return s.store
}

// Generate はプロンプトから画像を生成し、結果を履歴とキャンバスに反映するのだ。
func (s *Studio) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Generation, error) {
	if err := s.store.begin(); err != nil {
		return nil, err
	}
	defer s.store.SetGenerating(false)

	images, err := s.svc.Generate(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, "generate", err)
	}

	refs, err := newAssets(domain.AssetOriginal, req.ReferenceImages)
	if err != nil {
		return nil, s.fail(ctx, "generate", fmt.Errorf("reference image: %w", err))
	}
	outputs, err := newAssets(domain.AssetOutput, images)
	if err != nil {
		return nil, s.fail(ctx, "generate", fmt.Errorf("output image: %w", err))
	}

	gen := domain.Generation{
		ID:              uuid.NewString(),
		Prompt:          req.Prompt,
		Parameters:      domain.GenerationParameters{Temperature: req.Temperature, Seed: req.Seed},
		ReferenceAssets: refs,
		OutputAssets:    outputs,
		ModelVersion:    s.modelVersion,
		Timestamp:       s.now(),
	}
	s.store.AddGeneration(gen)
	s.store.SelectGeneration(gen.ID)
	if len(outputs) > 0 {
		s.store.SetCanvasImage(outputs[0].URL)
	}
	return &gen, nil
}

// EditInput は Studio.Edit の入力です。元画像はキャンバスから取るので含みません。
// MaskImage は空でも構いません。
type EditInput struct {
	Instruction     string
	ReferenceImages []string
	MaskImage       string
	Temperature     *float64
	Seed            *int64
}

// Edit はキャンバスの画像を元画像として編集します。
// マスクは送信前に Asset にしておき、不正なら API を呼ばずに失敗するのだ。
func (s *Studio) Edit(ctx context.Context, in EditInput) (*domain.Edit, error) {
	if err := s.store.begin(); err != nil {
		return nil, err
	}
	defer s.store.SetGenerating(false)

	snap := s.store.Snapshot()
	if snap.CanvasImage == "" {
		return nil, s.fail(ctx, "edit", ErrNoCanvas)
	}

	req := domain.EditRequest{
		Instruction:     in.Instruction,
		OriginalImage:   snap.CanvasImage,
		ReferenceImages: in.ReferenceImages,
		MaskImage:       in.MaskImage,
		Temperature:     in.Temperature,
		Seed:            in.Seed,
	}

	var mask *domain.Asset
	if req.HasMask() {
		a, err := NewAsset(domain.AssetOriginal, in.MaskImage)
		if err != nil {
			return nil, s.fail(ctx, "edit", fmt.Errorf("mask image: %w", err))
		}
		mask = &a
	}

	images, err := s.svc.Edit(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, "edit", err)
	}

	refs, err := newAssets(domain.AssetOriginal, in.ReferenceImages)
	if err != nil {
		return nil, s.fail(ctx, "edit", fmt.Errorf("reference image: %w", err))
	}
	outputs, err := newAssets(domain.AssetOutput, images)
	if err != nil {
		return nil, s.fail(ctx, "edit", fmt.Errorf("output image: %w", err))
	}

	edit := domain.Edit{
		ID:                 uuid.NewString(),
		ParentGenerationID: snap.SelectedGenerationID,
		Instruction:        in.Instruction,
		Parameters:         domain.GenerationParameters{Temperature: in.Temperature, Seed: in.Seed},
		ReferenceAssets:    refs,
		OutputAssets:       outputs,
		Timestamp:          s.now(),
	}
	if mask != nil {
		edit.MaskAssetID = mask.ID
		edit.MaskAsset = mask
	}

	s.store.AddEdit(edit)
	s.store.SelectEdit(edit.ID)
	s.store.ClearBrushStrokes()
	if len(outputs) > 0 {
		s.store.SetCanvasImage(outputs[0].URL)
	}
	return &edit, nil
}

// Segment はキャンバスの画像に対してセグメンテーションを要求します。状態には記録しません。
func (s *Studio) Segment(ctx context.Context, query string) (*client.SegmentResponse, error) {
	if err := s.store.begin(); err != nil {
		return nil, err
	}
	defer s.store.SetGenerating(false)

	canvas := s.store.Snapshot().CanvasImage
	if canvas == "" {
		return nil, s.fail(ctx, "segment", ErrNoCanvas)
	}

	resp, err := s.svc.Segment(ctx, domain.SegmentationRequest{Image: canvas, Query: query})
	if err != nil {
		return nil, s.fail(ctx, "segment", err)
	}
	return resp, nil
}

// fail はエラーを分類して通知に残し、そのまま返します。
func (s *Studio) fail(ctx context.Context, operation string, err error) error {
	kind := client.Classify(err)
	slog.WarnContext(ctx, "スタジオの操作が失敗しました", "operation", operation, "kind", kind, "error", err)
	s.store.SetError(&Notice{
		Kind:    kind,
		Message: client.Describe(kind),
		Detail:  err.Error(),
	})
	return err
}
