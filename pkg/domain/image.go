package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField は必須フィールドが空のリクエストを表します。
var ErrMissingField = errors.New("missing required field")

// GenerationRequest はテキストからの画像生成要求です。
// 参照画像は base64 文字列（data URI も可）で渡されます。
type GenerationRequest struct {
	Prompt          string   `json:"prompt"`
	ReferenceImages []string `json:"referenceImages,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	Seed            *int64   `json:"seed,omitempty"`
}

// Validate は必須フィールドの有無を確認します。
func (r GenerationRequest) Validate() error {
	return requireFields(field{"prompt", r.Prompt})
}

// EditRequest は指示文による画像編集要求です。
// MaskImage が指定された場合、白いピクセルの領域だけが編集対象になります。
type EditRequest struct {
	Instruction     string   `json:"instruction"`
	OriginalImage   string   `json:"originalImage"`
	ReferenceImages []string `json:"referenceImages,omitempty"`
	MaskImage       string   `json:"maskImage,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	Seed            *int64   `json:"seed,omitempty"`
}

// HasMask はマスク画像が指定されているかを返します。
func (r EditRequest) HasMask() bool {
	return strings.TrimSpace(r.MaskImage) != ""
}

// Validate は必須フィールドの有無を確認します。
func (r EditRequest) Validate() error {
	return requireFields(
		field{"instruction", r.Instruction},
		field{"originalImage", r.OriginalImage},
	)
}

// SegmentationRequest はクエリに一致する領域のマスク生成要求です。
type SegmentationRequest struct {
	Image string `json:"image"`
	Query string `json:"query"`
}

// Validate は必須フィールドの有無を確認します。
func (r SegmentationRequest) Validate() error {
	return requireFields(
		field{"image", r.Image},
		field{"query", r.Query},
	)
}

// ImagesResponse は generate / edit が返す画像（base64）の一覧です。
type ImagesResponse struct {
	Images []string `json:"images"`
}

// ErrorResponse はすべての失敗時に返されるボディです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// SegmentationResult はセグメンテーションプロンプトがモデルに要求する JSON の形です。
// モデルが従う保証はないため、サーバーはこの型で検証しません。
type SegmentationResult struct {
	Masks []SegmentationMask `json:"masks"`
}

// SegmentationMask は検出された1領域です。Box2D は [x, y, w, h] の順です。
type SegmentationMask struct {
	Label string `json:"label"`
	Box2D [4]int `json:"box_2d"`
	Mask  string `json:"mask"`
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}
