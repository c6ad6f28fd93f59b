package domain

import "time"

// AssetType は画像アセットの種別です。
type AssetType string

const (
	AssetOriginal AssetType = "original"
	AssetOutput   AssetType = "output"
)

// ChecksumLength は Asset.Checksum に使う base64 の先頭文字数です。
const ChecksumLength = 32

// Asset はクライアント側で保持する画像です。URL は data URI です。
// Checksum は base64 ペイロードの先頭 32 文字で、整合性検証には使えません。
type Asset struct {
	ID       string    `json:"id"`
	Type     AssetType `json:"type"`
	URL      string    `json:"url"`
	Mime     string    `json:"mime"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Checksum string    `json:"checksum"`
}

// GenerationParameters は生成時に使ったパラメータです。
type GenerationParameters struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
}

// Generation は1回の生成呼び出しの記録です。
type Generation struct {
	ID              string               `json:"id"`
	Prompt          string               `json:"prompt"`
	Parameters      GenerationParameters `json:"parameters"`
	ReferenceAssets []Asset              `json:"referenceAssets,omitempty"`
	OutputAssets    []Asset              `json:"outputAssets"`
	ModelVersion    string               `json:"modelVersion"`
	Timestamp       time.Time            `json:"timestamp"`
}

// Edit は1回の編集呼び出しの記録です。
// マスクを使った場合は MaskAsset に画像そのものを持ち、MaskAssetID はその ID です。
type Edit struct {
	ID                 string               `json:"id"`
	ParentGenerationID string               `json:"parentGenerationId,omitempty"`
	MaskAssetID        string               `json:"maskAssetId,omitempty"`
	MaskAsset          *Asset               `json:"maskAsset,omitempty"`
	Instruction        string               `json:"instruction"`
	Parameters         GenerationParameters `json:"parameters"`
	ReferenceAssets    []Asset              `json:"referenceAssets,omitempty"`
	OutputAssets       []Asset              `json:"outputAssets"`
	Timestamp          time.Time            `json:"timestamp"`
}
