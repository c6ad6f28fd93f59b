package studio

import (
	"github.com/google/uuid"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
)

// NewAsset は base64（または data URI）から Asset を作ります。
// MIME は中身から判定したものを使い、URL もその MIME で組み直します。
// 幅と高さは画像ヘッダーから読み、読めない形式なら 0 のままにします。
func NewAsset(typ domain.AssetType, encoded string) (domain.Asset, error) {
	_, payload := imgutil.SplitDataURI(encoded)

	data, mime, err := imgutil.DecodeBase64Image(encoded)
	if err != nil {
		return domain.Asset{}, err
	}

	width, height, _, err := imgutil.Dimensions(data)
	if err != nil {
		width, height = 0, 0
	}

	return domain.Asset{
		ID:       uuid.NewString(),
		Type:     typ,
		URL:      imgutil.ToDataURI(mime, payload),
		Mime:     mime,
		Width:    width,
		Height:   height,
		Checksum: checksum(payload),
	}, nil
}

// newAssets は複数の画像をまとめて Asset にします。1枚でも失敗したらエラーです。
func newAssets(typ domain.AssetType, encoded []string) ([]domain.Asset, error) {
	assets := make([]domain.Asset, 0, len(encoded))
	for _, e := range encoded {
		a, err := NewAsset(typ, e)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, nil
}

func checksum(payload string) string {
	if len(payload) <= domain.ChecksumLength {
		return payload
	}
	return payload[:domain.ChecksumLength]
}
