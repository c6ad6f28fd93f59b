package imgutil

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// DefaultMIMEType は MIME タイプを判定できなかった場合に使います。
const DefaultMIMEType = "image/png"

// ErrNotImage はデコード結果が画像ではないことを表します。
var ErrNotImage = errors.New("payload is not an image")

// SplitDataURI は "data:<mime>;base64,<payload>" を MIME とペイロードに分けます。
// MIME は小文字のメディアタイプだけに正規化し、name= などのパラメータは捨てます。
// data URI でない場合は MIME を空で返し、入力をそのままペイロードとします。
func SplitDataURI(s string) (mediaType, payload string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}
	header, data, ok := strings.Cut(s, ",")
	if !ok {
		return "", s
	}
	header = strings.TrimPrefix(header, "data:")
	header = strings.TrimSuffix(header, ";base64")
	return normalizeMediaType(header), data
}

func normalizeMediaType(header string) string {
	if header == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(header); err == nil {
		return mt
	}
	mt, _, _ := strings.Cut(header, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// DecodeBase64Image は base64 文字列または data URI をバイト列に戻し、MIME タイプを判定します。
// MIME は常にデコード後の内容から判定し、data URI のヘッダーは内容から判定できないときの補助にだけ使うのだ。
// 内容が画像でなければ、ヘッダーが image/* でも ErrNotImage です。
func DecodeBase64Image(s string) ([]byte, string, error) {
	declared, payload := SplitDataURI(s)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// パディングなしで送ってくるクライアントもある
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if rawErr != nil {
			return nil, "", fmt.Errorf("base64 decode: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("base64 decode: empty payload")
	}

	detected := normalizeMediaType(http.DetectContentType(data))
	switch {
	case strings.HasPrefix(detected, "image/"):
		return data, detected, nil
	case detected == "application/octet-stream":
		// 判定できない形式 (HEIC など) はヘッダーを信じる
		if strings.HasPrefix(declared, "image/") {
			return data, declared, nil
		}
		return data, DefaultMIMEType, nil
	default:
		return nil, "", fmt.Errorf("%w (detected %s)", ErrNotImage, detected)
	}
}

// ToDataURI は base64 ペイロードを data URI にします。
func ToDataURI(mediaType, payload string) string {
	if mediaType == "" {
		mediaType = DefaultMIMEType
	}
	return "data:" + mediaType + ";base64," + payload
}
