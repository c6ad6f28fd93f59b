package generator

import (
	"errors"
	"fmt"
)

const (
	// DefaultImageModel は generate / edit / segment に使うモデルです。
	DefaultImageModel = "gemini-2.5-flash-image-preview"
	// DefaultTextModel は API キー検証の軽い呼び出しに使うモデルです。
	DefaultTextModel = "gemini-2.5-flash"

	DefaultJPEGQuality = 85

	keyCheckPrompt = "ping"
)

var (
	// ErrMissingAPIKey は API キーが設定されていない場合に、外部呼び出しの前に返されます。
	ErrMissingAPIKey = errors.New("missing API key: set GEMINI_API_KEY or send the X-API-Key header")
	// ErrNoCandidates はモデルが候補を1件も返さなかったことを表します。
	ErrNoCandidates = errors.New("no candidates returned by the model")
)

// BlockedError はプロンプトが安全フィルターでブロックされたことを表します。
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}
