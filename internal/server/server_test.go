package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/prompt"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t, "", &fakeModel{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestServer(t, "default-key", &fakeModel{resp: imageResponse([]byte("out"))})
	postJSON(t, h, "/api/generate", domain.GenerationRequest{Prompt: "a cat"}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "image_studio_api_requests_total")
}

func TestGenerate(t *testing.T) {
	t.Run("成功: 参照N枚でN+1パーツを送り画像を返す", func(t *testing.T) {
		model := &fakeModel{resp: imageResponse([]byte("img-1"), []byte("img-2"))}
		h, _ := newTestServer(t, "default-key", model)

		ref := pngBase64(t)
		rec := postJSON(t, h, "/api/generate", domain.GenerationRequest{
			Prompt:          "a red fox",
			ReferenceImages: []string{ref, ref},
		}, nil)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body domain.ImagesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, []string{
			base64.StdEncoding.EncodeToString([]byte("img-1")),
			base64.StdEncoding.EncodeToString([]byte("img-2")),
		}, body.Images)

		parts := model.lastParts()
		require.Len(t, parts, 3)
		assert.Equal(t, "a red fox", parts[0].Text)
		assert.NotNil(t, parts[1].InlineData)
		assert.Equal(t, "test-image-model", model.lastModel)
	})

	t.Run("成功: 画像が無い応答は空配列", func(t *testing.T) {
		h, _ := newTestServer(t, "default-key", &fakeModel{resp: textResponse("no image today")})
		rec := postJSON(t, h, "/api/generate", domain.GenerationRequest{Prompt: "x"}, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"images":[]}`, rec.Body.String())
	})

	t.Run("失敗: 上流エラーは500と生のメッセージ", func(t *testing.T) {
		h, _ := newTestServer(t, "default-key", &fakeModel{err: errors.New("RESOURCE_EXHAUSTED: quota exceeded")})
		rec := postJSON(t, h, "/api/generate", domain.GenerationRequest{Prompt: "x"}, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decodeError(t, rec), "RESOURCE_EXHAUSTED: quota exceeded")
	})

	t.Run("失敗: 必須フィールド欠落は500", func(t *testing.T) {
		model := &fakeModel{}
		h, ctor := newTestServer(t, "default-key", model)
		rec := postJSON(t, h, "/api/generate", domain.GenerationRequest{}, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decodeError(t, rec), "prompt")
		assert.Zero(t, ctor.calls())
	})

	t.Run("失敗: 不正なJSONは500", func(t *testing.T) {
		h, _ := newTestServer(t, "default-key", &fakeModel{})
		req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decodeError(t, rec), "invalid request body")
	})

	t.Run("失敗: ボディ上限を超えると500", func(t *testing.T) {
		model := &fakeModel{resp: imageResponse([]byte("x"))}
		h, _ := newTestServer(t, "default-key", model, WithMaxBodyBytes(16))
		rec := postJSON(t, h, "/api/generate", domain.GenerationRequest{Prompt: strings.Repeat("long ", 20)}, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Zero(t, model.calls)
	})
}

func TestEdit(t *testing.T) {
	img := pngBase64(t)

	tests := []struct {
		name      string
		req       domain.EditRequest
		wantParts int
		wantMask  bool
	}{
		{
			name:      "マスクなし: N+2パーツ",
			req:       domain.EditRequest{Instruction: "make it blue", OriginalImage: img, ReferenceImages: []string{img}},
			wantParts: 3,
		},
		{
			name:      "マスクあり: N+3パーツ",
			req:       domain.EditRequest{Instruction: "make it blue", OriginalImage: img, ReferenceImages: []string{img, img}, MaskImage: img},
			wantParts: 5,
			wantMask:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{resp: imageResponse([]byte("edited"))}
			h, _ := newTestServer(t, "default-key", model)

			rec := postJSON(t, h, "/api/edit", tt.req, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			parts := model.lastParts()
			require.Len(t, parts, tt.wantParts)
			assert.Contains(t, parts[0].Text, "make it blue")
			assert.Equal(t, tt.wantMask, strings.Contains(parts[0].Text, prompt.MaskClause))
		})
	}
}

func TestSegment(t *testing.T) {
	img := pngBase64(t)
	req := domain.SegmentationRequest{Image: img, Query: "the cat"}

	t.Run("JSON応答はapplication/jsonでそのまま返す", func(t *testing.T) {
		upstream := `{"masks":[{"label":"cat","box_2d":[1,2,3,4],"mask":"abc"}]}`
		model := &fakeModel{resp: textResponse(upstream)}
		h, _ := newTestServer(t, "default-key", model)

		rec := postJSON(t, h, "/api/segment", req, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, upstream, rec.Body.String())
		require.Len(t, model.lastParts(), 2)
	})

	t.Run("JSONでない応答はtext/plainで200", func(t *testing.T) {
		upstream := "```json\n{\"masks\": [\n```"
		h, _ := newTestServer(t, "default-key", &fakeModel{resp: textResponse(upstream)})

		rec := postJSON(t, h, "/api/segment", req, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, upstream, rec.Body.String())
	})
}

func TestAPIKey(t *testing.T) {
	t.Run("キーが無ければ500でモデルは作られない", func(t *testing.T) {
		h, ctor := newTestServer(t, "", &fakeModel{resp: imageResponse([]byte("x"))})
		rec := postJSON(t, h, "/api/generate", domain.GenerationRequest{Prompt: "a cat"}, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decodeError(t, rec), "missing API key")
		assert.Zero(t, ctor.calls())
	})

	t.Run("ヘッダーのキーが設定値より優先される", func(t *testing.T) {
		h, ctor := newTestServer(t, "default-key", &fakeModel{resp: imageResponse([]byte("x"))})
		rec := postJSON(t, h, "/api/generate", domain.GenerationRequest{Prompt: "a cat"}, map[string]string{APIKeyHeader: "header-key"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"header-key"}, ctor.keys)
	})

	t.Run("ヘッダーが無ければ設定値を使う", func(t *testing.T) {
		h, ctor := newTestServer(t, "default-key", &fakeModel{resp: imageResponse([]byte("x"))})
		rec := postJSON(t, h, "/api/generate", domain.GenerationRequest{Prompt: "a cat"}, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"default-key"}, ctor.keys)
	})
}

func TestValidateKey(t *testing.T) {
	t.Run("有効", func(t *testing.T) {
		model := &fakeModel{resp: textResponse("pong")}
		h, _ := newTestServer(t, "", model)
		rec := postJSON(t, h, "/api/validate-key", struct{}{}, map[string]string{APIKeyHeader: "k"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"valid":true}`, rec.Body.String())
		assert.Equal(t, 1, model.calls)
	})

	t.Run("無効", func(t *testing.T) {
		h, _ := newTestServer(t, "", &fakeModel{err: errors.New("API key not valid. Please pass a valid API key.")})
		rec := postJSON(t, h, "/api/validate-key", struct{}{}, map[string]string{APIKeyHeader: "bad"})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decodeError(t, rec), "API key not valid")
	})
}

func TestMethodNotAllowed(t *testing.T) {
	h, ctor := newTestServer(t, "default-key", &fakeModel{})

	for _, path := range []string{"/api/generate", "/api/edit", "/api/segment", "/api/validate-key"} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			t.Run(method+" "+path, func(t *testing.T) {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

				assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
				assert.Equal(t, "method not allowed", decodeError(t, rec))
			})
		}
	}
	assert.Zero(t, ctor.calls())
}

func TestCORSPreflight(t *testing.T) {
	const origin = "http://localhost:5173"
	h, _ := newTestServer(t, "", &fakeModel{}, WithAllowedOrigins([]string{origin}))

	// ブラウザは Access-Control-Request-Headers を小文字で送る
	tests := []struct {
		name       string
		reqHeaders string
		allowed    bool
	}{
		{"APIキーヘッダー", "x-api-key", true},
		{"Content-Typeとキー", "content-type,x-api-key", true},
		{"未許可のヘッダー", "x-api-key,x-debug", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", tt.reqHeaders)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Less(t, rec.Code, 300)
			if !tt.allowed {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
				return
			}
			assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.reqHeaders, rec.Header().Get("Access-Control-Allow-Headers"))
		})
	}
}
