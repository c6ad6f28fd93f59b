package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

const (
	apiKeyHeader = "X-API-Key"

	defaultTimeout = 5 * time.Minute
)

// Client はプロキシサーバーの /api/* を呼び出すアダプターです。
type Client struct {
	baseURL    string
	httpClient httpkit.Doer
	apiKey     string
}

// Option は Client の設定を変更します。
type Option func(*Client)

// WithHTTPClient は使用する Doer を差し替えます。*http.Client もそのまま渡せます。
func WithHTTPClient(hc httpkit.Doer) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithAPIKey はリクエストごとに X-API-Key ヘッダーで送るキーを設定します。
// 空の場合はサーバー側に設定されたキーが使われます。
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// New は Client を初期化します。baseURL 末尾のスラッシュは取り除きます。
// デフォルトの Doer は httpkit.Client です。プロキシは localhost で動くことが多いので
// ネットワーク検証は外し、生成系リクエストは再送しないのでリトライも 0 にするのだ。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newDefaultDoer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newDefaultDoer() *httpkit.Client {
	return httpkit.New(defaultTimeout,
		httpkit.WithMaxRetries(0),
		httpkit.WithSkipNetworkValidation(true),
	)
}

// Generate はプロンプトと参照画像から画像を生成します。
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) ([]string, error) {
	var out domain.ImagesResponse
	if err := c.postJSON(ctx, "/api/generate", req, &out); err != nil {
		return nil, err
	}
	return out.Images, nil
}

// Edit は元画像を指示に従って編集します。
func (c *Client) Edit(ctx context.Context, req domain.EditRequest) ([]string, error) {
	var out domain.ImagesResponse
	if err := c.postJSON(ctx, "/api/edit", req, &out); err != nil {
		return nil, err
	}
	return out.Images, nil
}

// SegmentResponse はセグメンテーション応答です。
// サーバーが JSON を返した場合は JSON に、そうでなければ Text に本文が入ります。
type SegmentResponse struct {
	JSON json.RawMessage
	Text string
}

// IsJSON は応答が JSON だったかを返します。
func (r *SegmentResponse) IsJSON() bool {
	return len(r.JSON) > 0
}

// Result は JSON 応答を SegmentationResult として読みます。
func (r *SegmentResponse) Result() (*domain.SegmentationResult, error) {
	if !r.IsJSON() {
		return nil, fmt.Errorf("segmentation response is not JSON: %q", r.Text)
	}
	var res domain.SegmentationResult
	if err := json.Unmarshal(r.JSON, &res); err != nil {
		return nil, fmt.Errorf("failed to decode segmentation result: %w", err)
	}
	return &res, nil
}

// Segment はクエリに一致する領域のマスクを要求します。
func (c *Client) Segment(ctx context.Context, req domain.SegmentationRequest) (*SegmentResponse, error) {
	resp, err := c.do(ctx, "/api/segment", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read segmentation response: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return &SegmentResponse{JSON: json.RawMessage(body)}, nil
	}
	return &SegmentResponse{Text: string(body)}, nil
}

// ValidateKey は設定されたキーでサーバー経由の疎通確認を行います。
func (c *Client) ValidateKey(ctx context.Context) error {
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := c.postJSON(ctx, "/api/validate-key", struct{}{}, &out); err != nil {
		return err
	}
	if !out.Valid {
		return &APIError{StatusCode: http.StatusOK, Message: "API key was not accepted"}
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	resp, err := c.do(ctx, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// do は JSON を POST し、2xx 以外は *APIError に変換して返すのだ。
func (c *Client) do(ctx context.Context, path string, in any) (*http.Response, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, newAPIError(resp)
	}
	return resp, nil
}
