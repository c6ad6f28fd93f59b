package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// APIError はサーバーが 2xx 以外を返したことを表します。
// Message はボディの error フィールド、無ければボディそのものです。
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

func newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var parsed struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		msg = parsed.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// ErrorKind は表示用に分類したエラーの種類です。
type ErrorKind string

const (
	KindInvalidKey     ErrorKind = "invalid_key"
	KindQuota          ErrorKind = "quota"
	KindNetwork        ErrorKind = "network"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindUnknown        ErrorKind = "unknown"
)

var (
	invalidKeyMarkers     = []string{"api key", "api_key_invalid", "missing api key", "permission_denied", "unauthenticated"}
	quotaMarkers          = []string{"quota", "resource_exhausted", "rate limit", "too many requests"}
	networkMarkers        = []string{"network", "connection refused", "connection reset", "timeout", "deadline exceeded", "no such host"}
	invalidRequestMarkers = []string{"invalid", "invalid_argument", "missing required field"}
)

// Classify はエラーをステータスコードとメッセージからざっくり分類します。
// サーバーはすべて 500 で返すため、実際にはメッセージの判定が主になります。
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return KindInvalidKey
		case http.StatusTooManyRequests:
			return KindQuota
		case http.StatusBadRequest:
			return KindInvalidRequest
		}
		return classifyMessage(apiErr.Message)
	}

	if isNetworkError(err) {
		return KindNetwork
	}
	return classifyMessage(err.Error())
}

func classifyMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	switch {
	case containsAny(lower, invalidKeyMarkers):
		return KindInvalidKey
	case containsAny(lower, quotaMarkers):
		return KindQuota
	case containsAny(lower, networkMarkers):
		return KindNetwork
	case containsAny(lower, invalidRequestMarkers):
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Describe は画面に出すための説明文を返します。
func Describe(kind ErrorKind) string {
	switch kind {
	case KindInvalidKey:
		return "The Gemini API key is missing or invalid. Check the key and try again."
	case KindQuota:
		return "The Gemini API quota or rate limit was exceeded. Wait a moment and try again."
	case KindNetwork:
		return "Could not reach the server. Check your network connection."
	case KindInvalidRequest:
		return "The request was rejected as invalid. Check the prompt and images."
	default:
		return "Something went wrong while talking to the image service."
	}
}
