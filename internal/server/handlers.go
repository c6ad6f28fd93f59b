package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/gemini-image-studio/internal/metrics"
	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/generator"
)

// apiFunc は失敗時に error を返すハンドラーです。エラーの書き出しは api が行います。
type apiFunc func(w http.ResponseWriter, r *http.Request) error

// api はボディ上限、メトリクス、エラー応答を共通化するのだ。
// どの失敗も分類せず 500 と生のメッセージで返す。
func (s *Server) api(operation string, fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.InFlight.Inc()
		defer metrics.InFlight.Dec()

		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

		result := metrics.ResultOK
		if err := fn(w, r); err != nil {
			result = metrics.ResultError
			slog.WarnContext(r.Context(), "APIリクエストが失敗しました", "operation", operation, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		metrics.Observe(operation, result, time.Since(start).Seconds())
	}
}

// generatorFor はヘッダーのキー（無ければ設定済みのキー）で ImageGenerator を用意します。
func (s *Server) generatorFor(r *http.Request) (generator.ImageGenerator, error) {
	return s.provider(r.Context(), r.Header.Get(APIKeyHeader))
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) error {
	var req domain.GenerationRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	gen, err := s.generatorFor(r)
	if err != nil {
		return err
	}
	images, err := gen.Generate(r.Context(), req)
	if err != nil {
		return err
	}

	metrics.ImagesReturnedTotal.WithLabelValues("generate").Add(float64(len(images)))
	writeJSON(w, http.StatusOK, domain.ImagesResponse{Images: images})
	return nil
}

func (s *Server) edit(w http.ResponseWriter, r *http.Request) error {
	var req domain.EditRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	gen, err := s.generatorFor(r)
	if err != nil {
		return err
	}
	images, err := gen.Edit(r.Context(), req)
	if err != nil {
		return err
	}

	metrics.ImagesReturnedTotal.WithLabelValues("edit").Add(float64(len(images)))
	writeJSON(w, http.StatusOK, domain.ImagesResponse{Images: images})
	return nil
}

// segment はモデルの応答が JSON として読めればそのまま JSON で、読めなければ
// text/plain で 200 を返します。
func (s *Server) segment(w http.ResponseWriter, r *http.Request) error {
	var req domain.SegmentationRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	gen, err := s.generatorFor(r)
	if err != nil {
		return err
	}
	text, err := gen.Segment(r.Context(), req)
	if err != nil {
		return err
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(text)); err != nil {
		slog.InfoContext(r.Context(), "セグメンテーション応答がJSONではないためテキストで返します", "length", len(text))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
		return nil
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(compact.Bytes())
	return nil
}

func (s *Server) validateKey(w http.ResponseWriter, r *http.Request) error {
	gen, err := s.generatorFor(r)
	if err != nil {
		return err
	}
	if err := gen.ValidateKey(r.Context()); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
	return nil
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, domain.ErrorResponse{Error: msg})
}
