package studio

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/shouni/gemini-image-studio/pkg/client"
	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// --- Mocks ---

type fakeService struct {
	images  []string
	segment *client.SegmentResponse
	err     error

	// started は呼び出し開始を通知し、release が閉じられるまで待ちます（nil なら待たない）。
	started chan struct{}
	release chan struct{}

	lastGenerate domain.GenerationRequest
	lastEdit     domain.EditRequest
	lastSegment  domain.SegmentationRequest
}

func (f *fakeService) wait() {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
}

func (f *fakeService) Generate(ctx context.Context, req domain.GenerationRequest) ([]string, error) {
	f.lastGenerate = req
	f.wait()
	return f.images, f.err
}

func (f *fakeService) Edit(ctx context.Context, req domain.EditRequest) ([]string, error) {
	f.lastEdit = req
	f.wait()
	return f.images, f.err
}

func (f *fakeService) Segment(ctx context.Context, req domain.SegmentationRequest) (*client.SegmentResponse, error) {
	f.lastSegment = req
	f.wait()
	return f.segment, f.err
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
