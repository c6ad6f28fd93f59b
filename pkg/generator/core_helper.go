package generator

import (
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// firstCandidate はブロック判定を行い、最初の候補を返します。
// Geminiからの最初の候補 (Candidate) だけを利用する。
func firstCandidate(resp *genai.GenerateContentResponse) (*genai.Candidate, error) {
	if resp == nil {
		return nil, ErrNoCandidates
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, ErrNoCandidates
	}
	return resp.Candidates[0], nil
}

// abnormalFinish は安全フィルター等による異常終了かどうかを返します。
func abnormalFinish(candidate *genai.Candidate) bool {
	return candidate.FinishReason != "" &&
		candidate.FinishReason != genai.FinishReasonUnspecified &&
		candidate.FinishReason != genai.FinishReasonStop
}

// parseImages は最初の候補から InlineData を持つパーツだけを base64 で取り出します。
// テキストパーツは捨てます。画像が0件で異常終了していればエラーです。
func parseImages(resp *genai.GenerateContentResponse) ([]string, error) {
	candidate, err := firstCandidate(resp)
	if err != nil {
		return nil, err
	}

	images := []string{}
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			images = append(images, base64.StdEncoding.EncodeToString(part.InlineData.Data))
		}
	}

	if len(images) == 0 && abnormalFinish(candidate) {
		return nil, fmt.Errorf("image generation finished abnormally (FinishReason: %s)", candidate.FinishReason)
	}
	return images, nil
}

// parseText は最初の候補のテキストパーツを連結して返します。思考パーツは含めません。
func parseText(resp *genai.GenerateContentResponse) (string, error) {
	candidate, err := firstCandidate(resp)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
	}

	if b.Len() == 0 && abnormalFinish(candidate) {
		return "", fmt.Errorf("segmentation finished abnormally (FinishReason: %s)", candidate.FinishReason)
	}
	return b.String(), nil
}
