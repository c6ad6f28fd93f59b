package prompt

import (
	"fmt"
	"strings"
)

// MaskClause は白ピクセル領域のみを編集させるために編集プロンプトへ追記される文です。
const MaskClause = "IMPORTANT: Apply changes ONLY where the mask image shows white pixels (value 255). " +
	"Leave every area covered by black pixels (value 0) completely unchanged, " +
	"and blend the edited region seamlessly into its surroundings at the mask boundary."

const editTemplate = `Edit this image according to the following instruction: %s

Preserve the original image's lighting, perspective, and overall composition. Make the changes look natural and seamlessly integrated with the rest of the image.`

const segmentationTemplate = `Analyze this image and create a segmentation mask for: %s

Return ONLY a JSON object with exactly this structure:
{
  "masks": [
    {
      "label": "short description of the segmented object",
      "box_2d": [x, y, width, height],
      "mask": "base64-encoded PNG image"
    }
  ]
}

The "masks" array contains one entry per matching object or region.
"box_2d" is the bounding box in pixels as [x, y, width, height].
"mask" is a binary PNG with the same dimensions as the input image, where white pixels (255) mark the selected region and black pixels (0) mark the background.
Segment only what the query asks for. Do not wrap the JSON in markdown code fences and do not add any other text.`

// BuildEditPrompt は編集指示をテンプレートに埋め込みます。
// hasMask が true の場合のみ MaskClause を追記します。
func BuildEditPrompt(instruction string, hasMask bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, editTemplate, instruction)
	if hasMask {
		b.WriteString("\n\n")
		b.WriteString(MaskClause)
	}
	return b.String()
}

// BuildSegmentationPrompt はクエリを埋め込み、masks / label / box_2d / mask の
// JSON 形式をモデルに要求するプロンプトを返します。形式の強制はしません。
func BuildSegmentationPrompt(query string) string {
	return fmt.Sprintf(segmentationTemplate, query)
}
