package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
)

// DefaultJPEGQuality は範囲外の quality が渡されたときに使う値です。
const DefaultJPEGQuality = 85

// CompressToJPEG は参照画像（PNG, GIF, JPEG）を JPEG に再エンコードします。
// JPEG はアルファを持てないため、透過部分は白で塗りつぶしてから圧縮するのだ。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, flattenOnWhite(img), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flattenOnWhite は透過を含みうる画像を白背景に合成します。
func flattenOnWhite(img image.Image) image.Image {
	switch img.(type) {
	case *image.YCbCr, *image.Gray:
		return img
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}

// Dimensions は画像ヘッダーだけを読み、幅・高さ・フォーマット名を返します。
func Dimensions(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", err
	}
	return cfg.Width, cfg.Height, format, nil
}
