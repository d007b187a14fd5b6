package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 7), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("テスト用PNGの生成に失敗: %v", err)
	}
	return buf.Bytes()
}

func TestCompressToJPEG(t *testing.T) {
	t.Run("PNGをJPEGへ変換できるのだ", func(t *testing.T) {
		data := testPNG(t, 32, 32)

		out, err := CompressToJPEG(data, 75)
		if err != nil {
			t.Fatalf("CompressToJPEGに失敗: %v", err)
		}

		cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("出力のデコードに失敗: %v", err)
		}
		if format != "jpeg" {
			t.Errorf("出力フォーマットがJPEGではない: %s", format)
		}
		if cfg.Width != 32 || cfg.Height != 32 {
			t.Errorf("寸法が変わってしまった: %dx%d", cfg.Width, cfg.Height)
		}
	})

	t.Run("画像でないデータはエラーなのだ", func(t *testing.T) {
		if _, err := CompressToJPEG([]byte("not an image"), 75); err == nil {
			t.Error("壊れた入力でエラーが返らない")
		}
	})
}

func TestDecodeBitmap(t *testing.T) {
	t.Run("画像バイト列はMIMEタイプ付きでデコードされるのだ", func(t *testing.T) {
		data := testPNG(t, 16, 24)

		img, mimeType, err := DecodeBitmap(data)
		if err != nil {
			t.Fatalf("DecodeBitmapに失敗: %v", err)
		}
		if mimeType != "image/png" {
			t.Errorf("MIMEタイプが誤っている: %s", mimeType)
		}
		if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 24 {
			t.Errorf("寸法が誤っている: %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("画像以外のMIMEタイプはデコード前に拒否されるのだ", func(t *testing.T) {
		if _, _, err := DecodeBitmap([]byte("{\"json\": true}")); err == nil {
			t.Error("画像以外の入力でエラーが返らない")
		}
	})
}

func TestEncodePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNGに失敗: %v", err)
	}

	decoded, _, err := DecodeBitmap(data)
	if err != nil {
		t.Fatalf("往復デコードに失敗: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 4 {
		t.Errorf("寸法が誤っている: %dx%d", b.Dx(), b.Dy())
	}
}
