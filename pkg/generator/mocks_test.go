package generator

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"google.golang.org/genai"
)

// --- Mocks ---

// mockModel は GenerativeModel のテスト用実装です。
type mockModel struct {
	generateFunc func(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	callCount    int
	lastModel    string
	lastParts    []*genai.Part
	lastConfig   *genai.GenerateContentConfig
}

func (m *mockModel) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.callCount++
	m.lastModel = model
	m.lastParts = parts
	m.lastConfig = config
	if m.generateFunc != nil {
		return m.generateFunc(ctx, model, parts, config)
	}
	return &genai.GenerateContentResponse{}, nil
}

// inlineImageResponse はインライン画像1枚を含む応答を組み立てます。
func inlineImageResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
					},
				},
			},
		},
	}
}

// textResponse はテキストパーツだけの応答を組み立てます。
func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, s := range texts {
		parts = append(parts, &genai.Part{Text: s})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content:      &genai.Content{Parts: parts},
				FinishReason: genai.FinishReasonStop,
			},
		},
	}
}

// testSnapshot は黒い円を1つ描いたキャンバス相当のPNGバイト列を返します。
func testSnapshot(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 16; y < 48; y++ {
		for x := 16; x < 48; x++ {
			dx, dy := x-32, y-32
			if dx*dx+dy*dy <= 16*16 {
				img.Set(x, y, color.RGBA{A: 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("テスト用PNGの生成に失敗: %v", err)
	}
	return buf.Bytes()
}
