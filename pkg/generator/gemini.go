package generator

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/shouni/gemini-sketch-kit/pkg/domain"
)

// geminiModel は google.golang.org/genai を使う本番用の GenerativeModel 実装です。
type geminiModel struct {
	client *genai.Client
}

// NewGeminiModel は資格情報を検証してから Gemini API クライアントを生成します。
// キーが空の場合はネットワークに触れる前に domain.ErrAPIKeyMissing を返します。
func NewGeminiModel(ctx context.Context, apiKey string) (GenerativeModel, error) {
	if apiKey == "" {
		return nil, domain.ErrAPIKeyMissing
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}
	return &geminiModel{client: client}, nil
}

func (m *geminiModel) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	return m.client.Models.GenerateContent(ctx, model, contents, config)
}
