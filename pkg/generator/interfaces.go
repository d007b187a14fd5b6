package generator

import (
	"context"

	"google.golang.org/genai"
)

// GenerativeModel は生成エンドポイントとの通信を抽象化します。
// 本番実装は NewGeminiModel が返し、テストではモックを注入します。
type GenerativeModel interface {
	// GenerateWithParts は指定のパーツ群で生成リクエストを1回実行します。
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}
