package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"google.golang.org/genai"

	"github.com/shouni/gemini-sketch-kit/pkg/domain"
	"github.com/shouni/gemini-sketch-kit/pkg/imgutil"
)

const (
	// DefaultImageModel は画像編集に使うモデルです。
	DefaultImageModel = "gemini-2.5-flash-image"
	// DefaultTextModel は物語生成に使うモデルです。
	DefaultTextModel = "gemini-2.5-flash"

	// snapshotJPEGQuality は送信スナップショットの再圧縮品質です。
	snapshotJPEGQuality = 75

	// storyInstruction は物語生成の固定指示文です。幼い読者向けの短いお話を求めます。
	storyInstruction = "この絵を見て、小さな子どもに読み聞かせるための短いお話を作ってください。" +
		"やさしい言葉だけを使い、3〜4文でまとめてください。"
)

// SketchGenerator はキャンバスのスナップショットを生成エンドポイントへ送る
// ステートレスなリクエスト/レスポンスのラッパーです。
// 同じ種類のリクエストは同時に1件しか実行できません（busyゲート）。
// リトライもローカルのタイムアウトも持たず、キャンセルは ctx に委ねます。
type SketchGenerator struct {
	aiClient   GenerativeModel
	state      *domain.StudioState
	imageModel string
	textModel  string

	editBusy  atomic.Bool
	storyBusy atomic.Bool
}

// NewSketchGenerator は依存関係を注入して SketchGenerator を初期化します。
// モデル名が空の場合はデフォルトを使います。
func NewSketchGenerator(aiClient GenerativeModel, state *domain.StudioState, imageModel, textModel string) (*SketchGenerator, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if state == nil {
		return nil, fmt.Errorf("state is required")
	}
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	if textModel == "" {
		textModel = DefaultTextModel
	}

	return &SketchGenerator{
		aiClient:   aiClient,
		state:      state,
		imageModel: imageModel,
		textModel:  textModel,
	}, nil
}

// RequestImageEdit はキャンバスのスナップショットとプロンプトを送り、
// スタイル変換された新しいビットマップを要求します。応答モダリティは画像のみを指定します。
// 応答に画像パートが含まれない場合は (nil, nil) を返します。
// これは失敗ではなく「更新なし」という正常な結果です。
func (g *SketchGenerator) RequestImageEdit(ctx context.Context, prompt string, snapshot []byte) (*domain.ImageResult, error) {
	if !g.state.CanGenerate() {
		return nil, domain.ErrAPIKeyMissing
	}
	if !g.editBusy.CompareAndSwap(false, true) {
		return nil, domain.ErrBusy
	}
	defer g.editBusy.Store(false)

	part := toInlinePart(snapshot, true)
	if part == nil {
		return nil, &domain.ServiceError{Err: fmt.Errorf("スナップショットを画像として送信できません")}
	}
	parts := []*genai.Part{{Text: prompt}, part}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	}

	resp, err := g.aiClient.GenerateWithParts(ctx, g.imageModel, parts, config)
	if err != nil {
		return nil, g.classify(err)
	}
	return extractInlineImage(resp)
}

// RequestStoryCaption はキャンバスのスナップショットを送り、
// 絵に合わせた短いお話を生成します。モデルの生テキストをそのまま返します。
func (g *SketchGenerator) RequestStoryCaption(ctx context.Context, snapshot []byte) (string, error) {
	if !g.state.CanGenerate() {
		return "", domain.ErrAPIKeyMissing
	}
	if !g.storyBusy.CompareAndSwap(false, true) {
		return "", domain.ErrBusy
	}
	defer g.storyBusy.Store(false)

	part := toInlinePart(snapshot, false)
	if part == nil {
		return "", &domain.ServiceError{Err: fmt.Errorf("スナップショットを画像として送信できません")}
	}
	parts := []*genai.Part{{Text: storyInstruction}, part}

	resp, err := g.aiClient.GenerateWithParts(ctx, g.textModel, parts, nil)
	if err != nil {
		return "", g.classify(err)
	}
	text := collectText(resp)
	if text == "" {
		return "", &domain.ServiceError{Err: fmt.Errorf("応答にテキストが含まれていません")}
	}
	return text, nil
}

// classify は通信エラーを仕様上の分類へ写します。
// 資格情報の拒否(401/403)は保存済みキーの無効化まで行います。
func (g *SketchGenerator) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) &&
		(apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
		g.state.MarkKeyInvalid()
		slog.Warn("APIキーが拒否されたため無効化しました", "code", apiErr.Code)
		return &domain.AuthError{Err: err}
	}
	return &domain.ServiceError{Err: err}
}

// toInlinePart はスナップショットをインライン画像パートへ変換します。
// 画像編集リクエストはJPEGへ再圧縮してペイロードを抑えます。
func toInlinePart(data []byte, compressJPEG bool) *genai.Part {
	if compressJPEG {
		if compressed, err := imgutil.CompressToJPEG(data, snapshotJPEGQuality); err == nil {
			data = compressed
		}
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		slog.Warn("MIMEタイプが画像ではないためPartに変換できませんでした", "detected_mime_type", mimeType)
		return nil
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// extractInlineImage は応答の最初の候補から最初のインライン画像パートを取り出します。
// 残りのパートは無視します。画像が無いだけの正常応答は (nil, nil) です。
func extractInlineImage(resp *genai.GenerateContentResponse) (*domain.ImageResult, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &domain.ServiceError{Err: fmt.Errorf("Geminiからの有効な応答がありませんでした")}
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &domain.ImageResult{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, &domain.ServiceError{Err: fmt.Errorf("画像生成が異常終了しました (FinishReason: %s)", candidate.FinishReason)}
	}

	return nil, nil
}

// collectText は応答の最初の候補のテキストパーツを連結して返します。
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}
