package canvas

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/gogpu/gg"

	"github.com/shouni/gemini-sketch-kit/pkg/domain"
)

// TargetAspect はキャンバスの縦横比（高さ/幅）です。縦長のページ比率に固定します。
const TargetAspect = math.Sqrt2

// Format は書き出しフォーマットです。
type Format string

const (
	FormatPNG  Format = "image/png"
	FormatJPEG Format = "image/jpeg"
)

// Surface はユーザーが描き込むラスターキャンバスです。
// ストロークと背景画像は同じバッファに焼き込まれ、レイヤー分離はしません。
// すべての操作は単一のUIゴルーチンから同期的に呼ばれる前提です。
type Surface struct {
	dc         *gg.Context
	state      *domain.StudioState
	background image.Image // 直近に読み込んだ写真/生成画像。無ければ nil
	empty      bool
	stroke     strokeState
}

// strokeState はジェスチャ1回分の一時状態です。
// pointer-down から対応する pointer-up/cancel/leave までの間だけ生存します。
type strokeState struct {
	active bool
	last   domain.Point
}

// New は最初のコンテナ寸法の観測を受けてキャンバスを生成します。
func New(state *domain.StudioState, containerW, containerH int) (*Surface, error) {
	if state == nil {
		return nil, fmt.Errorf("state is required")
	}
	w, h := fitToContainer(containerW, containerH)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("コンテナ寸法が不正です: %dx%d", containerW, containerH)
	}
	return &Surface{
		dc:    gg.NewContext(w, h),
		state: state,
		empty: true,
	}, nil
}

// fitToContainer はコンテナに収まる最大のキャンバス寸法を固定比率で計算します。
func fitToContainer(containerW, containerH int) (int, int) {
	w := float64(containerW)
	h := w * TargetAspect
	if h > float64(containerH) {
		h = float64(containerH)
		w = h / TargetAspect
	}
	return int(math.Round(w)), int(math.Round(h))
}

// Resize はコンテナ寸法の変化に合わせてキャンバスのピクセル寸法を再計算します。
// 同じコンテナ寸法での再呼び出しは何もしません。
// 背景画像は新しい寸法へレターボックスで描き直されますが、
// 手描きストロークはリサイズをまたいで保持されません（仕様上の挙動です）。
func (s *Surface) Resize(containerW, containerH int) error {
	w, h := fitToContainer(containerW, containerH)
	if w <= 0 || h <= 0 {
		return fmt.Errorf("コンテナ寸法が不正です: %dx%d", containerW, containerH)
	}
	if w == s.dc.Width() && h == s.dc.Height() {
		return nil
	}
	if err := s.dc.Resize(w, h); err != nil {
		return err
	}
	s.stroke = strokeState{}
	s.empty = s.background == nil
	if s.background != nil {
		s.compositeBackground()
	}
	slog.Debug("キャンバスをリサイズしました", "width", w, "height", h)
	return nil
}

// BeginStroke は pointer-down に対応します。既にストロークが進行中なら無視します。
// 移動のないタップでも現在の線幅のドットを1つ残します。
func (s *Surface) BeginStroke(p domain.Point) {
	if s.stroke.active {
		return
	}
	tool := s.state.Tool()
	s.paintDot(p, tool)
	s.stroke = strokeState{active: true, last: p}
	s.empty = false
}

// ContinueStroke は pointer-move に対応します。ストロークが始まっていなければ何もしません。
func (s *Surface) ContinueStroke(p domain.Point) {
	if !s.stroke.active {
		return
	}
	tool := s.state.Tool()
	s.paintSegment(s.stroke.last, p, tool)
	s.stroke.last = p
}

// EndStroke は pointer-up/leave/cancel に対応します。
// ストロークの有無にかかわらず安全に呼べます（pointer-leave での投機的な呼び出しを想定）。
func (s *Surface) EndStroke() {
	s.stroke = strokeState{}
}

// Clear はラスター内容と背景画像を破棄し、空の状態へ戻します。
func (s *Surface) Clear() {
	s.dc.Clear()
	s.background = nil
	s.stroke = strokeState{}
	s.empty = true
}

// LoadBitmap はデコード済みビットマップを背景として取り込み、
// レターボックス配置（アスペクト比維持・中央寄せ・切り抜きなし）で描き直します。
// 読み込み直後の写真に消しゴムは意味を持たないため、ツールは描画モードへ戻します。
func (s *Surface) LoadBitmap(img image.Image) error {
	if img == nil {
		return fmt.Errorf("image is required")
	}
	s.background = img
	s.dc.Clear()
	s.compositeBackground()
	s.empty = false
	s.state.SelectMode(domain.ModeDraw)
	return nil
}

// Export は現在のラスター内容をエンコードして返します。
// ストロークと背景は同じバッファに焼き込まれているため、常に両方が含まれます。
func (s *Surface) Export(format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		if err := s.dc.EncodePNG(&buf); err != nil {
			return nil, err
		}
	case FormatJPEG:
		if err := s.dc.EncodeJPEG(&buf, quality); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("未対応のフォーマットです: %s", format)
	}
	return buf.Bytes(), nil
}

// SnapshotJPEG は画像編集リクエスト送信用のJPEGスナップショットを返します。
func (s *Surface) SnapshotJPEG(quality int) ([]byte, error) {
	return s.Export(FormatJPEG, quality)
}

// SnapshotPNG は物語生成リクエストとファイル書き出し用のPNGスナップショットを返します。
func (s *Surface) SnapshotPNG() ([]byte, error) {
	return s.Export(FormatPNG, 0)
}

// Size は現在のキャンバスのピクセル寸法を返します。
func (s *Surface) Size() (width, height int) {
	return s.dc.Width(), s.dc.Height()
}

// Empty はキャンバスにまだ何も描かれていないかどうかを返します。
func (s *Surface) Empty() bool { return s.empty }

// HasBackground は背景画像が読み込まれているかどうかを返します。
func (s *Surface) HasBackground() bool { return s.background != nil }

// Image は現在のラスター内容のコピーを返します。
func (s *Surface) Image() image.Image { return s.dc.Image() }

// CanvasPoint はビューポート座標をキャンバスローカル座標へ変換します。
// origin はキャンバスの画面上の左上位置です。タッチ入力は先頭の接触点のみを使います。
func CanvasPoint(viewport, origin domain.Point) domain.Point {
	return domain.Point{X: viewport.X - origin.X, Y: viewport.Y - origin.Y}
}

func (s *Surface) compositeBackground() {
	buf := gg.ImageBufFromImage(s.background)
	x, y, w, h := letterbox(
		float64(s.dc.Width()), float64(s.dc.Height()),
		float64(buf.Width()), float64(buf.Height()),
	)
	s.dc.DrawImageEx(buf, gg.DrawImageOptions{
		X:             x,
		Y:             y,
		DstWidth:      w,
		DstHeight:     h,
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
}

// letterbox はアスペクト比を保ったまま dst に収まる配置を計算します。
// 余白は透明のまま残り、中央寄せで、切り抜きは行いません。
func letterbox(dstW, dstH, srcW, srcH float64) (x, y, w, h float64) {
	scale := math.Min(dstW/srcW, dstH/srcH)
	w = srcW * scale
	h = srcH * scale
	x = (dstW - w) / 2
	y = (dstH - h) / 2
	return x, y, w, h
}

func (s *Surface) paintDot(p domain.Point, tool domain.ToolSettings) {
	if tool.Mode == domain.ModeErase {
		s.eraseWith(tool, func(dc *gg.Context) {
			dc.DrawCircle(p.X, p.Y, tool.Width/2)
			dc.Fill()
		})
		return
	}
	s.dc.SetColor(tool.Color)
	s.dc.DrawCircle(p.X, p.Y, tool.Width/2)
	s.dc.Fill()
}

func (s *Surface) paintSegment(from, to domain.Point, tool domain.ToolSettings) {
	if tool.Mode == domain.ModeErase {
		s.eraseWith(tool, func(dc *gg.Context) {
			dc.DrawLine(from.X, from.Y, to.X, to.Y)
			dc.Stroke()
		})
		return
	}
	s.dc.SetColor(tool.Color)
	s.dc.SetLineWidth(tool.Width)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.DrawLine(from.X, from.Y, to.X, to.Y)
	s.dc.Stroke()
}

// eraseWith は消しゴムストロークをオフスクリーンのマスクとして描画し、
// そのアルファ値のぶんだけ本体バッファのピクセルを透明側へ減算します。
// gg の DrawImage 合成モードには destination-out が無いため、
// ResizeTarget が公開する生ピクセルを直接操作します。
func (s *Surface) eraseWith(tool domain.ToolSettings, draw func(dc *gg.Context)) {
	mask := gg.NewContext(s.dc.Width(), s.dc.Height())
	mask.SetRGBA(0, 0, 0, 1)
	mask.SetLineWidth(tool.Width)
	mask.SetLineCap(gg.LineCapRound)
	draw(mask)

	src := mask.ResizeTarget().Data()
	dst := s.dc.ResizeTarget().Data()
	for i := 3; i < len(src) && i < len(dst); i += 4 {
		a := uint32(src[i])
		if a == 0 {
			continue
		}
		keep := 255 - a
		dst[i-3] = uint8(uint32(dst[i-3]) * keep / 255)
		dst[i-2] = uint8(uint32(dst[i-2]) * keep / 255)
		dst[i-1] = uint8(uint32(dst[i-1]) * keep / 255)
		dst[i] = uint8(uint32(dst[i]) * keep / 255)
	}
}
