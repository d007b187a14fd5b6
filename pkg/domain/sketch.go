package domain

import "image/color"

// Mode はストロークの合成モードです。
type Mode int

const (
	// ModeDraw は通常の描画（ペン）モードです。
	ModeDraw Mode = iota
	// ModeErase は既存のピクセルを透明に戻す消しゴムモードです。
	ModeErase
)

func (m Mode) String() string {
	switch m {
	case ModeErase:
		return "erase"
	default:
		return "draw"
	}
}

// ToolSettings は現在のペン設定です。
// ストロークやキャンバスのリサイズをまたいで維持され、
// 変更されるのはユーザーが明示的にツールを選び直したときだけです。
type ToolSettings struct {
	Color color.RGBA
	Width float64
	Mode  Mode
}

// DefaultToolSettings は黒・線幅4・描画モードの初期設定を返します。
func DefaultToolSettings() ToolSettings {
	return ToolSettings{
		Color: color.RGBA{A: 255},
		Width: 4,
		Mode:  ModeDraw,
	}
}

// Point はキャンバス座標系の1点です。
type Point struct {
	X float64
	Y float64
}

// ImageResult は生成エンドポイントが返した画像データとそのメタデータです。
// 表示・再描画に使われた後は保持されません。
type ImageResult struct {
	Data     []byte
	MimeType string
}
