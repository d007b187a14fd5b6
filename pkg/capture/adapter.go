package capture

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/gemini-sketch-kit/pkg/imgutil"
)

// FrameSource はカメラ等の、保持中はデバイスをロックする外部ビットマップ供給源です。
// Close で全トラックを確実に停止します。
type FrameSource interface {
	// Frame は現在のフレームをデコード済みビットマップとして返します。
	Frame() (image.Image, error)
	// Bounds は供給源ネイティブのピクセル寸法を返します。
	Bounds() (width, height int)
	// Close は保持している外部リソースを解放します。
	Close() error
}

// SurfaceSizer は現在のキャンバス寸法を提供します。*canvas.Surface が満たします。
type SurfaceSizer interface {
	Size() (width, height int)
}

// Adapter は外部のビットマップ（ファイル、カメラフレーム、生成結果、リモートURL）を
// キャンバスへ渡せるデコード済みビットマップへ変換する取り込み層です。
type Adapter struct {
	surface    SurfaceSizer
	httpClient httpkit.ClientInterface
	reader     remoteio.InputReader
}

// NewAdapter は依存関係を注入して Adapter を初期化します。
// surface はキャンバス未生成の段階では nil でかまいません（ネイティブ解像度へフォールバックします）。
func NewAdapter(surface SurfaceSizer, httpClient httpkit.ClientInterface, reader remoteio.InputReader) (*Adapter, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	return &Adapter{
		surface:    surface,
		httpClient: httpClient,
		reader:     reader,
	}, nil
}

// Grab は供給源の現在フレームを、ライブキャンバスと同じピクセル寸法の
// オフスクリーンバッファへ転写して返します。寸法を合わせておくことで、
// 撮影した写真を LoadBitmap で読み戻すときに再スケールによる歪みが生じません。
// キャンバスがまだ無い場合は供給源のネイティブ解像度を使います。
func (a *Adapter) Grab(src FrameSource) (image.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("source is required")
	}
	frame, err := src.Frame()
	if err != nil {
		return nil, fmt.Errorf("フレームの取得に失敗しました: %w", err)
	}

	w, h := src.Bounds()
	if a.surface != nil {
		if sw, sh := a.surface.Size(); sw > 0 && sh > 0 {
			w, h = sw, sh
		}
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("転写先の寸法が不正です: %dx%d", w, h)
	}

	dc := gg.NewContext(w, h)
	dc.DrawImageEx(gg.ImageBufFromImage(frame), gg.DrawImageOptions{
		DstWidth:      float64(w),
		DstHeight:     float64(h),
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
	})
	return dc.Image(), nil
}

// Commit はフレームを確定取得した上でデバイスを解放します。
// キャプチャデバイスをロックしたまま放置しないよう、撮影確定時はこちらを使います。
func (a *Adapter) Commit(src FrameSource) (image.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("source is required")
	}
	img, err := a.Grab(src)
	if cerr := src.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("キャプチャデバイスの解放に失敗しました: %w", cerr)
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Decode はエンコード済みバイト列（アップロードされたファイル等）を
// デコード済みビットマップへ変換します。画像以外のMIMEタイプは拒否します。
func (a *Adapter) Decode(data []byte) (image.Image, error) {
	img, _, err := imgutil.DecodeBitmap(data)
	return img, err
}
