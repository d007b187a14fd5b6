package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"github.com/shouni/gemini-sketch-kit/pkg/imgutil"
)

// Fetch はリモートのビットマップを取得し、デコード済みで返します。
// gs:// は remoteio 経由、http(s) は SSRF 検証を通した上で httpkit 経由で読みます。
func (a *Adapter) Fetch(ctx context.Context, rawURL string) (image.Image, error) {
	data, err := a.fetchBytes(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	img, mimeType, err := imgutil.DecodeBitmap(data)
	if err != nil {
		slog.WarnContext(ctx, "取得したデータを画像としてデコードできませんでした", "url", rawURL, "error", err)
		return nil, err
	}
	slog.DebugContext(ctx, "リモート画像を取り込みました", "url", rawURL, "mime_type", mimeType)
	return img, nil
}

func (a *Adapter) fetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "gs://") {
		rc, err := a.reader.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	if safe, err := isSafeURL(rawURL); err != nil || !safe {
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}
	return a.httpClient.FetchBytes(ctx, rawURL)
}

// isSafeURL は SSRF 対策として URL を検証します。
// 許可されたスキーム (http, https) であること、そして解決されるすべての IP が
// プライベート・ループバック・リンクローカルでないことを確認します。
func isSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme)
	}

	host := parsedURL.Hostname()
	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolved, err := net.LookupIP(host)
		if err != nil {
			return false, fmt.Errorf("ホスト '%s' の名前解決に失敗しました: %w", host, err)
		}
		ips = resolved
	}

	if len(ips) == 0 {
		return false, fmt.Errorf("IPが見つかりません")
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String())
		}
	}

	return true, nil
}
