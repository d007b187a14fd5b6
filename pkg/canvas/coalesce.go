package canvas

import (
	"sync"
	"time"
)

// DefaultFrameInterval はおおよそ1フレームぶんの間隔です。
const DefaultFrameInterval = 16 * time.Millisecond

// ResizeCoalescer は連続するリサイズ通知をフレームあたり1回の適用へまとめます。
// 短時間に大量のコンテナ寸法変化が届いても、最後の寸法だけが apply に渡ります。
// apply はタイマーのゴルーチンから呼ばれる点に注意してください。
type ResizeCoalescer struct {
	interval time.Duration
	apply    func(width, height int)

	mu      sync.Mutex
	timer   *time.Timer
	width   int
	height  int
	pending bool
	closed  bool
}

// NewResizeCoalescer は apply を間引いて呼ぶコアレッサを生成します。
// interval が0以下の場合は DefaultFrameInterval を使います。
func NewResizeCoalescer(interval time.Duration, apply func(width, height int)) *ResizeCoalescer {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &ResizeCoalescer{interval: interval, apply: apply}
}

// Notify は新しいコンテナ寸法を記録します。
// フレーム間隔ごとに最新の寸法が1回だけ適用されます。
func (c *ResizeCoalescer) Notify(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.width, c.height = width, height
	c.pending = true
	if c.timer == nil {
		c.timer = time.AfterFunc(c.interval, c.flush)
	}
}

func (c *ResizeCoalescer) flush() {
	c.mu.Lock()
	if c.closed || !c.pending {
		c.timer = nil
		c.mu.Unlock()
		return
	}
	w, h := c.width, c.height
	c.pending = false
	c.timer = nil
	c.mu.Unlock()

	c.apply(w, h)
}

// Close は保留中の適用を破棄し、以後の通知を無視します。
func (c *ResizeCoalescer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
