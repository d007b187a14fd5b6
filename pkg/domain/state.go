package domain

import "sync"

// StudioState はアプリケーション全体で共有される明示的な状態です。
// APIキーの有効性と現在のツール設定を1つの構造体に集約し、
// 変更は必ず個別の遷移メソッドを通します。
// 生成クライアントはゴルーチンをまたいで参照するため、内部でロックを取ります。
type StudioState struct {
	mu       sync.Mutex
	apiKey   string
	keyValid bool
	tool     ToolSettings
}

// NewStudioState は初期ツール設定を持つ状態を返します。
func NewStudioState() *StudioState {
	return &StudioState{tool: DefaultToolSettings()}
}

// SetAPIKey は新しいキーを保存し、有効とみなします。
func (s *StudioState) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
	s.keyValid = key != ""
}

// APIKey は現在保存されているキーを返します。
func (s *StudioState) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey
}

// MarkKeyInvalid はサービスに拒否されたキーを無効化します。
// 以後 CanGenerate は false を返し、ユーザーはキーの再入力を求められます。
func (s *StudioState) MarkKeyInvalid() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyValid = false
}

// CanGenerate は生成操作を発行してよい状態かどうかを返します。
// false の間、生成系のUIコントロールは無効化される想定です。
func (s *StudioState) CanGenerate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey != "" && s.keyValid
}

// SelectTool はツール設定全体を置き換えます。
func (s *StudioState) SelectTool(tool ToolSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tool = tool
}

// SelectMode は合成モードだけを切り替えます。
func (s *StudioState) SelectMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tool.Mode = mode
}

// Tool は現在のツール設定のコピーを返します。
func (s *StudioState) Tool() ToolSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}
