package domain

import (
	"errors"
	"fmt"
)

// ErrAPIKeyMissing は資格情報が未設定のまま生成操作が呼ばれたことを示します。
// ネットワークに到達する前に返される、呼び出し側の設定エラーです。
var ErrAPIKeyMissing = errors.New("APIキーが設定されていません")

// ErrBusy は同じ種類の生成リクエストが既に実行中であることを示します。
var ErrBusy = errors.New("同じ種類の生成リクエストが実行中です")

// AuthError はサービス側が資格情報を拒否したことを示します。
// このエラーが返された時点で、保存済みのキーは無効化されています。
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("APIキーが拒否されました: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ServiceError は認証以外の呼び出し失敗（空応答・不正応答を含む）を示します。
// キーは無効化されず、再試行で回復する可能性があります。
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("生成サービスの呼び出しに失敗しました: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
