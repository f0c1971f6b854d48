package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// 内部詳細（SQL、スタックトレース、パスワード素材）は決して含めない。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, task, user, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEmailTaken       = "EMAIL_TAKEN"
	ErrCodeUnauthenticated  = "UNAUTHENTICATED"
	ErrCodeSessionExpired   = "SESSION_EXPIRED"
	ErrCodeTaskNotFound     = "TASK_NOT_FOUND"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
)

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewUnauthenticatedError は認証エラーを生成する。
// 「メールアドレスが未登録」「パスワード不一致」「トークン不正」の
// いずれであっても外部には同一のエラーを返し、原因を漏らさない。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証に失敗しました。",
		Category: "auth",
		Action:   "メールアドレスとパスワード、またはセッションを確認してください。",
	}
}

// NewSessionExpiredError はセッション期限切れエラーを生成する。
// 外部へのレスポンスはNewUnauthenticatedErrorと同一に揃えられ、
// コードはログ上の区別にのみ使用される。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "認証に失敗しました。",
		Category: "auth",
		Action:   "メールアドレスとパスワード、またはセッションを確認してください。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
// 「存在しない」と「他ユーザーの所有物」を意図的に区別しない。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "task",
		Action:   "タスクIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "user",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidInputError は入力バリデーションエラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewStoreUnavailableError はデータストアの一時障害エラーを生成する。
// タイムアウトや接続断はこのエラーに分類され、呼び出し側でリトライ可能。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データストアに一時的にアクセスできません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
