// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレス重複はストアのユニーク制約で検出され、
	// IsUniqueViolationで判定可能なエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	// メールアドレスは保存時の大文字小文字をそのまま比較する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// ExistsByEmail は指定メールアドレスのユーザーが存在するかを返す。
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateProfile はname、image、updated_atを更新する。
	// 更新対象が存在しない場合はnilを返す。
	UpdateProfile(ctx context.Context, id, name, image string) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、tasksはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
// 書き込みはセッションマネージャ（auth.Service）のみが行う。
type SessionRepository interface {
	// Create はセッションを作成する。
	// トークン衝突はストアの主キー制約で検出され、
	// IsUniqueViolationで判定可能なエラーを返す。
	Create(ctx context.Context, session *model.Session) error

	// FindByToken は指定トークンのセッションを取得する。見つからない場合はnilを返す。
	// 期限切れ判定は呼び出し側（遅延削除を伴うため）で行う。
	FindByToken(ctx context.Context, token string) (*model.Session, error)

	// DeleteByToken は指定トークンのセッションを削除する。
	// 存在しないトークンの削除はエラーにならない（冪等）。
	DeleteByToken(ctx context.Context, token string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired はexpires_atがnow以前の全セッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
// 単一レコード操作は必ずIDと所有者IDの両方でフィルタする。
// 「存在しない」と「所有者が異なる」はどちらもnil（0行）として扱われ、
// ストア層で区別されない。
type TaskRepository interface {
	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// ListByUserID は指定ユーザーのタスク一覧をcreated_at昇順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Task, error)

	// FindByIDAndUserID はIDと所有者IDの両方に一致するタスクを取得する。
	// 一致しない場合はnilを返す。
	FindByIDAndUserID(ctx context.Context, id, userID string) (*model.Task, error)

	// Update はIDと所有者IDの両方に一致するタスクを更新し、更新後の行を返す。
	// 一致しない場合はnilを返す（更新は行われない）。
	Update(ctx context.Context, task *model.Task) (*model.Task, error)

	// ToggleCompleted はIDと所有者IDの両方に一致するタスクのcompletedを
	// 単一クエリで反転し、更新後の行を返す。一致しない場合はnilを返す。
	ToggleCompleted(ctx context.Context, id, userID string) (*model.Task, error)

	// Delete はIDと所有者IDの両方に一致するタスクを削除し、削除した行を返す。
	// 一致しない場合はnilを返す。
	Delete(ctx context.Context, id, userID string) (*model.Task, error)

	// DeleteByUserID は指定ユーザーの全タスクを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
