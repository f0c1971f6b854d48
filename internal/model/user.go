// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashがnilのユーザーはパスワード認証を行えない
// （外部IdP専用アカウント等）。認証コアはPasswordHashを
// レスポンスに含めてはならない。
type User struct {
	ID            string
	Email         string
	PasswordHash  *string
	Name          string
	Image         string
	EmailVerified *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanAuthenticate はパスワード認証が可能なユーザーかを返す。
func (u *User) CanAuthenticate() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
