package model

import "time"

// Session はユーザーのログインセッションを表す。
// Tokenは64文字の16進文字列（crypto/randの32バイト）で、
// 推測不可能性がセッションハイジャック防止の唯一の防壁となる。
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired は指定時刻においてセッションが期限切れかを返す。
// expires_atちょうどの時刻は期限切れとして扱う。
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
