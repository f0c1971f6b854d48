package repository

import (
	"context"
	"errors"

	"github.com/lib/pq"
)

// IsUniqueViolation はエラーがPostgreSQLのユニーク制約違反（23505）かを判定する。
// constraintが空でない場合は制約名の一致も要求する。
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsTransient はエラーがリトライ可能な一時障害（タイムアウト、接続断等）かを判定する。
// 認証エラーと混同してはならない分類で、ハンドラ層で503にマッピングされる。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 — Connection Exception, Class 57 — Operator Intervention
		switch pqErr.Code.Class() {
		case "08", "57":
			return true
		}
	}
	return false
}
