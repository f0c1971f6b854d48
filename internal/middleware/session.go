// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/taskdeck/internal/model"
)

// bearerPrefix はAuthorizationヘッダのスキーム部。大文字小文字を区別する。
const bearerPrefix = "Bearer "

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// sessionContextKey はリクエストコンテキストに検証済みセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionValidator はセッショントークンの検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*model.User, *model.Session, error)
}

// NewSessionMiddleware はAuthorizationヘッダのBearerトークンを検証する
// ミドルウェアを返す。認証済みユーザーとトークンをリクエストコンテキストに注入する。
// ヘッダ欠如、形式不正、無効トークン、期限切れトークンはいずれも
// 同一の401レスポンスになり、失敗原因を外部に区別させない。
// ストア障害は503で返し、資格情報の問題と混同させない。
func NewSessionMiddleware(validator SessionValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				WriteUnauthorizedResponse(w)
				return
			}

			user, session, err := validator.Validate(r.Context(), token)
			if err != nil {
				var apiErr *model.APIError
				if errors.As(err, &apiErr) {
					switch apiErr.Code {
					case model.ErrCodeUnauthenticated, model.ErrCodeSessionExpired:
						// 期限切れはログ上でのみ区別する
						if apiErr.Code == model.ErrCodeSessionExpired {
							slog.Info("expired session token rejected")
						}
						WriteUnauthorizedResponse(w)
						return
					case model.ErrCodeStoreUnavailable:
						WriteErrorResponse(w, http.StatusServiceUnavailable, apiErr)
						return
					}
				}
				slog.Error("failed to validate session",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = context.WithValue(ctx, sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken はAuthorizationヘッダからBearerトークンを取り出す。
// スキーム比較は大文字小文字を区別し、"bearer"や"BEARER"は受理しない。
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := header[len(bearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// SessionFromContext はリクエストコンテキストから検証済みセッションを取得する。
func SessionFromContext(ctx context.Context) (*model.Session, error) {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok || session == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return session, nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// ContextWithSession はコンテキストに検証済みセッションを注入する。
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
