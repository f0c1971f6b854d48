package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
)

// mockValidator はSessionValidatorのモック。
type mockValidator struct {
	validateFn func(ctx context.Context, token string) (*model.User, *model.Session, error)
}

func (m *mockValidator) Validate(ctx context.Context, token string) (*model.User, *model.Session, error) {
	if m.validateFn != nil {
		return m.validateFn(ctx, token)
	}
	return nil, nil, model.NewUnauthenticatedError()
}

var _ SessionValidator = (*mockValidator)(nil)

func okValidator(userID string) *mockValidator {
	return &mockValidator{
		validateFn: func(ctx context.Context, token string) (*model.User, *model.Session, error) {
			return &model.User{ID: userID, Email: "test@example.com"},
				&model.Session{Token: token, UserID: userID, ExpiresAt: time.Now().Add(time.Hour)},
				nil
		},
	}
}

func TestSessionMiddleware_ValidToken_InjectsUserAndSession(t *testing.T) {
	mw := NewSessionMiddleware(okValidator("user-1"))

	var gotUser *model.User
	var gotSession *model.Session
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		gotSession, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUser == nil || gotUser.ID != "user-1" {
		t.Errorf("expected user-1 in context, got %+v", gotUser)
	}
	if gotSession == nil || gotSession.Token != "valid-token" {
		t.Errorf("expected session in context, got %+v", gotSession)
	}
}

func TestSessionMiddleware_MissingOrMalformedHeader_Returns401(t *testing.T) {
	mw := NewSessionMiddleware(okValidator("user-1"))

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"ヘッダなし", ""},
		{"スキーム小文字", "bearer some-token"},
		{"スキーム大文字", "BEARER some-token"},
		{"スキームのみ", "Bearer "},
		{"別スキーム", "Basic dXNlcjpwYXNz"},
		{"スペース欠如", "Bearersome-token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestSessionMiddleware_InvalidAndExpiredTokens_SameResponseBody(t *testing.T) {
	invalidValidator := &mockValidator{
		validateFn: func(ctx context.Context, token string) (*model.User, *model.Session, error) {
			return nil, nil, model.NewUnauthenticatedError()
		},
	}
	expiredValidator := &mockValidator{
		validateFn: func(ctx context.Context, token string) (*model.User, *model.Session, error) {
			return nil, nil, model.NewSessionExpiredError()
		},
	}

	bodyFor := func(v SessionValidator) string {
		handler := NewSessionMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be reached")
		}))
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		return rec.Body.String()
	}

	// 無効トークンと期限切れトークンは本文まで同一で、原因を区別できない
	if invalid, expired := bodyFor(invalidValidator), bodyFor(expiredValidator); invalid != expired {
		t.Errorf("response bodies differ:\ninvalid: %s\nexpired: %s", invalid, expired)
	}
}

func TestSessionMiddleware_StoreUnavailable_Returns503Not401(t *testing.T) {
	validator := &mockValidator{
		validateFn: func(ctx context.Context, token string) (*model.User, *model.Session, error) {
			return nil, nil, model.NewStoreUnavailableError()
		},
	}

	handler := NewSessionMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeStoreUnavailable {
		t.Errorf("body code = %q, want %q", body.Code, model.ErrCodeStoreUnavailable)
	}
}

func TestSessionMiddleware_UnexpectedError_Returns500(t *testing.T) {
	validator := &mockValidator{
		validateFn: func(ctx context.Context, token string) (*model.User, *model.Session, error) {
			return nil, nil, errors.New("boom")
		},
	}

	handler := NewSessionMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestUserFromContext_WithoutMiddleware_ReturnsError(t *testing.T) {
	if _, err := UserFromContext(context.Background()); err == nil {
		t.Error("expected error for missing user")
	}
	if _, err := SessionFromContext(context.Background()); err == nil {
		t.Error("expected error for missing session")
	}
}

func TestContextWithUser_RoundTrip(t *testing.T) {
	ctx := ContextWithUser(context.Background(), &model.User{ID: "user-1"})
	ctx = ContextWithSession(ctx, &model.Session{Token: "tok"})

	user, err := UserFromContext(ctx)
	if err != nil || user.ID != "user-1" {
		t.Errorf("UserFromContext() = %+v, %v", user, err)
	}
	session, err := SessionFromContext(ctx)
	if err != nil || session.Token != "tok" {
		t.Errorf("SessionFromContext() = %+v, %v", session, err)
	}
}
