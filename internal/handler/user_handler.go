package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Get はユーザーのプロフィールを取得する。
	Get(ctx context.Context, userID string) (*model.User, error)
	// UpdateProfile はプロフィールを部分更新する。
	UpdateProfile(ctx context.Context, userID string, input user.UpdateProfileInput) (*model.User, error)
	// Withdraw はユーザーの退会処理を実行する。
	// tasks、sessions、userを一括削除する。
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateProfileRequest struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

// Get は現在のユーザーのプロフィールを返す。
// GET /users/me
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	authUser, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorizedResponse(w)
		return
	}

	profile, err := h.service.Get(r.Context(), authUser.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(profile))
}

// Update はプロフィールの部分更新を処理する。
// PATCH /users/me
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	authUser, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorizedResponse(w)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), authUser.ID, user.UpdateProfileInput{
		Name:  req.Name,
		Image: req.Image,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	authUser, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorizedResponse(w)
		return
	}

	if err := h.service.Withdraw(r.Context(), authUser.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
