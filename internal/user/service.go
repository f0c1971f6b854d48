// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
)

// TaskDeleter はタスクの一括削除インターフェース。
type TaskDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// ServiceConfig はユーザーサービスの設定。
type ServiceConfig struct {
	StoreTimeout time.Duration // ストア呼び出しのタイムアウト
}

// Service はユーザー管理のサービス層。
// プロフィール更新と退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	taskDeleter TaskDeleter
	config      ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	taskDeleter TaskDeleter,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		taskDeleter: taskDeleter,
		config:      config,
	}
}

// Get は指定ユーザーのプロフィールを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.userRepo.FindByID(storeCtx, userID)
	if err != nil {
		return nil, s.classifyStoreError(err, "failed to find user")
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfileInput はプロフィール更新の入力。nilのフィールドは変更しない。
type UpdateProfileInput struct {
	Name  *string
	Image *string
}

// UpdateProfile はユーザーのプロフィールを部分更新する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	current, err := s.userRepo.FindByID(storeCtx, userID)
	if err != nil {
		return nil, s.classifyStoreError(err, "failed to find user")
	}
	if current == nil {
		return nil, model.NewUserNotFoundError()
	}

	name := current.Name
	image := current.Image
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, model.NewInvalidInputError("名前は必須です")
		}
	}
	if input.Image != nil {
		image = strings.TrimSpace(*input.Image)
	}

	updated, err := s.userRepo.UpdateProfile(storeCtx, userID, name, image)
	if err != nil {
		return nil, s.classifyStoreError(err, "failed to update profile")
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}
	return updated, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: tasks → sessions → user
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	// ユーザー存在確認
	user, err := s.userRepo.FindByID(storeCtx, userID)
	if err != nil {
		return s.classifyStoreError(err, "failed to find user")
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. タスクを削除
	if s.taskDeleter != nil {
		if err := s.taskDeleter.DeleteByUserID(storeCtx, userID); err != nil {
			return s.classifyStoreError(err, "failed to delete tasks")
		}
	}

	// 2. セッションを削除（保持中のトークンはすべて失効する）
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(storeCtx, userID); err != nil {
			return s.classifyStoreError(err, "failed to delete sessions")
		}
	}

	// 3. ユーザーを削除
	if err := s.userRepo.DeleteByID(storeCtx, userID); err != nil {
		return s.classifyStoreError(err, "failed to delete user")
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}

func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.StoreTimeout)
}

func (s *Service) classifyStoreError(err error, msg string) error {
	if repository.IsTransient(err) {
		slog.Warn(msg, slog.String("error", err.Error()))
		return model.NewStoreUnavailableError()
	}
	return fmt.Errorf("%s: %w", msg, err)
}
