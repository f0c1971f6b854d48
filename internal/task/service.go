// Package task はタスク管理のドメインロジックを提供する。
// すべての単一タスク操作は認証済みユーザーの所有物に対してのみ成立し、
// 「存在しないタスク」と「他ユーザーのタスク」は区別できない
// TASK_NOT_FOUNDとして扱われる。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
)

// maxTitleLength はタスクタイトルの最大長。
const maxTitleLength = 500

// TextSanitizer はユーザー入力テキストのサニタイズインターフェース。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// ServiceConfig はタスクサービスの設定。
type ServiceConfig struct {
	StoreTimeout time.Duration // ストア呼び出しのタイムアウト
}

// Service はタスクCRUDのサービス層。
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer TextSanitizer
	config    ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(taskRepo repository.TaskRepository, sanitizer TextSanitizer, config ServiceConfig) *Service {
	return &Service{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
		config:    config,
	}
}

// CreateInput はタスク作成の入力。
type CreateInput struct {
	Title       string
	Description string
}

// UpdateInput はタスク更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Create は認証済みユーザーのタスクを作成する。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Task, error) {
	title := s.clean(input.Title)
	if title == "" {
		return nil, model.NewInvalidInputError("タイトルは必須です")
	}
	if len(title) > maxTitleLength {
		return nil, model.NewInvalidInputError(
			fmt.Sprintf("タイトルは%d文字以内で入力してください", maxTitleLength))
	}

	now := time.Now()
	task := &model.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: s.clean(input.Description),
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.taskRepo.Create(storeCtx, task); err != nil {
		return nil, s.classifyStoreError(err, "failed to create task")
	}

	return task, nil
}

// List は認証済みユーザーの全タスクを返す。
// 他ユーザーのタスクが混入することはない（ストア層でuser_idフィルタ済み）。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Task, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	tasks, err := s.taskRepo.ListByUserID(storeCtx, userID)
	if err != nil {
		return nil, s.classifyStoreError(err, "failed to list tasks")
	}
	return tasks, nil
}

// Get は指定タスクを返す。所有者でない場合はTASK_NOT_FOUND。
func (s *Service) Get(ctx context.Context, userID, taskID string) (*model.Task, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	task, err := s.taskRepo.FindByIDAndUserID(storeCtx, taskID, userID)
	if err != nil {
		return nil, s.classifyStoreError(err, "failed to find task")
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return task, nil
}

// Update は指定タスクを部分更新する。所有者でない場合はTASK_NOT_FOUND。
// 現在値の取得と更新のどちらもIDと所有者IDでフィルタされたクエリで行う。
func (s *Service) Update(ctx context.Context, userID, taskID string, input UpdateInput) (*model.Task, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	current, err := s.taskRepo.FindByIDAndUserID(storeCtx, taskID, userID)
	if err != nil {
		return nil, s.classifyStoreError(err, "failed to find task")
	}
	if current == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}

	if input.Title != nil {
		title := s.clean(*input.Title)
		if title == "" {
			return nil, model.NewInvalidInputError("タイトルは必須です")
		}
		if len(title) > maxTitleLength {
			return nil, model.NewInvalidInputError(
				fmt.Sprintf("タイトルは%d文字以内で入力してください", maxTitleLength))
		}
		current.Title = title
	}
	if input.Description != nil {
		current.Description = s.clean(*input.Description)
	}
	if input.Completed != nil {
		current.Completed = *input.Completed
	}

	updated, err := s.taskRepo.Update(storeCtx, current)
	if err != nil {
		return nil, s.classifyStoreError(err, "failed to update task")
	}
	if updated == nil {
		// 取得後・更新前に削除された場合もNOT_FOUNDに合流する
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return updated, nil
}

// ToggleComplete は指定タスクの完了状態を反転する。所有者でない場合はTASK_NOT_FOUND。
func (s *Service) ToggleComplete(ctx context.Context, userID, taskID string) (*model.Task, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	task, err := s.taskRepo.ToggleCompleted(storeCtx, taskID, userID)
	if err != nil {
		return nil, s.classifyStoreError(err, "failed to toggle task")
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return task, nil
}

// Delete は指定タスクを削除し、削除したタスクを返す。所有者でない場合はTASK_NOT_FOUND。
func (s *Service) Delete(ctx context.Context, userID, taskID string) (*model.Task, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	task, err := s.taskRepo.Delete(storeCtx, taskID, userID)
	if err != nil {
		return nil, s.classifyStoreError(err, "failed to delete task")
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return task, nil
}

// clean はユーザー入力テキストをサニタイズしてトリムする。
func (s *Service) clean(raw string) string {
	if s.sanitizer != nil {
		raw = s.sanitizer.Sanitize(raw)
	}
	return strings.TrimSpace(raw)
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
