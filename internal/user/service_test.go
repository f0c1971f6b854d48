package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.User, error)
	updateProfileFn func(ctx context.Context, id, name, image string) (*model.User, error)
	deleteByIDFn    func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Create(_ context.Context, _ *model.User) error {
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) ExistsByEmail(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id, name, image string) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, name, image)
	}
	return nil, nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(_ context.Context, _ *model.Session) error {
	return nil
}

func (m *mockSessionRepo) FindByToken(_ context.Context, _ string) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) DeleteByToken(_ context.Context, _ string) error {
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type mockTaskDeleter struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockTaskDeleter) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

// --- compile-time interface checks ---
var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.SessionRepository = (*mockSessionRepo)(nil)
var _ TaskDeleter = (*mockTaskDeleter)(nil)

func strPtr(s string) *string { return &s }

// --- Get ---

func TestGet_ReturnsProfile(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "test@example.com", Name: "Test"}, nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, &mockTaskDeleter{}, ServiceConfig{})

	got, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("user ID = %q, want %q", got.ID, "user-1")
	}
}

func TestGet_UnknownUser_ReturnsUserNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, &mockTaskDeleter{}, ServiceConfig{})

	_, err := svc.Get(context.Background(), "ghost")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("expected USER_NOT_FOUND, got %v", err)
	}
}

// --- UpdateProfile ---

func TestUpdateProfile_PartialPatch(t *testing.T) {
	var gotName, gotImage string
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Name: "旧名", Image: "old.png"}, nil
		},
		updateProfileFn: func(ctx context.Context, id, name, image string) (*model.User, error) {
			gotName, gotImage = name, image
			return &model.User{ID: id, Name: name, Image: image}, nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, &mockTaskDeleter{}, ServiceConfig{})

	updated, err := svc.UpdateProfile(context.Background(), "user-1",
		UpdateProfileInput{Name: strPtr("新名")})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if gotName != "新名" {
		t.Errorf("name = %q, want %q", gotName, "新名")
	}
	// 省略されたimageは現在値が保持される
	if gotImage != "old.png" {
		t.Errorf("image = %q, want %q", gotImage, "old.png")
	}
	if updated.Name != "新名" {
		t.Errorf("updated name = %q, want %q", updated.Name, "新名")
	}
}

func TestUpdateProfile_EmptyName_ReturnsInvalidInput(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Name: "旧名"}, nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, &mockTaskDeleter{}, ServiceConfig{})

	_, err := svc.UpdateProfile(context.Background(), "user-1",
		UpdateProfileInput{Name: strPtr("  ")})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

// --- Withdraw ---

func TestWithdraw_DeletesTasksSessionsUserInOrder(t *testing.T) {
	var order []string

	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			order = append(order, "user")
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			order = append(order, "sessions")
			return nil
		},
	}
	taskDeleter := &mockTaskDeleter{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			order = append(order, "tasks")
			return nil
		},
	}

	svc := NewService(userRepo, sessionRepo, taskDeleter, ServiceConfig{})

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}

	want := []string{"tasks", "sessions", "user"}
	if len(order) != len(want) {
		t.Fatalf("deletion steps = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestWithdraw_UnknownUser_ReturnsUserNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, &mockTaskDeleter{}, ServiceConfig{})

	err := svc.Withdraw(context.Background(), "ghost")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("expected USER_NOT_FOUND, got %v", err)
	}
}

func TestWithdraw_TaskDeletionFails_StopsBeforeUser(t *testing.T) {
	var userDeleted bool

	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			userDeleted = true
			return nil
		},
	}
	taskDeleter := &mockTaskDeleter{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			return errors.New("db error")
		},
	}

	svc := NewService(userRepo, &mockSessionRepo{}, taskDeleter, ServiceConfig{})

	if err := svc.Withdraw(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error when task deletion fails")
	}
	if userDeleted {
		t.Error("user must not be deleted when task deletion fails")
	}
}
