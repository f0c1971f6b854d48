// Package auth はメール/パスワード認証とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
)

// tokenRetryLimit はトークン衝突時の再生成回数の上限。
// 256ビットのランダム値で衝突が連続することは事実上ないため、
// 上限到達はRNGの故障を意味する。
const tokenRetryLimit = 3

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	// Hash は平文のソルト付きハッシュを生成する。
	Hash(plaintext string) (string, error)
	// Verify は平文と保存済みハッシュの一致を検証する。エラー時は不一致として扱う。
	Verify(plaintext, hash string) bool
}

// Metrics は認証イベントのメトリクス記録インターフェース。
// nilの場合は記録しない。
type Metrics interface {
	RecordSignUp()
	RecordSignInSuccess()
	RecordSignInFailure()
	RecordSessionRevoked()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge     int           // セッション有効期間（秒）
	PasswordMinLength int           // パスワード最小長
	StoreTimeout      time.Duration // ストア呼び出しのタイムアウト
}

// Service はメール/パスワード認証とセッションのライフサイクルを管理する。
// セッションレコードの書き込みはこのサービスのみが行う。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      PasswordHasher
	metrics     Metrics
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher PasswordHasher,
	metrics Metrics,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		metrics:     metrics,
		config:      config,
	}
}

// SignUp は新規ユーザーを登録する。
// メールアドレスが登録済みの場合はEMAIL_TAKENを返す。
// 平文パスワードとハッシュは戻り値にもログにも含めない。
func (s *Service) SignUp(ctx context.Context, email, passwd, name string) (*model.User, error) {
	if email == "" {
		return nil, model.NewInvalidInputError("メールアドレスは必須です")
	}
	if len(passwd) < s.config.PasswordMinLength {
		return nil, model.NewInvalidInputError(
			fmt.Sprintf("パスワードは%d文字以上が必要です", s.config.PasswordMinLength))
	}

	hash, err := s.hasher.Hash(passwd)
	if err != nil {
		return nil, model.NewInvalidInputError("パスワードが長すぎます")
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &hash,
		Name:         name,
		// EmailVerifiedは確認完了までnil（確認フローはスコープ外）
		CreatedAt: now,
		UpdatedAt: now,
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.userRepo.Create(storeCtx, user); err != nil {
		if repository.IsUniqueViolation(err, "users_email_key") {
			return nil, model.NewEmailTakenError()
		}
		return nil, s.classifyStoreError(err, "failed to create user")
	}

	if s.metrics != nil {
		s.metrics.RecordSignUp()
	}
	slog.Info("new user signed up",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// SignIn はメール/パスワードでユーザーを認証し、新しいセッションを発行する。
// 「ユーザー不在」「パスワード資格情報なし」「パスワード不一致」は
// 外部にはすべて同一のUNAUTHENTICATEDとして返し、原因を区別させない。
func (s *Service) SignIn(ctx context.Context, email, passwd string) (*model.User, *model.Session, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.userRepo.FindByEmail(storeCtx, email)
	if err != nil {
		return nil, nil, s.classifyStoreError(err, "failed to find user by email")
	}
	if user == nil || !user.CanAuthenticate() || !s.hasher.Verify(passwd, *user.PasswordHash) {
		if s.metrics != nil {
			s.metrics.RecordSignInFailure()
		}
		return nil, nil, model.NewUnauthenticatedError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordSignInSuccess()
	}
	slog.Info("user signed in",
		slog.String("user_id", user.ID),
	)

	return user, session, nil
}

// Validate はセッショントークンを検証し、所有ユーザーとセッションを返す。
// トークンに一致する行がなければUNAUTHENTICATED。
// 期限切れの場合はベストエフォートで行を削除した上でSESSION_EXPIREDを返す
// （削除の失敗は呼び出し元への失敗通知を妨げず、ログに残すのみ）。
func (s *Service) Validate(ctx context.Context, token string) (*model.User, *model.Session, error) {
	if token == "" {
		return nil, nil, model.NewUnauthenticatedError()
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	session, err := s.sessionRepo.FindByToken(storeCtx, token)
	if err != nil {
		return nil, nil, s.classifyStoreError(err, "failed to find session")
	}
	if session == nil {
		return nil, nil, model.NewUnauthenticatedError()
	}

	if session.IsExpired(time.Now()) {
		// 遅延削除。失敗しても期限切れの通知を優先する。
		if delErr := s.sessionRepo.DeleteByToken(storeCtx, token); delErr != nil {
			slog.Warn("failed to delete expired session",
				slog.String("user_id", session.UserID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, nil, model.NewSessionExpiredError()
	}

	user, err := s.userRepo.FindByID(storeCtx, session.UserID)
	if err != nil {
		return nil, nil, s.classifyStoreError(err, "failed to find session user")
	}
	if user == nil {
		// セッションだけが残りユーザーが消えている状態。認証失敗として扱う。
		return nil, nil, model.NewUnauthenticatedError()
	}

	return user, session, nil
}

// SignOut はセッションを破棄する。
// 存在しないトークンの破棄はエラーにならない（冪等）。
func (s *Service) SignOut(ctx context.Context, token string) error {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.sessionRepo.DeleteByToken(storeCtx, token); err != nil {
		return s.classifyStoreError(err, "failed to delete session")
	}

	if s.metrics != nil {
		s.metrics.RecordSessionRevoked()
	}
	slog.Info("user signed out")
	return nil
}

// SweepExpired は期限切れの全セッションを削除し、削除件数を返す。
// リクエスト処理とは独立した周期ジョブから呼ばれる想定で、
// ライブなサインイン/検証トラフィックと並行実行しても安全。
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	count, err := s.sessionRepo.DeleteExpired(storeCtx, time.Now())
	if err != nil {
		return 0, s.classifyStoreError(err, "failed to sweep expired sessions")
	}
	return count, nil
}

// EmailExists は指定メールアドレスのユーザーが登録済みかを返す。
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	exists, err := s.userRepo.ExistsByEmail(storeCtx, email)
	if err != nil {
		return false, s.classifyStoreError(err, "failed to check email")
	}
	return exists, nil
}

// createSession はセッションを作成し永続化する。
// トークン衝突（主キー制約違反）の場合は再生成してリトライする。
// 既存セッションの上書きは決して行わない。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	for attempt := 0; attempt < tokenRetryLimit; attempt++ {
		token, err := generateSessionToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session token: %w", err)
		}

		session := &model.Session{
			Token:     token,
			UserID:    userID,
			ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
			CreatedAt: time.Now(),
		}

		err = s.sessionRepo.Create(storeCtx, session)
		if err == nil {
			return session, nil
		}
		if repository.IsUniqueViolation(err, "sessions_pkey") {
			slog.Warn("session token collision, regenerating",
				slog.String("user_id", userID),
			)
			continue
		}
		return nil, s.classifyStoreError(err, "failed to save session")
	}

	return nil, fmt.Errorf("failed to create session: token collision persisted after %d attempts", tokenRetryLimit)
}

// storeContext はストア呼び出し用の有界タイムアウト付きコンテキストを返す。
func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.StoreTimeout)
}

// classifyStoreError はストアエラーを分類する。
// タイムアウトや接続断はリトライ可能なSTORE_UNAVAILABLEとし、
// 認証エラーと混同させない。
func (s *Service) classifyStoreError(err error, msg string) error {
	if repository.IsTransient(err) {
		slog.Warn(msg, slog.String("error", err.Error()))
		return model.NewStoreUnavailableError()
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// generateSessionToken は暗号的に安全なセッショントークンを生成する。
// crypto/randの32バイト（256ビット）を16進エンコードした64文字の文字列。
func generateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
