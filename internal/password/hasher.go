// Package password はパスワードのハッシュ化と照合を提供する。
// bcryptによるソルト付き一方向ハッシュを使用し、照合時の
// ダイジェスト比較はbcrypt自身の定数時間比較に委譲する。
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong は平文がbcryptの長さ上限（72バイト）を超えた場合に返される。
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Hasher はbcryptによるパスワードハッシュ化器。
// Costはワークファクタで、大きいほどブルートフォース耐性が上がる代わりに
// ハッシュ化が遅くなる。
type Hasher struct {
	cost int
}

// NewHasher は指定コストのHasherを生成する。
// costが範囲外（bcrypt.MinCost未満またはbcrypt.MaxCost超）の場合は
// bcrypt.DefaultCostを使用する。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash は平文パスワードのソルト付きハッシュを生成する。
// 同じ平文でも呼び出しごとに異なるハッシュが生成される（ソルトが毎回異なるため）。
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文と保存済みハッシュの一致を検証する。
// 不正な形式のハッシュを含むあらゆるエラーは不一致（false）として扱い、
// 認証済み状態に倒れることは決してない。
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
