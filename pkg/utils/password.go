package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost 与历史数据保持一致（saltRounds = 10）
const DefaultHashCost = 10

// maxKeyBytes bcrypt 只使用前 72 字节
const maxKeyBytes = 72

// HashingError 哈希原语本身失败（如随机数源不可用）
type HashingError struct{ Err error }

func (e *HashingError) Error() string { return fmt.Sprintf("hash password: %v", e.Err) }
func (e *HashingError) Unwrap() error { return e.Err }

// PasswordHasher 加盐单向哈希，Cost 固定
type PasswordHasher struct {
	Cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	return &PasswordHasher{Cost: cost}
}

// Hash 超过 72 字节的口令按前 72 字节哈希，与历史数据一致
func (h *PasswordHasher) Hash(pw string) (string, error) {
	key := []byte(pw)
	if len(key) > maxKeyBytes {
		key = key[:maxKeyBytes]
	}
	b, err := bcrypt.GenerateFromPassword(key, h.Cost)
	if err != nil {
		return "", &HashingError{Err: err}
	}
	return string(b), nil
}

func (h *PasswordHasher) Compare(pw, hashed string) bool {
	return CheckPassword(pw, hashed)
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
