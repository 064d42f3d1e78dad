package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier проверка пароля на повторное открытие короба.
type Verifier interface {
	Verify(input string) bool
}

// Static общий пароль из конфига.
type Static struct{ secret []byte }

func NewStatic(secret string) *Static { return &Static{secret: []byte(secret)} }

func (s *Static) Verify(input string) bool {
	if len(s.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(s.secret, []byte(input)) == 1
}

// Bcrypt пароль хранится в конфиге только в виде bcrypt-хэша.
type Bcrypt struct{ hash []byte }

func NewBcrypt(hash string) (*Bcrypt, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return &Bcrypt{hash: []byte(hash)}, nil
}

func (b *Bcrypt) Verify(input string) bool {
	return bcrypt.CompareHashAndPassword(b.hash, []byte(input)) == nil
}

// New выбирает реализацию по конфигу: хэш важнее открытого пароля.
func New(hash, secret string) (Verifier, error) {
	if hash != "" {
		return NewBcrypt(hash)
	}
	if secret == "" {
		return nil, fmt.Errorf("reopen credential is not configured")
	}
	return NewStatic(secret), nil
}
