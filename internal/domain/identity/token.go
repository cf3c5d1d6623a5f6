package identity

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// AuthToken is the long-lived API token issued by the auth-token endpoint.
// Each user owns at most one token.
type AuthToken struct {
	Key     string    `gorm:"primaryKey;size:40" json:"key"`
	UserID  uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Created time.Time `gorm:"not null" json:"created"`
}

// NewAuthToken creates a token with a fresh random key
func NewAuthToken(userID uint) (*AuthToken, error) {
	key, err := GenerateTokenKey()
	if err != nil {
		return nil, err
	}
	return &AuthToken{Key: key, UserID: userID, Created: time.Now()}, nil
}

// GenerateTokenKey returns 40 lowercase hex characters
func GenerateTokenKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
