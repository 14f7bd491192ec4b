package auth

import (
	"time"
)

type User struct {
	ID                int       `db:"id"`
	CreatedAt         time.Time `db:"created_at"`
	Username          string    `db:"username"`
	Email             string    `db:"email"`
	EncryptedPassword []byte    `db:"encrypted_password" json:"-"`
}
