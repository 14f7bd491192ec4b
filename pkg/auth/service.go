package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/pydist/pydist/pkg/db"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = fmt.Errorf("user: %w", db.ErrNotFound)
	ErrUserAlreadyExists  = fmt.Errorf("user: %w", db.ErrAlreadyExists)
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	CreateUser(ctx context.Context, username, email, password string) (*User, error)
	GetUser(ctx context.Context, username string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
}

type DBAuthService struct {
	db db.Database
}

func NewDBAuthService(db db.Database) *DBAuthService {
	return &DBAuthService{db: db}
}

func (s *DBAuthService) CreateUser(ctx context.Context, username, email, password string) (*User, error) {
	encrypted, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := s.db.Transact(ctx, func(tx db.Tx) (interface{}, error) {
		user := &User{}
		err := tx.Get(user,
			`INSERT INTO users (username, email, encrypted_password)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at, username, email, encrypted_password`,
			username, email, encrypted)
		if errors.Is(err, db.ErrAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return user, err
	})
	if err != nil {
		return nil, err
	}
	return user.(*User), nil
}

func (s *DBAuthService) GetUser(ctx context.Context, username string) (*User, error) {
	user := &User{}
	err := s.db.Get(ctx, user,
		`SELECT id, created_at, username, email, encrypted_password
		 FROM users WHERE username = $1`, username)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *DBAuthService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	err = bcrypt.CompareHashAndPassword(user.EncryptedPassword, []byte(password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUserTx resolves a user inside an open transaction.
func GetUserTx(tx db.Tx, username string) (*User, error) {
	user := &User{}
	err := tx.Get(user,
		`SELECT id, created_at, username, email, encrypted_password
		 FROM users WHERE username = $1`, username)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
