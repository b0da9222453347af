package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidTCKN        = errors.New("tckn must be 11 digits")
	ErrInvalidUsername    = errors.New("username is required")
)

// Service manages identity lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterCustomer onboards a customer and stores a hashed password.
func (s *Service) RegisterCustomer(ctx context.Context, in CustomerInput) (User, error) {
	if !validTCKN(in.TCKN) {
		return User{}, ErrInvalidTCKN
	}
	user := User{
		Username:  strings.TrimSpace(in.Username),
		Role:      RoleCustomer,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		TCKN:      in.TCKN,
	}
	return s.create(ctx, user, in.Password)
}

// RegisterEmployee creates a back-office user allowed to decide transactions.
func (s *Service) RegisterEmployee(ctx context.Context, creds Credentials) (User, error) {
	return s.create(ctx, User{Username: strings.TrimSpace(creds.Username), Role: RoleEmployee}, creds.Password)
}

// EnsureEmployee registers the employee unless the username is already taken.
func (s *Service) EnsureEmployee(ctx context.Context, creds Credentials) (User, error) {
	if existing, err := s.repo.FindByUsername(ctx, creds.Username); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}
	return s.RegisterEmployee(ctx, creds)
}

func (s *Service) create(ctx context.Context, user User, password string) (User, error) {
	if user.Username == "" {
		return User{}, ErrInvalidUsername
	}
	if len(password) < 8 {
		return User{}, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user.PasswordHash = hash
	user.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies a username and password.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// FindByID loads any user.
func (s *Service) FindByID(ctx context.Context, id int64) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// FindCustomer loads a user that holds the customer role.
func (s *Service) FindCustomer(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if user.Role != RoleCustomer {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func validTCKN(v string) bool {
	if len(v) != 11 || v[0] == '0' {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
