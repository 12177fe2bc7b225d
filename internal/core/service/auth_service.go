package service

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lqhuy/marketplace/internal/core/domain"
	"github.com/lqhuy/marketplace/internal/port"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	hasDigit        = regexp.MustCompile(`[0-9]`)
)

type AuthService struct {
	users  port.UserStore
	tokens port.TokenIssuer
}

func NewAuthService(users port.UserStore, tokens port.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

type AuthResult struct {
	User         domain.UserView `json:"user"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
}

// Signup registers a new user and issues a token pair.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*AuthResult, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if existing != nil {
		return nil, invalidInput("username already exists")
	}

	existing, err = s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, invalidInput("email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueResult(&user)
}

// Login authenticates by username and password. Unknown users and wrong
// passwords fail identically so usernames cannot be probed.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueResult(user)
}

func (s *AuthService) issueResult(user *domain.User) (*AuthResult, error) {
	access, refresh, err := s.tokens.IssueTokens(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &AuthResult{
		User:         user.View(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 80 {
		return invalidInput("username must be between 3 and 80 characters")
	}
	if !usernamePattern.MatchString(username) {
		return invalidInput("username can only contain letters, numbers, and underscores")
	}
	return nil
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return invalidInput("invalid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return invalidInput("password must be at least 6 characters")
	}
	if !hasLetter.MatchString(password) || !hasDigit.MatchString(password) {
		return invalidInput("password must contain both letters and numbers")
	}
	return nil
}
