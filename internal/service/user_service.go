package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"panjar/internal/model"
	"panjar/internal/repository"
	"panjar/internal/workflow"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Claims is the JWT payload shared by the login service and the auth middleware.
type Claims struct {
	Type   string   `json:"typ"`
	Roles  []string `json:"roles"`
	UnitID string   `json:"unit_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the actor passed to services.
func (c *Claims) Actor() (Actor, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Actor{}, fmt.Errorf("invalid subject in token: %w", err)
	}
	var unitID *uuid.UUID
	if c.UnitID != "" {
		id, err := uuid.Parse(c.UnitID)
		if err != nil {
			return Actor{}, fmt.Errorf("invalid unit in token: %w", err)
		}
		unitID = &id
	}
	return NewActor(userID, unitID, c.Roles...), nil
}

// ParseToken verifies an HS256 token and checks its type.
func ParseToken(tokenString string, secret []byte, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Type != tokenType {
		return nil, fmt.Errorf("expected %s token, got %q", tokenType, claims.Type)
	}
	return claims, nil
}

type CreateUserRequest struct {
	Name     string   `json:"name" binding:"required"`
	Username string   `json:"username" binding:"required,max=255"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=6"`
	UnitID   string   `json:"unit_id" binding:"omitempty,uuid"`
	Roles    []string `json:"roles" binding:"required,min=1,dive,required"`
}

type LoginUserRequest struct {
	// Username or email
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	UnitID    *string   `json:"unit_id"`
	UnitName  string    `json:"unit_name,omitempty"`
	Roles     []string  `json:"roles"`
	Reviewer  string    `json:"reviewer_role"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	EnsureAdmin(ctx context.Context, username, email, password string) (bool, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
}

type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type userService struct {
	repo     repository.UserRepository
	roleRepo repository.RoleRepository
	tokens   TokenConfig
	now      func() time.Time
}

func NewUserService(repo repository.UserRepository, roleRepo repository.RoleRepository, tokens TokenConfig) UserService {
	if tokens.AccessTTL <= 0 {
		tokens.AccessTTL = 24 * time.Hour
	}
	if tokens.RefreshTTL <= 0 {
		tokens.RefreshTTL = 7 * 24 * time.Hour
	}
	return &userService{repo: repo, roleRepo: roleRepo, tokens: tokens, now: time.Now}
}

func mapToResponse(user *model.User) *UserResponse {
	roles := user.RoleNames()
	resp := &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		Email:     user.Email,
		Roles:     roles,
		Reviewer:  workflow.ReviewerRole(workflow.NewRoleSet(roles...)),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if user.UnitID != nil {
		s := user.UnitID.String()
		resp.UnitID = &s
	}
	if user.Unit != nil {
		resp.UnitName = user.Unit.Name
	}
	return resp
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if err := validateDTO(req); err != nil {
		return nil, err
	}

	// Double check username/email uniqueness via repo directly
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, invalidf("username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, invalidf("email already exists")
	}

	roles, err := resolveRoles(ctx, s.roleRepo, req.Roles)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Roles:    roles,
	}
	if req.UnitID != "" {
		unitID, err := parseID(req.UnitID, "unit_id")
		if err != nil {
			return nil, err
		}
		user.UnitID = &unitID
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetUserByID(ctx, user.ID)
}

// EnsureAdmin creates the first admin account on an empty users table.
// It reports whether an account was created.
func (s *userService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	_, err = s.CreateUser(ctx, CreateUserRequest{
		Name:     "Administrator",
		Username: username,
		Email:    email,
		Password: password,
		Roles:    []string{workflow.RoleNameAdmin},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	if err := validateDTO(req); err != nil {
		return nil, err
	}

	var user *model.User
	var err error
	if strings.Contains(req.Login, "@") {
		user, err = s.repo.GetByEmail(ctx, req.Login)
	} else {
		user, err = s.repo.GetByUsername(ctx, req.Login)
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *userService) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	claims, err := ParseToken(req.RefreshToken, s.tokens.Secret, TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	// reload so role changes take effect on refresh
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	return s.issue(user)
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	return mapToResponse(user), nil
}

func (s *userService) issue(user *model.User) (*TokenResponse, error) {
	now := s.now()
	expires := now.Add(s.tokens.AccessTTL)

	access, err := s.sign(user, TokenTypeAccess, now, expires)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, TokenTypeRefresh, now, now.Add(s.tokens.RefreshTTL))
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		Token:        access,
		RefreshToken: refresh,
		ExpiresAt:    expires.Format(time.RFC3339),
	}, nil
}

func (s *userService) sign(user *model.User, tokenType string, issuedAt, expires time.Time) (string, error) {
	claims := Claims{
		Type:  tokenType,
		Roles: user.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	if user.UnitID != nil {
		claims.UnitID = user.UnitID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.tokens.Secret)
	if err != nil {
		return "", errors.New("failed to generate token")
	}
	return signed, nil
}
