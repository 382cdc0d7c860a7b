// Package core holds the protocol-agnostic business logic shared by the
// HTTP, websocket and gRPC front ends.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/repository"
	"inkwell/pkg/models"
)

// AuthService defines authentication and profile operations
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetProfile(ctx context.Context, username string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.UserProfile, error)
	UpdateUserRole(ctx context.Context, userID string, newRole string) error
}

type authService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	jwtIssuer string
	jwtExpiry time.Duration
	now       func() time.Time
}

// JWT claims structure
type jwtClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo repository.UserRepository, jwtSecret, jwtIssuer string, jwtExpiry time.Duration) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		jwtIssuer: jwtIssuer,
		jwtExpiry: jwtExpiry,
		now:       time.Now,
	}
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := models.ValidateRegisterRequest(&req); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidInput, err.Error())
	}

	exists, err := s.userRepo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, models.ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.UserRoleUser,
		DisplayName:  req.DisplayName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Clear password hash before returning
	user.PasswordHash = ""
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		Token:     token,
		User:      user.Profile(),
		ExpiresIn: int(s.jwtExpiry.Seconds()),
	}, nil
}

// ValidateToken verifies a JWT token and returns the user
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims := &jwtClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, models.ErrInvalidToken
	}
	if s.jwtIssuer != "" && !claims.VerifyIssuer(s.jwtIssuer, true) {
		return nil, models.ErrInvalidToken
	}

	// the role may have changed since the token was issued
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, models.ErrInvalidToken
	}
	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *authService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

// GetProfile returns the public profile of a user
func (s *authService) GetProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", username, err)
	}
	profile := user.Profile()
	return &profile, nil
}

// UpdateProfile changes display fields of the caller's own profile
func (s *authService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.UserProfile, error) {
	if req.DisplayName != nil && (len(*req.DisplayName) == 0 || len(*req.DisplayName) > 100) {
		return nil, fmt.Errorf("%w: display name must be between 1 and 100 characters", models.ErrInvalidInput)
	}
	if req.Bio != nil && len(*req.Bio) > 2000 {
		return nil, fmt.Errorf("%w: bio must be at most 2000 characters", models.ErrInvalidInput)
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, &req)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	profile := user.Profile()
	return &profile, nil
}

// UpdateUserRole updates a user's role (admin only)
func (s *authService) UpdateUserRole(ctx context.Context, userID string, newRole string) error {
	if !models.IsValidRole(newRole) {
		return fmt.Errorf("%w: invalid role %q (must be user, author, moderator or admin)", models.ErrInvalidInput, newRole)
	}
	if err := s.userRepo.UpdateRole(ctx, userID, models.UserRole(newRole)); err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	return nil
}

// generateToken creates a new JWT token for a user
func (s *authService) generateToken(user *models.User) (string, error) {
	now := s.now()
	claims := &jwtClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.jwtIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
