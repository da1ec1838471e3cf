package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/repositories"
	"pos_kiosk_backend/pkg/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")
)

// AuthResponse is the login payload: the authenticated user and a signed
// bearer token.
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// CreateUserRequest registers a staff account. Only admins reach this path.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// AuthService defines the interface for authentication and staff accounts.
type AuthService interface {
	Login(email, password string) (*AuthResponse, error)
	GetUserProfile(userID int64) (*models.User, error)
	ListUsers() ([]models.User, error)
	CreateUser(req *CreateUserRequest) (*models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

// Login verifies credentials and issues an access token. Lookup misses and
// password mismatches are indistinguishable to the caller.
func (s *authService) Login(email, password string) (*AuthResponse, error) {
	if !utils.IsValidEmail(email) || utils.IsEmpty(password) {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	utils.LogInfo("user " + user.Email + " logged in")
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *authService) GetUserProfile(userID int64) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return user, nil
}

func (s *authService) ListUsers() ([]models.User, error) {
	return s.userRepo.List()
}

func (s *authService) CreateUser(req *CreateUserRequest) (*models.User, error) {
	if !utils.IsValidEmail(req.Email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if !utils.IsValidPasswordLength(req.Password, 8) {
		return nil, fmt.Errorf("%w: password too short", ErrValidation)
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleCashier {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if _, err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrEmailExists, req.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
