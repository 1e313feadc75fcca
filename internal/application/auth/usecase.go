// Package auth implementa registro y login de usuarios de la API.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/entity"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain/repository"
	"github.com/jorgeomarnegrete/fact-arca/pkg/jwt"
)

// UseCase casos de uso de autenticación.
type UseCase struct {
	userRepo  repository.UserRepository
	jwtSecret string
	jwtIssuer string
	jwtExpMin int
}

// NewUseCase construye el caso de uso.
func NewUseCase(userRepo repository.UserRepository, jwtSecret, jwtIssuer string, jwtExpMin int) *UseCase {
	return &UseCase{userRepo: userRepo, jwtSecret: jwtSecret, jwtIssuer: jwtIssuer, jwtExpMin: jwtExpMin}
}

// Register da de alta un usuario con la contraseña hasheada con bcrypt.
func (uc *UseCase) Register(in dto.RegisterUserRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || len(in.Password) < 8 {
		return nil, domain.ErrInvalidInput
	}

	if _, err := uc.userRepo.GetByEmail(email); err == nil {
		return nil, domain.ErrEmailAlreadyExists
	} else if !errors.Is(err, domain.ErrUserNotFound) && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(user); err != nil {
		return nil, err
	}
	return &dto.UserResponse{ID: user.ID, Email: user.Email, FullName: user.FullName}, nil
}

// Login valida credenciales y emite un token de sesión.
// Devuelve siempre domain.ErrUnauthorized ante credenciales incorrectas, sin
// distinguir si el email existe.
func (uc *UseCase) Login(in dto.LoginRequest) (*dto.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := uc.userRepo.GetByEmail(email)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, domain.ErrUnauthorized
	}

	token, err := jwt.Generate(uc.jwtSecret, user.ID, uc.jwtIssuer, uc.jwtExpMin)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{Token: token}, nil
}
