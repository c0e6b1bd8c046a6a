package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"quizdeck/models"
	"quizdeck/pkg/apperr"
	"quizdeck/validation"
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	jwtExpiry time.Duration
	mail      *MailService
}

func NewAuthService(db *gorm.DB, jwtSecret string, jwtExpiry time.Duration, mail *MailService) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		jwtExpiry: jwtExpiry,
		mail:      mail,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128,password"`
}

// Normalize trims identity fields and case-folds the email. The password is
// deliberately left untouched: leading or trailing whitespace is part of it.
func (r *RegisterRequest) Normalize() {
	validation.TrimPtr(&r.Username)
	r.Email = validation.FoldEmail(r.Email)
}

func (r *RegisterRequest) Violations() []apperr.FieldViolation {
	return validation.Struct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = validation.FoldEmail(r.Email)
}

func (r *LoginRequest) Violations() []apperr.FieldViolation {
	return validation.Struct(r)
}

type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=30,username"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

func (r *UpdateProfileRequest) Normalize() {
	validation.TrimPtr(r.Username)
	if r.Email != nil {
		*r.Email = validation.FoldEmail(*r.Email)
	}
}

func (r *UpdateProfileRequest) Violations() []apperr.FieldViolation {
	if r.Username == nil && r.Email == nil {
		return []apperr.FieldViolation{{Field: "body", Message: "at least one field must be provided"}}
	}
	return validation.Struct(r)
}

// AuthResponse pairs an identity with a freshly issued token.
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	// Advisory pre-check for a friendlier message. The unique indexes on
	// username and email remain the real guard; a racing insert still gets
	// caught by the duplicate translation below.
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to check username", errors.Wrap(err, "authService.Register.checkUsername"))
	}
	if count > 0 {
		return nil, apperr.AlreadyExists("username is already taken")
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to check email", errors.Wrap(err, "authService.Register.checkEmail"))
	}
	if count > 0 {
		return nil, apperr.AlreadyExists("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to hash password", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
		Role:     models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.AlreadyExists("username or email is already registered")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to create user", errors.Wrap(err, "authService.Register.insertUser"))
	}

	s.mail.SendWelcome(user.Email, user.Username)

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to issue token", err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to look up user", errors.Wrap(err, "authService.Login.findByEmail"))
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to issue token", err)
	}
	return &AuthResponse{User: &user, Token: token}, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load profile", errors.Wrap(err, "authService.GetProfile.findByID"))
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*models.User, error) {
	updates := map[string]any{}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.AlreadyExists("username or email is already registered")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to update profile", errors.Wrap(err, "authService.UpdateProfile.updates"))
	}

	return s.GetProfile(ctx, userID)
}

func (s *AuthService) issueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": now.Add(s.jwtExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
