package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/internal/utils"
	"github.com/MKhiriev/go-social-sync/internal/validators"
	"github.com/MKhiriev/go-social-sync/models"
)

// authService is the concrete implementation of AuthService.
// Passwords are stored as bcrypt hashes; tokens are HS256 JWTs whose
// subject is the user id.
type authService struct {
	accounts  store.AccountRepository
	validator validators.Validator

	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string
	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer does not match this value are rejected.
	tokenIssuer   string
	tokenDuration time.Duration

	bcryptCost int

	logger *logger.Logger
}

// NewAuthService constructs an AuthService over accounts with token
// parameters from cfg.
func NewAuthService(accounts store.AccountRepository, validator validators.Validator, cfg config.ServerConfig, logger *logger.Logger) AuthService {
	return &authService{
		accounts:      accounts,
		validator:     validator,
		tokenSignKey:  cfg.TokenSignKey,
		tokenIssuer:   cfg.TokenIssuer,
		tokenDuration: cfg.TokenDuration,
		bcryptCost:    bcrypt.DefaultCost,
		logger:        logger,
	}
}

// Register creates an account. E-mail and password are required; the
// e-mail and a non-empty alias must be unused.
func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	log := logger.FromContext(ctx)

	if err := a.validator.Validate(ctx, req); err != nil {
		log.Debug().Err(err).Str("func", "authService.Register").Msg("registration rejected")
		return models.User{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}
	req.Email = strings.TrimSpace(req.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.bcryptCost)
	if err != nil {
		log.Err(err).Str("func", "authService.Register").Msg("hashing password failed")
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := a.accounts.Create(ctx, models.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Alias:     req.Alias,
	}, hash)
	if err != nil {
		log.Err(err).Str("func", "authService.Register").Str("email", req.Email).Msg("user creation ended with error")
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	return user, nil
}

// Login checks the password of the account matching req.Login. An unknown
// login and a wrong password both return ErrWrongPassword.
func (a *authService) Login(ctx context.Context, req models.LoginRequest) (models.User, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(req.Login) == "" || req.Password == "" {
		return models.User{}, ErrInvalidDataProvided
	}

	user, hash, err := a.accounts.FindByLogin(ctx, req.Login)
	if errors.Is(err, store.ErrNotFound) {
		log.Debug().Str("func", "authService.Login").Str("login", req.Login).Msg("unknown login")
		return models.User{}, ErrWrongPassword
	}
	if err != nil {
		return models.User{}, fmt.Errorf("user search by login failed: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword(hash, []byte(req.Password)); err != nil {
		log.Debug().Str("func", "authService.Login").Str("user_id", user.ID).Msg("wrong password")
		return models.User{}, ErrWrongPassword
	}

	return user, nil
}

// CreateToken issues a signed JWT for user.
func (a *authService) CreateToken(ctx context.Context, user models.User) (models.Token, error) {
	token, err := utils.GenerateJWTToken(a.tokenIssuer, user.ID, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken validates tokenString. Any validation failure (expired, wrong
// issuer, malformed) is normalised to ErrTokenIsExpiredOrInvalid.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}

func (a *authService) Me(ctx context.Context, userID string) (models.User, error) {
	user, _, err := a.accounts.Get(ctx, userID)
	return user, err
}

func (a *authService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (models.User, error) {
	if err := a.validator.Validate(ctx, upd); err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	user, err := a.accounts.UpdateProfile(ctx, userID, upd)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "authService.UpdateProfile").Str("user_id", userID).Msg("profile update failed")
		return models.User{}, err
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (a *authService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if req.NewPassword == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrPasswordRequired)
	}

	_, hash, err := a.accounts.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err = bcrypt.CompareHashAndPassword(hash, []byte(req.OldPassword)); err != nil {
		return ErrOldPasswordMismatch
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), a.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return a.accounts.SetPasswordHash(ctx, userID, newHash)
}
