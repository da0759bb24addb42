package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/internal/tokens"
	"github.com/mfigueroa-dev/clubcore-backend/internal/users"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/security"
)

const invalidTokenMessage = "invalid or expired registration token"

// tokenRedeemer finishes account setup for a provisioned user. The token
// lookup, user update, and token deletion commit or roll back together.
type tokenRedeemer interface {
	Redeem(ctx context.Context, token, name, passwordHash string) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerTokenRepository interface {
	Find(ctx context.Context, token string) (*models.RegistrationToken, error)
	Delete(ctx context.Context, token string) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CompleteRegistration(ctx context.Context, id uuid.UUID, name, passwordHash string) error
}

// Registrar implements token redemption against the tokens and users tables.
type Registrar struct {
	db         txRunner
	tokenRepos func(tx *gorm.DB) registerTokenRepository
	userRepos  func(tx *gorm.DB) registerUserRepository
	now        func() time.Time
}

func defaultRegisterTokenRepo(tx *gorm.DB) registerTokenRepository {
	return tokens.NewRepository(tx)
}

func defaultRegisterUserRepo(tx *gorm.DB) registerUserRepository {
	return users.NewRepository(tx)
}

// RegistrarParams configures a Registrar. The repo factories bind repositories
// to the transaction the redemption runs in; leaving one nil uses the real
// repository.
type RegistrarParams struct {
	TxRunner         txRunner
	TokenRepoFactory func(tx *gorm.DB) registerTokenRepository
	UserRepoFactory  func(tx *gorm.DB) registerUserRepository
}

// NewRegistrar wires the redemption dependencies.
func NewRegistrar(params RegistrarParams) (*Registrar, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	tokenRepos := params.TokenRepoFactory
	if tokenRepos == nil {
		tokenRepos = defaultRegisterTokenRepo
	}
	userRepos := params.UserRepoFactory
	if userRepos == nil {
		userRepos = defaultRegisterUserRepo
	}
	return &Registrar{
		db:         params.TxRunner,
		tokenRepos: tokenRepos,
		userRepos:  userRepos,
		now:        time.Now,
	}, nil
}

// Redeem consumes a registration token: it sets the user's name and password
// hash and deletes the token so it cannot be replayed. Missing and expired
// tokens are indistinguishable to the caller.
func (r *Registrar) Redeem(ctx context.Context, token, name, passwordHash string) (*models.User, error) {
	var redeemed *models.User
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		tokenRepo := r.tokenRepos(tx)
		userRepo := r.userRepos(tx)

		row, err := tokenRepo.Find(ctx, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup registration token")
		}
		if r.now().UTC().After(row.ExpiresAt) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
		}

		user, err := userRepo.FindByEmail(ctx, row.Identifier)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// The provisioned account is gone but its token survived.
				return pkgerrors.New(pkgerrors.CodeInternal, "registration token has no matching account")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup provisioned user")
		}
		if user.IsRegistered() {
			return pkgerrors.New(pkgerrors.CodeConflict, "account is already registered")
		}

		if err := userRepo.CompleteRegistration(ctx, user.ID, name, passwordHash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete registration")
		}
		if err := tokenRepo.Delete(ctx, token); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume registration token")
		}

		user.Name = &name
		user.PasswordHash = &passwordHash
		redeemed = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redeemed, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := security.ValidatePolicy(req.Password, s.passwdCfg); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	hash, err := security.HashPassword(req.Password, s.passwdCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.redeemer.Redeem(ctx, strings.TrimSpace(req.Token), strings.TrimSpace(req.Name), hash)
	if err != nil {
		return nil, err
	}
	return &RegisterResponse{User: users.FromModel(user)}, nil
}
