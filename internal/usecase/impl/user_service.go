// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	deliverycontext "healthtrack/internal/delivery/context"
	"healthtrack/internal/domain/entity"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/domain/repository"
	"healthtrack/internal/domain/service"
	"healthtrack/internal/errors"
	"healthtrack/internal/usecase"
	"healthtrack/internal/validation"

	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
)

const (
	// tokenTypeBearer is the OAuth 2.0 token type of issued access tokens.
	tokenTypeBearer = "Bearer"
	// dummyPassword is hashed to give unknown-email lookups a real comparison to run.
	dummyPassword = "healthtrack-timing-equalizer"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	validate     *validator.Validate
	logger       *slog.Logger
	now          func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Validate     *validator.Validate
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	validate := params.Validate
	if validate == nil {
		validate = validation.New()
	}

	return &userService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		validate:     validate,
		logger:       params.Logger,
		now:          time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register validates the input, hashes the password and stores the account.
// The unique index on email settles concurrent registrations of one address.
func (srv *userService) Register(ctx context.Context, input *usecase.RegisterUserInput) (*entity.User, error) {
	if input == nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("request body is required")
	}
	normalized := *input
	normalized.Email = entity.NormalizeEmail(input.Email)
	if err := validation.Struct(srv.validate, &normalized); err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Starting registration", slog.String("email", normalized.Email))

	hash, err := srv.hasher.Hash(ctx, normalized.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := buildNewUser(&normalized, hash)
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.UserRepo().Create(ctx, user)
	})
	if errors.Is(err, domainerrors.ErrConflict) {
		// The unique index can reject a concurrent registration at commit.
		err = domainerrors.ErrUserAlreadyExists.WrapMessage(err.Error())
	}
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
			srv.log(ctx).Info("Registration rejected, email in use", slog.String("email", normalized.Email))

			return nil, err
		}
		srv.log(ctx).Error("Failed to register user", slog.String("email", normalized.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to register user")
	}

	srv.log(ctx).Info("User registered", slog.Any("user", user))

	return user, nil
}

func buildNewUser(input *usecase.RegisterUserInput, hash string) *entity.User {
	user := &entity.User{
		Email:          input.Email,
		PasswordHash:   hash,
		FullName:       input.FullName,
		DateOfBirth:    input.DateOfBirth,
		Gender:         input.Gender,
		Height:         input.Height,
		Weight:         input.Weight,
		ActivityLevel:  entity.DefaultActivityLevel,
		Goal:           entity.DefaultGoal,
		TargetWeight:   input.TargetWeight,
		TargetCalories: input.TargetCalories,
		Avatar:         input.Avatar,
		Role:           entity.RoleUser,
		IsActive:       true,
	}
	if input.ActivityLevel != nil {
		user.ActivityLevel = *input.ActivityLevel
	}
	if input.Goal != nil {
		user.Goal = *input.Goal
	}

	return user
}

// GetByID loads one active account.
func (srv *userService) GetByID(ctx context.Context, id uint64) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	if !user.IsActive {
		return nil, domainerrors.ErrUserInactive
	}

	return user, nil
}

// findActive loads id inside a transaction and rejects deactivated accounts.
func findActive(ctx context.Context, userRepo repository.UserRepository, id uint64) (*entity.User, error) {
	user, err := userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domainerrors.ErrUserInactive
	}

	return user, nil
}

// UpdateProfile applies only the dirty fields of patch in a single UPDATE.
// A new password is validated and hashed before the transaction starts.
func (srv *userService) UpdateProfile(ctx context.Context, id uint64, patch *usecase.UserPatch) (*entity.User, error) {
	if patch == nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("request body is required")
	}
	normalized := *patch
	if patch.Email != nil {
		email := entity.NormalizeEmail(*patch.Email)
		normalized.Email = &email
	}
	if err := validation.Struct(srv.validate, &normalized); err != nil {
		return nil, err
	}

	fields := dirtyUserFields(&normalized)
	if normalized.Password != nil {
		hash, err := srv.hasher.Hash(ctx, *normalized.Password)
		if err != nil {
			return nil, errors.Wrap(err, "failed to hash password")
		}
		fields[repository.UserColumnPassword] = hash
	}

	var updated *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		user, err := findActive(ctx, userRepo, id)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			updated = user

			return nil
		}

		if err := userRepo.UpdateFields(ctx, id, fields); err != nil {
			return err
		}
		user, err = userRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		updated = user

		return nil
	})
	if errors.Is(err, domainerrors.ErrConflict) {
		err = domainerrors.ErrUserAlreadyExists.WrapMessage(err.Error())
	}
	if err != nil {
		if !errors.Is(err, domainerrors.ErrUserNotFound) && !errors.Is(err, domainerrors.ErrUserAlreadyExists) &&
			!errors.Is(err, domainerrors.ErrUserInactive) {
			srv.log(ctx).Error("Failed to update profile", slog.Uint64("userID", id), slog.Any("error", err))
		}

		return nil, errors.Wrap(err, "failed to update profile")
	}

	srv.log(ctx).Info("Profile updated",
		slog.Uint64("userID", id),
		slog.Int("fields", len(fields)),
		slog.Bool("passwordChanged", normalized.Password != nil),
	)

	return updated, nil
}

// dirtyUserFields maps the fields present in patch to their columns. The
// password column is added by the caller once the new password is hashed.
func dirtyUserFields(patch *usecase.UserPatch) repository.UserFields {
	fields := repository.UserFields{}
	if patch.Email != nil {
		fields[repository.UserColumnEmail] = *patch.Email
	}
	if patch.FullName != nil {
		fields[repository.UserColumnFullName] = *patch.FullName
	}
	if patch.DateOfBirth.Set {
		fields[repository.UserColumnDateOfBirth] = patch.DateOfBirth.Ptr()
	}
	if patch.Gender.Set {
		fields[repository.UserColumnGender] = patch.Gender.Ptr()
	}
	if patch.Height.Set {
		fields[repository.UserColumnHeight] = patch.Height.Ptr()
	}
	if patch.Weight.Set {
		fields[repository.UserColumnWeight] = patch.Weight.Ptr()
	}
	if patch.ActivityLevel != nil {
		fields[repository.UserColumnActivityLevel] = *patch.ActivityLevel
	}
	if patch.Goal != nil {
		fields[repository.UserColumnGoal] = *patch.Goal
	}
	if patch.TargetWeight.Set {
		fields[repository.UserColumnTargetWeight] = patch.TargetWeight.Ptr()
	}
	if patch.TargetCalories.Set {
		fields[repository.UserColumnTargetCalories] = patch.TargetCalories.Ptr()
	}
	if patch.Avatar.Set {
		fields[repository.UserColumnAvatar] = patch.Avatar.Ptr()
	}

	return fields
}

// VerifyCredential compares candidate with the stored hash of the account.
// An unknown email still costs one bcrypt comparison so response timing does
// not reveal which addresses are registered.
func (srv *userService) VerifyCredential(ctx context.Context, email, candidate string) (bool, error) {
	user, err := srv.userRepo.FindByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			srv.equalizeTiming(ctx, candidate)

			return false, domainerrors.ErrInvalidCredentials
		}

		return false, errors.Wrap(err, "failed to find user")
	}

	match, err := srv.hasher.Check(ctx, candidate, user.PasswordHash)
	if err != nil {
		return false, errors.Wrap(err, "failed to verify password")
	}

	return match, nil
}

// equalizeTiming spends one bcrypt operation at the configured cost. It compares
// against a cached dummy hash; while that hash is unavailable it hashes the
// candidate instead, which costs the same.
func (srv *userService) equalizeTiming(ctx context.Context, candidate string) {
	if hash := srv.timingHash(ctx); hash != "" {
		_, _ = srv.hasher.Check(ctx, candidate, hash)

		return
	}
	_, _ = srv.hasher.Hash(ctx, candidate)
}

// timingHash returns the cached dummy hash, computing it when missing. A failed
// attempt is not cached, so the next unknown-email lookup retries.
func (srv *userService) timingHash(ctx context.Context) string {
	srv.dummyMu.Lock()
	defer srv.dummyMu.Unlock()

	if srv.dummyHash != "" {
		return srv.dummyHash
	}

	hash, err := srv.hasher.Hash(ctx, dummyPassword)
	if err != nil {
		srv.log(ctx).Warn("Failed to prepare timing hash", slog.Any("error", err))

		return ""
	}
	srv.dummyHash = hash

	return hash
}

// Login verifies the credential, requires an active account, records the login
// time and issues an access token.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	if input == nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("request body is required")
	}
	if err := validation.Struct(srv.validate, input); err != nil {
		return nil, err
	}

	email := entity.NormalizeEmail(input.Email)
	match, err := srv.VerifyCredential(ctx, email, input.Password)
	if err != nil {
		return nil, err
	}
	if !match {
		srv.log(ctx).Info("Login rejected", slog.String("email", email))

		return nil, domainerrors.ErrInvalidCredentials
	}

	var user *entity.User
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		found, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if !found.IsActive {
			return domainerrors.ErrUserInactive
		}

		loginAt := srv.now().UTC()
		if err := userRepo.UpdateFields(ctx, found.ID, repository.UserFields{
			repository.UserColumnLastLogin: &loginAt,
		}); err != nil {
			return err
		}
		found.LastLogin = &loginAt
		user = found

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to record login")
	}

	token, err := srv.tokenService.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}

	srv.log(ctx).Info("User logged in", slog.Any("user", user))

	return &usecase.LoginOutput{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(srv.tokenService.AccessTokenTTL().Seconds()),
		User:        srv.ToPublicView(user),
	}, nil
}

// Deactivate clears the active flag; the account and its data are kept.
// Deactivating an already inactive account yields ErrUserInactive.
func (srv *userService) Deactivate(ctx context.Context, id uint64) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		if _, err := findActive(ctx, userRepo, id); err != nil {
			return err
		}

		return userRepo.UpdateFields(ctx, id, repository.UserFields{
			repository.UserColumnIsActive: false,
		})
	})
	if err != nil {
		return errors.Wrap(err, "failed to deactivate user")
	}

	srv.log(ctx).Info("User deactivated", slog.Uint64("userID", id))

	return nil
}

// AssignRole changes the role of the account registered under email.
func (srv *userService) AssignRole(ctx context.Context, email string, role entity.Role) (*entity.User, error) {
	if !role.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown role " + role.String())
	}
	email = entity.NormalizeEmail(email)

	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		found, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if found.Role == role {
			user = found

			return nil
		}

		if err := userRepo.UpdateFields(ctx, found.ID, repository.UserFields{
			repository.UserColumnRole: role,
		}); err != nil {
			return err
		}
		found.Role = role
		user = found

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to assign role")
	}

	srv.log(ctx).Info("Role assigned", slog.Uint64("userID", user.ID), slog.String("role", role.String()))

	return user, nil
}

// ToPublicView returns the representation of user without its credential.
func (srv *userService) ToPublicView(user *entity.User) *entity.PublicUser {
	return user.Public()
}
