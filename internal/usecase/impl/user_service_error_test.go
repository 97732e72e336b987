package impl

import (
	"context"
	"testing"
	"time"

	"healthtrack/internal/domain/entity"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/domain/repository"
	mockRepo "healthtrack/internal/mocks/repository"
	mockSvc "healthtrack/internal/mocks/service"
	"healthtrack/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// userServiceFixtures holds all test dependencies for user service tests.
type userServiceFixtures struct {
	t         *testing.T
	service   usecase.UserUsecase
	txManager *mockRepo.MockTransactionManager
	userRepo  *mockRepo.MockUserRepository
	hasher    *mockSvc.MockPasswordHasher
	tokens    *mockSvc.MockTokenService
}

func createTestUserService(t *testing.T) userServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	userRepo := mockRepo.NewMockUserRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	tokens := mockSvc.NewMockTokenService(t)

	service := NewUserService(UserServiceParams{
		TxManager:    txManager,
		UserRepo:     userRepo,
		Hasher:       hasher,
		TokenService: tokens,
		Logger:       newDiscardLogger(),
	})

	return userServiceFixtures{
		t:         t,
		service:   service,
		txManager: txManager,
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
	}
}

// onExecute expects one transaction whose factory hands out a fresh user repository.
func (fx userServiceFixtures) onExecute(ctx context.Context, commitErr error, setup func(txUserRepo *mockRepo.MockUserRepository)) {
	fx.t.Helper()

	expectExecute(ctx, fx.t, fx.txManager, commitErr, func(factory *mockRepo.MockRepositoryFactory) {
		txUserRepo := mockRepo.NewMockUserRepository(fx.t)
		factory.EXPECT().UserRepo().Return(txUserRepo)
		setup(txUserRepo)
	})
}

func activeUser(id uint64, email string) *entity.User {
	return &entity.User{
		ID:            id,
		Email:         email,
		PasswordHash:  "$2a$04$stored",
		FullName:      "Le Thi Hoa",
		ActivityLevel: entity.DefaultActivityLevel,
		Goal:          entity.DefaultGoal,
		Role:          entity.RoleUser,
		IsActive:      true,
	}
}

func TestUserService_Register_HashFailure(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("", domainerrors.ErrPasswordHashFailed.WrapMessage("bcrypt"))

	user, err := fx.service.Register(ctx, registerInput("a@x.com", "secret1"))

	assert.Nil(t, user)
	assert.True(t, errors.Is(err, domainerrors.ErrPasswordHashFailed))
	fx.txManager.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestUserService_Register_DatabaseError(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("$2a$04$hash", nil)
	fx.onExecute(ctx, nil, func(txUserRepo *mockRepo.MockUserRepository) {
		txUserRepo.EXPECT().
			Create(ctx, mock.AnythingOfType("*entity.User")).
			Return(domainerrors.NewDatabaseExecuteError(errors.New("connection reset"), "create user"))
	})

	user, err := fx.service.Register(ctx, registerInput("a@x.com", "secret1"))

	assert.Nil(t, user)
	var dbErr *domainerrors.DatabaseExecuteError
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, "create user", dbErr.Details())
	assert.Contains(t, err.Error(), "failed to register user")
}

func TestUserService_Register_CommitConflictIsDuplicate(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("$2a$04$hash", nil)
	fx.onExecute(ctx, domainerrors.ErrConflict.WrapMessage("commit rejected by unique constraint"),
		func(txUserRepo *mockRepo.MockUserRepository) {
			txUserRepo.EXPECT().
				Create(ctx, mock.MatchedBy(func(u *entity.User) bool {
					return u.Email == "a@x.com" && u.Role == entity.RoleUser && u.IsActive
				})).
				Return(nil)
		})

	user, err := fx.service.Register(ctx, registerInput(" A@X.com", "secret1"))

	assert.Nil(t, user)
	assert.True(t, errors.Is(err, domainerrors.ErrUserAlreadyExists))
}

func TestUserService_Register_TransactionFailed(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("$2a$04$hash", nil)
	expectExecute(ctx, t, fx.txManager, domainerrors.ErrTransactionFailed.WrapMessage("begin"), nil)

	_, err := fx.service.Register(ctx, registerInput("a@x.com", "secret1"))

	assert.True(t, errors.Is(err, domainerrors.ErrTransactionFailed))
	assert.False(t, errors.Is(err, domainerrors.ErrUserAlreadyExists))
}

func TestUserService_GetByID_Errors(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	inactive := activeUser(7, "idle@x.com")
	inactive.IsActive = false
	fx.userRepo.EXPECT().FindByID(ctx, uint64(7)).Return(inactive, nil).Once()
	fx.userRepo.EXPECT().FindByID(ctx, uint64(8)).
		Return(nil, domainerrors.NewDatabaseExecuteError(errors.New("db error"), "find user by id")).Once()

	user, err := fx.service.GetByID(ctx, 7)
	assert.Nil(t, user)
	assert.True(t, errors.Is(err, domainerrors.ErrUserInactive))

	_, err = fx.service.GetByID(ctx, 8)
	var dbErr *domainerrors.DatabaseExecuteError
	assert.True(t, errors.As(err, &dbErr))
	assert.Contains(t, err.Error(), "failed to get user")
}

func TestUserService_UpdateProfile_FindError(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.onExecute(ctx, nil, func(txUserRepo *mockRepo.MockUserRepository) {
		txUserRepo.EXPECT().FindByID(ctx, uint64(1)).
			Return(nil, domainerrors.NewDatabaseExecuteError(errors.New("db error"), "find user by id"))
	})

	user, err := fx.service.UpdateProfile(ctx, 1, &usecase.UserPatch{FullName: ptr("New Name")})

	assert.Nil(t, user)
	var dbErr *domainerrors.DatabaseExecuteError
	assert.True(t, errors.As(err, &dbErr))
	assert.Contains(t, err.Error(), "failed to update profile")
}

func TestUserService_UpdateProfile_InactiveSkipsWrite(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	inactive := activeUser(1, "idle@x.com")
	inactive.IsActive = false
	fx.onExecute(ctx, nil, func(txUserRepo *mockRepo.MockUserRepository) {
		txUserRepo.EXPECT().FindByID(ctx, uint64(1)).Return(inactive, nil)
	})

	_, err := fx.service.UpdateProfile(ctx, 1, &usecase.UserPatch{FullName: ptr("New Name")})

	assert.True(t, errors.Is(err, domainerrors.ErrUserInactive))
}

func TestUserService_UpdateProfile_CommitConflictIsDuplicate(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.onExecute(ctx, domainerrors.ErrConflict.WrapMessage("commit rejected by unique constraint"),
		func(txUserRepo *mockRepo.MockUserRepository) {
			txUserRepo.EXPECT().FindByID(ctx, uint64(1)).Return(activeUser(1, "a@x.com"), nil).Once()
			txUserRepo.EXPECT().
				UpdateFields(ctx, uint64(1), repository.UserFields{repository.UserColumnEmail: "b@x.com"}).
				Return(nil)
			txUserRepo.EXPECT().FindByID(ctx, uint64(1)).Return(activeUser(1, "b@x.com"), nil).Once()
		})

	_, err := fx.service.UpdateProfile(ctx, 1, &usecase.UserPatch{Email: ptr("B@x.com")})

	assert.True(t, errors.Is(err, domainerrors.ErrUserAlreadyExists))
}

func TestUserService_UpdateProfile_PasswordHashFailure(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.hasher.EXPECT().Hash(ctx, "secret2").Return("", domainerrors.ErrTimeout.WrapMessage("password hashing"))

	_, err := fx.service.UpdateProfile(ctx, 1, &usecase.UserPatch{Password: ptr("secret2")})

	assert.True(t, errors.Is(err, domainerrors.ErrTimeout))
	fx.txManager.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestUserService_Login_FindByEmailError(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").
		Return(nil, domainerrors.NewDatabaseExecuteError(errors.New("db error"), "find user by email"))

	out, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "A@x.com", Password: "secret1"})

	assert.Nil(t, out)
	var dbErr *domainerrors.DatabaseExecuteError
	assert.True(t, errors.As(err, &dbErr))
	assert.False(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
	fx.hasher.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_Login_LastLoginUpdateFails(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	user := activeUser(3, "a@x.com")

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(user, nil)
	fx.hasher.EXPECT().Check(ctx, "secret1", user.PasswordHash).Return(true, nil)
	fx.onExecute(ctx, nil, func(txUserRepo *mockRepo.MockUserRepository) {
		txUserRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(activeUser(3, "a@x.com"), nil)
		txUserRepo.EXPECT().
			UpdateFields(ctx, uint64(3), mock.AnythingOfType("repository.UserFields")).
			Return(domainerrors.ErrTimeout.WrapMessage("update user"))
	})

	out, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret1"})

	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrTimeout))
	assert.Contains(t, err.Error(), "failed to record login")
	fx.tokens.AssertNotCalled(t, "GenerateAccessToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_Login_CommitFails(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	user := activeUser(3, "a@x.com")

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(user, nil)
	fx.hasher.EXPECT().Check(ctx, "secret1", user.PasswordHash).Return(true, nil)
	fx.onExecute(ctx, domainerrors.ErrTransactionFailed.WrapMessage("commit"), func(txUserRepo *mockRepo.MockUserRepository) {
		txUserRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(activeUser(3, "a@x.com"), nil)
		txUserRepo.EXPECT().UpdateFields(ctx, uint64(3), mock.AnythingOfType("repository.UserFields")).Return(nil)
	})

	_, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret1"})

	assert.True(t, errors.Is(err, domainerrors.ErrTransactionFailed))
}

func TestUserService_Login_TokenFailure(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	user := activeUser(3, "a@x.com")
	user.Role = entity.RoleAdmin

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(user, nil)
	fx.hasher.EXPECT().Check(ctx, "secret1", user.PasswordHash).Return(true, nil)
	fx.onExecute(ctx, nil, func(txUserRepo *mockRepo.MockUserRepository) {
		txUserRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(user, nil)
		txUserRepo.EXPECT().UpdateFields(ctx, uint64(3), mock.AnythingOfType("repository.UserFields")).Return(nil)
	})
	fx.tokens.EXPECT().GenerateAccessToken(uint64(3), "a@x.com", entity.RoleAdmin).Return("", errors.New("signing key unavailable"))

	out, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret1"})

	assert.Nil(t, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate access token")
}

func TestUserService_Login_CheckError(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	user := activeUser(3, "a@x.com")

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(user, nil)
	fx.hasher.EXPECT().Check(ctx, "secret1", user.PasswordHash).
		Return(false, domainerrors.ErrPasswordHashFailed.WrapMessage("malformed hash"))

	_, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret1"})

	assert.True(t, errors.Is(err, domainerrors.ErrPasswordHashFailed))
	assert.Contains(t, err.Error(), "failed to verify password")
}

func TestUserService_VerifyCredential_TimingHashRetriesAfterFailure(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(ctx, "ghost@x.com").Return(nil, domainerrors.ErrUserNotFound).Times(3)

	// First lookup: the dummy hash cannot be prepared, so the candidate is hashed instead.
	fx.hasher.EXPECT().Hash(ctx, dummyPassword).Return("", domainerrors.ErrTimeout.WrapMessage("password hashing")).Once()
	fx.hasher.EXPECT().Hash(ctx, "secret1").Return("$2a$04$candidate", nil).Once()

	ok, err := fx.service.VerifyCredential(ctx, "ghost@x.com", "secret1")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))

	// Second lookup retries and caches the dummy hash.
	fx.hasher.EXPECT().Hash(ctx, dummyPassword).Return("$2a$04$dummy", nil).Once()
	fx.hasher.EXPECT().Check(ctx, "secret1", "$2a$04$dummy").Return(false, nil).Twice()

	ok, err = fx.service.VerifyCredential(ctx, "ghost@x.com", "secret1")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))

	// Third lookup reuses the cached hash.
	ok, err = fx.service.VerifyCredential(ctx, "ghost@x.com", "secret1")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestUserService_Deactivate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		commitErr error
		setup     func(ctx context.Context, txUserRepo *mockRepo.MockUserRepository)
		wantErr   error
	}{
		{
			name: "not found",
			setup: func(ctx context.Context, txUserRepo *mockRepo.MockUserRepository) {
				txUserRepo.EXPECT().FindByID(ctx, uint64(5)).Return(nil, domainerrors.ErrUserNotFound)
			},
			wantErr: domainerrors.ErrUserNotFound,
		},
		{
			name: "already inactive",
			setup: func(ctx context.Context, txUserRepo *mockRepo.MockUserRepository) {
				user := activeUser(5, "a@x.com")
				user.IsActive = false
				txUserRepo.EXPECT().FindByID(ctx, uint64(5)).Return(user, nil)
			},
			wantErr: domainerrors.ErrUserInactive,
		},
		{
			name: "update timeout",
			setup: func(ctx context.Context, txUserRepo *mockRepo.MockUserRepository) {
				txUserRepo.EXPECT().FindByID(ctx, uint64(5)).Return(activeUser(5, "a@x.com"), nil)
				txUserRepo.EXPECT().
					UpdateFields(ctx, uint64(5), repository.UserFields{repository.UserColumnIsActive: false}).
					Return(domainerrors.ErrTimeout.WrapMessage("update user"))
			},
			wantErr: domainerrors.ErrTimeout,
		},
		{
			name:      "commit fails",
			commitErr: domainerrors.ErrTransactionFailed.WrapMessage("commit"),
			setup: func(ctx context.Context, txUserRepo *mockRepo.MockUserRepository) {
				txUserRepo.EXPECT().FindByID(ctx, uint64(5)).Return(activeUser(5, "a@x.com"), nil)
				txUserRepo.EXPECT().
					UpdateFields(ctx, uint64(5), repository.UserFields{repository.UserColumnIsActive: false}).
					Return(nil)
			},
			wantErr: domainerrors.ErrTransactionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestUserService(t)
			ctx := context.Background()
			fx.onExecute(ctx, tt.commitErr, func(txUserRepo *mockRepo.MockUserRepository) {
				tt.setup(ctx, txUserRepo)
			})

			err := fx.service.Deactivate(ctx, 5)

			assert.True(t, errors.Is(err, tt.wantErr), err)
			assert.Contains(t, err.Error(), "failed to deactivate user")
		})
	}
}

func TestUserService_AssignRole_Errors(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	_, err := fx.service.AssignRole(ctx, "a@x.com", entity.Role("root"))
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))

	fx.onExecute(ctx, nil, func(txUserRepo *mockRepo.MockUserRepository) {
		txUserRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(activeUser(9, "a@x.com"), nil)
		txUserRepo.EXPECT().
			UpdateFields(ctx, uint64(9), repository.UserFields{repository.UserColumnRole: entity.RoleAdmin}).
			Return(domainerrors.NewDatabaseExecuteError(errors.New("db error"), "update user"))
	})

	user, err := fx.service.AssignRole(ctx, "A@x.com", entity.RoleAdmin)

	assert.Nil(t, user)
	var dbErr *domainerrors.DatabaseExecuteError
	assert.True(t, errors.As(err, &dbErr))
	assert.Contains(t, err.Error(), "failed to assign role")
}

func TestUserService_Login_UsesLoginTimeFromClock(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	fixed := time.Date(2025, time.March, 1, 8, 30, 0, 0, time.UTC)
	fx.service.(*userService).now = func() time.Time { return fixed }
	user := activeUser(3, "a@x.com")

	fx.userRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(user, nil)
	fx.hasher.EXPECT().Check(ctx, "secret1", user.PasswordHash).Return(true, nil)
	fx.onExecute(ctx, nil, func(txUserRepo *mockRepo.MockUserRepository) {
		txUserRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(activeUser(3, "a@x.com"), nil)
		txUserRepo.EXPECT().
			UpdateFields(ctx, uint64(3), mock.MatchedBy(func(fields repository.UserFields) bool {
				at, ok := fields[repository.UserColumnLastLogin].(*time.Time)

				return ok && at.Equal(fixed)
			})).
			Return(nil)
	})
	fx.tokens.EXPECT().GenerateAccessToken(uint64(3), "a@x.com", entity.RoleUser).Return("signed", nil)
	fx.tokens.EXPECT().AccessTokenTTL().Return(time.Hour)

	out, err := fx.service.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, "signed", out.AccessToken)
	assert.Equal(t, int64(3600), out.ExpiresIn)
	require.NotNil(t, out.User.LastLogin)
	assert.True(t, out.User.LastLogin.Equal(fixed))
}
