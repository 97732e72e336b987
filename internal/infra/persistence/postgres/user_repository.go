package postgres

import (
	"context"
	"time"

	"healthtrack/internal/domain/entity"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/domain/repository"
	"healthtrack/internal/errors"
	"healthtrack/internal/infra/persistence/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewUserRepository is the constructor for userRepository.
// Every call is bounded by timeout; an expired bound surfaces as domainerrors.ErrTimeout.
func NewUserRepository(db *gorm.DB, timeout time.Duration) repository.UserRepository {
	return &userRepository{db: db, timeout: timeout}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	ctx, cancel := withTimeout(ctx, repo.timeout)
	defer cancel()

	var userM model.UserModel
	if err := repo.db.WithContext(ctx).First(&userM, id).Error; err != nil {
		return nil, translateStoreError(err, domainerrors.ErrUserNotFound, nil, "find user by id")
	}

	return toUserDomain(&userM), nil
}

// FindByEmail retrieves a single user by their normalized email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, cancel := withTimeout(ctx, repo.timeout)
	defer cancel()

	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("email = ?", entity.NormalizeEmail(email)).
		First(&userM).Error
	if err != nil {
		return nil, translateStoreError(err, domainerrors.ErrUserNotFound, nil, "find user by email")
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user. The unique index on email is the final arbiter of
// duplicates, including concurrent registrations.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	ctx, cancel := withTimeout(ctx, repo.timeout)
	defer cancel()

	userM := fromUserDomain(user)
	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		return translateStoreError(err, nil, domainerrors.ErrUserAlreadyExists, "create user")
	}

	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// UpdateFields issues one UPDATE touching only the given columns (plus updated_at).
func (repo *userRepository) UpdateFields(ctx context.Context, id uint64, fields repository.UserFields) error {
	if len(fields) == 0 {
		return nil
	}

	columns, err := toUserColumns(fields)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, repo.timeout)
	defer cancel()

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return translateStoreError(result.Error, nil, domainerrors.ErrUserAlreadyExists, "update user")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}

	return nil
}

// toUserColumns lowers domain values to driver-friendly column values.
func toUserColumns(fields repository.UserFields) (map[string]any, error) {
	columns := make(map[string]any, len(fields))
	for column, value := range fields {
		switch column {
		case repository.UserColumnEmail:
			email, ok := value.(string)
			if !ok {
				return nil, errors.Errorf("column %s expects string, got %T", column, value)
			}
			columns[column] = entity.NormalizeEmail(email)
		case repository.UserColumnDateOfBirth:
			switch v := value.(type) {
			case *time.Time:
				columns[column] = toDate(v)
			case time.Time:
				columns[column] = toDate(&v)
			default:
				return nil, errors.Errorf("column %s expects time, got %T", column, value)
			}
		case repository.UserColumnGender:
			switch v := value.(type) {
			case *entity.Gender:
				if v == nil {
					columns[column] = nil
				} else {
					columns[column] = v.String()
				}
			case entity.Gender:
				columns[column] = v.String()
			default:
				return nil, errors.Errorf("column %s expects gender, got %T", column, value)
			}
		case repository.UserColumnActivityLevel:
			level, ok := value.(entity.ActivityLevel)
			if !ok {
				return nil, errors.Errorf("column %s expects activity level, got %T", column, value)
			}
			columns[column] = level.String()
		case repository.UserColumnGoal:
			goal, ok := value.(entity.Goal)
			if !ok {
				return nil, errors.Errorf("column %s expects goal, got %T", column, value)
			}
			columns[column] = goal.String()
		case repository.UserColumnRole:
			role, ok := value.(entity.Role)
			if !ok || !role.IsValid() {
				return nil, errors.Errorf("column %s expects a valid role, got %v", column, value)
			}
			columns[column] = role.String()
		case repository.UserColumnPassword, repository.UserColumnFullName,
			repository.UserColumnHeight, repository.UserColumnWeight,
			repository.UserColumnTargetWeight, repository.UserColumnTargetCalories,
			repository.UserColumnAvatar, repository.UserColumnIsActive,
			repository.UserColumnLastLogin:
			columns[column] = derefColumnValue(value)
		default:
			return nil, errors.Errorf("unknown user column %q", column)
		}
	}

	return columns, nil
}

// derefColumnValue unwraps the optional pointers used by partial updates; a nil pointer clears the column.
func derefColumnValue(value any) any {
	switch v := value.(type) {
	case *string:
		if v == nil {
			return nil
		}

		return *v
	case *float64:
		if v == nil {
			return nil
		}

		return *v
	case *int:
		if v == nil {
			return nil
		}

		return *v
	case *time.Time:
		if v == nil {
			return nil
		}

		return *v
	default:
		return value
	}
}

func toDate(t *time.Time) *datatypes.Date {
	if t == nil {
		return nil
	}
	d := datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))

	return &d
}

// --- Mapper Functions ---

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	user := &entity.User{
		ID:             data.ID,
		Email:          data.Email,
		PasswordHash:   data.Password,
		FullName:       data.FullName,
		Height:         data.Height,
		Weight:         data.Weight,
		ActivityLevel:  entity.ActivityLevel(data.ActivityLevel),
		Goal:           entity.Goal(data.Goal),
		Role:           entity.RoleOrDefault(data.Role),
		TargetWeight:   data.TargetWeight,
		TargetCalories: data.TargetCalories,
		Avatar:         data.Avatar,
		IsActive:       data.IsActive == nil || *data.IsActive,
		LastLogin:      data.LastLogin,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
	if data.DateOfBirth != nil {
		dob := time.Time(*data.DateOfBirth)
		dob = time.Date(dob.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
		user.DateOfBirth = &dob
	}
	if data.Gender != nil {
		gender := entity.Gender(*data.Gender)
		user.Gender = &gender
	}

	return user
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	isActive := data.IsActive
	role := data.Role
	if !role.IsValid() {
		role = entity.RoleUser
	}
	userM := &model.UserModel{
		ID:             data.ID,
		Email:          entity.NormalizeEmail(data.Email),
		Password:       data.PasswordHash,
		FullName:       data.FullName,
		DateOfBirth:    toDate(data.DateOfBirth),
		Height:         data.Height,
		Weight:         data.Weight,
		ActivityLevel:  data.ActivityLevel.String(),
		Goal:           data.Goal.String(),
		Role:           role.String(),
		TargetWeight:   data.TargetWeight,
		TargetCalories: data.TargetCalories,
		Avatar:         data.Avatar,
		IsActive:       &isActive,
		LastLogin:      data.LastLogin,
	}
	if data.Gender != nil {
		gender := data.Gender.String()
		userM.Gender = &gender
	}

	return userM
}
