package postgres

import (
	"context"
	"strings"
	"time"

	"healthtrack/internal/domain/entity"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/domain/repository"
	"healthtrack/internal/infra/persistence/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likeEscaper escapes LIKE wildcards so user input only ever matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// foodRepository implements the domain.FoodRepository interface using GORM.
type foodRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewFoodRepository is the constructor for foodRepository.
func NewFoodRepository(db *gorm.DB, timeout time.Duration) repository.FoodRepository {
	return &foodRepository{db: db, timeout: timeout}
}

// FindByID retrieves a single food by ID.
func (repo *foodRepository) FindByID(ctx context.Context, id uint64) (*entity.Food, error) {
	ctx, cancel := withTimeout(ctx, repo.timeout)
	defer cancel()

	var foodM model.FoodModel
	if err := repo.db.WithContext(ctx).First(&foodM, id).Error; err != nil {
		return nil, translateStoreError(err, domainerrors.ErrFoodNotFound, nil, "find food by id")
	}

	return toFoodDomain(&foodM), nil
}

// FindByIDs loads every existing food among ids in one query.
func (repo *foodRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*entity.Food, error) {
	found := make(map[uint64]*entity.Food, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	ctx, cancel := withTimeout(ctx, repo.timeout)
	defer cancel()

	var foodMs []*model.FoodModel
	if err := repo.db.WithContext(ctx).Where("id IN ?", ids).Find(&foodMs).Error; err != nil {
		return nil, translateStoreError(err, nil, nil, "find foods by ids")
	}

	for _, foodM := range foodMs {
		found[foodM.ID] = toFoodDomain(foodM)
	}

	return found, nil
}

// FindByName matches name or name_vietnamese exactly, ignoring case.
func (repo *foodRepository) FindByName(ctx context.Context, name string) ([]*entity.Food, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return []*entity.Food{}, nil
	}

	ctx, cancel := withTimeout(ctx, repo.timeout)
	defer cancel()

	var foodMs []*model.FoodModel
	err := repo.db.WithContext(ctx).
		Where("LOWER(name) = ? OR LOWER(name_vietnamese) = ?", needle, needle).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Find(&foodMs).Error
	if err != nil {
		return nil, translateStoreError(err, nil, nil, "find foods by name")
	}

	return toFoodDomains(foodMs), nil
}

// Search returns one page of matching foods ordered by ID and the total number of matches.
func (repo *foodRepository) Search(ctx context.Context, filter repository.FoodFilter) ([]*entity.Food, int64, error) {
	ctx, cancel := withTimeout(ctx, repo.timeout)
	defer cancel()

	query := repo.db.WithContext(ctx).Model(&model.FoodModel{})
	if filter.Name != nil {
		if needle := strings.ToLower(strings.TrimSpace(*filter.Name)); needle != "" {
			pattern := "%" + likeEscaper.Replace(needle) + "%"
			query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(name_vietnamese) LIKE ? ESCAPE '\'`, pattern, pattern)
		}
	}
	if filter.Category != nil {
		query = query.Where("LOWER(category) = ?", strings.ToLower(strings.TrimSpace(*filter.Category)))
	}
	if filter.Vietnamese != nil {
		query = query.Where("is_vietnamese = ?", *filter.Vietnamese)
	}
	if filter.Verified != nil {
		query = query.Where("is_verified = ?", *filter.Verified)
	}
	if filter.MinCalories != nil {
		query = query.Where("calories >= ?", *filter.MinCalories)
	}
	if filter.MaxCalories != nil {
		query = query.Where("calories <= ?", *filter.MaxCalories)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateStoreError(err, nil, nil, "count foods")
	}

	var foodMs []*model.FoodModel
	page := query.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		page = page.Offset(filter.Offset)
	}
	if err := page.Find(&foodMs).Error; err != nil {
		return nil, 0, translateStoreError(err, nil, nil, "search foods")
	}

	return toFoodDomains(foodMs), total, nil
}

// Create inserts a new food; the generated ID and timestamps are written back.
func (repo *foodRepository) Create(ctx context.Context, food *entity.Food) error {
	ctx, cancel := withTimeout(ctx, repo.timeout)
	defer cancel()

	foodM := fromFoodDomain(food)
	if err := repo.db.WithContext(ctx).Create(foodM).Error; err != nil {
		return translateStoreError(err, nil, domainerrors.ErrConflict, "create food")
	}

	food.ID = foodM.ID
	food.CreatedAt = foodM.CreatedAt
	food.UpdatedAt = foodM.UpdatedAt

	return nil
}

// Save writes every column of an existing food, nulls included.
func (repo *foodRepository) Save(ctx context.Context, food *entity.Food) error {
	ctx, cancel := withTimeout(ctx, repo.timeout)
	defer cancel()

	foodM := fromFoodDomain(food)
	result := repo.db.WithContext(ctx).
		Model(foodM).
		Select("*").
		Omit("created_at").
		Updates(foodM)
	if result.Error != nil {
		return translateStoreError(result.Error, nil, domainerrors.ErrConflict, "save food")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrFoodNotFound
	}

	food.UpdatedAt = foodM.UpdatedAt

	return nil
}

// --- Mapper Functions ---

func toFoodDomains(data []*model.FoodModel) []*entity.Food {
	foods := make([]*entity.Food, 0, len(data))
	for _, foodM := range data {
		foods = append(foods, toFoodDomain(foodM))
	}

	return foods
}

// toFoodDomain converts a GORM FoodModel to a domain Food entity.
func toFoodDomain(data *model.FoodModel) *entity.Food {
	if data == nil {
		return nil
	}

	food := &entity.Food{
		ID:             data.ID,
		Name:           data.Name,
		NameVietnamese: data.NameVietnamese,
		Description:    data.Description,
		Category:       data.Category,
		Calories:       data.Calories,
		Protein:        data.Protein,
		Carbs:          data.Carbs,
		Fat:            data.Fat,
		Fiber:          data.Fiber,
		Sugar:          data.Sugar,
		Sodium:         data.Sodium,
		ServingSize:    data.ServingSize,
		ServingUnit:    data.ServingUnit,
		ImageURL:       data.ImageURL,
		IsVietnamese:   data.IsVietnamese == nil || *data.IsVietnamese,
		IsVerified:     data.IsVerified != nil && *data.IsVerified,
		Source:         data.Source,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
	if data.Tags != nil {
		food.Tags = []string(data.Tags)
	}

	return food
}

// fromFoodDomain converts a domain Food entity to a GORM FoodModel for persistence.
func fromFoodDomain(data *entity.Food) *model.FoodModel {
	if data == nil {
		return nil
	}

	isVietnamese := data.IsVietnamese
	isVerified := data.IsVerified
	foodM := &model.FoodModel{
		ID:             data.ID,
		Name:           data.Name,
		NameVietnamese: data.NameVietnamese,
		Description:    data.Description,
		Category:       data.Category,
		Calories:       data.Calories,
		Protein:        data.Protein,
		Carbs:          data.Carbs,
		Fat:            data.Fat,
		Fiber:          data.Fiber,
		Sugar:          data.Sugar,
		Sodium:         data.Sodium,
		ServingSize:    data.ServingSize,
		ServingUnit:    data.ServingUnit,
		ImageURL:       data.ImageURL,
		IsVietnamese:   &isVietnamese,
		IsVerified:     &isVerified,
		Source:         data.Source,
		CreatedAt:      data.CreatedAt,
	}
	if data.Tags != nil {
		foodM.Tags = datatypes.JSONSlice[string](data.Tags)
	}

	return foodM
}
