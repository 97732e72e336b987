// Package model holds the GORM persistence models. They never leave the persistence layer.
package model

// All lists every model managed by schema migration, in creation order.
func All() []any {
	return []any{
		&UserModel{},
		&FoodModel{},
	}
}
