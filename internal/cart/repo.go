package cart

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists the cart snapshot in the cart_snapshots table.
type Repository struct {
	db   *gorm.DB
	name string
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB, name string) *Repository {
	return &Repository{db: db, name: name}
}

// Load reads the snapshot. A missing row yields an empty cart.
func (r *Repository) Load(ctx context.Context) (Cart, error) {
	var snapshot models.CartSnapshot
	err := r.db.WithContext(ctx).
		Where("name = ?", r.name).
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Cart{Lines: []Line{}}, nil
	}
	if err != nil {
		return Cart{Lines: []Line{}}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart snapshot")
	}
	return decodeCart(snapshot.Payload)
}

// Save upserts the snapshot row.
func (r *Repository) Save(ctx context.Context, c Cart) error {
	payload, err := encodeCart(c)
	if err != nil {
		return err
	}
	snapshot := models.CartSnapshot{
		Name:      r.name,
		Payload:   payload,
		LineCount: len(c.Lines),
		UpdatedAt: time.Now().UTC(),
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "line_count", "updated_at"}),
		}).
		Create(&snapshot).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart snapshot")
	}
	return nil
}
