package inventory

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"kiosk/server/internal/models"
)

// ErrUnknownFilter is returned for a listing filter other than all, homes or homesites.
var ErrUnknownFilter = errors.New("unknown listing filter")

const batchSize = 100

// listing is the indexed projection of a Property.
type listing struct {
	ID       string `gorm:"primaryKey"`
	Kind     string `gorm:"index"`
	Status   string `gorm:"index"`
	Position int
}

// Filter narrows a listing query. Zero values match everything.
type Filter struct {
	Kind   models.Kind
	Status models.Status
}

// ParseFilter reads the filter and status query values used by the listing view.
func ParseFilter(kind, status string) (Filter, error) {
	var f Filter
	switch kind {
	case "", "all":
	case "homes":
		f.Kind = models.KindHome
	case "homesites":
		f.Kind = models.KindHomesite
	default:
		return Filter{}, fmt.Errorf("%w: %q", ErrUnknownFilter, kind)
	}
	switch models.Status(status) {
	case "":
	case models.StatusAvailable, models.StatusPending, models.StatusSold:
		f.Status = models.Status(status)
	default:
		return Filter{}, fmt.Errorf("%w: status %q", ErrUnknownFilter, status)
	}
	return f, nil
}

// Inventory is an in-memory index over the current feed's properties.
type Inventory struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// Open creates an empty in-memory inventory.
func Open(logger *logrus.Logger) (*Inventory, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory: %w", err)
	}

	// Every connection to :memory: is its own database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&listing{}); err != nil {
		return nil, fmt.Errorf("failed to migrate inventory: %w", err)
	}

	return &Inventory{db: db, logger: logger}, nil
}

// Replace swaps the indexed listings for properties in one transaction.
// Duplicate ids keep their first occurrence.
func (inv *Inventory) Replace(ctx context.Context, properties []models.Property) error {
	rows := make([]listing, 0, len(properties))
	seen := make(map[string]struct{}, len(properties))
	for i, p := range properties {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		rows = append(rows, listing{
			ID:       p.ID,
			Kind:     string(p.Kind),
			Status:   string(p.Status),
			Position: i,
		})
	}

	err := inv.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&listing{}).Error; err != nil {
			return fmt.Errorf("failed to clear listings: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert listings: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	inv.logger.WithField("listing_count", len(rows)).Debug("Inventory replaced")
	return nil
}

// Filter returns matching property ids in feed order.
func (inv *Inventory) Filter(ctx context.Context, f Filter) ([]string, error) {
	query := inv.db.WithContext(ctx).Model(&listing{})
	if f.Kind != "" {
		query = query.Where("kind = ?", string(f.Kind))
	}
	if f.Status != "" {
		query = query.Where("status = ?", string(f.Status))
	}

	var ids []string
	if err := query.Order("position").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to filter listings: %w", err)
	}
	return ids, nil
}

// Count returns the number of indexed listings.
func (inv *Inventory) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := inv.db.WithContext(ctx).Model(&listing{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return n, nil
}

// Close releases the underlying connection.
func (inv *Inventory) Close() error {
	sqlDB, err := inv.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
