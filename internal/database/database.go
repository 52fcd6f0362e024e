package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vkarpenko/placesync/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.User{},
		&entities.Account{},
		&entities.Location{},
		&entities.Review{},
		&entities.Question{},
		&entities.Post{},
		&entities.Media{},
		&entities.SyncRecord{},
		&entities.SyncMetric{},
		&entities.AuditEvent{},
		&entities.OAuthToken{},
		&entities.Setting{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetAccountForUser resolves a connected account by its external id, scoped
// to the owning user. Returns gorm.ErrRecordNotFound for foreign accounts.
func (d *Database) GetAccountForUser(ctx context.Context, accountID string, userID uint) (*entities.Account, error) {
	var account entities.Account
	err := d.DB.WithContext(ctx).
		Where("external_id = ? AND user_id = ?", accountID, userID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountsForUser lists every connected account of a user.
func (d *Database) GetAccountsForUser(userID uint) ([]entities.Account, error) {
	var accounts []entities.Account
	err := d.DB.Where("user_id = ?", userID).Find(&accounts).Error
	return accounts, err
}

// GetAllAccounts lists every connected account across users. Used by the
// periodic sync scheduler.
func (d *Database) GetAllAccounts() ([]entities.Account, error) {
	var accounts []entities.Account
	err := d.DB.Find(&accounts).Error
	return accounts, err
}

// SaveAccount creates or updates a connected account for a user.
func (d *Database) SaveAccount(account *entities.Account) error {
	var existing entities.Account
	result := d.DB.Where("external_id = ? AND user_id = ?", account.ExternalID, account.UserID).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		return d.DB.Create(account).Error
	} else if result.Error != nil {
		return result.Error
	}

	account.ID = existing.ID
	return d.DB.Save(account).Error
}

// TouchAccountSync stamps the account's last successful sync time.
func (d *Database) TouchAccountSync(accountID string, userID uint, at time.Time) error {
	return d.DB.Model(&entities.Account{}).
		Where("external_id = ? AND user_id = ?", accountID, userID).
		Update("last_synced_at", at).Error
}

func (d *Database) CreateUser(name, email string) (*entities.User, error) {
	user := &entities.User{
		Name:  name,
		Email: email,
	}
	if err := d.DB.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (d *Database) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := d.DB.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetLocationsForUser lists the synced locations of a user's account.
func (d *Database) GetLocationsForUser(accountID string, userID uint) ([]entities.Location, error) {
	var locations []entities.Location
	err := d.DB.Where("account_id = ? AND user_id = ?", accountID, userID).
		Order("title ASC").Find(&locations).Error
	return locations, err
}

// GetReviewsForLocation lists the synced reviews of one location.
func (d *Database) GetReviewsForLocation(locationExternalID string, userID uint) ([]entities.Review, error) {
	var reviews []entities.Review
	err := d.DB.Where("location_external_id = ? AND user_id = ?", locationExternalID, userID).
		Order("posted_at DESC").Find(&reviews).Error
	return reviews, err
}

func (d *Database) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := d.DB.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (d *Database) SetSetting(key, value string) error {
	var setting entities.Setting
	result := d.DB.Where("key = ?", key).First(&setting)

	if result.Error == gorm.ErrRecordNotFound {
		// Create new setting
		setting = entities.Setting{
			Key:   key,
			Value: value,
		}
		return d.DB.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	// Update existing setting
	setting.Value = value
	return d.DB.Save(&setting).Error
}

func (d *Database) DeleteSetting(key string) error {
	return d.DB.Where("key = ?", key).Delete(&entities.Setting{}).Error
}
