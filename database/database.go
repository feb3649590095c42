package database

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"grownet-api/models"
)

// Initialize opens the database for the given driver ("mysql" or "sqlite").
// Errors are translated so unique violations surface as gorm.ErrDuplicatedKey.
func Initialize(driver, databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(databaseURL)
	case "sqlite":
		dialector = sqlite.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite allows a single writer; serialize through one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Connection{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	return nil
}

func addCustomIndexes(db *gorm.DB) error {
	// Pending requests are listed per receiver, newest first
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_connections_receiver_status_created ON connections(receiver_id, status, created_at)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for connections: %v\n", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_target_read ON notifications(target_user_id, is_read)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for notifications: %v\n", err)
	}

	return nil
}

// SeedData populates a development database with a mentor and a mentee.
func SeedData(db *gorm.DB, passwordHash string) error {
	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}

	if userCount > 0 {
		fmt.Println("Database already has data, skipping seed")
		return nil
	}

	testUsers := []models.User{
		{
			ID:       "user-1",
			Name:     "Ada Mentor",
			Handle:   "ada_mentor",
			Email:    "ada@example.com",
			Password: passwordHash,
			Role:     models.RoleMentor,
			Headline: "Staff engineer, happy to help with system design",
			Skills:   models.StringSliceType{"go", "distributed systems"},
		},
		{
			ID:       "user-2",
			Name:     "Sam Mentee",
			Handle:   "sam_mentee",
			Email:    "sam@example.com",
			Password: passwordHash,
			Role:     models.RoleMentee,
			Headline: "Bootcamp graduate looking for guidance",
			Skills:   models.StringSliceType{"javascript"},
		},
	}

	for _, user := range testUsers {
		if err := db.Create(&user).Error; err != nil {
			fmt.Printf("Warning: Could not create test user %s: %v\n", user.Handle, err)
		}
	}

	fmt.Println("Database seeded with test users")
	return nil
}
