package database

import (
	"errors"
	"log"
	"os"
	"time"

	"idosolink/config"
	"idosolink/internal/domain"
	"idosolink/internal/models"
	"idosolink/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.CaregiverProfile{},
		&models.Contract{},
		&models.ContractAcceptance{},
		&models.EscrowPayment{},
		&models.Payment{},
		&models.LedgerEntry{},
		&models.AdminAction{},
		&models.Review{},
		&models.Favorite{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.Notification{},
		&models.SystemSetting{},
		&models.Withdrawal{},
		&models.KycVerification{},
	)
}

const platformReserveEmail = "platform@idosolink.internal"

// Seed creates the admin account, the platform reserve user that receives
// fees, and the default system settings. Returns the reserve user's ID.
func Seed(db *gorm.DB) (uint, error) {
	if err := repository.NewSettingRepository(db).SeedDefaults(domain.DefaultSettings); err != nil {
		return 0, err
	}
	if err := seedAdmin(db); err != nil {
		return 0, err
	}
	return seedPlatformUser(db)
}

func seedAdmin(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@idosolink.pt"
	}
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
		log.Printf("[seed] ADMIN_PASSWORD not set, admin %s created with default password", email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now()
	return db.Create(&models.User{
		Name:         "Admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
		ActivatedAt:  &now,
	}).Error
}

// seedPlatformUser creates (or finds) the internal account that platform fees
// and dispute settlements are credited to. It can never log in: no password.
func seedPlatformUser(db *gorm.DB) (uint, error) {
	var u models.User
	err := db.Where("email = ?", platformReserveEmail).First(&u).Error
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	now := time.Now()
	u = models.User{
		Name:        "IdosoLink Platform",
		Email:       platformReserveEmail,
		Role:        domain.RoleAdmin,
		Status:      domain.UserStatusActive,
		ActivatedAt: &now,
	}
	if err := db.Create(&u).Error; err != nil {
		return 0, err
	}
	if err := db.Create(&models.Wallet{UserID: u.ID}).Error; err != nil {
		return 0, err
	}
	return u.ID, nil
}
