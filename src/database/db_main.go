package database

import (
	"fmt"

	"signalrouter/src/database/migrations"
	"signalrouter/src/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MainDB is the primary read/write database connection used by the application.
var MainDB *gorm.DB

// Models lists every entity owned by the write-side schema.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.StrategySetting{},
		&model.UserCredential{},
		&model.Position{},
		&model.DispatchLog{},
		&model.Exception{},
		&migrations.DataMigration{},
	}
}

// InitMainDB initializes the main (read/write) database connection and runs migrations.
// This should be called once at application startup (e.g. in main()).
func InitMainDB() error {
	config := GetConfig()
	db, err := Open(config, config.DatabaseURLMain)
	if err != nil {
		return err
	}

	logrus.Info("[database] MainDB connection established")

	if err := Migrate(db); err != nil {
		return err
	}

	// Assign to the global variable only after a successful migration.
	MainDB = db

	logrus.Info("[database] MainDB migrations completed")

	return nil
}

// Migrate runs AutoMigrate for all models followed by the data migrations.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations on MainDB: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("failed to run data migrations on MainDB: %w", err)
	}

	return nil
}
