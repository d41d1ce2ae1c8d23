package main

import (
	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/logging"

	"github.com/sirupsen/logrus"
)

func main() {
	v := config.NewViper()
	logging.Configure(v.GetString("LOG_LEVEL"), v.GetString("LOG_FORMAT"))

	driver := v.GetString("DATABASE_DRIVER")
	db, err := database.Open(driver, v.GetString("DATABASE_DSN"))
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logrus.Fatalf("Migration failed: %v", err)
	}
	logrus.WithField("driver", driver).Info("Database migrated")
}
