package main

import (
	"context"
	"fmt"
	"os"

	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/logging"
	"recipebox/internal/repositories"
	"recipebox/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("createsuperuser", pflag.ExitOnError)
	flags.String("email", "", "superuser email address")
	flags.String("password", "", "superuser password (or SUPERUSER_PASSWORD)")
	flags.String("name", "", "display name")
	flags.String("database-driver", "", "override DATABASE_DRIVER")
	flags.String("database-dsn", "", "override DATABASE_DSN")
	_ = flags.Parse(os.Args[1:])

	v := config.NewViper()
	// Flags win over the environment only when set on the command line.
	for key, flag := range map[string]string{
		"SUPERUSER_EMAIL":    "email",
		"SUPERUSER_PASSWORD": "password",
		"SUPERUSER_NAME":     "name",
		"DATABASE_DRIVER":    "database-driver",
		"DATABASE_DSN":       "database-dsn",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			logrus.Fatalf("Failed to bind flag %s: %v", flag, err)
		}
	}
	logging.Configure(v.GetString("LOG_LEVEL"), v.GetString("LOG_FORMAT"))

	email := v.GetString("SUPERUSER_EMAIL")
	if email == "" {
		fmt.Fprintln(os.Stderr, "usage: createsuperuser --email <email> --password <password> [--name <name>]")
		os.Exit(2)
	}

	db, err := database.Open(v.GetString("DATABASE_DRIVER"), v.GetString("DATABASE_DSN"))
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	authService := services.NewAuthService(repositories.NewGORMUserRepository(db), nil, v.GetString("JWT_SECRET"), v.GetDuration("TOKEN_TTL"))
	user, err := authService.CreateSuperuser(context.Background(), email, v.GetString("SUPERUSER_PASSWORD"), v.GetString("SUPERUSER_NAME"))
	if err != nil {
		logrus.Fatalf("Failed to create superuser: %v", err)
	}
	fmt.Printf("Superuser %s created\n", user.Email)
}
