package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"cafe-inventory/internal/config"
	"cafe-inventory/internal/repository"
	"cafe-inventory/pkg/database"

	"golang.org/x/crypto/bcrypt"
)

var errUsage = errors.New("password must be at least 6 characters")

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("password reset failed", "error", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	idNumber := fs.String("id-number", "ADMIN-001", "id number of the user to reset")
	newPassword := fs.String("password", "", "new password (min 6 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if len(*newPassword) < 6 {
		return errUsage
	}

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Setup Database
	db, err := database.Open(database.Options{Driver: cfg.DB.Driver, DSN: cfg.DSN(), LogLevel: cfg.DB.LogLevel})
	if err != nil {
		return err
	}
	defer database.Close(db)

	// 3. Hash new password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// 4. Update
	if err := repository.NewUserRepo(db).UpdatePassword(context.Background(), *idNumber, string(hashedPassword)); err != nil {
		return fmt.Errorf("update password for %s: %w", *idNumber, err)
	}

	slog.Info("password reset", "id_number", *idNumber)
	return nil
}
