package app

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/andy/wattsun/internal/config"
	"github.com/andy/wattsun/internal/crypto"
	"github.com/andy/wattsun/internal/db"
	"github.com/andy/wattsun/internal/export"
	"github.com/andy/wattsun/internal/kv"
	"github.com/andy/wattsun/internal/render"
	"github.com/andy/wattsun/internal/repository"
	"github.com/andy/wattsun/internal/service"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	DB     *db.DB

	// KV is the raw key-value boundary; Store is the invoice view of it
	KV    kv.Store
	Store repository.InvoiceStore

	// Services
	Saved  *service.SavedInvoices
	Export *export.Service
}

// Options tweak how the container is built
type Options struct {
	// Ephemeral keeps everything in memory and skips the database
	Ephemeral bool
}

// NewWithConfig creates an App with a provided config (useful for testing)
func NewWithConfig(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{Config: cfg, Logger: logger}

	if opts.Ephemeral {
		logger.Debug().Msg("using in-memory store")
		a.KV = kv.NewMemoryStore()
	} else {
		database, err := openDatabase(cfg)
		if err != nil {
			return nil, err
		}
		a.DB = database
		a.KV = kv.NewSQLiteStore(database)
	}

	a.Store = repository.NewKVInvoiceStore(a.KV, logger)
	a.Saved = service.NewSavedInvoices(a.Store, logger)
	a.Export = export.NewService(
		export.NewPDFConverter(cfg.Invoice.OutputDir),
		export.NewConsoleSharer(os.Stdout),
		a.RenderOptions(),
		cfg.Export.NativeEnabled,
		logger,
	)

	return a, nil
}

func openDatabase(cfg *config.Config) (*db.DB, error) {
	// Ensure all necessary directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	keyring := crypto.NewKeyring()

	password, err := keyring.GetKey()
	if err != nil {
		// No key exists, prompt user to set one
		fmt.Println("Setting up database encryption for the first time...")
		password, err = promptForPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to set password: %w", err)
		}

		if err := keyring.SetKey(password); err != nil {
			return nil, fmt.Errorf("failed to store encryption key: %w", err)
		}
	}

	database, err := db.Open(cfg.Database.Path, password)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

// NewController creates a form session bound to the app store
func (a *App) NewController(opts ...service.ControllerOption) *service.Controller {
	base := []service.ControllerOption{
		service.WithLogger(a.Logger),
		service.WithDraftRows(a.Config.Invoice.DraftRows),
	}
	return service.NewController(a.Store, append(base, opts...)...)
}

// RenderOptions returns the presentation settings taken from config
func (a *App) RenderOptions() render.Options {
	c := a.Config.Company
	return render.Options{
		Company: render.Company{
			Name:    c.Name,
			Address: c.Address,
			Phone:   c.Phone,
			Email:   c.Email,
		},
		CurrencyPrefix: a.Config.Invoice.CurrencyPrefix,
	}
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// promptForPassword prompts user for a new database password (first run)
// This should be called when keyring has no stored key
func promptForPassword() (string, error) {
	fmt.Println()
	fmt.Println("Your saved invoices will be encrypted with a password.")
	fmt.Println("This password will be stored securely in your system keyring.")
	fmt.Println()
	fmt.Print("Enter a password for database encryption: ")

	// Read password securely (no echo)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if err := db.ValidatePassword(string(password)); err != nil {
		return "", err
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}

	fmt.Println()
	fmt.Println("✓ Database encryption configured successfully")
	fmt.Println()

	return string(password), nil
}
