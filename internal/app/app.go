package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/services/ledger"
	"github.com/bobmcallan/tracket/internal/services/position"
	"github.com/bobmcallan/tracket/internal/services/quote"
	"github.com/bobmcallan/tracket/internal/services/trade"
	"github.com/bobmcallan/tracket/internal/storage"
)

// App holds all initialized services and storage.
// It is the shared core used by both cmd/tracket-server and cmd/tracket.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Storage         interfaces.StorageManager
	Prices          *quote.Service
	LedgerService   interfaces.LedgerService
	TradeService    interfaces.TradeService
	PositionService interfaces.PositionService
	StartupTime     time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the explicit path, TRACKET_CONFIG,
// tracket.toml next to the binary, then config/tracket.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("TRACKET_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "tracket.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/tracket.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and initializes storage and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewAppWithConfig(config, logger)
}

// NewAppWithConfig initializes storage and services from a loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Cached oracle in front of the stored price history; recording a price
	// through the trade service evicts the cached entry.
	prices := quote.NewService(storageManager.Prices(), config.Prices.GetCacheTTL(), logger)

	ledgerService := ledger.NewService(storageManager, config.Ledger, logger)
	tradeService := trade.NewService(storageManager, logger)
	tradeService.SetPriceCache(prices)
	positionService := position.NewService(storageManager, prices, config.Valuation, logger)

	a := &App{
		Config:          config,
		Logger:          logger,
		Storage:         storageManager,
		Prices:          prices,
		LedgerService:   ledgerService,
		TradeService:    tradeService,
		PositionService: positionService,
		StartupTime:     startupStart,
	}

	logger.Info().
		Str("backend", storageManager.Backend()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
}
