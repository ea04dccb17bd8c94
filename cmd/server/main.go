package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/waorder/internal/bot"
	"github.com/example/waorder/internal/config"
	"github.com/example/waorder/internal/database"
	"github.com/example/waorder/internal/handlers"
	"github.com/example/waorder/internal/logging"
	"github.com/example/waorder/internal/routes"
	"github.com/example/waorder/internal/services"
	"github.com/example/waorder/internal/utils"
)

func main() {
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := utils.HashAdminPassword(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "hash password:", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	log.Info("starting whatsapp ordering bot", slog.String("environment", cfg.Environment))
	if missing := cfg.Missing(); len(missing) > 0 {
		log.Warn("missing configuration, some features will not work", slog.String("missing", strings.Join(missing, ", ")))
	}

	store, inMemory := openStore(cfg, log)

	bg := services.NewBackground(cfg.BackgroundWorkers, cfg.BackgroundQueueSize, cfg.BackgroundTaskTimeout, log)

	recordCfg := services.DefaultRecordCacheConfig()
	recordCfg.PendingOrderTTL = cfg.PendingOrderCacheTTL
	records := services.NewRecordCache(store, bg, recordCfg, cfg.CacheTTL(), log)
	dedup := services.NewDedupTracker(store, bg, services.DefaultDedupTTL, log)
	limiter := services.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow(), store, bg, log)
	messages := services.NewMessageLogger(cfg.EnableMessageLogging, store, bg, log)

	var notifier services.AdminNotifier
	if telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, cfg.CurrencySymbol, log); telegram.Configured() {
		notifier = telegram
	}

	ledger, err := services.NewLedger(store, records, bg, notifier, services.LedgerConfig{
		TaxRate:  cfg.TaxRate(),
		Currency: cfg.Currency,
		NodeID:   cfg.SnowflakeNode,
	}, log)
	if err != nil {
		log.Error("ledger setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	whatsapp := services.NewWhatsAppService(services.WhatsAppConfig{
		AccessToken:   cfg.WhatsAppAccessToken,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		CatalogID:     cfg.WhatsAppCatalogID,
		BaseURL:       cfg.WhatsAppBaseURL,
	}, messages, log)

	screens := bot.NewScreens(whatsapp, records, bot.ScreenConfig{
		CurrencySymbol:      cfg.CurrencySymbol,
		ContactInfo:         cfg.ContactInfo,
		PaymentInstructions: cfg.PaymentInstructions,
	})
	router := bot.NewRouter(dedup, records, limiter, ledger, messages, screens, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go limiter.Run(ctx, cfg.RateLimitSweepInterval)

	app := fiber.New(fiber.Config{
		AppName:      "WhatsApp Ordering Bot",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, routes.Deps{
		Config:     cfg,
		Store:      store,
		InMemory:   inMemory,
		Records:    records,
		Ledger:     ledger,
		Background: bg,
		Router:     router,
		Log:        log,
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("http shutdown", slog.Any("error", err))
		}
	}()

	log.Info("listening", slog.String("port", cfg.AppPort), slog.Bool("message_logging", cfg.EnableMessageLogging))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Error("fiber.Listen error", slog.Any("error", err))
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bg.Shutdown(drainCtx); err != nil {
		log.Warn("background tasks not drained", slog.Any("error", err))
	}
}

// openStore connects to Postgres, falling back to the in-memory store so the bot
// keeps answering while the database is unreachable.
func openStore(cfg *config.Config, log *slog.Logger) (database.Store, bool) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		return database.NewMemoryStore(), true
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.Debug, log)
	if err != nil {
		log.Error("database connection failed, using in-memory store", slog.Any("error", err))
		return database.NewMemoryStore(), true
	}

	log.Info("database connection established")
	return database.NewGormStore(db), false
}
