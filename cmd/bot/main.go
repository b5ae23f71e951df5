package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wellness-bot/internal/bot"
	"wellness-bot/internal/cache"
	"wellness-bot/internal/config"
	"wellness-bot/internal/database"
	"wellness-bot/internal/health"
	"wellness-bot/internal/scheduler"
	"wellness-bot/internal/service"
	"wellness-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	printWelcome()

	logrus.Info("📝 loading config...")
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("❌ failed to load config: %v", err)
	}

	if err := utils.InitLogger(cfg.System.LogDir, cfg.System.LogLevel); err != nil {
		logrus.Fatalf("❌ failed to initialize logger: %v", err)
	}
	loc := cfg.System.Location()
	logrus.WithField("timezone", loc.String()).Info("✅ config loaded")

	logrus.Info("🗄️  connecting to database...")
	db, err := database.Open(database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		Charset:         cfg.Database.Charset,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		logrus.Fatalf("❌ failed to connect to database: %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"driver":   cfg.Database.Driver,
		"database": cfg.Database.Database,
	}).Info("✅ database connected")

	logrus.Info("🔄 migrating tables...")
	if err := database.AutoMigrate(db); err != nil {
		logrus.Fatalf("❌ migration failed: %v", err)
	}

	logrus.Info("🤖 initializing Telegram bot...")
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logrus.Fatalf("❌ failed to authorize bot: %v", err)
	}

	limiter := utils.NewRateLimiter(cfg.System.RateLimitPerChat)
	notifier := service.NewTelegramNotifier(api, cfg.Telegram.ModChatID, cfg.Telegram.AuthorIDs, limiter)

	directory := service.NewDirectoryService(db)
	userData := service.NewUserDataService(db)
	staff := service.NewStaffService(db)

	milestoneChat := cfg.Telegram.MilestoneChatID
	if milestoneChat == 0 {
		milestoneChat = cfg.Telegram.CommunityChatID
	}

	svc := bot.Services{
		Moderation: service.NewModerationService(db),
		Wellness:   service.NewWellnessService(db, notifier, directory).WithCheckTimeout(cfg.Scheduler.CheckTimeout),
		Milestones: service.NewMilestoneService(userData, notifier, directory, milestoneChat, loc),
		Journal:    service.NewJournalService(db, loc),
		Community:  service.NewCommunityService(userData, cfg.System.GifDir),
		UserData:   userData,
		Staff:      staff,
		Directory:  directory,
		Audit:      service.NewAuditService(db),
	}

	auth := cache.NewAuthCache(staff, 1024, 10*time.Minute)
	handler := bot.NewHandler(api, cfg, auth, notifier, svc)
	botInstance := bot.NewBot(api, handler, 10)

	// without redis every sweep runs unguarded in this process
	var lease scheduler.Locker
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logrus.Fatalf("❌ failed to connect to redis: %v", err)
		}
		defer client.Close()
		lease = cache.NewLease(client, cfg.Redis.LeaseTTL)
		logrus.WithField("addr", cfg.Redis.Addr).Info("🔒 sweep leases enabled")
	}

	taskScheduler := scheduler.NewScheduler(db, limiter, lease)
	sweeps := []struct {
		name  string
		spec  string
		sweep scheduler.Sweep
	}{
		{"reminders", cfg.Scheduler.ReminderInterval, svc.Wellness.RunReminderSweep},
		{"timeouts", cfg.Scheduler.TimeoutInterval, svc.Wellness.RunTimeoutSweep},
		{"milestones", cfg.Scheduler.MilestoneInterval, svc.Milestones.Run},
	}
	for _, s := range sweeps {
		if err := taskScheduler.AddSweep(s.name, s.spec, s.sweep); err != nil {
			logrus.Fatalf("❌ failed to schedule %s: %v", s.name, err)
		}
	}
	if err := taskScheduler.Start(); err != nil {
		logrus.Fatalf("❌ failed to start scheduler: %v", err)
	}
	go taskScheduler.RunSweep("milestones")

	server := health.NewServer(cfg.System.HTTPAddr, db)
	server.Start()

	ctx, cancel := context.WithCancel(context.Background())
	go botInstance.Start(ctx)

	logrus.WithFields(logrus.Fields{
		"authors":       cfg.Telegram.AuthorIDs,
		"mod_chat":      cfg.Telegram.ModChatID,
		"rate_per_chat": cfg.System.RateLimitPerChat,
	}).Info("✨ bot is running, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("🛑 shutdown signal received")
	cancel()
	taskScheduler.Stop()
	botInstance.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithField("error", err.Error()).Warn("⚠️ health server shutdown failed")
	}
	if err := database.Close(db); err != nil {
		logrus.WithField("error", err.Error()).Warn("⚠️ failed to close database")
	}
	logrus.Info("👋 bye")
}

func printWelcome() {
	welcome := `
╔═══════════════════════════════════════════╗
║                                           ║
║        Community Wellness Bot             ║
║                                           ║
╚═══════════════════════════════════════════╝
`
	logrus.Info(welcome)
}
