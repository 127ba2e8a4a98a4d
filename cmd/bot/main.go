package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"social-poster/internal/admin"
	"social-poster/internal/auth"
	"social-poster/internal/composer"
	"social-poster/internal/config"
	"social-poster/internal/llm"
	"social-poster/internal/logger"
	"social-poster/internal/metrics"
	"social-poster/internal/platforms"
	"social-poster/internal/quota"
	"social-poster/internal/scheduler"
	"social-poster/internal/session"
	"social-poster/internal/storage"
	"social-poster/internal/subscription"
	"social-poster/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logrus.Warnf(".env file not found: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		logrus.Fatalf("failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("bot stopped with error")
	}
	log.Info("bye")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.WithError(err).Warn("failed to close storage")
		}
	}()
	log.WithField("backend", cfg.StorageBackend).Info("storage ready")

	var adminRepo auth.Repository
	if cfg.AdminListFilePath != "" {
		repo, err := auth.NewFileRepository(cfg.AdminListFilePath)
		if err != nil {
			log.WithError(err).Warn("failed to init admin list, runtime grants will not persist")
		} else {
			adminRepo = repo
		}
	}
	admins, err := auth.NewWithRepo(adminRepo, cfg.AdminIDs)
	if err != nil {
		return err
	}

	client, err := llm.NewFactory(cfg).CreateClient(cfg.LLMProvider)
	if err != nil {
		return err
	}
	generator := llm.NewGenerator(client, cfg.GenerationTimeout, cfg.GenerationMaxAttempts, cfg.Temperature,
		log.WithField("component", "generator"))

	catalog := platforms.NewCatalog(cfg.PlatformLimits())
	machine := session.NewMachine(catalog, cfg.SessionTTL, cfg.DialectEnabled)
	go machine.Run()
	defer machine.Stop()

	m := metrics.New(prometheus.NewRegistry())
	m.TrackSessions(machine.Active)

	guard := quota.New(backend.Users)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return err
	}

	checker := subscription.New(telegram.NewMemberLookup(api), cfg.ChannelUsername, m,
		log.WithField("component", "subscription"))

	comp := composer.New(composer.Deps{
		Guard:     guard,
		Machine:   machine,
		Catalog:   catalog,
		Generator: generator,
		Posts:     backend.Posts,
		Metrics:   m,
		Log:       log.WithField("component", "composer"),
	}, composer.Options{
		DailyLimit:     cfg.DailyRequestLimit,
		LongTextPolicy: cfg.LongTextPolicy,
	})

	labels := make(map[string]string)
	for _, p := range catalog.Platforms() {
		labels[p.Key] = p.Name
	}
	console := admin.New(admin.Deps{
		Admins:    admins,
		Users:     backend.Users,
		Posts:     backend.Posts,
		Guard:     guard,
		Deliverer: telegram.NewDeliverer(api),
		Metrics:   m,
		Log:       log.WithField("component", "admin"),
		Labels:    labels,
	}, admin.Options{BroadcastRate: cfg.BroadcastRate})
	defer console.Wait()

	bot := telegram.New(api, telegram.Deps{
		Composer:    comp,
		Console:     console,
		Checker:     checker,
		Locker:      session.NewLocker(),
		Metrics:     m,
		Log:         log.WithField("component", "telegram"),
		ChannelLink: cfg.ChannelLink,
	}, telegram.Options{MaxConcurrentUpdates: cfg.MaxConcurrentUpdates})

	sched := scheduler.New(cfg.DailyReportCron, log.WithField("component", "scheduler"))
	sched.SetReportFunction(console.SendDailyReport)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(ctx) })
	g.Go(func() error { return sched.Run(ctx) })
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, m, log.WithField("component", "metrics"))
		g.Go(func() error { return srv.Start(ctx) })
	}
	return g.Wait()
}
