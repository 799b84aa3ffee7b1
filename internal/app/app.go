// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: хранилище прогресса, каталог, движок, сервисы,
// обработчики, фильтры и планировщик.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"sensune.app/story-bot/internal/bot"
	"sensune.app/story-bot/internal/bot/filters"
	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/config"
	"sensune.app/story-bot/internal/db/postgres"
	"sensune.app/story-bot/internal/db/sqlite"
	"sensune.app/story-bot/internal/engine"
	"sensune.app/story-bot/internal/features/admin"
	"sensune.app/story-bot/internal/features/checkin"
	"sensune.app/story-bot/internal/features/economy"
	"sensune.app/story-bot/internal/features/gacha"
	"sensune.app/story-bot/internal/jobs"
	"sensune.app/story-bot/internal/progress"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Store     progress.Store
	BotAPI    *telego.Bot
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Каталог ===
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	}
	log.WithFields(log.Fields{
		"characters": len(cat.Characters()),
		"cards":      len(cat.Cards()),
		"packages":   len(cat.Packages()),
	}).Info("Каталог загружен")

	// === 2. Хранилище ===
	store, ledger, pool, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 3. Движок ===
	var rng engine.RandomSource
	if cfg.RulesGachaSeed != 0 {
		rng = engine.NewSeededRNG(cfg.RulesGachaSeed)
		log.WithField("seed", cfg.RulesGachaSeed).Warn("Гача работает на фиксированном seed")
	}
	eng := engine.New(cat, cfg.Rules(), rng)
	repo := progress.NewRepository(store, eng.NewProgress).WithLedger(ledger)

	// === 4. Telegram Bot API ===
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultLogger(cfg.AppEnv == "development", true))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	// === 5. Сервисы ===
	clock := common.NewClock(common.LoadLocation(cfg.AppTimezone))
	var adminRepo admin.Repository = admin.NewMemoryRepository()
	if pool != nil {
		adminRepo = admin.NewPostgresRepository(pool)
	}

	economyService := economy.NewService(repo, eng)
	gachaService := gacha.NewService(repo, eng)
	checkinService := checkin.NewService(repo, eng, clock)
	adminService := admin.NewService(adminRepo, economyService, cfg)

	// === 6. Обработчики ===
	economyHandler := economy.NewHandler(economyService, botAPI)
	gachaHandler := gacha.NewHandler(gachaService, botAPI)
	checkinHandler := checkin.NewHandler(checkinService, botAPI)
	adminHandler := admin.NewHandler(adminService, botAPI)

	// === 7. Фильтры и бот ===
	chatFilter := filters.NewChatFilter(cfg.AllowedChatID)
	b := bot.New(botAPI, cfg, economyHandler, gachaHandler, checkinHandler, adminHandler, chatFilter)

	// === 8. Планировщик задач ===
	var scheduler *jobs.Scheduler
	if cfg.FeatureRemindersEnabled && cfg.FeatureCheckInEnabled {
		scheduler = jobs.NewScheduler(checkinService, clock.Loc, cfg.CheckInReminderCron, b.SendMessageToUser)
	}

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Store:     store,
		BotAPI:    botAPI,
	}, nil
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	a.Bot.Close()
	if err := a.Store.Close(); err != nil {
		log.WithError(err).Warn("Ошибка закрытия хранилища")
	}
}

// openStore открывает хранилище прогресса и журнал операций по STORE_DRIVER.
// Для postgres возвращает и пул, чтобы админ-сессии жили в той же базе.
func openStore(ctx context.Context, cfg *config.Config) (progress.Store, progress.Ledger, *pgxpool.Pool, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn("Прогресс хранится в памяти и пропадёт после перезапуска")
		return progress.NewMemoryStore(), progress.NewMemoryLedger(), nil, nil

	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ошибка подключения к SQLite: %w", err)
		}
		return progress.NewSQLiteStore(db), progress.NewSQLiteLedger(db), nil, nil

	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := postgres.Migrate(ctx, pool, migrations); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		return progress.NewPostgresStore(pool), progress.NewPostgresLedger(pool), pool, nil
	}
	return nil, nil, nil, fmt.Errorf("неизвестный STORE_DRIVER %q", cfg.StoreDriver)
}

// SQL-миграции встроены в код для упрощения деплоя.
var migrations = []postgres.Migration{
	{Version: 1, SQL: migration001Progress},
	{Version: 2, SQL: migration002Admin},
	{Version: 3, SQL: migration003Ledger},
}

var migration001Progress = `
CREATE TABLE IF NOT EXISTS user_progress (
    user_id BIGINT PRIMARY KEY,
    data JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_user_progress_last_check_in ON user_progress ((data->>'lastCheckIn'));
`

var migration002Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMPTZ DEFAULT NOW(),
    expires_at TIMESTAMPTZ,
    last_activity TIMESTAMPTZ DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMPTZ DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
`

var migration003Ledger = `
CREATE TABLE IF NOT EXISTS progress_ledger (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    tx_type VARCHAR(50) NOT NULL,
    target TEXT NOT NULL DEFAULT '',
    coins BIGINT NOT NULL DEFAULT 0,
    tickets INTEGER NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_progress_ledger_user ON progress_ledger(user_id, created_at DESC);
`
