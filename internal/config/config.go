// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"sensune.app/story-bot/internal/engine"
)

// Драйверы хранилища прогресса
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" default:""`
	AdminIDs         []int64 `ignored:"true"`
	// Групповой чат, где бот тоже отвечает. 0 — только личные сообщения.
	AllowedChatID int64 `envconfig:"ALLOWED_CHAT_ID" default:"0"`

	// --- Storage ---
	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/progress.db"`

	// --- Database (STORE_DRIVER=postgres) ---
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" default:""`
	DBName     string `envconfig:"DB_NAME" default:"story_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Catalog ---
	// Пусто — встроенный каталог
	CatalogPath string `envconfig:"CATALOG_PATH" default:""`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" default:""`

	// --- Economy rules ---
	RulesStartingCoins          int64 `envconfig:"RULES_STARTING_COINS" default:"200"`
	RulesStartingTickets        int   `envconfig:"RULES_STARTING_TICKETS" default:"1"`
	RulesRollPrice              int64 `envconfig:"RULES_ROLL_PRICE" default:"150"`
	RulesTenRollPrice           int64 `envconfig:"RULES_TEN_ROLL_PRICE" default:"1350"`
	RulesDuplicateRefund        int64 `envconfig:"RULES_DUPLICATE_REFUND" default:"75"`
	RulesCompletionBonusCoins   int64 `envconfig:"RULES_COMPLETION_BONUS_COINS" default:"50"`
	RulesCompletionBonusTickets int   `envconfig:"RULES_COMPLETION_BONUS_TICKETS" default:"1"`
	RulesCheckInCoins           int64 `envconfig:"RULES_CHECKIN_COINS" default:"10"`
	RulesCheckInCycle           int   `envconfig:"RULES_CHECKIN_CYCLE" default:"7"`
	RulesCheckInCycleTickets    int   `envconfig:"RULES_CHECKIN_CYCLE_TICKETS" default:"1"`
	// Seed для воспроизводимой гачи. 0 — обычный генератор.
	RulesGachaSeed uint64 `envconfig:"RULES_GACHA_SEED" default:"0"`

	// --- Check-in reminders ---
	CheckInReminderCron string `envconfig:"CHECKIN_REMINDER_CRON" default:"0 20 * * *"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureGachaEnabled     bool `envconfig:"FEATURE_GACHA_ENABLED" default:"true"`
	FeatureCheckInEnabled   bool `envconfig:"FEATURE_CHECKIN_ENABLED" default:"true"`
	FeatureShopEnabled      bool `envconfig:"FEATURE_SHOP_ENABLED" default:"true"`
	FeatureRemindersEnabled bool `envconfig:"FEATURE_REMINDERS_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Rules собирает параметры экономики из конфигурации.
func (c *Config) Rules() engine.Rules {
	return engine.Rules{
		StartingCoins:          c.RulesStartingCoins,
		StartingTickets:        c.RulesStartingTickets,
		RollPrice:              c.RulesRollPrice,
		TenRollPrice:           c.RulesTenRollPrice,
		DuplicateRefund:        c.RulesDuplicateRefund,
		CompletionBonusCoins:   c.RulesCompletionBonusCoins,
		CompletionBonusTickets: c.RulesCompletionBonusTickets,
		CheckInCoins:           c.RulesCheckInCoins,
		CheckInCycle:           c.RulesCheckInCycle,
		CheckInCycleTickets:    c.RulesCheckInCycleTickets,
	}
}

// IsAdmin проверяет, что пользователь указан в ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD обязателен для STORE_DRIVER=postgres")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	default:
		return fmt.Errorf("неизвестный STORE_DRIVER %q (memory, sqlite, postgres)", c.StoreDriver)
	}
	if c.StoreDriver == StoreSQLite && strings.TrimSpace(c.SQLitePath) == "" {
		return fmt.Errorf("SQLITE_PATH не задан")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS и RATE_LIMIT_WINDOW должны быть > 0")
	}
	if len(c.AdminIDs) > 0 && c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH обязателен, если задан ADMIN_IDS")
	}
	if c.AdminPasswordHash != "" {
		if _, err := ParseArgon2Hash(c.AdminPasswordHash); err != nil {
			return fmt.Errorf("ADMIN_PASSWORD_HASH: %w", err)
		}
	}
	if err := c.Rules().Validate(); err != nil {
		return err
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
