package configs

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret string
	AppEnv    string
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ .env not found, using system ENV")
		} else {
			log.Println("✅ .env loaded")
		}
	} else {
		log.Println("🚀 Running in Railway, using system ENV")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	AppEnv = GetEnv("APP_ENV", "production")

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET is not set!")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return def
}

// =======================
// ENGINE CONFIG
// =======================

// EngineConfig holds the knobs of the assignment/submission engine.
type EngineConfig struct {
	CleanupMaxAttempts int
	CleanupBackoffStep time.Duration
	ExportTimeout      time.Duration
	UploadURLTTL       time.Duration
	MaxUploadSize      int64
	ReaperCron         string
	ReaperBatch        int
	ObjectStore        string // "oss" | "memory"
}

func LoadEngineConfig() EngineConfig {
	cfg := EngineConfig{
		CleanupMaxAttempts: GetEnvInt("CLEANUP_MAX_ATTEMPTS", 3),
		CleanupBackoffStep: GetEnvDuration("CLEANUP_BACKOFF_STEP", time.Second),
		ExportTimeout:      GetEnvDuration("EXPORT_TIMEOUT", 30*time.Minute),
		UploadURLTTL:       GetEnvDuration("UPLOAD_URL_TTL", 15*time.Minute),
		MaxUploadSize:      int64(GetEnvInt("MAX_UPLOAD_SIZE", 20*1024*1024)),
		ReaperCron:         GetEnv("CLEANUP_REAPER_CRON", "*/30 * * * *"),
		ReaperBatch:        GetEnvInt("CLEANUP_REAPER_BATCH", 200),
		ObjectStore:        strings.ToLower(GetEnv("OBJECT_STORE", "oss")),
	}
	if cfg.CleanupMaxAttempts < 1 {
		cfg.CleanupMaxAttempts = 1
	}
	return cfg
}

// =======================
// LOGGER
// =======================

// NewLogger builds the engine logger; development output when APP_ENV=development.
func NewLogger() *zap.Logger {
	var (
		lg  *zap.Logger
		err error
	)
	if AppEnv == "development" {
		lg, err = zap.NewDevelopment()
	} else {
		lg, err = zap.NewProduction()
	}
	if err != nil {
		log.Printf("[WARN] zap init failed, falling back to nop: %v", err)
		return zap.NewNop()
	}
	return lg
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
	log           *zap.SugaredLogger
}

func NewGormLogger(lg *zap.Logger) gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Warn,
		log:           lg.Named("gorm").Sugar(),
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		l.log.Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		l.log.Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		l.log.Errorf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error:
		l.log.Errorw("query failed", "file", file, "err", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		l.log.Warnw("slow sql", "file", file, "elapsed", elapsed, "rows", rows, "sql", sql)
	case l.LogLevel >= gormLogger.Info:
		l.log.Debugw("query", "file", file, "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
