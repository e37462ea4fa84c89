package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"grocery/internal/domain/pricing"

	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あれば POSTGRES_* より優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret      string        // JWT署名シークレット
	AccessTokenTTL time.Duration // アクセストークンの有効期限

	GoEnv    string // dev/prod
	LogLevel string

	// 店舗の位置と配送料ポリシー
	StoreLat             float64
	StoreLng             float64
	FreeDeliveryRadiusKm float64
	FlatDeliveryFee      decimal.Decimal

	// DB呼び出し1回あたりのタイムアウトと、再試行までの待ち
	StoreTimeout      time.Duration
	StoreRetryBackoff time.Duration

	RedisURL        string        // 空なら商品キャッシュなし
	ProductCacheTTL time.Duration // 商品キャッシュの有効期限
	AMQPURL         string        // 空なら注文イベントを流さない
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := intOr("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	storeLat, err := mustFloat("STORE_LAT")
	if err != nil {
		return Config{}, err
	}
	storeLng, err := mustFloat("STORE_LNG")
	if err != nil {
		return Config{}, err
	}
	radius, err := floatOr("FREE_DELIVERY_RADIUS_KM", pricing.DefaultFreeDeliveryRadiusKm)
	if err != nil {
		return Config{}, err
	}
	fee, err := decimalOr("FLAT_DELIVERY_FEE", decimal.NewFromInt(pricing.DefaultFlatFee))
	if err != nil {
		return Config{}, err
	}
	accessTTL, err := durationOr("ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	storeTimeout, err := durationOr("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	backoff, err := durationOr("STORE_RETRY_BACKOFF", 100*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := durationOr("PRODUCT_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "grocery"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: accessTTL,

		GoEnv:    os.Getenv("GO_ENV"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		StoreLat:             storeLat,
		StoreLng:             storeLng,
		FreeDeliveryRadiusKm: radius,
		FlatDeliveryFee:      fee,

		StoreTimeout:      storeTimeout,
		StoreRetryBackoff: backoff,

		RedisURL:        os.Getenv("REDIS_URL"),
		ProductCacheTTL: cacheTTL,
		AMQPURL:         os.Getenv("AMQP_URL"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.StoreLat < -90 || cfg.StoreLat > 90 || cfg.StoreLng < -180 || cfg.StoreLng > 180 {
		return Config{}, fmt.Errorf("STORE_LAT/STORE_LNG out of range")
	}
	if cfg.FreeDeliveryRadiusKm < 0 {
		return Config{}, fmt.Errorf("FREE_DELIVERY_RADIUS_KM must be >= 0")
	}
	if cfg.FlatDeliveryFee.IsNegative() {
		return Config{}, fmt.Errorf("FLAT_DELIVERY_FEE must be >= 0")
	}
	if !pricing.IsMinorUnitSafe(cfg.FlatDeliveryFee) {
		return Config{}, fmt.Errorf("FLAT_DELIVERY_FEE must have at most %d decimal places", pricing.MinorUnitPlaces)
	}
	if cfg.StoreTimeout <= 0 {
		return Config{}, fmt.Errorf("STORE_TIMEOUT must be > 0")
	}

	return cfg, nil
}

// gorm に渡す DSN
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func mustFloat(key string) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return f, nil
}

func floatOr(key string, def float64) (float64, error) {
	if os.Getenv(key) == "" {
		return def, nil
	}
	return mustFloat(key)
}

func decimalOr(key string, def decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be decimal: %w", key, err)
	}
	return d, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
