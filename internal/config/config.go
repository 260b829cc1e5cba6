package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewRuntimeHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret   string
	AuthTokenTTLMin int

	LoginRatePerMin int
	LoginRateBurst  int

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTLSec   int

	Storage StorageConfig

	CORSAllowedOrigins []string
}

type StorageConfig struct {
	Driver        string
	LocalRoot     string
	PublicBaseURL string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return Config{
		AppName:            v.GetString("APP_SERVICE"),
		AppVersion:         v.GetString("APP_VERSION"),
		Environment:        strings.ToLower(strings.TrimSpace(v.GetString("ENVIRONMENT"))),
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		AuthJWTSecret:      strings.TrimSpace(v.GetString("AUTH_JWT_SECRET")),
		AuthTokenTTLMin:    v.GetInt("AUTH_TOKEN_TTL_MINUTES"),
		LoginRatePerMin:    v.GetInt("LOGIN_RATE_PER_MINUTE"),
		LoginRateBurst:     v.GetInt("LOGIN_RATE_BURST"),
		OTLPEndpoint:       v.GetString("OTLP_ENDPOINT"),
		DBType:             strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_TYPE"))),
		DBHost:             v.GetString("DATABASE_HOST"),
		DBPort:             v.GetString("DATABASE_PORT"),
		DBName:             v.GetString("DATABASE_NAME"),
		DBUser:             v.GetString("DATABASE_USER"),
		DBPassword:         v.GetString("DATABASE_PASSWORD"),
		DBSSLMode:          v.GetString("DATABASE_SSLMODE"),
		DBPath:             v.GetString("DATABASE_PATH"),
		DBMaxIdleConn:      v.GetInt("DATABASE_MAX_IDLE_CONN"),
		DBMaxOpenConn:      v.GetInt("DATABASE_MAX_OPEN_CONN"),
		DBConnMaxLifetime:  v.GetInt("DATABASE_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTime:  v.GetInt("DATABASE_CONN_MAX_IDLE_TIME"),
		RedisAddr:          strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		CacheTTLSec:        v.GetInt("CACHE_TTL_SECONDS"),
		CORSAllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		Storage: StorageConfig{
			Driver:        strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
			LocalRoot:     v.GetString("STORAGE_LOCAL_ROOT"),
			PublicBaseURL: strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
			S3Bucket:      strings.TrimSpace(v.GetString("STORAGE_S3_BUCKET")),
			S3Region:      strings.TrimSpace(v.GetString("STORAGE_S3_REGION")),
			S3Endpoint:    strings.TrimSpace(v.GetString("STORAGE_S3_ENDPOINT")),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_SERVICE", "catalog")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("AUTH_TOKEN_TTL_MINUTES", 60*24)
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("LOGIN_RATE_BURST", 5)
	v.SetDefault("OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("DATABASE_TYPE", "postgres")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_NAME", "catalog")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_PATH", "catalog.db")
	v.SetDefault("DATABASE_MAX_IDLE_CONN", 5)
	v.SetDefault("DATABASE_MAX_OPEN_CONN", 20)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", 1800)
	v.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", 300)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 300)
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("STORAGE_LOCAL_ROOT", "storage/public")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/storage")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
