package config

import "time"

// APIConfig holds runtime configuration for the accounts service.
type APIConfig struct {
	Environment         string
	Addr                string
	DatabaseURL         string
	MigrationsDir       string
	JWTSecret           string
	AccessTokenTTL      time.Duration
	AllowedOrigins      []string
	RevocationSweep     time.Duration
	RevocationRedisAddr string
	RevocationRedisPass string
	RevocationRedisDB   int
	RateLimitRedisAddr  string
	RateLimitRedisPass  string
	RateLimitRedisDB    int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:         GetString("APP_ENV", "development"),
		Addr:                GetString("API_ADDR", ":8080"),
		DatabaseURL:         GetString("DATABASE_URL", "postgres://accounts:accounts@db:5432/accounts?sslmode=disable"),
		MigrationsDir:       GetString("DB_MIGRATIONS_DIR", "./migrations"),
		JWTSecret:           GetString("JWT_SECRET", "supersecuresecret"),
		AccessTokenTTL:      time.Duration(GetInt("ACCESS_TOKEN_TTL_MIN", 60)) * time.Minute,
		AllowedOrigins:      GetStringSlice("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		RevocationSweep:     time.Duration(GetInt("REVOCATION_SWEEP_SECONDS", 300)) * time.Second,
		RevocationRedisAddr: GetString("REVOCATION_REDIS_ADDR", ""),
		RevocationRedisPass: GetString("REVOCATION_REDIS_PASSWORD", ""),
		RevocationRedisDB:   GetInt("REVOCATION_REDIS_DB", 0),
		RateLimitRedisAddr:  GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass:  GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:    GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
