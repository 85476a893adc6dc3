package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fixed by the deployed contract and the course it was written for.
const (
	ContractAddress = `0x4662aab3EC1d45B0051f9D2E974992cEB2c1E1eE`
	ExchangeRate    = 1600 // KRW per mETH
	ReferenceYear   = 2022
)

const (
	defaultAPIAddr       = `:8080`
	defaultRPCURL        = `http://localhost:8545`
	defaultRedisAddr     = `redis:6379`
	defaultJWTKey        = `B2iDZ6286IOLg8O1/f81Zdzh1BglfKTdLVw6twOqZGs=`
	defaultSessionTTL    = 48 * time.Hour
	defaultRoomsCacheTTL = 30 * time.Second
	defaultRPCTimeout    = 10 * time.Second
	defaultSubmitTimeout = 2 * time.Minute
)

type Config struct {
	APIAddr        string
	RPCURL         string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	DatabaseURL    string
	JWTKey         string
	SessionTTL     time.Duration
	RoomsCacheTTL  time.Duration
	RPCTimeout     time.Duration
	SubmitTimeout  time.Duration
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}

	return Config{
		APIAddr:        envOr("API_ADDR", defaultAPIAddr),
		RPCURL:         envOr("RPC_URL", defaultRPCURL),
		RedisAddr:      envOr("REDIS_ADDR", defaultRedisAddr),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        envInt("REDIS_DB", 0),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTKey:         envOr("JWT_KEY", defaultJWTKey),
		SessionTTL:     envDuration("SESSION_TTL", defaultSessionTTL),
		RoomsCacheTTL:  envDuration("ROOMS_CACHE_TTL", defaultRoomsCacheTTL),
		RPCTimeout:     envDuration("RPC_TIMEOUT", defaultRPCTimeout),
		SubmitTimeout:  envDuration("SUBMIT_TIMEOUT", defaultSubmitTimeout),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFormat:      envOr("LOG_FORMAT", "json"),
		AllowedOrigins: envCSV("CORS_ALLOWED_ORIGINS", []string{`*`}),
	}, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envCSV(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	out := make([]string, 0)
	for _, p := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
