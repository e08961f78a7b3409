package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries every setting the process needs. It is built once in main
// and passed down explicitly; no package reads the environment on its own.
type Config struct {
	Port      string
	JWTSecret string

	// CookieSecure marks the session cookie Secure; on in release mode,
	// off in development so plain-http localhost still works.
	CookieSecure bool

	// DBDriver selects the store: "sqlite" (default, single local file as the
	// register runs standalone) or "postgres".
	DBDriver string
	// DBPath is the sqlite file path.
	DBPath string
	// Postgres settings, used only when DBDriver == "postgres".
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	AllowedOrigins []string
}

// Load reads configs/.env (when present) and the environment into a Config.
func Load() *Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := &Config{
		Port:         getenv("PORT", "8080"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		CookieSecure: os.Getenv("GIN_MODE") == "release",
		DBDriver:     getenv("DB_DRIVER", "sqlite"),
		DBPath:       getenv("DB_PATH", "pos.db"),
		DBHost:       getenv("DB_HOST", "localhost"),
		DBPort:       getenv("DB_PORT", "5432"),
		DBUser:       getenv("DB_USER", "postgres"),
		DBPassword:   getenv("DB_PASSWORD", "postgres"),
		DBName:       getenv("DB_NAME", "postgres"),
		DBSSLMode:    getenv("DB_SSLMODE", "disable"),
		AllowedOrigins: []string{
			"http://localhost:5173", "http://127.0.0.1:5173",
		},
	}

	if cfg.JWTSecret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			log.Fatal("JWT_SECRET environment variable is required in release mode")
		}
		cfg.JWTSecret = "default_super_secret_key" // development fallback only
	}

	return cfg
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" +
		c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
