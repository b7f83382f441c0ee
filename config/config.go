package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultCacheTTL    = 2 * time.Minute
	DefaultHTTPTimeout = 10 * time.Second
	DefaultUserAgent   = "bcards/1.0"
)

var ErrMissingUsersAPI = errors.New("BCARDS_USERS_API is not set")

type Config struct {
	UsersAPI    string
	CardsAPI    string
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
	RedisAddr   string
	TokenFile   string
	LogLevel    string
	UserAgent   string
}

// LoadEnv loads variables from the given .env files, or ./.env when none
// are named. A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
		log.Debugf("%s loaded", f)
	}
	return nil
}

// Load reads the BCARDS_* environment.
func Load() (*Config, error) {
	cfg := &Config{
		UsersAPI:  strings.TrimSpace(os.Getenv("BCARDS_USERS_API")),
		CardsAPI:  os.Getenv("BCARDS_CARDS_API"),
		RedisAddr: os.Getenv("BCARDS_REDIS_ADDR"),
		TokenFile: os.Getenv("BCARDS_TOKEN_FILE"),
		LogLevel:  getenv("BCARDS_LOG_LEVEL", "warn"),
		UserAgent: getenv("BCARDS_USER_AGENT", DefaultUserAgent),
	}
	cfg.UsersAPI = strings.TrimRight(cfg.UsersAPI, "/")
	if cfg.UsersAPI == "" {
		return nil, ErrMissingUsersAPI
	}
	if cfg.CardsAPI == "" {
		cfg.CardsAPI = CardsURLFromUsers(cfg.UsersAPI)
	}
	cfg.CardsAPI = strings.TrimRight(cfg.CardsAPI, "/")

	var err error
	if cfg.CacheTTL, err = duration("BCARDS_CACHE_TTL", DefaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = duration("BCARDS_HTTP_TIMEOUT", DefaultHTTPTimeout); err != nil {
		return nil, err
	}

	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locating config dir: %w", err)
		}
		cfg.TokenFile = filepath.Join(dir, "bcards", "token")
	}
	return cfg, nil
}

// CardsURLFromUsers replaces the last "/users" in usersURL with "/cards".
// Without one, "/cards" is appended.
func CardsURLFromUsers(usersURL string) string {
	u := strings.TrimRight(usersURL, "/")
	if i := strings.LastIndex(u, "/users"); i >= 0 {
		return u[:i] + "/cards" + u[i+len("/users"):]
	}
	return u + "/cards"
}

// Logging configures the global logger.
func Logging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}
