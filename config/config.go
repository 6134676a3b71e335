package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mbolis/survey-forms/log"
	"github.com/mbolis/survey-forms/photo"
)

// Environment variables prefixed with envPrefix provide flag defaults,
// e.g. SURVEY_DB_URL for -db-url.
const envPrefix = "SURVEY_"

type Config struct {
	Addr        string
	PublicURL   string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool

	PhotoStrategy    photo.Strategy
	PhotoPlaceholder string

	// Initial administrator, created at startup when missing.
	AdminUser     string
	AdminPassword string
}

// ParseFlags loads .env, then parses the process command line.
func ParseFlags() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("config.dotenv: %s", err)
	}
	return Parse(flag.CommandLine, os.Args[1:])
}

func Parse(fs *flag.FlagSet, args []string) (cfg Config, err error) {
	var host string
	fs.StringVar(&host, "host", env("host", "0.0.0.0"), "listen host name")
	var port uint
	fs.UintVar(&port, "port", envUint("port", 80), "listen port number")
	fs.StringVar(&cfg.PublicURL, "public-url", env("public-url", ""), "base URL of share links, defaults to the listen address")
	fs.StringVar(&cfg.DBUrl, "db-url", env("db-url", "survey.sqlite"), "path to SQLite3 DB file")
	fs.StringVar(&cfg.TokenSecret, "token-secret", env("token-secret", ""), "secret key for token encryption and decryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", envUint("token-ttl", 120), "token TTL in seconds")
	fs.BoolVar(&cfg.Debug, "debug", env("debug", "") == "true", "log at DEBUG level")

	photoStrategy := env("photo-strategy", photo.Placeholder.String())
	fs.StringVar(&photoStrategy, "photo-strategy", photoStrategy, "user photo source: default, profile or gravatar")
	fs.StringVar(&cfg.PhotoPlaceholder, "photo-placeholder", env("photo-placeholder", photo.DefaultPlaceholder), "photo URL for anonymous users")

	fs.StringVar(&cfg.AdminUser, "admin-user", env("admin-user", ""), "administrator created at startup if missing")
	fs.StringVar(&cfg.AdminPassword, "admin-password", env("admin-password", ""), "password of -admin-user")

	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	cfg.PhotoStrategy, err = photo.ParseStrategy(photoStrategy)
	if err != nil {
		return
	}

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.AdminUser != "" && cfg.AdminPassword == "":
		err = errors.New("missing parameter -admin-password")
	}
	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

// BaseURL is where end users reach the service, used to build share links.
func (cfg Config) BaseURL() string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	return cfg.Url()
}

func (cfg Config) Photos() photo.Resolver {
	return photo.Resolver{
		Strategy:    cfg.PhotoStrategy,
		Placeholder: cfg.PhotoPlaceholder,
	}
}

func envName(flagName string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func env(flagName, def string) string {
	if v, ok := os.LookupEnv(envName(flagName)); ok {
		return v
	}
	return def
}

func envUint(flagName string, def uint) uint {
	v, ok := os.LookupEnv(envName(flagName))
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 0)
	if err != nil {
		log.Warnf("config.env: ignoring %s=%q: %s", envName(flagName), v, err)
		return def
	}
	return uint(n)
}
