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
)

type Config struct {
	Addr        string
	DBPath      string
	TokenSecret string
	TokenTTL    time.Duration

	MaxForms     int
	MaxFields    int
	MaxResponses int

	RateLimit      int
	RateWindow     time.Duration
	RateLimitPaths []string

	// AllowZeroAnswers makes required fields accept literal 0 and false
	// instead of treating them as missing.
	AllowZeroAnswers bool

	GroqModel  string
	GroqAPIKey string

	Debug bool
}

// Parse reads configuration from the given command line arguments. Secrets
// default to the environment (a .env file is honored if present), so they
// never have to appear on the command line.
func Parse(args []string) (cfg Config, err error) {
	godotenv.Load()

	fs := flag.NewFlagSet("formwise", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", "0.0.0.0", "listen host name")
	var port uint
	fs.UintVar(&port, "port", 8000, "listen port number")
	fs.StringVar(&cfg.DBPath, "db-path", "formwise.sqlite", "path to SQLite3 DB file")
	fs.StringVar(&cfg.TokenSecret, "token-secret", os.Getenv("TOKEN_SECRET"), "secret key for access token signing")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", 60, "access token TTL in minutes")

	fs.IntVar(&cfg.MaxForms, "max-forms", 10, "maximum number of forms per user")
	fs.IntVar(&cfg.MaxFields, "max-fields", 25, "maximum number of fields per form")
	fs.IntVar(&cfg.MaxResponses, "max-responses", 100, "maximum number of responses per form")

	fs.IntVar(&cfg.RateLimit, "rate-limit", 5, "max requests per window on rate-limited paths")
	var window uint
	fs.UintVar(&window, "rate-window", 60, "rate limit window in seconds")
	var paths string
	fs.StringVar(&paths, "rate-limit-paths", "/api/v1/forms/generate", "comma-separated list of rate-limited paths")

	fs.BoolVar(&cfg.AllowZeroAnswers, "required-allow-zero", false, "accept 0 and false as answers to required fields")

	fs.StringVar(&cfg.GroqModel, "groq-model", "llama-3.3-70b-versatile", "Groq model used for form generation")
	fs.StringVar(&cfg.GroqAPIKey, "groq-api-key", os.Getenv("GROQ_API_KEY"), "Groq API key (empty disables generation)")

	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")

	err = fs.Parse(args)
	if err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Minute
	cfg.RateWindow = time.Duration(window) * time.Second
	for _, p := range strings.Split(paths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.RateLimitPaths = append(cfg.RateLimitPaths, p)
		}
	}

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
