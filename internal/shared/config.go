package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// OrgSpec is one configured organization: a short stable code, a display
// name, and the Google Play application id its reviews are fetched from.
type OrgSpec struct {
	Code        string
	DisplayName string
	AppID       string
}

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	PlayBase     string
	ScrapeLang   string
	ScrapeGeo    string
	TargetPerOrg int
	PageCap      int
	MaxRetries   int
	RetryDelay   time.Duration
	PageDelay    time.Duration
	Workers      int
	CacheTTL     time.Duration

	Organizations []OrgSpec
}

// Load reads configuration from the environment (a .env file is honored when
// present) and returns an immutable snapshot for the run.
func Load() Config {
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/bank_reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		PlayBase:     env("PLAY_BASE_URL", "https://play.google.com"),
		ScrapeLang:   env("SCRAPE_LANG", "en"),
		ScrapeGeo:    env("SCRAPE_COUNTRY", "et"),
		TargetPerOrg: atoi("REVIEWS_PER_ORG", 600),
		PageCap:      atoi("PAGE_CAP", 199), // largest batch the provider accepts per call
		MaxRetries:   atoi("MAX_RETRIES", 3),
		RetryDelay:   time.Duration(atoi("RETRY_DELAY_SECONDS", 5)) * time.Second,
		PageDelay:    time.Duration(atoi("PAGE_DELAY_MS", 500)) * time.Millisecond,
		Workers:      atoi("INGEST_WORKERS", 1),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		Organizations: []OrgSpec{
			{Code: "CBE", DisplayName: "Commercial Bank of Ethiopia", AppID: env("CBE_APP_ID", "com.combanketh.mobilebanking")},
			{Code: "BOA", DisplayName: "Bank of Abyssinia", AppID: env("BOA_APP_ID", "com.boa.boaMobileBanking")},
			{Code: "Dashen", DisplayName: "Dashen Bank", AppID: env("DASHEN_APP_ID", "com.dashen.dashensuperapp")},
		},
	}
	if c.TargetPerOrg <= 0 {
		log.Warn().Int("reviews_per_org", c.TargetPerOrg).Msg("REVIEWS_PER_ORG not positive, falling back to 600")
		c.TargetPerOrg = 600
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
