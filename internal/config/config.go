package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	StagingDir string
	SuccessDir string
	ErrorDir   string
	OutputDir  string
	DBPath     string

	ErpPrimaryURL      string
	ErpSecondaryURL    string
	ErpLogin           string
	ErpPassword        string
	ErpLookupTimeoutMs int
	ErpSubmitTimeoutMs int
	ErpCacheSize       int
	ErpSwapEndpoints   bool

	MatchThreshold float64

	NotificationEmails []string

	EnableEmailNotification    bool
	EnableSuccessNotifications bool
	EnableErpSubmit            bool
	EnableProvisionEnrichment  bool

	WatchIntervalSec int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		StagingDir: getEnv("STAGING_DIR", filepath.Join(cwd, "data", "out_ocr")),
		SuccessDir: getEnv("SUCCESS_DIR", filepath.Join(cwd, "data", "success")),
		ErrorDir:   getEnv("ERROR_DIR", filepath.Join(cwd, "data", "error")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "journal.db")),

		ErpPrimaryURL:      getEnv("ERP_PRIMARY_URL", "http://10.10.0.10:81/ca/hs/interaction"),
		ErpSecondaryURL:    getEnv("ERP_SECONDARY_URL", "http://kappa5.group.ru:81/ca/hs/interaction"),
		ErpLogin:           getEnv("ERP_LOGIN", ""),
		ErpPassword:        getEnv("ERP_PASSWORD", ""),
		ErpLookupTimeoutMs: getEnvInt("ERP_LOOKUP_TIMEOUT_MS", 30000),
		ErpSubmitTimeoutMs: getEnvInt("ERP_SUBMIT_TIMEOUT_MS", 60000),
		ErpCacheSize:       getEnvInt("ERP_CACHE_SIZE", 40),
		ErpSwapEndpoints:   getEnvBool("ERP_SWAP_ENDPOINTS", false),

		MatchThreshold: getEnvFloat("MATCH_THRESHOLD", 0.9),

		NotificationEmails: getEnvList("NOTIFICATION_EMAILS", nil),

		EnableEmailNotification:    getEnvBool("ENABLE_EMAIL_NOTIFICATION", true),
		EnableSuccessNotifications: getEnvBool("ENABLE_SUCCESS_NOTIFICATIONS", true),
		EnableErpSubmit:            getEnvBool("ENABLE_ERP_SUBMIT", false),
		EnableProvisionEnrichment:  getEnvBool("ENABLE_PROVISION_ENRICHMENT", true),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 120),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := getEnv(key, "")
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
