package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type RuntimeConfig struct {
	DBPath         string
	SaveDelay      time.Duration
	FullVersion    bool
	FreeIssueLimit int
	ReminderBuffer int
	LogLevel       string
	LogFormat      string
	LogFile        string
	WatchRemote    bool
	DesktopNotify  bool
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DBPath:         "tracker.db",
		SaveDelay:      3 * time.Second,
		FullVersion:    false,
		FreeIssueLimit: 0,
		ReminderBuffer: 64,
		LogLevel:       "info",
		LogFormat:      "text",
		LogFile:        "tracker.log",
		WatchRemote:    true,
		DesktopNotify:  false,
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvString("TRACKER_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvDuration("TRACKER_SAVE_DELAY"); ok && v > 0 {
		cfg.SaveDelay = v
	}
	if v, ok := getEnvBool("TRACKER_FULL_VERSION"); ok {
		cfg.FullVersion = v
	}
	if v, ok := getEnvInt("TRACKER_FREE_ISSUE_LIMIT"); ok && v >= 0 {
		cfg.FreeIssueLimit = v
	}
	if v, ok := getEnvInt("TRACKER_REMINDER_BUFFER"); ok && v > 0 {
		cfg.ReminderBuffer = v
	}
	if v, ok := getEnvString("TRACKER_LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := getEnvString("TRACKER_LOG_FORMAT"); ok {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v, ok := getEnvString("TRACKER_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvBool("TRACKER_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotify = v
	}
	if v, ok := getEnvBool("TRACKER_WATCH"); ok {
		cfg.WatchRemote = v
	}
	return cfg
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// getEnvDuration accepts Go durations ("1500ms") or whole seconds ("3").
func getEnvDuration(name string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return d, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
