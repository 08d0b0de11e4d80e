package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr      string
	AllowedSubnets  []string
	RequestTimeout  time.Duration
	LogLevel        string
	LogFormat       string
	MonitorInterval time.Duration
	SampleTTL       time.Duration
	MetricsEnabled  bool

	// Serial status panel; disabled when PanelPort is empty.
	PanelPort     string
	PanelBaud     int
	PanelInterval time.Duration
}

func LoadFromEnv() Config {
	return Config{
		ListenAddr:      env("LISTEN_ADDR", "0.0.0.0:3000"),
		AllowedSubnets:  splitCSV(env("ALLOWED_SUBNETS", "")),
		RequestTimeout:  envDuration("REQUEST_TIMEOUT", 5*time.Second),
		LogLevel:        strings.ToLower(env("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(env("LOG_FORMAT", "console")),
		MonitorInterval: envDuration("MONITOR_INTERVAL", 2*time.Second),
		SampleTTL:       envDuration("SAMPLE_TTL", 1500*time.Millisecond),
		MetricsEnabled:  envBool("METRICS_ENABLED", true),
		PanelPort:       env("PANEL_PORT", ""),
		PanelBaud:       envInt("PANEL_BAUD", 115200),
		PanelInterval:   envDuration("PANEL_INTERVAL", 2*time.Second),
	}
}

func env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
