package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                 string
	DataDir              string
	TicketPrefix         string
	Preparers            []string
	SheetsBaseURL        string
	WaitMinutesPerClient int
	RefreshInterval      time.Duration
	SlotPollInterval     time.Duration
	ForwardGuard         time.Duration
	RateLimitPerMinute   int
	RateLimitBurst       int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	prefix := os.Getenv("TICKET_PREFIX")
	if prefix == "" {
		prefix = "MWQ"
	}

	return Config{
		Port:                 port,
		DataDir:              dataDir,
		TicketPrefix:         prefix,
		Preparers:            readList("PREPARERS", []string{"Ingrid", "Kevin", "Ruben"}),
		SheetsBaseURL:        os.Getenv("SHEETS_BASE_URL"),
		WaitMinutesPerClient: readInt("WAIT_MINUTES_PER_CLIENT", 15),
		RefreshInterval:      readDurationSeconds("REFRESH_INTERVAL_SECONDS", 5),
		SlotPollInterval:     readDurationSeconds("SLOT_POLL_INTERVAL_SECONDS", 1),
		ForwardGuard:         readDurationSeconds("FORWARD_GUARD_SECONDS", 2),
		RateLimitPerMinute:   readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:       readInt("RATE_LIMIT_BURST", 30),
	}
}

func readList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
