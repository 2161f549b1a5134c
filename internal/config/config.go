package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/services"
)

// Get returns the environment variable or a fallback.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetInt returns the environment variable parsed as int, or a fallback.
func GetInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// PolicyFile is the yaml shape of the billing policy. RatePerDay is in
// dollars; it becomes integer cents at load and stays integer from there on.
type PolicyFile struct {
	Timezone          string  `yaml:"timezone"`
	GracePeriodDays   int     `yaml:"grace_period_days"`
	RatePerDay        float64 `yaml:"rate_per_day"`
	MinWaiveReasonLen int     `yaml:"min_waive_reason_len"`
}

// LoadPolicy reads and validates the billing policy yaml file.
func LoadPolicy(path string) (services.BillingPolicy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return services.BillingPolicy{}, fmt.Errorf("load policy: read %q: %w", path, err)
	}

	var file PolicyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return services.BillingPolicy{}, fmt.Errorf("load policy: parse yaml: %w", err)
	}

	return PolicyFromFile(file)
}

// PolicyFromFile validates a parsed policy and binds its calendar.
func PolicyFromFile(file PolicyFile) (services.BillingPolicy, error) {
	if file.Timezone == "" {
		file.Timezone = dates.DefaultTimezone
	}
	if file.MinWaiveReasonLen == 0 {
		file.MinWaiveReasonLen = services.DefaultMinWaiveReasonLen
	}

	if file.GracePeriodDays < 0 {
		return services.BillingPolicy{}, fmt.Errorf("load policy: grace_period_days must not be negative, got %d", file.GracePeriodDays)
	}
	if file.RatePerDay < 0 {
		return services.BillingPolicy{}, fmt.Errorf("load policy: rate_per_day must not be negative, got %v", file.RatePerDay)
	}
	if file.MinWaiveReasonLen < 0 {
		return services.BillingPolicy{}, fmt.Errorf("load policy: min_waive_reason_len must not be negative, got %d", file.MinWaiveReasonLen)
	}

	cal, err := dates.NewCalendar(file.Timezone)
	if err != nil {
		return services.BillingPolicy{}, fmt.Errorf("load policy: %w", err)
	}

	return services.BillingPolicy{
		Calendar:          cal,
		GraceDays:         file.GracePeriodDays,
		RateCents:         services.CentsFromDollars(file.RatePerDay),
		MinWaiveReasonLen: file.MinWaiveReasonLen,
	}, nil
}
