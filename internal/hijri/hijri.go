// Package hijri manages the operator-set hijri date adjustment.
package hijri

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ramadhantime/notifier/internal/cache"
)

// SettingKey is the app_settings row holding the adjustment.
const SettingKey = "hijri_adjustment"

// Bounds of the adjustment in days.
const (
	MinAdjustment = -2
	MaxAdjustment = 2
)

const cacheKey = "hijri:" + SettingKey

// ErrOutOfRange is returned for adjustments outside [MinAdjustment, MaxAdjustment].
var ErrOutOfRange = errors.New("adjustment must be between -2 and 2")

// SettingsStore reads and writes app settings.
type SettingsStore interface {
	Setting(ctx context.Context, key string) (value string, ok bool, err error)
	PutSetting(ctx context.Context, key, value string, at time.Time) error
}

// Service reads and updates the adjustment.
type Service struct {
	store  SettingsStore
	cache  *cache.Cache
	logger *slog.Logger
}

// NewService creates the service. c may be nil.
func NewService(store SettingsStore, c *cache.Cache, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.New(false)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: c, logger: logger}
}

// Adjustment returns the current adjustment, 0 when unset or unreadable.
func (s *Service) Adjustment(ctx context.Context) int {
	if data, _, ok := s.cache.Get(cacheKey); ok {
		if n, err := strconv.Atoi(string(data)); err == nil {
			return n
		}
	}

	value, ok, err := s.store.Setting(ctx, SettingKey)
	if err != nil {
		s.logger.Error("Failed to read hijri adjustment", "error", err)
		return 0
	}
	n := 0
	if ok {
		if n, err = strconv.Atoi(value); err != nil {
			s.logger.Warn("Stored hijri adjustment is not an integer", "value", value)
			n = 0
		}
	}
	s.cache.Set(cacheKey, []byte(strconv.Itoa(n)), cache.TTLHijriOffset)
	return n
}

// SetAdjustment validates and stores a new adjustment.
func (s *Service) SetAdjustment(ctx context.Context, n int) error {
	if n < MinAdjustment || n > MaxAdjustment {
		return ErrOutOfRange
	}
	if err := s.store.PutSetting(ctx, SettingKey, strconv.Itoa(n), time.Now().UTC()); err != nil {
		return fmt.Errorf("store %s: %w", SettingKey, err)
	}
	s.Invalidate()
	return nil
}

// Invalidate drops the cached value.
func (s *Service) Invalidate() {
	s.cache.Delete(cacheKey)
}
