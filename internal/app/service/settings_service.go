package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xingxinag/onebooknav/internal/app/model"
	"github.com/xingxinag/onebooknav/internal/app/repository"
	"go.uber.org/zap"
)

const (
	publicSettingsCacheKey = "onebooknav:settings:public"
	publicSettingsCacheTTL = 5 * time.Minute
)

// Well-known setting keys.
const (
	SettingSiteName            = "site_name"
	SettingSiteDescription     = "site_description"
	SettingDefaultTheme        = "default_theme"
	SettingRegistrationEnabled = "registration_enabled"
	SettingInvitationRequired  = "invitation_required"
	SettingLinkCheckEnabled    = "link_check_enabled"
)

// SettingsService is the typed key/value store. The raw value column is
// decoded per value_type on every read; unknown keys fall back to the
// caller-supplied default.
type SettingsService struct {
	settings repository.SettingRepository
	cache    *redis.Client
	logger   *zap.Logger
}

// NewSettingsService returns the settings store. The redis client is
// optional and only caches the public subset.
func NewSettingsService(settings repository.SettingRepository, cache *redis.Client, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{settings: settings, cache: cache, logger: logger}
}

// SetSettingInput captures one upserted setting.
type SetSettingInput struct {
	Key         string
	Value       interface{}
	ValueType   model.SettingType
	Description string
	Category    string
	IsPublic    bool
}

// Value returns the decoded setting or def when the key is absent or the
// stored payload does not decode under its declared type.
func (s *SettingsService) Value(ctx context.Context, key string, def interface{}) interface{} {
	setting, err := s.settings.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrSettingNotFound) {
			s.logger.Warn("failed to load setting", zap.String("key", key), zap.Error(err))
		}
		return def
	}
	return decodeSetting(setting, def)
}

// GetBool decodes with the case-insensitive truthy set {"true","1","yes","on"}.
func (s *SettingsService) GetBool(ctx context.Context, key string, def bool) bool {
	if v, ok := s.Value(ctx, key, def).(bool); ok {
		return v
	}
	return def
}

func (s *SettingsService) GetInt(ctx context.Context, key string, def int) int {
	if v, ok := s.Value(ctx, key, def).(int); ok {
		return v
	}
	return def
}

func (s *SettingsService) GetString(ctx context.Context, key, def string) string {
	if v, ok := s.Value(ctx, key, def).(string); ok {
		return v
	}
	return def
}

// Set upserts a setting, serializing per type. Writes invalidate the public
// cache so stale values never outlive an update.
func (s *SettingsService) Set(ctx context.Context, input SetSettingInput) error {
	valueType := input.ValueType
	if valueType == "" {
		valueType = model.SettingTypeString
	}

	raw, err := encodeSettingValue(input.Value, valueType)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", input.Key, err)
	}

	category := input.Category
	if category == "" {
		category = "general"
	}

	err = s.settings.Upsert(ctx, &model.Setting{
		Key:         input.Key,
		Value:       raw,
		ValueType:   valueType,
		Description: input.Description,
		Category:    category,
		IsPublic:    input.IsPublic,
	})
	if err != nil {
		return fmt.Errorf("store setting %q: %w", input.Key, err)
	}

	s.invalidatePublicCache(ctx)
	return nil
}

// All returns every setting row, for the admin settings page.
func (s *SettingsService) All(ctx context.Context) ([]model.Setting, error) {
	return s.settings.List(ctx)
}

// PublicValues returns decoded values of public settings, cached in Redis.
func (s *SettingsService) PublicValues(ctx context.Context) (map[string]interface{}, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, publicSettingsCacheKey).Result()
		if err == nil {
			var cached map[string]interface{}
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("settings cache read failed", zap.Error(err))
		}
	}

	settings, err := s.settings.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("list public settings: %w", err)
	}

	values := make(map[string]interface{}, len(settings))
	for i := range settings {
		values[settings[i].Key] = decodeSetting(&settings[i], nil)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(values); err == nil {
			if err := s.cache.Set(ctx, publicSettingsCacheKey, payload, publicSettingsCacheTTL).Err(); err != nil {
				s.logger.Warn("settings cache write failed", zap.Error(err))
			}
		}
	}
	return values, nil
}

// Seed writes default settings for keys that do not exist yet.
func (s *SettingsService) Seed(ctx context.Context) error {
	defaults := []SetSettingInput{
		{Key: SettingSiteName, Value: "OneBookNav", ValueType: model.SettingTypeString, Description: "Site name", Category: "general", IsPublic: true},
		{Key: SettingSiteDescription, Value: "Bookmark navigation", ValueType: model.SettingTypeString, Description: "Site description", Category: "general", IsPublic: true},
		{Key: SettingDefaultTheme, Value: "default", ValueType: model.SettingTypeString, Description: "Default theme", Category: "appearance", IsPublic: true},
		{Key: SettingRegistrationEnabled, Value: true, ValueType: model.SettingTypeBool, Description: "Allow new registrations", Category: "user", IsPublic: true},
		{Key: SettingInvitationRequired, Value: false, ValueType: model.SettingTypeBool, Description: "Require invitation code on registration", Category: "user", IsPublic: true},
		{Key: SettingLinkCheckEnabled, Value: true, ValueType: model.SettingTypeBool, Description: "Enable link health checks", Category: "system", IsPublic: false},
	}

	for _, def := range defaults {
		_, err := s.settings.Get(ctx, def.Key)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrSettingNotFound) {
			return fmt.Errorf("probe setting %q: %w", def.Key, err)
		}
		if err := s.Set(ctx, def); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsService) invalidatePublicCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, publicSettingsCacheKey).Err(); err != nil {
		s.logger.Warn("settings cache invalidation failed", zap.Error(err))
	}
}

var truthy = map[string]bool{"true": true, "1": true, "yes": true, "on": true}

func decodeSetting(setting *model.Setting, def interface{}) interface{} {
	switch setting.ValueType {
	case model.SettingTypeInt:
		n, err := strconv.Atoi(strings.TrimSpace(setting.Value))
		if err != nil {
			return def
		}
		return n
	case model.SettingTypeBool:
		return truthy[strings.ToLower(strings.TrimSpace(setting.Value))]
	case model.SettingTypeJSON:
		var v map[string]interface{}
		if err := json.Unmarshal([]byte(setting.Value), &v); err != nil {
			return map[string]interface{}{}
		}
		return v
	default:
		return setting.Value
	}
}

func encodeSettingValue(value interface{}, valueType model.SettingType) (string, error) {
	if valueType == model.SettingTypeJSON {
		payload, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return string(payload), nil
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return fmt.Sprint(v), nil
	}
}
