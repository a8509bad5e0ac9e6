package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
)

const (
	DefaultCarpoolHost = "https://api.carpool.dev"

	apiKeyField = "apiKey"
)

var (
	ErrInvalidNumber  = errors.New("invalid number")
	ErrUnknownSetting = errors.New("unknown setting")
)

// SettingField names a plaintext datasource option.
type SettingField string

const (
	SettingURL        SettingField = "url"
	SettingMaxBuckets SettingField = "maxBuckets"
)

// Settings are the plaintext options stored in the datasource jsonData.
type Settings struct {
	URL        string `json:"url"`
	MaxBuckets int32  `json:"maxBuckets"`
}

// SecureSettings is the secureJsonData sent by the config editor. Grafana
// never hands it back to the editor once saved.
type SecureSettings struct {
	APIKey string `json:"apiKey,omitempty"`
}

// SecureFields mirrors secureJsonFields: which secure keys have been saved.
type SecureFields map[string]bool

// UpdatePlainField returns cfg with field set from the editor input. A
// maxBuckets value that is not a non-negative integer is rejected and cfg is
// returned unchanged.
func UpdatePlainField(cfg Settings, field SettingField, value string) (Settings, error) {
	switch field {
	case SettingURL:
		cfg.URL = value
		return cfg, nil
	case SettingMaxBuckets:
		n, err := parseMaxBuckets(value)
		if err != nil {
			return cfg, err
		}
		cfg.MaxBuckets = n
		return cfg, nil
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnknownSetting, field)
	}
}

func parseMaxBuckets(value string) (int32, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: maxBuckets %q", ErrInvalidNumber, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: maxBuckets must not be negative, got %d", ErrInvalidNumber, n)
	}
	return int32(n), nil
}

// SetSecret stages a new API key. It is only sent towards Grafana's secret
// storage and is not reflected in the visible settings.
func SetSecret(_ SecureSettings, value string) SecureSettings {
	return SecureSettings{APIKey: value}
}

// IsConfigured reports whether an API key has been saved before.
func IsConfigured(fields SecureFields) bool {
	return fields[apiKeyField]
}

// ResetSecret un-commits the saved API key so a new one can be entered.
func ResetSecret(fields SecureFields, _ SecureSettings) (SecureFields, SecureSettings) {
	out := make(SecureFields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[apiKeyField] = false
	return out, SecureSettings{APIKey: ""}
}

// LoadSettings decodes the plaintext options of a datasource instance.
func LoadSettings(inst backend.DataSourceInstanceSettings) (Settings, error) {
	var s Settings
	if len(inst.JSONData) > 0 {
		if err := json.Unmarshal(inst.JSONData, &s); err != nil {
			return Settings{}, fmt.Errorf("failed to unmarshal settings json: %w", err)
		}
	}
	if s.MaxBuckets < 0 {
		return Settings{}, fmt.Errorf("%w: maxBuckets must not be negative, got %d", ErrInvalidNumber, s.MaxBuckets)
	}

	s.URL = strings.TrimRight(strings.TrimSpace(s.URL), "/")
	if s.URL == "" {
		s.URL = DefaultCarpoolHost
	}

	return s, nil
}

// SecureFieldsFromInstance reports which secure keys are set on inst without
// exposing their values.
func SecureFieldsFromInstance(inst backend.DataSourceInstanceSettings) SecureFields {
	fields := SecureFields{}
	for k, v := range inst.DecryptedSecureJSONData {
		fields[k] = v != ""
	}
	return fields
}
