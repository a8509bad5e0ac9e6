package plugin

import (
	"context"
	"fmt"

	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// SecretStore is the write-only side of Grafana's secure json storage. Values
// can be written and deleted but only their presence can be read back.
//
//counterfeiter:generate -o fake . SecretStore
type SecretStore interface {
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Configured(ctx context.Context, key string) (bool, error)
}

// SaveSecret commits the pending secure settings to store. A staged API key
// is written, a reset one is deleted. The returned SecureSettings is always
// empty: after a save the editor only sees the configured flag.
func SaveSecret(ctx context.Context, store SecretStore, fields SecureFields, sec SecureSettings) (SecureFields, SecureSettings, error) {
	switch {
	case sec.APIKey != "":
		if err := store.Set(ctx, apiKeyField, sec.APIKey); err != nil {
			return fields, sec, fmt.Errorf("failed to store api key: %w", err)
		}
	case !IsConfigured(fields):
		if err := store.Delete(ctx, apiKeyField); err != nil {
			return fields, sec, fmt.Errorf("failed to delete api key: %w", err)
		}
	}

	configured, err := store.Configured(ctx, apiKeyField)
	if err != nil {
		return fields, sec, fmt.Errorf("failed to read api key state: %w", err)
	}
	log.DefaultLogger.Debug("saved secure settings", "apiKeyConfigured", configured)

	out := make(SecureFields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[apiKeyField] = configured

	return out, SecureSettings{}, nil
}
