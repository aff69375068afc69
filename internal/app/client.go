package app

import (
	"fmt"

	"github.com/samvad-hq/samvad-diagnosis-client/internal/config"
	"github.com/samvad-hq/samvad-diagnosis-client/internal/logger"
	"github.com/samvad-hq/samvad-diagnosis-client/internal/metrics"
	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
	"github.com/samvad-hq/samvad-diagnosis-client/pkg/profiles"
)

// Connect builds the API connector selected by cfg. With a profiles file the
// connector is the profile named by cfg.Profile (or the default profile);
// otherwise it is built from the medapi_* settings.
func Connect(cfg *config.Config, log logger.Logger, m *metrics.Metrics) (medapi.API, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	opts := []medapi.Option{
		medapi.WithLogger(log),
		medapi.WithCallObserver(m.ObserveCall),
		medapi.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	reg := medapi.NewRegistry()
	alias := cfg.Profile

	if cfg.ProfilesFile != "" {
		if err := profiles.LoadProfiles(cfg.ProfilesFile); err != nil {
			return nil, "", fmt.Errorf("load profiles: %w", err)
		}
		if err := profiles.Apply(reg, opts...); err != nil {
			return nil, "", err
		}
		log.InfoObj("profiles loaded", "profiles_meta", map[string]any{
			"aliases":  reg.Aliases(),
			"selected": alias,
		})
	} else {
		alias = ""
		_, err := reg.Configure(medapi.Config{
			AppID:    cfg.AppID,
			AppKey:   cfg.AppKey,
			Endpoint: cfg.Endpoint,
			Version:  medapi.APIVersion(cfg.APIVersion),
			Model:    cfg.Model,
			DevMode:  cfg.DevMode,
			Timeout:  cfg.Timeout,
		}, "", true, opts...)
		if err != nil {
			return nil, "", fmt.Errorf("configure connector: %w", err)
		}
	}

	api, err := reg.Get(alias)
	if err != nil {
		return nil, "", err
	}
	log.InfoObj("connector ready", "connector_meta", map[string]any{
		"alias":   alias,
		"version": api.Version(),
	})
	return api, alias, nil
}
