package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
	"gopkg.in/yaml.v3"
)

// Package profiles loads named API credentials (YAML/JSON) and registers them as connector aliases.

type Profile struct {
	Alias          string            `json:"alias" yaml:"alias"`
	AppID          string            `json:"app_id" yaml:"app_id"`
	AppKey         string            `json:"app_key" yaml:"app_key"`
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`
	APIVersion     string            `json:"api_version" yaml:"api_version"`
	Model          string            `json:"model" yaml:"model"`
	DevMode        bool              `json:"dev_mode" yaml:"dev_mode"`
	Default        bool              `json:"default" yaml:"default"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
}

type registry struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

var (
	regMu                 sync.RWMutex
	currentReg            registry
	profilesIdx           map[string]Profile
	defaultTimeoutSeconds = 30
)

// Profiles returns a copy of the currently loaded profiles.
func Profiles() []Profile {
	regMu.RLock()
	defer regMu.RUnlock()

	if len(currentReg.Profiles) == 0 {
		return nil
	}

	out := make([]Profile, len(currentReg.Profiles))
	copy(out, currentReg.Profiles)
	return out
}

// ProfileByAlias returns the profile for alias, if loaded.
func ProfileByAlias(alias string) (Profile, bool) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return Profile{}, false
	}

	regMu.RLock()
	defer regMu.RUnlock()

	if profilesIdx == nil {
		return Profile{}, false
	}

	p, ok := profilesIdx[alias]
	return p, ok
}

// LoadProfiles loads the profiles file, replacing any previously loaded set.
func LoadProfiles(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("profiles file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open profiles file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read profiles file: %w", err)
	}

	reg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return err
	}

	if len(reg.Profiles) == 0 {
		return errors.New("profiles file contains no profiles entries")
	}

	idx := make(map[string]Profile, len(reg.Profiles))
	defaults := 0
	for i := range reg.Profiles {
		p := sanitizeProfile(reg.Profiles[i])
		if err := validateProfile(p); err != nil {
			return fmt.Errorf("profile[%d]: %w", i, err)
		}
		if _, exists := idx[p.Alias]; exists {
			return fmt.Errorf("duplicate profile alias %q", p.Alias)
		}
		if p.Default {
			defaults++
		}
		reg.Profiles[i] = p
		idx[p.Alias] = p
	}
	if defaults > 1 {
		return errors.New("more than one profile is marked default")
	}

	regMu.Lock()
	currentReg = reg
	profilesIdx = idx
	regMu.Unlock()

	return nil
}

func parseRegistry(data []byte, ext string) (registry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return registry{}, errors.New("profiles file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registry, error) {
	var reg registry
	if err := fn(data, &reg); err != nil {
		return registry{}, fmt.Errorf("decode %s profiles: %w", name, err)
	}
	return reg, nil
}

// sanitizeProfile trims fields and expands ${VAR} references in credentials.
func sanitizeProfile(p Profile) Profile {
	p.Alias = strings.TrimSpace(p.Alias)
	p.AppID = strings.TrimSpace(os.ExpandEnv(p.AppID))
	p.AppKey = strings.TrimSpace(os.ExpandEnv(p.AppKey))
	p.Endpoint = strings.TrimSpace(p.Endpoint)
	p.APIVersion = strings.ToLower(strings.TrimSpace(p.APIVersion))
	p.Model = strings.TrimSpace(p.Model)

	if p.APIVersion == "" {
		p.APIVersion = string(medapi.DefaultVersion)
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultTimeoutSeconds
	}
	if p.Headers == nil {
		p.Headers = map[string]string{}
	}

	return p
}

func validateProfile(p Profile) error {
	if p.Alias == "" {
		return errors.New("alias is required")
	}
	if p.AppID == "" {
		return fmt.Errorf("app_id is required for profile %q", p.Alias)
	}
	if p.AppKey == "" {
		return fmt.Errorf("app_key is required for profile %q", p.Alias)
	}
	switch medapi.APIVersion(p.APIVersion) {
	case medapi.V1, medapi.V2, medapi.V3:
	default:
		return fmt.Errorf("unsupported api_version %q for profile %q", p.APIVersion, p.Alias)
	}
	return nil
}

// Timeout returns the per-request timeout for the profile.
func (p Profile) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return time.Duration(defaultTimeoutSeconds) * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Config converts the profile into connector settings.
func (p Profile) Config() medapi.Config {
	return medapi.Config{
		AppID:          p.AppID,
		AppKey:         p.AppKey,
		Endpoint:       p.Endpoint,
		Version:        medapi.APIVersion(p.APIVersion),
		Model:          p.Model,
		DevMode:        p.DevMode,
		DefaultHeaders: p.Headers,
		Timeout:        p.Timeout(),
	}
}

// Apply configures every loaded profile in reg under its alias.
func Apply(reg *medapi.Registry, opts ...medapi.Option) error {
	for _, p := range Profiles() {
		if _, err := reg.Configure(p.Config(), p.Alias, p.Default, opts...); err != nil {
			return fmt.Errorf("configure profile %q: %w", p.Alias, err)
		}
	}
	return nil
}
