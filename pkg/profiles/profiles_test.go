package profiles

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write profiles file: %v", err)
	}
	return file
}

func TestLoadProfilesYAML(t *testing.T) {
	t.Setenv("TEST_APP_KEY", "secret")
	file := writeFile(t, "profiles.yaml", `
profiles:
  - alias: prod
    app_id: prod-id
    app_key: ${TEST_APP_KEY}
    api_version: V2
    model: infermedica-en
    timeout_seconds: 5
    default: true
    headers:
      X-Client: cli
  - alias: sandbox
    app_id: sb-id
    app_key: sb-key
    dev_mode: true
`)

	if err := LoadProfiles(file); err != nil {
		t.Fatalf("LoadProfiles returned error: %v", err)
	}
	if len(Profiles()) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(Profiles()))
	}

	p, ok := ProfileByAlias("prod")
	if !ok {
		t.Fatalf("expected prod profile")
	}
	if p.AppKey != "secret" {
		t.Fatalf("expected env expansion, got %q", p.AppKey)
	}
	if p.APIVersion != "v2" || p.Timeout() != 5*time.Second {
		t.Fatalf("unexpected profile %+v", p)
	}

	sb, _ := ProfileByAlias("sandbox")
	if sb.APIVersion != "v3" || sb.Timeout() != 30*time.Second {
		t.Fatalf("expected defaults for sandbox, got %+v", sb)
	}
	cfg := sb.Config()
	if !cfg.DevMode || cfg.Version != medapi.V3 {
		t.Fatalf("unexpected connector config %+v", cfg)
	}
}

func TestLoadProfilesJSONAndApply(t *testing.T) {
	file := writeFile(t, "profiles.json", `{"profiles":[{"alias":"legacy","app_id":"id","app_key":"key","api_version":"v1","default":true}]}`)
	if err := LoadProfiles(file); err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}

	reg := medapi.NewRegistry()
	if err := Apply(reg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	api, err := reg.Get("")
	if err != nil {
		t.Fatalf("expected default connector: %v", err)
	}
	if _, ok := api.(*medapi.V1Connector); !ok {
		t.Fatalf("expected v1 connector, got %T", api)
	}
	if _, err := reg.Get("legacy"); err != nil {
		t.Fatalf("expected aliased connector: %v", err)
	}
}

func TestLoadProfilesRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"duplicate": `
profiles:
  - {alias: a, app_id: x, app_key: y}
  - {alias: a, app_id: x, app_key: y}
`,
		"missing key": `
profiles:
  - {alias: a, app_id: x}
`,
		"bad version": `
profiles:
  - {alias: a, app_id: x, app_key: y, api_version: v7}
`,
		"two defaults": `
profiles:
  - {alias: a, app_id: x, app_key: y, default: true}
  - {alias: b, app_id: x, app_key: y, default: true}
`,
		"empty": `profiles: []`,
	}
	for name, content := range cases {
		file := writeFile(t, "profiles.yaml", content)
		if err := LoadProfiles(file); err == nil {
			t.Fatalf("%s: expected error, got nil", name)
		}
	}
}
