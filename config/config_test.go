package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/kbukum/fieldcrypt/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const baseYAML = `
name: patients
environment: staging
encryption:
  algorithm: chacha20-poly1305
database:
  enabled: true
  dsn: "file::memory:"
  max_open_conns: 4
  max_idle_conns: 2
`

func TestServiceConfigApplyDefaults(t *testing.T) {
	tests := []struct {
		name      string
		in        ServiceConfig
		wantEnv   string
		wantDebug bool
	}{
		{name: "empty environment", in: ServiceConfig{Name: "svc"}, wantEnv: "development", wantDebug: true},
		{name: "production", in: ServiceConfig{Name: "svc", Environment: "production"}, wantEnv: "production"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			cfg.ApplyDefaults()
			if cfg.Environment != tt.wantEnv || cfg.Debug != tt.wantDebug {
				t.Errorf("got environment=%q debug=%v", cfg.Environment, cfg.Debug)
			}
			if cfg.Logging.ServiceName != "svc" || cfg.Logging.Level != "info" {
				t.Errorf("logging = %+v", cfg.Logging)
			}
		})
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{name: "valid", cfg: ServiceConfig{Name: "svc", Environment: "staging"}},
		{name: "missing name", cfg: ServiceConfig{Environment: "production"}, errMsg: "config.name is required"},
		{name: "invalid environment", cfg: ServiceConfig{Name: "svc", Environment: "qa"}, errMsg: "config.environment must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Logging.ApplyDefaults()
			err := tt.cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.errMsg)
			}
		})
	}
}

func TestLoadWithoutSecretKeyFails(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", baseYAML)

	_, err := Load("patients", WithConfigFile(path), WithEnvPrefix("FCTEST_NOKEY"))
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidConfig) {
		t.Fatalf("Load() error = %v, want INVALID_CONFIG", err)
	}
	if !strings.Contains(err.Error(), "encryption.secret_key") {
		t.Errorf("error does not name the secret key: %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yml", baseYAML)
	envPath := writeFile(t, dir, ".env", strings.Join([]string{
		"FCTEST_ENCRYPTION_SECRET_KEY=from-dotenv",
		"FCTEST_DATABASE_MAX_OPEN_CONNS=8",
		"FCTEST_VERSION=1.2.3",
	}, "\n"))
	t.Setenv("FCTEST_DATABASE_MAX_OPEN_CONNS", "16")
	t.Setenv("FCTEST_LOGGING_LEVEL", "debug")

	cfg, err := Load("patients", WithConfigFile(cfgPath), WithEnvFile(envPath), WithEnvPrefix("FCTEST_"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"name from file", cfg.Name, "patients"},
		{"environment from file", cfg.Environment, "staging"},
		{"version from dotenv", cfg.Version, "1.2.3"},
		{"secret from dotenv", cfg.Encryption.SecretKey, "from-dotenv"},
		{"algorithm from file", cfg.Encryption.Algorithm, "chacha20-poly1305"},
		{"env beats dotenv", cfg.Database.MaxOpenConns, 16},
		{"idle from file", cfg.Database.MaxIdleConns, 2},
		{"logging from env", cfg.Logging.Level, "debug"},
		{"database default", cfg.Database.Driver, "sqlite"},
	}
	for _, c := range checks {
		if !reflect.DeepEqual(c.got, c.want) {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		errMsg string
	}{
		{
			name:   "unknown algorithm",
			env:    map[string]string{"FCTEST_BAD_ENCRYPTION_SECRET_KEY": "k", "FCTEST_BAD_ENCRYPTION_ALGORITHM": "rot13"},
			errMsg: "encryption.algorithm",
		},
		{
			name:   "database limits",
			env:    map[string]string{"FCTEST_BAD_ENCRYPTION_SECRET_KEY": "k", "FCTEST_BAD_DATABASE_MAX_IDLE_CONNS": "10"},
			errMsg: "config.database",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yml", baseYAML)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("patients", WithConfigFile(path), WithEnvPrefix("FCTEST_BAD"))
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Fatalf("Load() error = %v, want %q", err, tt.errMsg)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "config.yml", "name: [unterminated")

	var cfg Config
	if err := LoadConfig("svc", &cfg, WithConfigFile(broken)); err == nil {
		t.Error("LoadConfig() with malformed YAML should fail")
	}
	if err := LoadConfig("svc", cfg); err == nil {
		t.Error("LoadConfig() with a non-pointer target should fail")
	}
	if err := LoadConfig("svc", &cfg, WithConfigFile(filepath.Join(dir, "missing.yml"))); err != nil {
		t.Errorf("LoadConfig() with a missing file error = %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }

func (m *mockFS) ReadEnv(string) (map[string]string, error) { return nil, nil }

func TestResolverSearchOrder(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		opts  LoaderConfig
		want  ResolvedFiles
	}{
		{
			name:  "service directory first",
			files: []string{"./cmd/patients/config.yml", "./config.yml", "./.env"},
			want:  ResolvedFiles{ConfigFile: "./cmd/patients/config.yml", EnvFile: "./.env"},
		},
		{
			name:  "service env file",
			files: []string{"./config/config.yml", "./.env.patients", "./.env"},
			want:  ResolvedFiles{ConfigFile: "./config/config.yml", EnvFile: "./.env.patients"},
		},
		{
			name:  "explicit paths win",
			files: []string{"./config.yml"},
			opts:  LoaderConfig{ConfigFile: "/etc/app.yml", EnvFile: "/etc/app.env"},
			want:  ResolvedFiles{ConfigFile: "/etc/app.yml", EnvFile: "/etc/app.env"},
		},
		{
			name: "nothing found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &mockFS{files: map[string]bool{}}
			for _, f := range tt.files {
				fs.files[f] = true
			}
			r := &Resolver{FileSystem: fs}
			if got := r.ResolveFiles("patients", tt.opts); got != tt.want {
				t.Errorf("ResolveFiles() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfigKeys(t *testing.T) {
	keys := configKeys(reflect.TypeOf(Config{}), "")
	want := []string{
		"name",
		"logging.level",
		"encryption.secret_key",
		"encryption.algorithm",
		"database.dsn",
		"database.max_open_conns",
		"database.log_params",
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	for _, k := range want {
		if !set[k] {
			t.Errorf("configKeys() missing %q", k)
		}
	}
	if envName("FIELDCRYPT", "encryption.secret_key") != "FIELDCRYPT_ENCRYPTION_SECRET_KEY" {
		t.Errorf("envName() = %q", envName("FIELDCRYPT", "encryption.secret_key"))
	}
}
