package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "0123456789abcdef0123"},
		Engine: DefaultEngine(),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "默认合法", mutate: func(c *Config) {}},
		{name: "缺少密钥", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: true},
		{name: "密钥过短", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: true},
		{name: "端口越界", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "加班阈值为0", mutate: func(c *Config) { c.Engine.OvertimeThresholdHours = 0 }, wantErr: true},
		{name: "班次容量为0", mutate: func(c *Config) { c.Engine.DefaultShiftCapacity = 0 }, wantErr: true},
		{name: "最大工时为负", mutate: func(c *Config) { c.Engine.MaxHoursPerAssignment = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
auth:
  jwt_secret: "file-secret-0123456789"
engine:
  overtime_threshold_hours: 10
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CATERING_DB_HOST", "db.internal")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host, "环境变量应覆盖默认值")
	assert.Equal(t, 10, cfg.Engine.OvertimeThresholdHours)
	assert.Equal(t, 1, cfg.Engine.DefaultShiftCapacity, "未配置项应使用默认值")
	assert.Contains(t, cfg.Database.DSN(), "TimeZone=UTC")
}

func TestLoad_MissingSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
