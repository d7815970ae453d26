package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWithEnvSecret(t *testing.T) {
	t.Setenv("KUNYIT_AUTH_JWT_SECRET", "unit-test-secret-0123456789")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("期望 port=8080，实际=%d", cfg.Server.Port)
	}
	if cfg.QRCode.Prefix != "HG050" {
		t.Errorf("期望 prefix=HG050，实际=%s", cfg.QRCode.Prefix)
	}
	if cfg.QRCode.Timeout != 10*time.Second {
		t.Errorf("期望 qrcode.timeout=10s，实际=%v", cfg.QRCode.Timeout)
	}
	if cfg.Import.MaxRows != 1000 {
		t.Errorf("期望 import.max_rows=1000，实际=%d", cfg.Import.MaxRows)
	}
	if cfg.Kafka.Enabled() {
		t.Error("默认不应启用 Kafka")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
auth:
  jwt_secret: "file-secret-abcdefghijkl"
qrcode:
  prefix: "EVT"
kafka:
  brokers: ["localhost:9092"]
  topic: "checkins"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望 port=9090，实际=%d", cfg.Server.Port)
	}
	if cfg.QRCode.Prefix != "EVT" {
		t.Errorf("期望 prefix=EVT，实际=%s", cfg.QRCode.Prefix)
	}
	if !cfg.Kafka.Enabled() {
		t.Error("配置 brokers 后应启用 Kafka")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			Auth:   AuthConfig{JWTSecret: "0123456789abcdef"},
			QRCode: QRCodeConfig{Prefix: "HG050"},
			Import: ImportConfig{MaxRows: 10},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("合法配置不应报错: %v", err)
	}

	cases := map[string]func(c *Config){
		"空密钥":   func(c *Config) { c.Auth.JWTSecret = "" },
		"密钥过短":  func(c *Config) { c.Auth.JWTSecret = "short" },
		"端口越界":  func(c *Config) { c.Server.Port = 70000 },
		"前缀为空":  func(c *Config) { c.QRCode.Prefix = "  " },
		"导入行数为0": func(c *Config) { c.Import.MaxRows = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("期望校验失败")
			}
		})
	}
}
