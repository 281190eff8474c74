package config

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	AI       AIConfig       `yaml:"ai"`
	Mail     MailConfig     `yaml:"mail"`
	Intake   IntakeConfig   `yaml:"intake"`
}

// ServerConfig は HTTP サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	MigrationsDir      string        `yaml:"migrations_dir"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// AuthConfig は認証トークンとパスワードハッシュに関する設定です。
type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"-"`
	TokenTTLRaw string        `yaml:"token_ttl"`
	BcryptCost  int           `yaml:"bcrypt_cost"`
}

// AIConfig は抽出サービス(生成 AI)に関する設定です。
// APIKey が空の場合、抽出機能のみ無効となりサービス自体は起動します。
type AIConfig struct {
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// MailConfig は SMTP によるメール送信に関する設定です。
type MailConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	From       string        `yaml:"from"`
	LoginURL   string        `yaml:"login_url"`
	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// IntakeConfig は一括取り込みワークフローに関する設定です。
type IntakeConfig struct {
	PasswordLength int    `yaml:"password_length"`
	SystemActorID  string `yaml:"system_actor_id"`
}

const (
	defaultTokenTTL       = 24 * time.Hour
	defaultAIModel        = "gemini-2.0-flash"
	defaultAITimeout      = 30 * time.Second
	defaultMailTimeout    = 10 * time.Second
	defaultPasswordLength = 12
	minPasswordLength     = 8
	defaultSystemActorID  = "system"
	defaultMigrationsDir  = "assets/migrations"
)

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}

	if err := c.Auth.validateAndNormalize(); err != nil {
		return err
	}

	if err := c.AI.validateAndNormalize(); err != nil {
		return err
	}

	if err := c.Mail.validateAndNormalize(); err != nil {
		return err
	}

	return c.Intake.validateAndNormalize()
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.MigrationsDir == "" {
		d.MigrationsDir = defaultMigrationsDir
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (a *AuthConfig) validateAndNormalize() error {
	if a.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}

	ttl, err := parseDurationAllowEmpty(a.TokenTTLRaw)
	if err != nil {
		return fmt.Errorf("config: auth.token_ttl: %w", err)
	}
	if ttl == 0 {
		ttl = defaultTokenTTL
	}
	a.TokenTTL = ttl

	if a.BcryptCost == 0 {
		a.BcryptCost = bcrypt.DefaultCost
	}
	if a.BcryptCost < bcrypt.MinCost || a.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return nil
}

func (a *AIConfig) validateAndNormalize() error {
	if a.Model == "" {
		a.Model = defaultAIModel
	}

	timeout, err := parseDurationAllowEmpty(a.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: ai.timeout: %w", err)
	}
	if timeout == 0 {
		timeout = defaultAITimeout
	}
	a.Timeout = timeout

	return nil
}

// Enabled は抽出サービスが構成済みかどうかを返します。
func (a AIConfig) Enabled() bool {
	return a.APIKey != ""
}

func (m *MailConfig) validateAndNormalize() error {
	if m.Host == "" {
		return fmt.Errorf("config: mail.host must be set")
	}
	if m.Port == 0 {
		return fmt.Errorf("config: mail.port must be set")
	}
	if m.From == "" {
		return fmt.Errorf("config: mail.from must be set")
	}
	if m.LoginURL == "" {
		return fmt.Errorf("config: mail.login_url must be set")
	}

	timeout, err := parseDurationAllowEmpty(m.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: mail.timeout: %w", err)
	}
	if timeout == 0 {
		timeout = defaultMailTimeout
	}
	m.Timeout = timeout

	return nil
}

func (i *IntakeConfig) validateAndNormalize() error {
	if i.PasswordLength == 0 {
		i.PasswordLength = defaultPasswordLength
	}
	if i.PasswordLength < minPasswordLength {
		return fmt.Errorf("config: intake.password_length must be at least %d", minPasswordLength)
	}
	if i.SystemActorID == "" {
		i.SystemActorID = defaultSystemActorID
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}
