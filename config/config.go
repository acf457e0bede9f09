package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/spdeepak/crm-session-guard/internal/claims"
	"github.com/spdeepak/crm-session-guard/internal/roles"
)

const (
	EnvPrefix      = "CRM"
	ConfigFileEnv  = "CONFIG_FILE_PATH"
	defaultPort    = "8080"
	defaultBackend = "http://localhost:8000"
)

type AppConfig struct {
	v *viper.Viper

	Server      Server      `json:"server" yaml:"server"`
	Backend     Backend     `json:"backend" yaml:"backend"`
	Session     Session     `json:"session" yaml:"session"`
	Claims      claims.Keys `json:"claims" yaml:"claims"`
	Routes      Routes      `json:"routes" yaml:"routes"`
	Permissions Permissions `json:"permissions" yaml:"permissions"`
	Redis       Redis       `json:"redis" yaml:"redis"`
}

type Server struct {
	Port string `json:"port" yaml:"port"`
}

type Backend struct {
	BaseURL string        `mapstructure:"baseUrl" json:"baseUrl" yaml:"baseUrl"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

type Session struct {
	CookieName       string        `mapstructure:"cookieName" json:"cookieName" yaml:"cookieName"`
	CookieDomain     string        `mapstructure:"cookieDomain" json:"cookieDomain" yaml:"cookieDomain"`
	InsecureCookie   bool          `mapstructure:"insecureCookie" json:"insecureCookie" yaml:"insecureCookie"`
	PollInterval     time.Duration `mapstructure:"pollInterval" json:"pollInterval" yaml:"pollInterval"`
	ReminderInterval time.Duration `mapstructure:"reminderInterval" json:"reminderInterval" yaml:"reminderInterval"`
}

type Routes struct {
	Login   string   `json:"login" yaml:"login"`
	Landing string   `json:"landing" yaml:"landing"`
	Public  []string `json:"public" yaml:"public"`
}

type Permissions struct {
	// Unconfigured is "allow" or "deny".
	Unconfigured string            `json:"unconfigured" yaml:"unconfigured"`
	Routes       []RoutePermission `json:"routes" yaml:"routes"`
}

type RoutePermission struct {
	Path  string `json:"path" yaml:"path"`
	Ranks []int  `json:"ranks" yaml:"ranks"`
}

// Redis is optional. An empty address keeps watch sessions in memory.
type Redis struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("backend.baseUrl", defaultBackend)
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("session.cookieName", "token")
	v.SetDefault("session.cookieDomain", "")
	v.SetDefault("session.insecureCookie", false)
	v.SetDefault("session.pollInterval", 2*time.Second)
	v.SetDefault("session.reminderInterval", 60*time.Second)
	v.SetDefault("claims.userIdKey", claims.DefaultUserIDKey)
	v.SetDefault("claims.nameKey", claims.DefaultNameKey)
	v.SetDefault("claims.roleKey", claims.DefaultRoleKey)
	v.SetDefault("routes.login", "/login")
	v.SetDefault("routes.landing", "/oportunidades")
	v.SetDefault("routes.public", []string{"/login", "/recuperar-clave"})
	v.SetDefault("permissions.unconfigured", "allow")
	v.SetDefault("permissions.routes", []map[string]interface{}{
		{"path": "/oportunidades", "ranks": []int{1, 2, 3, 4, 5}},
		{"path": "/clientes", "ranks": []int{1, 2, 3, 4, 5}},
		{"path": "/llamadas", "ranks": []int{1, 2, 3, 4, 5}},
		{"path": "/planes-pago", "ranks": []int{2, 3, 4, 5}},
		{"path": "/reportes", "ranks": []int{3, 4, 5}},
		{"path": "/usuarios", "ranks": []int{4, 5}},
	})
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}

// Load reads the defaults, the optional YAML file at path and CRM_ environment overrides.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*AppConfig, error) {
	c := &AppConfig{v: v}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}

// NewConfiguration loads the file named by CONFIG_FILE_PATH and panics when it cannot.
func NewConfiguration() *AppConfig {
	c, err := Load(os.Getenv(ConfigFileEnv))
	if err != nil {
		panic(err)
	}
	return c
}

// PermissionTable converts the configured routes to ranks. Out-of-range ranks are dropped.
func (c *AppConfig) PermissionTable() map[string][]roles.Rank {
	table := make(map[string][]roles.Rank, len(c.Permissions.Routes))
	for _, route := range c.Permissions.Routes {
		if route.Path == "" {
			continue
		}
		table[route.Path] = append(table[route.Path], roles.FromInts(route.Ranks)...)
	}
	return table
}

// Watch calls onChange with the re-read configuration whenever the config file changes.
// It does nothing when no file was loaded.
func (c *AppConfig) Watch(onChange func(*AppConfig)) {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}
	var mu sync.Mutex
	c.v.OnConfigChange(func(in fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()
		if !in.Has(fsnotify.Write) && !in.Has(fsnotify.Create) {
			return
		}
		updated, err := decode(c.v)
		if err != nil {
			slog.Error("Config reload failed", slog.String("file", in.Name), slog.Any("error", err))
			return
		}
		slog.Info("Config reloaded", slog.String("file", in.Name))
		onChange(updated)
	})
	c.v.WatchConfig()
}
