package api_gateway_config

import (
	"time"

	"github.com/reelhouse/reelhouse/internal/obs"
	pg "github.com/reelhouse/reelhouse/internal/repository/postgres"
	rds "github.com/reelhouse/reelhouse/internal/repository/redis"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Kafka struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Auth struct {
	AccessSecret      string        `mapstructure:"access_secret"`
	RefreshSecret     string        `mapstructure:"refresh_secret"`
	AccessTTL         time.Duration `mapstructure:"access_ttl"`
	RefreshTTL        time.Duration `mapstructure:"refresh_ttl"`
	RefreshSessionTTL time.Duration `mapstructure:"refresh_session_ttl"`
	CookieName        string        `mapstructure:"cookie_name"`
	CookieDomain      string        `mapstructure:"cookie_domain"`
	CookiePath        string        `mapstructure:"cookie_path"`
	CookieSecure      bool          `mapstructure:"cookie_secure"`
}

type OAuthGoogle struct {
	Enable       bool   `mapstructure:"enable"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type OAuth struct {
	Google OAuthGoogle `mapstructure:"google"`
}

type Catalog struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	ListTTL   time.Duration `mapstructure:"list_ttl"`
	DetailTTL time.Duration `mapstructure:"detail_ttl"`
	GenreTTL  time.Duration `mapstructure:"genre_ttl"`
}

type Config struct {
	App     App        `mapstructure:"app"`
	Server  Server     `mapstructure:"server"`
	DB      pg.Config  `mapstructure:"db"`
	Redis   rds.Config `mapstructure:"redis"`
	Kafka   Kafka      `mapstructure:"kafka"`
	OTEL    OTEL       `mapstructure:"otel"`
	Log     Log        `mapstructure:"log"`
	Auth    Auth       `mapstructure:"auth"`
	OAuth   OAuth      `mapstructure:"oauth"`
	Catalog Catalog    `mapstructure:"catalog"`
}
