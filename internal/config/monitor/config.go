package monitor_config

import (
	"time"

	"github.com/NordCoder/Sentinel/internal/obs"
	pginfra "github.com/NordCoder/Sentinel/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Log struct {
	Level   string   `mapstructure:"level"`
	Pretty  bool     `mapstructure:"pretty"`
	Outputs []string `mapstructure:"outputs"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type Server struct {
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Redis struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

type Store struct {
	// Driver is one of file, postgres, redis.
	Driver string         `mapstructure:"driver"`
	Dir    string         `mapstructure:"dir"`
	DB     pginfra.Config `mapstructure:"db"`
	Redis  Redis          `mapstructure:"redis"`
}

type Logs struct {
	Dir string `mapstructure:"dir"`
}

type Sched struct {
	ProbeInterval  time.Duration `mapstructure:"probe_interval"`
	RotateInterval time.Duration `mapstructure:"rotate_interval"`
	// Concurrency bounds the per-cycle fan-out; 0 disables the bound.
	Concurrency int `mapstructure:"concurrency"`
}

type HTTPProbe struct {
	UserAgent       string `mapstructure:"user_agent"`
	VerifyTLS       bool   `mapstructure:"verify_tls"`
	FollowRedirects bool   `mapstructure:"follow_redirects"`
	// HardCap bounds an abandoned request after its check timeout already fired.
	HardCap time.Duration `mapstructure:"hard_cap"`
}

type Twilio struct {
	AccountSID string        `mapstructure:"account_sid"`
	AuthToken  string        `mapstructure:"auth_token"`
	From       string        `mapstructure:"from"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaOut struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Notifier struct {
	// Kind is one of log, twilio, kafka.
	Kind   string   `mapstructure:"kind"`
	Twilio Twilio   `mapstructure:"twilio"`
	Kafka  KafkaOut `mapstructure:"kafka"`
}

type Config struct {
	App      App       `mapstructure:"app"`
	Log      Log       `mapstructure:"log"`
	OTEL     OTEL      `mapstructure:"otel"`
	Server   Server    `mapstructure:"server"`
	Store    Store     `mapstructure:"store"`
	Logs     Logs      `mapstructure:"logs"`
	Sched    Sched     `mapstructure:"sched"`
	HTTP     HTTPProbe `mapstructure:"http"`
	Notifier Notifier  `mapstructure:"notifier"`
}

func (c *Config) AsLoggerConfig() *obs.LogConfig {
	return &obs.LogConfig{
		Level:   c.Log.Level,
		Pretty:  c.Log.Pretty,
		Outputs: c.Log.Outputs,
		App:     c.App.Name,
		Env:     c.App.Env,
		Ver:     c.App.Version,
	}
}

func (c *Config) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      c.OTEL.Enable,
		Endpoint:    c.OTEL.OTLPEndpoint,
		ServiceName: c.OTEL.ServiceName,
		SampleRatio: c.OTEL.SampleRatio,
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
