package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a loaded configuration cannot be used.
var ErrInvalid = errors.New("config: invalid")

// Config contains all runtime settings.
// Load order: defaults -> YAML (optional) -> env overrides.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DBPath     string `yaml:"db_path"`

	// ViewerKey may read the device list, OperatorKey may also act on it.
	ViewerKey   string `yaml:"viewer_key"`
	OperatorKey string `yaml:"operator_key"`

	Logging struct {
		Level      string `yaml:"level"`        // trace, debug, info, warn, error, fatal, panic
		Format     string `yaml:"format"`       // json, console
		Output     string `yaml:"output"`       // stdout, file, syslog, multi
		FilePath   string `yaml:"file_path"`    // path to log file (if output=file or multi)
		MaxSizeMB  int    `yaml:"max_size_mb"`  // max size before rotation
		MaxBackups int    `yaml:"max_backups"`  // max number of old log files
		MaxAgeDays int    `yaml:"max_age_days"` // max age in days
		Compress   bool   `yaml:"compress"`     // compress rotated files
		SyslogAddr string `yaml:"syslog_addr"`  // syslog server address (if output=syslog or multi)
		SyslogNet  string `yaml:"syslog_net"`   // tcp, udp, or empty for local
	} `yaml:"logging"`

	// OIDC bearer tokens for the HTTP front end. Off by default.
	OIDC struct {
		Enabled      bool   `yaml:"enabled"`
		IssuerURL    string `yaml:"issuer_url"`
		ClientID     string `yaml:"client_id"`
		Audience     string `yaml:"audience"`
		OperatorRole string `yaml:"operator_role"`
		ViewerRole   string `yaml:"viewer_role"`
	} `yaml:"oidc"`

	Webhooks struct {
		Secret     string `yaml:"secret"`
		TimeoutSec int    `yaml:"timeout_sec"`
		Retries    int    `yaml:"retries"`
	} `yaml:"webhooks"`

	// Backends selects the discovery handlers the state core registers.
	Backends struct {
		Fwupd    bool `yaml:"fwupd"`
		System76 bool `yaml:"system76"`
	} `yaml:"backends"`

	UI struct {
		HideDelayMS int `yaml:"hide_delay_ms"`
	} `yaml:"ui"`

	System struct {
		PowerSupplyDir string   `yaml:"power_supply_dir"`
		RebootCommand  []string `yaml:"reboot_command"`
		DryRun         bool     `yaml:"dry_run"`
	} `yaml:"system"`

	Worker struct {
		Transport string `yaml:"transport"` // none, mqtt
		MQTT      MQTT   `yaml:"mqtt"`
	} `yaml:"worker"`

	InfluxDB InfluxDB `yaml:"influxdb"`
}

// MQTT configures the worker bridge broker connection.
type MQTT struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	TLS         bool   `yaml:"tls"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

// InfluxDB configures update telemetry. Off by default.
type InfluxDB struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // seconds
}

// HideDelay returns the configured delay before a finished row is hidden.
func (c Config) HideDelay() time.Duration {
	return time.Duration(c.UI.HideDelayMS) * time.Millisecond
}

// Load reads YAML if path is non-empty, then applies env overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, cfg.validate()
}

func defaults() Config {
	var c Config
	c.ListenAddr = ":8080"
	c.DBPath = "/var/lib/firmware-manager/journal.db"

	c.Logging.Level = "info"
	c.Logging.Format = "json"
	c.Logging.Output = "stdout"
	c.Logging.FilePath = "/var/log/firmware-manager/app.log"
	c.Logging.MaxSizeMB = 100
	c.Logging.MaxBackups = 3
	c.Logging.MaxAgeDays = 28
	c.Logging.Compress = true
	c.Logging.SyslogNet = "udp"

	c.Webhooks.TimeoutSec = 5
	c.Webhooks.Retries = 3

	c.Backends.Fwupd = true
	c.Backends.System76 = true

	c.UI.HideDelayMS = 1000

	c.System.PowerSupplyDir = "/sys/class/power_supply"
	c.System.RebootCommand = []string{"systemctl", "reboot"}

	c.Worker.Transport = "none"
	c.Worker.MQTT.Host = "localhost"
	c.Worker.MQTT.Port = 1883
	c.Worker.MQTT.ClientID = "firmware-manager"
	c.Worker.MQTT.TopicPrefix = "firmware"
	c.Worker.MQTT.QoS = 1

	c.InfluxDB.Bucket = "firmware"
	c.InfluxDB.BatchSize = 100
	c.InfluxDB.FlushInterval = 10
	return c
}

func (c Config) validate() error {
	switch c.Worker.Transport {
	case "none", "mqtt":
	default:
		return fmt.Errorf("%w: unknown worker transport %q", ErrInvalid, c.Worker.Transport)
	}
	if c.Worker.MQTT.QoS < 0 || c.Worker.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt qos %d out of range", ErrInvalid, c.Worker.MQTT.QoS)
	}
	if !c.Backends.Fwupd && !c.Backends.System76 {
		return fmt.Errorf("%w: no discovery backend enabled", ErrInvalid)
	}
	if c.UI.HideDelayMS < 0 {
		return fmt.Errorf("%w: negative hide delay", ErrInvalid)
	}
	if c.OIDC.Enabled && c.OIDC.IssuerURL == "" {
		return fmt.Errorf("%w: oidc enabled without issuer_url", ErrInvalid)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setStr(&cfg.ListenAddr, "FWM_LISTEN_ADDR")
	setStr(&cfg.DBPath, "FWM_DB_PATH")
	setStr(&cfg.ViewerKey, "FWM_VIEWER_KEY")
	setStr(&cfg.OperatorKey, "FWM_OPERATOR_KEY")

	setStr(&cfg.Webhooks.Secret, "FWM_WEBHOOK_SECRET")
	setInt(&cfg.Webhooks.TimeoutSec, "FWM_WEBHOOK_TIMEOUT_SEC", 1)
	setInt(&cfg.Webhooks.Retries, "FWM_WEBHOOK_RETRIES", 0)

	setBool(&cfg.OIDC.Enabled, "FWM_OIDC_ENABLED")
	setStr(&cfg.OIDC.IssuerURL, "FWM_OIDC_ISSUER_URL")
	setStr(&cfg.OIDC.ClientID, "FWM_OIDC_CLIENT_ID")
	setStr(&cfg.OIDC.Audience, "FWM_OIDC_AUDIENCE")
	setStr(&cfg.OIDC.OperatorRole, "FWM_OIDC_OPERATOR_ROLE")
	setStr(&cfg.OIDC.ViewerRole, "FWM_OIDC_VIEWER_ROLE")

	setStr(&cfg.Logging.Level, "FWM_LOG_LEVEL")
	setStr(&cfg.Logging.Format, "FWM_LOG_FORMAT")
	setStr(&cfg.Logging.Output, "FWM_LOG_OUTPUT")
	setStr(&cfg.Logging.FilePath, "FWM_LOG_FILE_PATH")
	setStr(&cfg.Logging.SyslogAddr, "FWM_LOG_SYSLOG_ADDR")
	setStr(&cfg.Logging.SyslogNet, "FWM_LOG_SYSLOG_NET")
	setInt(&cfg.Logging.MaxSizeMB, "FWM_LOG_MAX_SIZE_MB", 1)
	setInt(&cfg.Logging.MaxBackups, "FWM_LOG_MAX_BACKUPS", 0)
	setInt(&cfg.Logging.MaxAgeDays, "FWM_LOG_MAX_AGE_DAYS", 0)
	setBool(&cfg.Logging.Compress, "FWM_LOG_COMPRESS")

	setBool(&cfg.Backends.Fwupd, "FWM_BACKEND_FWUPD")
	setBool(&cfg.Backends.System76, "FWM_BACKEND_SYSTEM76")
	setInt(&cfg.UI.HideDelayMS, "FWM_HIDE_DELAY_MS", 0)

	setStr(&cfg.System.PowerSupplyDir, "FWM_POWER_SUPPLY_DIR")
	if v := strings.TrimSpace(os.Getenv("FWM_REBOOT_COMMAND")); v != "" {
		cfg.System.RebootCommand = strings.Fields(v)
	}
	setBool(&cfg.System.DryRun, "FWM_DRY_RUN")

	setStr(&cfg.Worker.Transport, "FWM_WORKER_TRANSPORT")
	setStr(&cfg.Worker.MQTT.Host, "FWM_MQTT_HOST")
	setInt(&cfg.Worker.MQTT.Port, "FWM_MQTT_PORT", 1)
	setBool(&cfg.Worker.MQTT.TLS, "FWM_MQTT_TLS")
	setStr(&cfg.Worker.MQTT.ClientID, "FWM_MQTT_CLIENT_ID")
	setStr(&cfg.Worker.MQTT.Username, "FWM_MQTT_USERNAME")
	setStr(&cfg.Worker.MQTT.Password, "FWM_MQTT_PASSWORD")
	setStr(&cfg.Worker.MQTT.TopicPrefix, "FWM_MQTT_TOPIC_PREFIX")
	setInt(&cfg.Worker.MQTT.QoS, "FWM_MQTT_QOS", 0)

	setBool(&cfg.InfluxDB.Enabled, "FWM_INFLUXDB_ENABLED")
	setStr(&cfg.InfluxDB.URL, "FWM_INFLUXDB_URL")
	setStr(&cfg.InfluxDB.Token, "FWM_INFLUXDB_TOKEN")
	setStr(&cfg.InfluxDB.Org, "FWM_INFLUXDB_ORG")
	setStr(&cfg.InfluxDB.Bucket, "FWM_INFLUXDB_BUCKET")
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// setInt applies key when it parses to a value of at least floor.
func setInt(dst *int, key string, floor int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= floor {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.ToLower(v) == "true"
	}
}
