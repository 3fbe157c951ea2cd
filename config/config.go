package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the static process configuration: environment, bot
// credentials, database and redis endpoints, and the bootstrap
// administrator. The reservation admission window is deliberately NOT here:
// it is runtime state in the system_config table, editable by an
// administrator while the process runs.
type Config struct {
	Env           string         `env-default:"local" yaml:"env"`            // Env is the current environment: local, dev, prod.
	Database      PostgresConfig `                    yaml:"postgres"`       // Database holds the postgres database configuration
	Token         string         `                    yaml:"token"`          // Token is an unique telegram bot token
	PollerTimeout time.Duration  `env-default:"10s"   yaml:"poller_timeout"` // PollerTimeout its a time which need to close telegram bot poller
	Language      string         `env-default:"fa"    yaml:"language"`       // Language is the message catalog used for all replies
	MonitorPort   int            `env-default:"8080"  yaml:"monitor_port"`   // MonitorPort is the port of the health/metrics server
	RedisAddr     string         `                    yaml:"redis_addr"`     // RedisAddr is the redis server address
	Admin         AdminConfig    `                    yaml:"admin"`          // Admin is the bootstrap administrator seeded at startup
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`                        // Host is the database server address.
	Port     string `yaml:"port"     env-default:"5432"` // Port is the database server port.
	User     string `yaml:"user"`                        // User is the database user.
	Password string `yaml:"password"`                    // Password is the database user's password.
	Name     string `yaml:"db_name"`                     // Name is the name of the database.
}

// AdminConfig identifies the administrator inserted on first start so a
// fresh deployment has somebody who can define menus and employees.
type AdminConfig struct {
	NationalID string `yaml:"national_id"` // NationalID is the admin's national identification number.
	Phone      string `yaml:"phone"`       // Phone is the admin's phone number.
	FullName   string `yaml:"full_name"`   // FullName is the admin's display name.
}

// MustLoad loads the configuration from a YAML file and returns a Config struct.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		panic("config path is empty")
	}

	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		panic("config error: " + err.Error())
	}

	defPollerTimeout := 10
	defMonitorPort := 8080

	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("telegram.timeout", time.Duration(defPollerTimeout*int(time.Second)))
	viper.SetDefault("language", "fa")
	viper.SetDefault("monitor_port", defMonitorPort)

	return &Config{
		Env:           viper.GetString("env"),
		Token:         viper.GetString("telegram.token"),
		PollerTimeout: viper.GetDuration("telegram.timeout"),
		Language:      viper.GetString("language"),
		MonitorPort:   viper.GetInt("monitor_port"),
		RedisAddr:     viper.GetString("redis.addr"),
		Database: PostgresConfig{
			Host:     viper.GetString("postgres.host"),
			Port:     viper.GetString("postgres.port"),
			User:     viper.GetString("postgres.user"),
			Password: viper.GetString("postgres.password"),
			Name:     viper.GetString("postgres.db_name"),
		},
		Admin: AdminConfig{
			NationalID: viper.GetString("admin.national_id"),
			Phone:      viper.GetString("admin.phone"),
			FullName:   viper.GetString("admin.full_name"),
		},
	}
}
