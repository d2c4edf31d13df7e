package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to any of the
// krumd server components.
type Config struct {
	// Hostname or IP address on which the server will listen for connections.
	Hostname string `mapstructure:"hostname"`
	// Port on which the HTTP frontend will listen.
	Port int `mapstructure:"port"`
	// Maximum number of bytes a request body may contain before it is rejected.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
	// Full path to file to which logs will be written. Blank will write to stdout.
	LogFilePath string `mapstructure:"log_file_path"`
	// Minimum level of a log required to be written. Options: debug, info, warn, error
	LogLevel string `mapstructure:"log_level"`

	Client struct {
		// Origin returned in Access-Control-Allow-Origin headers.
		CORSOrigin string `mapstructure:"cors_origin"`
		// URL of the client page that completes a login and receives the session token.
		AuthRedirect string `mapstructure:"auth_redirect"`
	} `mapstructure:"client"`

	Database struct {
		// Hostname of the Postgres database instance.
		Host string `mapstructure:"host"`
		// Port on db_host on which the Postgres instance is accepting connections.
		Port int `mapstructure:"port"`
		// Name of the database in Postgres for krumd.
		Name string `mapstructure:"name"`
		// Username and password of a user with full RW privileges to ${db_name}.
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Set to verify-full if the Postgres instance supports SSL.
		SSLMode string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Google struct {
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		RedirectURI  string `mapstructure:"redirect_uri"`
	} `mapstructure:"google"`

	Session struct {
		// Time-to-live for session tokens, in minutes.
		TTLMinutes int `mapstructure:"ttl_minutes"`
	} `mapstructure:"session"`

	Worker struct {
		// Number of goroutines processing claimed jobs.
		PoolSize int `mapstructure:"pool_size"`
		// Interval between polls for pending jobs, in milliseconds.
		PollIntervalMs int `mapstructure:"poll_interval_ms"`
	} `mapstructure:"worker"`

	Debugging struct {
		// Enable extra info-providing mechanisms for the server.
		PprofEnabled bool `mapstructure:"pprof_enabled"`
		// Port on which a pprof server will be started if debug mode is enabled.
		PprofPort int `mapstructure:"pprof_port"`
		// Port on which prometheus metrics are exposed. Zero disables exposition.
		MetricsPort int `mapstructure:"metrics_port"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "KRUMD"

// LoadConfig initializes Viper with the contents of the config file under configPath.
func LoadConfig(configPath string) *Config {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("error reading config file: %v", err)
		os.Exit(1)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.host can be set using: KRUMD_DATABASE_HOST
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v", err)
		os.Exit(1)
	}
	setDefaults(config)
	return config
}

func setDefaults(c *Config) {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.Worker.PoolSize == 0 {
		c.Worker.PoolSize = 4
	}
	if c.Worker.PollIntervalMs == 0 {
		c.Worker.PollIntervalMs = 500
	}
	if c.Session.TTLMinutes == 0 {
		c.Session.TTLMinutes = 60 * 24
	}
}

const databaseURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// DatabaseURL returns a database URL generated from the provided config values.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		databaseURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// ListenAddress returns the host:port pair the HTTP frontend should bind.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%v", c.Hostname, c.Port)
}
