// api/config/config.go
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	Mongo         MongoConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	JWT           JWTConfiguration
	Cache         CacheConfiguration
	RateLimit     RateLimitConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port        string
	Environment string
}

// MongoConfiguration stores data for MongoDB connection
type MongoConfiguration struct {
	URI      string
	Database string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// JWTConfiguration stores token signing settings
type JWTConfiguration struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// CacheConfiguration stores cache key settings
type CacheConfiguration struct {
	Version string
}

// RateLimitConfiguration stores the fixed-window rate limit settings
type RateLimitConfiguration struct {
	Requests int
	Window   time.Duration
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "arbiter")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("jwt.accessTTL", "30m")
	viper.SetDefault("jwt.refreshTTL", "168h")
	viper.SetDefault("jwt.resetTTL", "1h")
	viper.SetDefault("jwt.verifyTTL", "24h")
	viper.SetDefault("cache.version", "v1")
	viper.SetDefault("ratelimit.requests", 100)
	viper.SetDefault("ratelimit.window", "1m")
	viper.SetDefault("log.dir", "logs")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	if err := validate(); err != nil {
		return err
	}

	return nil
}

// validate rejects configurations that cannot run safely outside development.
func validate() error {
	if IsProduction() && viper.GetString("jwt.secret") == "" {
		return fmt.Errorf("jwt.secret must be set when server.environment is %q", Environment())
	}
	if viper.GetInt("ratelimit.requests") <= 0 {
		return fmt.Errorf("ratelimit.requests must be positive, got %d", viper.GetInt("ratelimit.requests"))
	}
	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// Environment returns the configured runtime environment name.
func Environment() string {
	return viper.GetString("server.environment")
}

// IsProduction reports whether the server runs in the production environment.
// Destructive cache operations (flush) are refused when this is true.
func IsProduction() bool {
	return strings.EqualFold(Environment(), "production")
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetFloat64 retrieves a float64 value from the configuration
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}
