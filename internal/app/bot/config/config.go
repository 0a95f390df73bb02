package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultEnv          = EnvLocal
	defaultAPIURL       = "http://localhost:8000"
	defaultSyncInterval = 60
	defaultOpsAddress   = ":8081"
)

type Config struct {
	Env          string
	Token        string `mapstructure:"discord_token"`
	GuildID      string `mapstructure:"discord_guild_id"`
	APIURL       string `mapstructure:"dbot_api_url"`
	APIKey       string `mapstructure:"dbot_auth_key"`
	SyncInterval time.Duration
	OpsAddress   string `mapstructure:"ops_address"`
	Debug        bool   `mapstructure:"debug"`
}

// MustLoad reads the bot configuration from a .env file and the process
// environment. It panics on invalid configuration since the bot cannot run
// without a token and a target guild.
func MustLoad() *Config {
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}

	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("failed to load .env file: %v\n", err)
		}
	}

	viper.AutomaticEnv()

	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("DBOT_API_URL", defaultAPIURL)
	viper.SetDefault("SYNC_INTERVAL_MINUTES", defaultSyncInterval)
	viper.SetDefault("OPS_ADDRESS", defaultOpsAddress)
	viper.SetDefault("DEBUG", false)

	config := &Config{
		Env:          viper.GetString("APP_ENV"),
		Token:        viper.GetString("DISCORD_TOKEN"),
		GuildID:      viper.GetString("DISCORD_GUILD_ID"),
		APIURL:       viper.GetString("DBOT_API_URL"),
		APIKey:       viper.GetString("DBOT_AUTH_KEY"),
		SyncInterval: time.Duration(viper.GetInt("SYNC_INTERVAL_MINUTES")) * time.Minute,
		OpsAddress:   viper.GetString("OPS_ADDRESS"),
		Debug:        viper.GetBool("DEBUG"),
	}

	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	return config
}

func (c *Config) validate() error {
	if c.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN must not be empty")
	}
	if c.GuildID == "" {
		return fmt.Errorf("DISCORD_GUILD_ID must not be empty")
	}
	if c.APIKey == "" {
		return fmt.Errorf("DBOT_AUTH_KEY must not be empty")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL_MINUTES must be positive")
	}
	return nil
}

// IsProd reports whether the bot runs in the production environment.
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsDev reports whether the bot runs in the dev environment.
func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

// IsLocal reports whether the bot runs locally.
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}
