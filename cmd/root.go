package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/eb1-screener/internal/ai"
)

const (
	app       = "eb1-screener"
	envPrefix = "EB1"
)

type Config struct {
	Provider  string                   `mapstructure:"provider"`
	Gemini    ProviderConfig           `mapstructure:"gemini"`
	Anthropic ProviderConfig           `mapstructure:"anthropic"`
	Retry     RetryConfig              `mapstructure:"retry"`
	Server    ServerConfig             `mapstructure:"server"`
	Tracing   TracingConfig            `mapstructure:"tracing"`
	Log       LogConfig                `mapstructure:"log"`
	Variants  map[string]VariantConfig `mapstructure:"variants"`
}

type ProviderConfig struct {
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type RetryConfig struct {
	MaxRetries      int           `mapstructure:"max-retries"`
	InitialInterval time.Duration `mapstructure:"initial-interval"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	CORSOrigins     []string      `mapstructure:"cors-origins"`
	RateLimitPerMin int           `mapstructure:"rate-limit-per-min"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	MaxUploadMB     int64         `mapstructure:"max-upload-mb"`
}

type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type LogConfig struct {
	MaxLength int `mapstructure:"max-length"`
}

// VariantConfig overrides the generation parameters of one variant.
type VariantConfig struct {
	Model           string   `mapstructure:"model"`
	Temperature     *float32 `mapstructure:"temperature"`
	MaxOutputTokens int32    `mapstructure:"max-output-tokens"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "eb1-screener scores EB-1 petition leads with a large language model",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is eb1-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("provider", "", "text generation provider: gemini or anthropic")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "gemini")
	v.SetDefault("gemini.model", "")
	v.SetDefault("gemini.api-key", "")
	v.SetDefault("gemini.api-key-file", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.api-key", "")
	v.SetDefault("anthropic.api-key-file", "")
	v.SetDefault("retry.max-retries", 0)
	v.SetDefault("retry.initial-interval", "500ms")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors-origins", []string{})
	v.SetDefault("server.rate-limit-per-min", 30)
	v.SetDefault("server.read-timeout", "15s")
	v.SetDefault("server.write-timeout", "120s")
	v.SetDefault("server.max-upload-mb", 10)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("log.max-length", 200)
}

func initConfig() {
	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %s", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The config file is optional unless it was named explicitly.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return config, nil
}

// overrides converts the per-variant config into parameter overrides.
func (c *Config) overrides() map[string]ai.ParameterOverride {
	out := make(map[string]ai.ParameterOverride, len(c.Variants))
	for name, v := range c.Variants {
		out[name] = ai.ParameterOverride{
			Model:           v.Model,
			Temperature:     v.Temperature,
			MaxOutputTokens: v.MaxOutputTokens,
		}
	}
	return out
}
