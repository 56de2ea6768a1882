package relay

import (
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"

	"github.com/spf13/viper"
)

const (
	DevMode  = "dev"
	ProdMode = "prod"
)

type Config struct {
	// Port is the Port number to listen on. The default is 8080.
	Port int `validate:"required,port" default:"8080"`
	// Hostname is the Hostname to listen on. The default is 0.0.0.0.
	Hostname string `validate:"required" default:"0.0.0.0"`
	// Mode is the run mode, either dev or prod. TLS hardening is applied
	// in prod.
	Mode string `validate:"required,oneof=dev prod" default:"dev"`
	Log  struct {
		// File is the path of the append-only message log.
		File string `validate:"required"`
	}
	Auth struct {
		// Secret is the base64 encoded key the upstream identity
		// service signs bearer tokens with. When empty the websocket
		// endpoint is open: socket authentication is assumed to be
		// handled upstream.
		Secret Base64Encoded
	}
	TLS struct {
		Crt string
		Key string
	}
	// AllowedOrigins is a list of origins that are allowed to connect to
	// the server. The default is ["*"].
	AllowedOrigins []string
	valid          bool
}

type Base64Encoded []byte

func (b *Base64Encoded) UnmarshalText(text []byte) error {
	dec, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("base64 decode: %w", err)
	}
	*b = dec
	return nil
}

// LoadConfig loads the configuration from the config file and environment
// variables. Any invalid configuration will not be loaded, and the error
// will be caught in the validation step.
func LoadConfig() (*Config, error) {
	config := &Config{}

	// a .env file is optional; environment variables win either way
	godotenv.Load()

	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", 8080)
	viper.SetDefault("hostname", "0.0.0.0")
	viper.SetDefault("mode", DevMode)
	viper.SetDefault("log.file", "./messages.txt")
	viper.SetDefault("allowedorigins", "*")

	if err := viper.ReadInConfig(); err != nil {
		// the defaults carry a runnable configuration
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := viper.Unmarshal(&config,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToSliceHookFunc(",")),
		),
	); err != nil {
		// defer error to validation step
		return config, nil
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.valid {
		return nil
	}
	err := validate.Struct(c)
	if err != nil {
		return err
	}
	c.valid = true
	return nil
}

func FormatValidationErrors(err error) string {
	errors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ""
	}
	trans, _ := uniTrans.GetTranslator("en")
	translated := errors.Translate(trans)

	var sb strings.Builder
	for v := range maps.Values(translated) {
		sb.WriteString(v)
		sb.WriteString("\n")
	}
	return sb.String()
}
