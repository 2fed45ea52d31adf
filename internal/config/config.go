package config

import (
	"errors"
	"fmt"
	"strings"

	"FreehandBoard/internal/state"

	"github.com/spf13/viper"
)

const fileName = "freehand.cfg.json"

// CameraConfig holds the pan speed in world units per second.
type CameraConfig struct {
	TranslationSpeed float64 `mapstructure:"translationSpeed"`
}

// PreviewConfig styles the in-progress stroke.
type PreviewConfig struct {
	StrokeWidth float32 `mapstructure:"strokeWidth"`
	Color       string  `mapstructure:"color"`
}

// DocumentConfig controls where and how finalized strokes are written.
type DocumentConfig struct {
	Dir    string `mapstructure:"dir"`
	Stroke string `mapstructure:"stroke"`
}

// NetConfig holds board sharing settings.
type NetConfig struct {
	Port int  `mapstructure:"port"`
	MDNS bool `mapstructure:"mdns"`
}

type Config struct {
	LogLevel  string             `mapstructure:"logLevel"`
	FrameRate int                `mapstructure:"frameRate"`
	Follow    state.FollowConfig `mapstructure:"follow"`
	Camera    CameraConfig       `mapstructure:"camera"`
	Preview   PreviewConfig      `mapstructure:"preview"`
	Document  DocumentConfig     `mapstructure:"document"`
	Net       NetConfig          `mapstructure:"net"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("frameRate", 60)

	v.SetDefault("follow.speed", 1.5)
	v.SetDefault("camera.translationSpeed", 250.0)

	v.SetDefault("preview.strokeWidth", 2.0)
	v.SetDefault("preview.color", "white")

	v.SetDefault("document.dir", "assets/svgs")
	v.SetDefault("document.stroke", "black")

	v.SetDefault("net.port", 8888)
	v.SetDefault("net.mdns", true)
}

// Load reads freehand.cfg.json from configDir if it exists, applies
// FREEHAND_* environment overrides and defaults, and validates the result.
// A missing config file is not an error.
func Load(configDir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(fileName)
	v.SetConfigType("json")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix("FREEHAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Follow.Validate(); err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("frameRate must be positive, got %d", c.FrameRate)
	}
	if c.Camera.TranslationSpeed < 0 {
		return fmt.Errorf("camera.translationSpeed must not be negative, got %v", c.Camera.TranslationSpeed)
	}
	if c.Preview.StrokeWidth <= 0 {
		return fmt.Errorf("preview.strokeWidth must be positive, got %v", c.Preview.StrokeWidth)
	}
	if c.Document.Dir == "" {
		return errors.New("document.dir must not be empty")
	}
	if c.Net.Port <= 0 || c.Net.Port > 65535 {
		return fmt.Errorf("net.port out of range: %d", c.Net.Port)
	}
	return nil
}
