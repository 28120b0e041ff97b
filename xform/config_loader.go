package xform

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by LoadConfig and EffectiveMQTT
const (
	DefaultHTTPPort          = 8080
	DefaultPreviewResolution = 96.0
	DefaultPreviewPadding    = 20.0
	DefaultRequestTopic      = "tudoxform/request"
	DefaultPublishPrefix     = "tudoxform"
	DefaultClientID          = "tudoxform"
)

// ErrPipelineNotFound is returned when a request names a pipeline the config does not define
var ErrPipelineNotFound = errors.New("pipeline not found")

// LoadConfig loads the configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	return &config, nil
}

// Validate checks pipeline names and definitions
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Pipelines))
	for i := range c.Pipelines {
		p := &c.Pipelines[i]
		if p.Name == "" {
			return fmt.Errorf("pipelines[%d].name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("pipelines[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true

		if err := p.Validate(); err != nil {
			return fmt.Errorf("pipeline %s: %w", p.Name, err)
		}
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = DefaultHTTPPort
	}
	if c.Preview.Resolution <= 0 {
		c.Preview.Resolution = DefaultPreviewResolution
	}
	if c.Preview.Padding <= 0 {
		c.Preview.Padding = DefaultPreviewPadding
	}
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EffectiveMQTT resolves MQTT settings: environment variables win over the
// config file, and unset values fall back to defaults. An empty Broker means
// MQTT is disabled.
func EffectiveMQTT(config *Config) MQTTConfig {
	var settings MQTTConfig
	if config != nil {
		settings = config.MQTT
	}

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		settings.Broker = broker
	}
	if clientID := os.Getenv("MQTT_CLIENT_ID"); clientID != "" {
		settings.ClientID = clientID
	}
	if username := os.Getenv("MQTT_USERNAME"); username != "" {
		settings.Username = username
	}
	if password := os.Getenv("MQTT_PASSWORD"); password != "" {
		settings.Password = password
	}
	if prefix := os.Getenv("MQTT_PUBLISH_PREFIX"); prefix != "" {
		settings.PublishPrefix = prefix
	}

	if settings.ClientID == "" {
		settings.ClientID = DefaultClientID
	}
	if settings.RequestTopic == "" {
		settings.RequestTopic = DefaultRequestTopic
	}
	if settings.PublishPrefix == "" {
		settings.PublishPrefix = DefaultPublishPrefix
	}
	return settings
}

// ResolvePipeline returns the named pipeline from config, wrapping ErrPipelineNotFound
func ResolvePipeline(config *Config, name string) (*Pipeline, error) {
	p := config.GetPipeline(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPipelineNotFound, name)
	}
	return p, nil
}
