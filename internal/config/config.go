// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Feed describes the upstream telemetry provider.
type Feed struct {
	URL    string `yaml:"url"`
	RateMs int    `yaml:"rate_ms"`
}

// Variables names the telemetry keys the dashboard subscribes to.
// ResourceCurrent and ResourceMax are prefixes parameterized by resource name,
// e.g. "r.resource" becomes "r.resource[LiquidFuel]".
type Variables struct {
	MissionTime     string `yaml:"mission_time"`
	Body            string `yaml:"body"`
	Status          string `yaml:"status"`
	ResourceCurrent string `yaml:"resource_current"`
	ResourceMax     string `yaml:"resource_max"`
}

// Resource is one tracked vessel resource gauge.
type Resource struct {
	Name  string `yaml:"name"`
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Bodies is the closed set of known orbital bodies with their display names.
type Bodies struct {
	Display      map[string]string `yaml:"display"`
	UnknownLabel string            `yaml:"unknown_label"`
}

// Status maps in-band status codes to game states.
type Status struct {
	Codes   map[int]string `yaml:"codes"`
	HelpURL string         `yaml:"help_url"`
}

// Audio configures alert channels. An empty asset path keeps a channel silent.
type Audio struct {
	Player string            `yaml:"player"`
	Muted  bool              `yaml:"muted"`
	Sounds map[string]string `yaml:"sounds"`
}

// Server configures the local web dashboard.
type Server struct {
	Addr string `yaml:"addr"`
}

// Logging configures the slog handler.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root dashboard configuration.
type Config struct {
	Feed      Feed       `yaml:"feed"`
	Variables Variables  `yaml:"variables"`
	Resources []Resource `yaml:"resources"`
	Bodies    Bodies     `yaml:"bodies"`
	Status    Status     `yaml:"status"`
	Audio     Audio      `yaml:"audio"`
	Server    Server     `yaml:"server"`
	Logging   Logging    `yaml:"logging"`
}

// Default returns the stock dashboard profile.
func Default() *Config {
	return &Config{
		Feed: Feed{URL: "ws://localhost:8085/datalink", RateMs: 1000},
		Variables: Variables{
			MissionTime:     "v.missionTime",
			Body:            "v.body",
			Status:          "p.paused",
			ResourceCurrent: "r.resource",
			ResourceMax:     "r.resourceMax",
		},
		Resources: []Resource{
			{Name: "LiquidFuel", ID: "fuel", Label: "Liquid Fuel"},
			{Name: "Oxidizer", ID: "oxidizer", Label: "Oxidizer"},
			{Name: "ElectricCharge", ID: "electric", Label: "Electric Charge"},
		},
		Bodies: Bodies{
			Display:      map[string]string{"Kerbin": "Kerbin"},
			UnknownLabel: "Unknown body",
		},
		Status: Status{
			Codes: map[int]string{
				0: "running",
				1: "paused",
				2: "power_outage",
				3: "link_offline",
				4: "no_telemetry",
			},
			HelpURL: "https://github.com/TeleIO/Telemachus-1",
		},
		Audio: Audio{
			Sounds: map[string]string{
				"paused":       "",
				"power":        "assets/audios/C4.wav",
				"offline":      "assets/audios/A4.wav",
				"no_telemetry": "",
			},
		},
		Server:  Server{Addr: "127.0.0.1:5173"},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load reads a YAML config, validates it against a CUE schema and layers it
// over Default. An empty schemaPath selects the embedded schema.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	schema, err := schemaBytes(cueSchemaPath)
	if err != nil {
		return nil, err
	}
	if err := Validate(configPath, data, schema); err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults without schema validation.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	// Maps replace rather than merge so a config can drop a default body or code.
	var overlay struct {
		Bodies struct {
			Display map[string]string `yaml:"display"`
		} `yaml:"bodies"`
		Status struct {
			Codes map[int]string `yaml:"codes"`
		} `yaml:"status"`
		Audio struct {
			Sounds map[string]string `yaml:"sounds"`
		} `yaml:"audio"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if overlay.Bodies.Display != nil {
		cfg.Bodies.Display = nil
	}
	if overlay.Status.Codes != nil {
		cfg.Status.Codes = nil
	}
	if overlay.Audio.Sounds != nil {
		cfg.Audio.Sounds = nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(cfg)
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEMACHUS_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("DASH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// Check enforces the rules the schema cannot express.
func (c *Config) Check() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed url required")
	}
	if c.Feed.RateMs <= 0 {
		return fmt.Errorf("feed rate_ms must be positive, got %d", c.Feed.RateMs)
	}
	ids := make(map[string]struct{}, len(c.Resources))
	for _, r := range c.Resources {
		if r.Name == "" || r.ID == "" {
			return fmt.Errorf("resource needs name and id: %+v", r)
		}
		if _, dup := ids[r.ID]; dup {
			return fmt.Errorf("duplicate resource id %q", r.ID)
		}
		ids[r.ID] = struct{}{}
	}
	return nil
}
