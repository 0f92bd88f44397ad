package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultBlockID is the block served when no widget file is configured
const DefaultBlockID = "default"

// PeriodSettings is the visibility schedule of one period of a block
type PeriodSettings struct {
	Enabled bool   `yaml:"enabled"`
	From    string `yaml:"from"`
	To      string `yaml:"to"`
}

// BlockSettings configures one widget instance
type BlockSettings struct {
	ID      string         `yaml:"id" validate:"required,max=64,excludesall=/"`
	Weekday PeriodSettings `yaml:"weekday"`
	DayOff  PeriodSettings `yaml:"day_off"`
}

// WidgetConfig is the content of the widget settings file
type WidgetConfig struct {
	Blocks []BlockSettings `yaml:"blocks" validate:"required,min=1,unique=ID,dive"`
}

var (
	// WidgetSettings holds the loaded widget configuration
	WidgetSettings *WidgetConfig

	structValidator = validator.New(validator.WithRequiredStructEnabled())
)

// LoadWidgetConfig reads and validates the widget settings file. An empty
// path yields a single always-visible default block.
func LoadWidgetConfig(path string) (*WidgetConfig, error) {
	if path == "" {
		return &WidgetConfig{Blocks: []BlockSettings{{ID: DefaultBlockID}}}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read widget config: %w", err)
	}

	return ParseWidgetConfig(raw)
}

// ParseWidgetConfig decodes and validates widget settings YAML
func ParseWidgetConfig(raw []byte) (*WidgetConfig, error) {
	var cfg WidgetConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse widget config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks block identifiers and enabled period times
func (c *WidgetConfig) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid widget config: field %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid widget config: %w", err)
	}

	for _, block := range c.Blocks {
		periods := []struct {
			kind     models.WindowKind
			settings PeriodSettings
		}{
			{models.WindowWeekday, block.Weekday},
			{models.WindowDayOff, block.DayOff},
		}
		for _, p := range periods {
			if !p.settings.Enabled {
				continue
			}
			if p.settings.From == "" || p.settings.To == "" {
				return fmt.Errorf("block %s: Both Time from and Time to are required for %s", block.ID, p.kind)
			}
			if _, err := models.ParseClock(p.settings.From); err != nil {
				return fmt.Errorf("block %s: %s time from: %w", block.ID, p.kind, err)
			}
			if _, err := models.ParseClock(p.settings.To); err != nil {
				return fmt.Errorf("block %s: %s time to: %w", block.ID, p.kind, err)
			}
		}
	}

	return nil
}

// Block returns the settings of the block with the given id
func (c *WidgetConfig) Block(id string) (BlockSettings, bool) {
	if c == nil {
		return BlockSettings{}, false
	}
	for _, block := range c.Blocks {
		if block.ID == id {
			return block, true
		}
	}
	return BlockSettings{}, false
}

// Settings returns the mount settings of the enabled periods only
func (b BlockSettings) Settings() map[models.WindowKind]models.WindowRange {
	settings := make(map[models.WindowKind]models.WindowRange)
	if b.Weekday.Enabled {
		settings[models.WindowWeekday] = models.WindowRange{From: b.Weekday.From, To: b.Weekday.To}
	}
	if b.DayOff.Enabled {
		settings[models.WindowDayOff] = models.WindowRange{From: b.DayOff.From, To: b.DayOff.To}
	}
	return settings
}
