package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ds323x-go/drivers/ds323x"
)

// Config selects the chip and how to reach it. Flags override file values.
type Config struct {
	Variant    string `yaml:"variant"`  // ds3231, ds3232 or ds3234
	I2C        string `yaml:"i2c"`      // bus name for ds3231/ds3232, "" = first
	SPI        string `yaml:"spi"`      // port name for ds3234, "" = first
	CS         string `yaml:"cs"`       // GPIO used as chip select, "" = port CS
	SpeedHz    int64  `yaml:"speed_hz"` // 0 = driver default
	IntervalMs int    `yaml:"interval_ms"`
}

func defaultConfig() Config {
	return Config{Variant: "ds3231", IntervalMs: 1000}
}

// loadConfig reads a YAML file over the defaults. An empty path returns the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	c.Variant = strings.ToLower(c.Variant)
	if _, err := parseVariant(c.Variant); err != nil {
		return err
	}
	if c.SpeedHz < 0 {
		return fmt.Errorf("speed_hz must not be negative: %d", c.SpeedHz)
	}
	if c.IntervalMs < 0 {
		return fmt.Errorf("interval_ms must not be negative: %d", c.IntervalMs)
	}
	return nil
}

func parseVariant(s string) (ds323x.Variant, error) {
	switch strings.ToLower(s) {
	case "ds3231":
		return ds323x.VariantDS3231, nil
	case "ds3232":
		return ds323x.VariantDS3232, nil
	case "ds3234":
		return ds323x.VariantDS3234, nil
	}
	return 0, fmt.Errorf("unknown variant %q (want ds3231, ds3232 or ds3234)", s)
}
