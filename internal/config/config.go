package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSPI    = "spi"
	DriverNRZLED = "nrzled"
	DriverSim    = "sim"
)

type SPI struct {
	Dev     string `yaml:"dev"`      // spireg name, "" picks the first port
	SpeedHz int    `yaml:"speed_hz"` // e.g. 3000000
}

type Config struct {
	Driver     string        `yaml:"driver"` // "spi" | "nrzled" | "sim"
	LEDs       int           `yaml:"leds"`
	Period     time.Duration `yaml:"period"` // e.g. 33ms
	Brightness *float64      `yaml:"brightness,omitempty"` // nil leaves the current value, 0 is off
	LogLevel   string        `yaml:"log_level"`

	SPI SPI `yaml:"spi,omitempty"`
}

var ErrInvalid = errors.New("config: invalid")

// Default matches the reference wiring: 50 LEDs on the first SPI port at 3 MHz.
func Default() Config {
	return Config{
		Driver:     DriverSPI,
		LEDs:       50,
		Period:     time.Second / 30,
		Brightness: Float(0.5),
		LogLevel:   "info",
		SPI:        SPI{SpeedHz: 3000000},
	}
}

// Float returns a pointer to v, for the optional fields of Config.
func Float(v float64) *float64 { return &v }

// Load reads a YAML config. Unknown keys are rejected so a typo does not silently fall back
// to the flag value. An empty file is an empty Config.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	c := &Config{}
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Save writes c as YAML, two-space indented.
func Save(path string, c *Config) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return enc.Close()
}

// Merge copies every field set in o over c.
func (c *Config) Merge(o *Config) {
	if o == nil {
		return
	}
	if o.Driver != "" {
		c.Driver = o.Driver
	}
	if o.LEDs > 0 {
		c.LEDs = o.LEDs
	}
	if o.Period > 0 {
		c.Period = o.Period
	}
	if o.Brightness != nil {
		c.Brightness = Float(*o.Brightness)
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.SPI.Dev != "" {
		c.SPI.Dev = o.SPI.Dev
	}
	if o.SPI.SpeedHz > 0 {
		c.SPI.SpeedHz = o.SPI.SpeedHz
	}
}

func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSPI, DriverNRZLED, DriverSim:
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalid, c.Driver)
	}
	if c.LEDs <= 0 {
		return fmt.Errorf("%w: leds %d", ErrInvalid, c.LEDs)
	}
	if c.Period <= 0 {
		return fmt.Errorf("%w: period %s", ErrInvalid, c.Period)
	}
	if c.Brightness == nil {
		return fmt.Errorf("%w: brightness unset", ErrInvalid)
	}
	if b := *c.Brightness; b < 0 || b > 1 {
		return fmt.Errorf("%w: brightness %v not in [0,1]", ErrInvalid, b)
	}
	if c.SPI.SpeedHz <= 0 {
		return fmt.Errorf("%w: spi speed %d", ErrInvalid, c.SPI.SpeedHz)
	}
	return nil
}
