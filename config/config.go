// Copyright 2016 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"encoding/json"
	"flag"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the configuration shared by stm-server and stm-bench.
type Config struct {
	*flag.FlagSet `json:"-"`

	Version bool `json:"-"`

	ConfigCheck bool `json:"-"`

	// Log related config.
	Log log.Config `toml:"log" json:"log"`

	STM STMConfig `toml:"stm" json:"stm"`

	Server ServerConfig `toml:"server" json:"server"`

	Fill FillConfig `toml:"fill" json:"fill"`

	configFile string

	// For all warnings during parsing.
	WarningMsgs []string

	logger   *zap.Logger
	logProps *log.ZapProperties
}

// STMConfig tunes the transaction retry loop.
type STMConfig struct {
	// RetryWarnInterval is how many consecutive aborts of one transaction body are tolerated
	// between two warnings.
	RetryWarnInterval int64 `toml:"retry-warn-interval" json:"retry-warn-interval"`
}

// ServerConfig is the HTTP front end configuration.
type ServerConfig struct {
	Addr         string   `toml:"addr" json:"addr"`
	ReadTimeout  Duration `toml:"read-timeout" json:"read-timeout"`
	WriteTimeout Duration `toml:"write-timeout" json:"write-timeout"`
}

// FillConfig describes a concurrent word insertion run.
type FillConfig struct {
	// Workers is the number of pool goroutines, 0 means one per logical CPU.
	Workers   int    `toml:"workers" json:"workers"`
	Alphabet  string `toml:"alphabet" json:"alphabet"`
	MinLength int    `toml:"min-length" json:"min-length"`
	MaxLength int    `toml:"max-length" json:"max-length"`
	// Rate caps insertions per second, 0 means unlimited.
	Rate int64 `toml:"rate" json:"rate"`
}

// NewConfig creates a new config.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.FlagSet = flag.NewFlagSet("tinystm", flag.ContinueOnError)
	fs := cfg.FlagSet

	fs.BoolVar(&cfg.Version, "V", false, "print version information and exit")
	fs.BoolVar(&cfg.Version, "version", false, "print version information and exit")
	fs.StringVar(&cfg.configFile, "config", "", "Config file")
	fs.BoolVar(&cfg.ConfigCheck, "config-check", false, "check config file validity and exit")

	fs.StringVar(&cfg.Server.Addr, "addr", "", "address to serve the dictionary API on (default '127.0.0.1:2399')")

	fs.StringVar(&cfg.Log.Level, "L", "", "log level: debug, info, warn, error, fatal (default 'info')")
	fs.StringVar(&cfg.Log.File.Filename, "log-file", "", "log file path")

	return cfg
}

const (
	defaultRetryWarnInterval = 1000

	defaultAddr         = "127.0.0.1:2399"
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second

	defaultAlphabet  = "abcdefghijklmnopqrstuvwxyz"
	defaultMinLength = 1
	defaultMaxLength = 3
)

func adjustString(v *string, defValue string) {
	if len(*v) == 0 {
		*v = defValue
	}
}

func adjustInt(v *int, defValue int) {
	if *v == 0 {
		*v = defValue
	}
}

func adjustInt64(v *int64, defValue int64) {
	if *v == 0 {
		*v = defValue
	}
}

func adjustDuration(v *Duration, defValue time.Duration) {
	if v.Duration == 0 {
		v.Duration = defValue
	}
}

// Parse parses flag definitions from the argument list.
func (c *Config) Parse(arguments []string) error {
	// Parse first to get config file.
	err := c.FlagSet.Parse(arguments)
	if err != nil {
		return errors.WithStack(err)
	}

	// Load config file if specified.
	var meta *toml.MetaData
	if c.configFile != "" {
		meta, err = c.configFromFile(c.configFile)
		if err != nil {
			return err
		}
	}

	// Parse again to replace with command line options.
	err = c.FlagSet.Parse(arguments)
	if err != nil {
		return errors.WithStack(err)
	}

	if len(c.FlagSet.Args()) != 0 {
		return errors.Errorf("'%s' is an invalid flag", c.FlagSet.Arg(0))
	}

	return c.Adjust(meta)
}

// Validate checks the adjusted configuration.
func (c *Config) Validate() error {
	if c.STM.RetryWarnInterval < 0 {
		return errors.Errorf("stm.retry-warn-interval must not be negative, got %d", c.STM.RetryWarnInterval)
	}
	if c.Server.ReadTimeout.Duration < 0 || c.Server.WriteTimeout.Duration < 0 {
		return errors.New("server timeouts must not be negative")
	}
	return c.Fill.Validate()
}

// Validate checks the word generation bounds.
func (c *FillConfig) Validate() error {
	if c.Workers < 0 {
		return errors.Errorf("fill.workers must not be negative, got %d", c.Workers)
	}
	if c.Rate < 0 {
		return errors.Errorf("fill.rate must not be negative, got %d", c.Rate)
	}
	if c.MinLength < 0 || c.MaxLength < c.MinLength {
		return errors.Errorf("invalid fill word length range [%d, %d]", c.MinLength, c.MaxLength)
	}
	seen := make(map[rune]struct{}, len(c.Alphabet))
	for _, r := range c.Alphabet {
		if r >= 0x80 {
			return errors.Errorf("fill.alphabet must be ASCII, got %q", r)
		}
		if _, ok := seen[r]; ok {
			return errors.Errorf("fill.alphabet repeats %q", r)
		}
		seen[r] = struct{}{}
	}
	return nil
}

// Utility to test if a configuration is defined.
type configMetaData struct {
	meta *toml.MetaData
	path []string
}

func newConfigMetadata(meta *toml.MetaData) *configMetaData {
	return &configMetaData{meta: meta}
}

func (m *configMetaData) IsDefined(key string) bool {
	if m.meta == nil {
		return false
	}
	keys := append([]string(nil), m.path...)
	keys = append(keys, key)
	return m.meta.IsDefined(keys...)
}

func (m *configMetaData) Child(path ...string) *configMetaData {
	newPath := append([]string(nil), m.path...)
	newPath = append(newPath, path...)
	return &configMetaData{
		meta: m.meta,
		path: newPath,
	}
}

func (m *configMetaData) CheckUndecoded() error {
	if m.meta == nil {
		return nil
	}
	undecoded := m.meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, 0, len(undecoded))
	for _, key := range undecoded {
		keys = append(keys, key.String())
	}
	return errors.New("Config contains undefined item: " + strings.Join(keys, ", "))
}

// Adjust is used to adjust the configurations.
func (c *Config) Adjust(meta *toml.MetaData) error {
	configMetaData := newConfigMetadata(meta)
	if err := configMetaData.CheckUndecoded(); err != nil {
		c.WarningMsgs = append(c.WarningMsgs, err.Error())
	}

	if !configMetaData.Child("stm").IsDefined("retry-warn-interval") {
		adjustInt64(&c.STM.RetryWarnInterval, defaultRetryWarnInterval)
	}

	adjustString(&c.Server.Addr, defaultAddr)
	adjustDuration(&c.Server.ReadTimeout, defaultReadTimeout)
	adjustDuration(&c.Server.WriteTimeout, defaultWriteTimeout)

	c.Fill.adjust(configMetaData.Child("fill"))

	return c.Validate()
}

func (c *FillConfig) adjust(meta *configMetaData) {
	adjustString(&c.Alphabet, defaultAlphabet)
	if !meta.IsDefined("min-length") {
		adjustInt(&c.MinLength, defaultMinLength)
	}
	adjustInt(&c.MaxLength, defaultMaxLength)
}

func (c *Config) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "<nil>"
	}
	return string(data)
}

// configFromFile loads config from file.
func (c *Config) configFromFile(path string) (*toml.MetaData, error) {
	meta, err := toml.DecodeFile(path, c)
	return &meta, errors.WithStack(err)
}

// SetupLogger setup the logger.
func (c *Config) SetupLogger() error {
	lg, p, err := log.InitLogger(&c.Log, zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		return errors.WithStack(err)
	}
	c.logger = lg
	c.logProps = p
	return nil
}

// GetZapLogger gets the created zap logger.
func (c *Config) GetZapLogger() *zap.Logger {
	return c.logger
}

// GetZapLogProperties gets properties of the zap logger.
func (c *Config) GetZapLogProperties() *log.ZapProperties {
	return c.logProps
}
