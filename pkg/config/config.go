// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/pkg/errors"
)

const (
	// DefaultConfigPath is the default path to the snq config file
	DefaultConfigPath = "/etc/snq.conf"

	// ConfigPathEnvVar is the name of an environment variable which
	// can be set to change the location of the config file
	ConfigPathEnvVar = "SNQ_CONFIG"

	// DefaultStripPrefix is cut from canonical paths to obtain the
	// path known to StorNext
	DefaultStripPrefix = "/data"

	// DefaultTimeout bounds a single web service call
	DefaultTimeout = 30 * time.Second

	// DefaultChecksumTool computes checksums of files on disk.
	DefaultChecksumTool = "md5sum"

	redacted = "********"
)

type (
	// Endpoint is one StorNext web service, selected for paths
	// starting with Prefix.
	Endpoint struct {
		Name   string `hcl:",key" json:"name"`
		Prefix string `hcl:"prefix" json:"prefix"`
		URL    string `hcl:"url" json:"url"`
	}

	// EndpointSet is the list of configured web services.
	EndpointSet []*Endpoint

	// Config is the snq configuration.
	Config struct {
		Password     string      `hcl:"password" json:"password"`
		StripPrefix  string      `hcl:"strip_prefix" json:"strip_prefix"`
		Timeout      string      `hcl:"timeout" json:"timeout"`
		ChecksumTool string      `hcl:"checksum_tool" json:"checksum_tool"`
		Endpoints    EndpointSet `hcl:"endpoint" json:"endpoints"`
	}
)

func (e *Endpoint) String() string {
	return fmt.Sprintf("%s:%s:%s", e.Name, e.Prefix, e.URL)
}

func (e *Endpoint) checkValid() error {
	var errors []string

	if e.Prefix == "" {
		errors = append(errors, fmt.Sprintf("Endpoint %s: prefix not set", e.Name))
	}

	if e.URL == "" {
		errors = append(errors, fmt.Sprintf("Endpoint %s: url not set", e.Name))
	} else if u, err := url.Parse(e.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("Endpoint %s: invalid url %q", e.Name, e.URL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("Errors: %s", strings.Join(errors, ", "))
	}

	return nil
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		StripPrefix:  DefaultStripPrefix,
		Timeout:      DefaultTimeout.String(),
		ChecksumTool: DefaultChecksumTool,
	}
}

// Merge returns a new Config with values from other overriding those
// of c.
func (c *Config) Merge(other *Config) *Config {
	result := *c
	result.Endpoints = append(EndpointSet{}, c.Endpoints...)

	if other.Password != "" {
		result.Password = other.Password
	}
	if other.StripPrefix != "" {
		result.StripPrefix = other.StripPrefix
	}
	if other.Timeout != "" {
		result.Timeout = other.Timeout
	}
	if other.ChecksumTool != "" {
		result.ChecksumTool = other.ChecksumTool
	}
	if len(other.Endpoints) > 0 {
		result.Endpoints = append(EndpointSet{}, other.Endpoints...)
	}

	return &result
}

// TimeoutDuration returns the parsed call timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid timeout %q", c.Timeout)
	}
	return d, nil
}

// Validate checks that the configuration can be used to reach a service.
func (c *Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return errors.New("Invalid configuration: No endpoints defined")
	}
	for _, ep := range c.Endpoints {
		if err := ep.checkValid(); err != nil {
			return errors.Wrap(err, "Invalid configuration")
		}
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return errors.Wrap(err, "Invalid configuration")
	}
	return nil
}

func (c *Config) String() string {
	return DisplayConfig(c)
}

// LoadConfig reads the config file and decodes it into cfg. The file
// holds the service password, so it must not be accessible to group or
// others.
func LoadConfig(cfgFile string, cfg interface{}) error {
	fi, err := os.Stat(cfgFile)
	if err != nil {
		return errors.Wrap(err, "stat config file failed")
	}
	if (int(fi.Mode()) & 077) != 0 {
		return errors.Errorf("config file %s permissions are insecure (%#o)", cfgFile, fi.Mode().Perm())
	}

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		return errors.Wrap(err, "read config file failed")
	}

	if err := hcl.Decode(cfg, string(data)); err != nil {
		return errors.Wrap(err, "decode config file failed")
	}

	return nil
}

// Load returns the defaults merged with the config file at cfgFile.
func Load(cfgFile string) (*Config, error) {
	loaded := &Config{}
	if err := LoadConfig(cfgFile, loaded); err != nil {
		return nil, err
	}
	return NewConfig().Merge(loaded), nil
}

// Path returns the config file location: the explicit path if given,
// then the environment, then the default.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	return DefaultConfigPath
}

// DisplayConfig formats the configuration for display with the password
// redacted.
func DisplayConfig(cfg *Config) string {
	shown := *cfg
	if shown.Password != "" {
		shown.Password = redacted
	}

	data, err := json.Marshal(&shown)
	if err != nil {
		return fmt.Sprintf("<marshal config failed: %s>", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "\t"); err != nil {
		return string(data)
	}
	return out.String()
}
