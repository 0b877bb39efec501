package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"campusdual-backend/internal/components/telemetry"
	"campusdual-backend/internal/gradestore"
	"campusdual-backend/internal/scrapers/campusdual"
	"campusdual-backend/lib/configutil"
	"campusdual-backend/lib/restyutil"
)

type PortalConfig struct {
	BaseUrl           string  `json:"base_url"`
	RootCertFile      string  `json:"root_cert_file"`
	Retry             bool    `json:"retry"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	// DumpDir keeps a copy of every fetched page when set.
	DumpDir string `json:"dump_dir"`
}

type SessionConfig struct {
	File string `json:"file"`
}

type WatchConfig struct {
	Schedule string `json:"schedule"`
	// User is the key grade snapshots are stored under.
	User string     `json:"user"`
	Mail MailConfig `json:"mail"`
}

type Config struct {
	Portal    PortalConfig      `json:"portal"`
	Session   SessionConfig     `json:"session"`
	Store     gradestore.Config `json:"store"`
	Watch     WatchConfig       `json:"watch"`
	Telemetry telemetry.Config  `json:"telemetry"`
}

func defaultConfig() Config {
	return Config{
		Portal: PortalConfig{
			BaseUrl:           campusdual.DefaultBaseUrl,
			RootCertFile:      "campusdual.pem",
			RequestsPerSecond: 2,
			TimeoutSeconds:    30,
		},
		Session: SessionConfig{File: "session.json"},
		Store:   gradestore.Config{File: "grades.db"},
		Watch:   WatchConfig{Schedule: "*/30 * * * *", User: "default"},
	}
}

// loadConfig reads the config file, a missing file leaves every setting at its default.
func loadConfig() (Config, error) {
	config := defaultConfig()

	read, err := configutil.ReadConfig[Config](*configPath)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return Config{}, err
	}

	err = configutil.Merge(&config, read)
	if err != nil {
		return Config{}, fmt.Errorf("apply config: %w", err)
	}
	return config, nil
}

func (c PortalConfig) clientOptions(cookie string) (campusdual.ClientOptions, error) {
	pem, err := os.ReadFile(c.RootCertFile)
	if err != nil {
		return campusdual.ClientOptions{}, fmt.Errorf("read root certificate: %w", err)
	}
	opts := campusdual.ClientOptions{
		BaseUrl:           c.BaseUrl,
		RootCertPEM:       string(pem),
		Retry:             c.Retry,
		Cookie:            cookie,
		RequestsPerSecond: c.RequestsPerSecond,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
	}
	if c.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(c.DumpDir)
		if err != nil {
			return campusdual.ClientOptions{}, fmt.Errorf("create dump directory: %w", err)
		}
		opts.Dump = output
	}
	return opts, nil
}
