/*
Copyright 2025 Usagegate Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5100"

	// Preview counter policies. Both exist in production deployments; the
	// config picks which one the preview endpoint runs.
	PreviewAccumulating = "accumulating"
	PreviewOneShot      = "one_shot"
)

var ConfigStore atomic.Value

// Price is a currency amount that accepts plain JSON numbers as well as
// thousands-separated strings such as "200.000" or "200.000,50" ("." for
// thousands, "," for decimals).
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return p.UnmarshalText([]byte(s))
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*p = Price(f)
	return nil
}

func (p *Price) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*p = 0
		return nil
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*p = Price(f)
	return nil
}

type ServerConfig struct {
	Secure    bool   `json:"secure" envconfig:"USAGEGATE_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"USAGEGATE_SERVER_SECRET_KEY"`
	Port      string `json:"port" envconfig:"USAGEGATE_SERVER_PORT"`
}

type StoreConfig struct {
	Dir string `json:"dir" envconfig:"USAGEGATE_STORE_DIR"`
}

// PricingConfig holds the priced-unit configuration the reconciler charges
// against: UnitPrice buys BatchSize uses.
type PricingConfig struct {
	UnitPrice Price   `json:"unit_price" envconfig:"USAGEGATE_PRICING_UNIT_PRICE"`
	BatchSize float64 `json:"batch_size" envconfig:"USAGEGATE_PRICING_BATCH_SIZE"`
}

type PreviewConfig struct {
	Mode string `json:"mode" envconfig:"USAGEGATE_PREVIEW_MODE"`
}

type SessionConfig struct {
	TTLHours int `json:"ttl_hours" envconfig:"USAGEGATE_SESSION_TTL_HOURS"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"USAGEGATE_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"USAGEGATE_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"USAGEGATE_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type Notification struct {
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName  string          `json:"project_name" envconfig:"USAGEGATE_PROJECT_NAME"`
	Server       ServerConfig    `json:"server"`
	Store        StoreConfig     `json:"store"`
	Pricing      PricingConfig   `json:"pricing"`
	Preview      PreviewConfig   `json:"preview"`
	Session      SessionConfig   `json:"session"`
	Notification Notification    `json:"notification"`
	RateLimit    RateLimitConfig `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("usagegate", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called usagegate.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Usagegate Server"
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.Store.Dir = strings.TrimSpace(cnf.Store.Dir)

	if cnf.Store.Dir == "" {
		cnf.Store.Dir = "./db"
		log.Printf("Warning: Store dir not specified in config. Setting default dir: %s", cnf.Store.Dir)
	}

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	switch cnf.Preview.Mode {
	case "":
		cnf.Preview.Mode = PreviewAccumulating
	case PreviewAccumulating, PreviewOneShot:
	default:
		return errors.New("preview mode must be either accumulating or one_shot")
	}

	if cnf.Session.TTLHours <= 0 {
		cnf.Session.TTLHours = 48
	}

	// Pricing fields are validated lazily by the reconciler so that a
	// deployment that never ingests payments can run without them.
	if cnf.Pricing.UnitPrice < 0 || cnf.Pricing.BatchSize < 0 {
		return errors.New("pricing values must not be negative")
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	_ = mockConfig.validateAndAddDefaults()
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
