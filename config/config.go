package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// global config variables
var Service serviceConfig
var Queue QueueConfig
var Endpoints map[string]EndpointConfig
var Tiers map[string][]string
var Catalog catalogConfig
var Trace traceConfig
var Keys keysConfig
var Isolation isolationConfig

// This struct performs the unmarshalling from the YAML config file and then
// copies its fields to the globals above.
type configFile struct {
	Service   serviceConfig             `yaml:"service"`
	Queue     QueueConfig               `yaml:"queue"`
	Endpoints map[string]EndpointConfig `yaml:"endpoints"`
	Tiers     map[string][]string       `yaml:"tiers"`
	Catalog   catalogConfig             `yaml:"catalog"`
	Trace     traceConfig               `yaml:"trace"`
	Keys      keysConfig                `yaml:"keys"`
	Isolation isolationConfig           `yaml:"isolation"`
	// data-driven per-site queue overrides: site name -> field -> value
	Overrides map[string]map[string]string `yaml:"overrides"`
}

// This helper reads configuration data, returning an error indicating
// success or failure. All environment variables of the form ${ENV_VAR} are
// expanded.
func readConfig(bytes []byte) error {
	// Before we do anything else, expand any provided environment variables.
	bytes = []byte(os.ExpandEnv(string(bytes)))

	var conf configFile
	conf.Service.TransferTimeout = 3000
	conf.Service.MetadataTimeout = 10
	conf.Catalog.TTL = 60
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		slog.Error(fmt.Sprintf("Couldn't parse configuration data: %s", err))
		return err
	}

	// copy the config data into place
	Service = conf.Service
	Queue = conf.Queue
	Endpoints = conf.Endpoints
	Tiers = conf.Tiers
	Catalog = conf.Catalog
	Trace = conf.Trace
	Keys = conf.Keys
	Isolation = conf.Isolation

	if Tiers == nil {
		Tiers = DefaultTiers()
	}

	// apply any override set declared for the active site
	return applyOverrides(conf.Overrides)
}

// This helper applies the override set declared for the active queue's site,
// if any. Overrides are the structured replacement for per-site special
// cases: everything a site needs changed lives in its configuration entry.
func applyOverrides(overrides map[string]map[string]string) error {
	fields, found := overrides[Queue.Site]
	if !found {
		return nil
	}
	slog.Info(fmt.Sprintf("Applying %d queue override(s) for site %s", len(fields), Queue.Site))
	for field, value := range fields {
		if err := Queue.ReplaceField(field, value); err != nil {
			return err
		}
	}
	return nil
}

// This helper validates the configuration, returning an error that indicates
// success or failure.
func validateConfig() error {
	if Queue.Name == "" {
		return fmt.Errorf("No queue name was provided!")
	}
	if Queue.Copytool == "" {
		return fmt.Errorf("No transfer mechanism (copytool) was provided for queue %s", Queue.Name)
	}
	if Service.Workdir == "" {
		return fmt.Errorf("No working directory was provided!")
	}
	if Service.TransferTimeout <= 0 {
		return fmt.Errorf("Invalid transfer timeout: %d (must be positive)",
			Service.TransferTimeout)
	}

	// Are there any storage endpoints?
	if len(Endpoints) == 0 {
		return fmt.Errorf("No storage endpoints were provided!")
	}
	return nil
}

// Initializes the staging configuration using the given YAML byte data.
func Init(yamlData []byte) error {
	err := readConfig(yamlData)
	if err != nil {
		return err
	}
	return validateConfig()
}
