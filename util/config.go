package util

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const Name = "dodo"
const ConfigFileName = "config.yaml"

//go:embed config_default.yaml
var embeddedConfig []byte

type AppConfig struct {
	Conf struct {
		Host      string
		HttpPort  int    `yaml:"httpPort"`
		WithWeb   bool   `yaml:"withWeb"`
		BrokerUrl string `yaml:"brokerUrl"`
	}
	// Env-only values, never read from the yaml file.
	ApiKey string `yaml:"-"`
	UserId string `yaml:"-"`
}

func ReadConf() (*AppConfig, error) {

	c := &AppConfig{}

	// Try to resolve config file path (local first, then user dir)
	configPath := ResolveFilePath(ConfigFileName)

	var buf []byte
	var err error

	// Try to read from resolved path
	buf, err = os.ReadFile(configPath)
	if err != nil {
		// If file doesn't exist, use embedded config and create user config file
		log.Printf("Config file not found at %s, using embedded defaults", configPath)
		buf = embeddedConfig

		// Try to write default config to user config directory
		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := configDir + "/" + ConfigFileName
			writeErr := os.WriteFile(userConfigPath, embeddedConfig, 0644)
			if writeErr != nil {
				log.Printf("Warning: could not write default config to %s: %v", userConfigPath, writeErr)
			} else {
				log.Printf("Created default config file at %s", userConfigPath)
			}
		}
	}

	err = yaml.Unmarshal(buf, c)
	if err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	envHost := os.Getenv("DODO_HOST")
	envHttpPort := os.Getenv("DODO_HTTPPORT")
	envWithWeb := os.Getenv("DODO_WITH_WEB")
	envBrokerUrl := os.Getenv("DODO_BROKER_URL")

	if envHost != "" {
		c.Conf.Host = envHost
	}

	if envHttpPort != "" {
		v, err := strconv.Atoi(envHttpPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.HttpPort = v
	}

	if envWithWeb == "true" {
		c.Conf.WithWeb = true
	}

	if envBrokerUrl != "" {
		c.Conf.BrokerUrl = envBrokerUrl
	}

	// The broker credential never lives in the config file. Without it
	// nothing works, so treat absence as a startup error.
	c.ApiKey = os.Getenv("DODO_API_KEY")
	if c.ApiKey == "" {
		return nil, errors.New("DODO_API_KEY is not set")
	}

	c.UserId = os.Getenv("DODO_USER_ID")

	return c, nil
}
