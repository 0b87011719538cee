package main

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dahlia/fedichatbot/core"
	"github.com/dahlia/fedichatbot/core/llm"
	"github.com/dahlia/fedichatbot/platforms/matrix"
)

type CacheConfig struct {
	Path string `toml:"path"`
}

type Config struct {
	Matrix matrix.Config    `toml:"matrix"`
	LLM    llm.Config       `toml:"llm"`
	Bot    core.BotConfig   `toml:"bot"`
	Usage  core.UsageConfig `toml:"usage"`
	Cache  CacheConfig      `toml:"cache"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = toml.Unmarshal(data, &config)
	return &config, err
}
