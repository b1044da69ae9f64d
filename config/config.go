package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santiagomed/appcannon/core"
	"github.com/santiagomed/appcannon/llm"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "APPCANNON"

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"output":       "output",
	"frontend":     "frontend",
	"backend":      "backend",
	"database":     "database",
	"model":        "model",
	"git":          "git",
	"log":          "log",
	"concurrency":  "concurrency",
	"max-attempts": "max_attempts",
	"file-timeout": "file_timeout",
	"tellm-url":    "tellm_url",
}

// Load builds a request from defaults, an optional config file, APPCANNON_*
// environment variables and flags, in increasing order of precedence.
// The API key is picked from ANTHROPIC_API_KEY or OPENAI_API_KEY according
// to the model's provider.
func Load(fsys afero.Fs, configPath string, flags *pflag.FlagSet) (*core.Request, error) {
	v := viper.New()
	v.SetFs(fsys)

	def := core.DefaultRequest()
	v.SetDefault("frontend", def.Frontend)
	v.SetDefault("backend", def.Backend)
	v.SetDefault("database", def.Database)
	v.SetDefault("git", def.GitRepo)
	v.SetDefault("model", def.ModelName)
	v.SetDefault("output", def.OutputDir)
	v.SetDefault("log", def.LogFile)
	v.SetDefault("tellm_url", def.TellmURL)
	v.SetDefault("max_attempts", def.MaxAttempts)
	v.SetDefault("base_delay", def.BaseDelay)
	v.SetDefault("concurrency", def.Concurrency)
	v.SetDefault("file_timeout", def.FileTimeout)
	v.SetDefault("tool_tag", def.ToolTag)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("openai_api_key", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	req := core.DefaultRequest()
	if err := v.Unmarshal(req); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if c, err := llm.ParseCapability(req.ModelName); err == nil {
		switch c.Provider {
		case llm.ProviderAnthropic:
			req.APIKey = v.GetString("anthropic_api_key")
		case llm.ProviderOpenAI:
			req.APIKey = v.GetString("openai_api_key")
		}
	}
	return req, nil
}

// ReadSpecFile decodes a YAML project spec. The document must be a mapping.
func ReadSpecFile(fsys afero.Fs, path string) (map[string]interface{}, error) {
	b, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("error reading spec file: %w", err)
	}

	var spec map[string]interface{}
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("error parsing spec file %s: %w", path, err)
	}
	if spec == nil {
		return nil, errors.New("spec file is empty")
	}
	return spec, nil
}
