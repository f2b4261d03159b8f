/*
Package config manages the TOML config for typeahead.

Values come from, in order of precedence: environment overrides, the config
file, and builtin defaults. A config file that fails to parse as a whole is
recovered section by section, so one bad value does not discard the rest.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/provider"
	"github.com/bastiangx/typeahead/pkg/suggest"
)

const (
	appName  = "typeahead"
	fileName = "typeahead.toml"

	EnvAPIKey  = "TYPEAHEAD_API_KEY"
	EnvToken   = "TYPEAHEAD_TOKEN"
	EnvBaseURL = "TYPEAHEAD_BASE_URL"
)

// Config holds the entire config structure
type Config struct {
	API    APIConfig    `toml:"api"`
	Search SearchConfig `toml:"search"`
	CLI    CliConfig    `toml:"cli"`
}

// APIConfig points the HTTP providers at the social API.
type APIConfig struct {
	BaseURL      string `toml:"base_url"`
	PostsPath    string `toml:"posts_path"`
	ProfilesPath string `toml:"profiles_path"`
	APIKey       string `toml:"api_key"`
	Token        string `toml:"token"`
	TimeoutMs    int    `toml:"timeout_ms"`
}

// SearchConfig tunes the query coordinator.
type SearchConfig struct {
	DebounceMs     int  `toml:"debounce_ms"`
	CacheTTLMs     int  `toml:"cache_ttl_ms"`
	CacheSize      int  `toml:"cache_size"`
	FetchLimit     int  `toml:"fetch_limit"`
	MaxResults     int  `toml:"max_results"`
	MinQueryLen    int  `toml:"min_query_len"`
	PartialResults bool `toml:"partial_results"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	ShowScores bool `toml:"show_scores"`
	// Fixture, when set, serves suggestions from a JSON file instead of the API.
	Fixture string `toml:"fixture"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:      provider.DefaultBaseURL,
			PostsPath:    provider.DefaultPostsPath,
			ProfilesPath: provider.DefaultProfilesPath,
			TimeoutMs:    int(provider.DefaultTimeout / time.Millisecond),
		},
		Search: SearchConfig{
			DebounceMs:     int(suggest.DefaultDebounce / time.Millisecond),
			CacheTTLMs:     int(suggest.DefaultCacheTTL / time.Millisecond),
			CacheSize:      suggest.DefaultCacheSize,
			FetchLimit:     suggest.DefaultFetchLimit,
			MaxResults:     suggest.DefaultMaxResults,
			MinQueryLen:    suggest.DefaultMinQueryLen,
			PartialResults: false,
		},
		CLI: CliConfig{
			ShowScores: false,
		},
	}
}

// GetConfigDir returns the first writable config directory, falling back to
// the executable's directory.
func GetConfigDir() (string, error) {
	candidates, err := utils.ConfigDirCandidates(appName)
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
	}
	for _, dir := range candidates {
		if result := utils.CheckDirStatus(dir); result.Writable {
			return dir, nil
		}
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for typeahead.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, fileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/typeahead/typeahead.toml
// 3. Builtin defaults
//
// Environment overrides are applied on top of whichever source won.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	config, path := loadConfigFile(customConfigPath)
	config.ApplyEnv(os.LookupEnv)
	config.Sanitize()
	return config, path, nil
}

func loadConfigFile(customConfigPath string) (*Config, string) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), ""
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), ""
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file, falling back to partial recovery.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	unknown, err := utils.LoadTOMLFile(configPath, config)
	if err != nil {
		return tryPartialParse(configPath)
	}
	for _, key := range unknown {
		log.Warnf("Ignoring unknown config key %q in %s", key, configPath)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed value of a file that failed to
// decode into Config.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if apiSection, ok := utils.ExtractSection(tempConfig, "api"); ok {
		extractAPIConfig(apiSection, &config.API)
	}
	if searchSection, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(searchSection, &config.Search)
	}
	if cliSection, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(cliSection, &config.CLI)
	}
	return config, nil
}

func extractAPIConfig(data map[string]any, api *APIConfig) {
	if val, ok := utils.ExtractString(data, "base_url"); ok {
		api.BaseURL = val
	}
	if val, ok := utils.ExtractString(data, "posts_path"); ok {
		api.PostsPath = val
	}
	if val, ok := utils.ExtractString(data, "profiles_path"); ok {
		api.ProfilesPath = val
	}
	if val, ok := utils.ExtractString(data, "api_key"); ok {
		api.APIKey = val
	}
	if val, ok := utils.ExtractString(data, "token"); ok {
		api.Token = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		api.TimeoutMs = val
	}
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractInt64(data, "debounce_ms"); ok {
		search.DebounceMs = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_ttl_ms"); ok {
		search.CacheTTLMs = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		search.CacheSize = val
	}
	if val, ok := utils.ExtractInt64(data, "fetch_limit"); ok {
		search.FetchLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_results"); ok {
		search.MaxResults = val
	}
	if val, ok := utils.ExtractInt64(data, "min_query_len"); ok {
		search.MinQueryLen = val
	}
	if val, ok := utils.ExtractBool(data, "partial_results"); ok {
		search.PartialResults = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractBool(data, "show_scores"); ok {
		cli.ShowScores = val
	}
	if val, ok := utils.ExtractString(data, "fixture"); ok {
		cli.Fixture = val
	}
}

// ApplyEnv overrides API credentials and location from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if val, ok := lookup(EnvAPIKey); ok && val != "" {
		c.API.APIKey = val
	}
	if val, ok := lookup(EnvToken); ok && val != "" {
		c.API.Token = val
	}
	if val, ok := lookup(EnvBaseURL); ok && val != "" {
		c.API.BaseURL = val
	}
}

// Sanitize replaces non-positive numeric settings with their defaults.
func (c *Config) Sanitize() {
	def := DefaultConfig()
	fix := func(name string, v *int, fallback int) {
		if *v <= 0 {
			log.Warnf("Config value %s=%d is not positive, using %d", name, *v, fallback)
			*v = fallback
		}
	}
	fix("api.timeout_ms", &c.API.TimeoutMs, def.API.TimeoutMs)
	fix("search.debounce_ms", &c.Search.DebounceMs, def.Search.DebounceMs)
	fix("search.cache_ttl_ms", &c.Search.CacheTTLMs, def.Search.CacheTTLMs)
	fix("search.cache_size", &c.Search.CacheSize, def.Search.CacheSize)
	fix("search.fetch_limit", &c.Search.FetchLimit, def.Search.FetchLimit)
	fix("search.max_results", &c.Search.MaxResults, def.Search.MaxResults)
	fix("search.min_query_len", &c.Search.MinQueryLen, def.Search.MinQueryLen)
}

// HTTPOptions converts the API section for provider.NewHTTP.
func (c *Config) HTTPOptions() provider.HTTPOptions {
	return provider.HTTPOptions{
		BaseURL:      c.API.BaseURL,
		PostsPath:    c.API.PostsPath,
		ProfilesPath: c.API.ProfilesPath,
		APIKey:       c.API.APIKey,
		Token:        c.API.Token,
		Timeout:      time.Duration(c.API.TimeoutMs) * time.Millisecond,
	}
}

// CoordinatorOptions converts the search section for suggest.NewCoordinator.
func (c *Config) CoordinatorOptions() []suggest.Option {
	s := c.Search
	return []suggest.Option{
		suggest.WithDebounce(time.Duration(s.DebounceMs) * time.Millisecond),
		suggest.WithLimits(s.FetchLimit, s.MaxResults),
		suggest.WithMinQueryLen(s.MinQueryLen),
		suggest.WithPartialResults(s.PartialResults),
		suggest.WithCache(suggest.NewResultCache(time.Duration(s.CacheTTLMs)*time.Millisecond, s.CacheSize, nil)),
	}
}

// RebuildConfigFile force creates a new typeahead.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
