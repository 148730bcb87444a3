package cli

import (
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/pep508"
	"github.com/matzehuels/pyboot/pkg/resolver"
	"github.com/matzehuels/pyboot/pkg/zipremote"
)

const (
	defaultIndex  = "https://pypi.org/simple"
	defaultPython = resolver.DefaultPythonVersion
)

// Config is the merged view of defaults, config file, PYBOOT_* environment
// variables and flags.
type Config struct {
	Index         string
	ExtraIndex    []string
	Tags          []string
	Env           map[string]string // marker variable overrides
	PythonVersion string
	HTTPTimeout   time.Duration
	HTTPRetries   int
	EOCDWindow    int
	Propagate     bool

	CacheBackend string
	CacheTTL     time.Duration
	RedisAddr    string
	RedisDB      int

	S3 zipremote.S3Config
}

// configDir returns ~/.config/pyboot.
func configDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

func (c *CLI) bindFlag(key string, f *pflag.Flag) {
	_ = c.config.BindPFlag(key, f)
}

// initConfig reads the config file and environment. A missing default
// config file is not an error; a missing --config file is.
func (c *CLI) initConfig() error {
	v := c.config
	setDefaults(v)

	if c.cfgFile != "" {
		v.SetConfigFile(c.cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "locate home directory")
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && c.cfgFile == "" {
			return nil
		}
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "read config")
	}
	c.Logger.Debug("config loaded", "file", v.ConfigFileUsed())
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("index", defaultIndex)
	v.SetDefault("extra_index", []string{})
	v.SetDefault("tags", resolver.DefaultTags)
	v.SetDefault("python.version", defaultPython)
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.retries", 0)
	v.SetDefault("eocd_window", zipremote.DefaultTailWindow)
	v.SetDefault("propagate_constraints", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", resolver.DefaultCacheTTL)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.use_ssl", true)
}

// loadConfig snapshots the current settings.
func loadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Index:         v.GetString("index"),
		ExtraIndex:    v.GetStringSlice("extra_index"),
		Tags:          v.GetStringSlice("tags"),
		Env:           v.GetStringMapString("env"),
		PythonVersion: v.GetString("python.version"),
		HTTPTimeout:   v.GetDuration("http.timeout"),
		HTTPRetries:   v.GetInt("http.retries"),
		EOCDWindow:    v.GetInt("eocd_window"),
		Propagate:     v.GetBool("propagate_constraints"),
		CacheBackend:  strings.ToLower(v.GetString("cache.backend")),
		CacheTTL:      v.GetDuration("cache.ttl"),
		RedisAddr:     v.GetString("redis.addr"),
		RedisDB:       v.GetInt("redis.db"),
		S3: zipremote.S3Config{
			Endpoint:  v.GetString("s3.endpoint"),
			Region:    v.GetString("s3.region"),
			AccessKey: v.GetString("s3.access_key"),
			SecretKey: v.GetString("s3.secret_key"),
			UseSSL:    v.GetBool("s3.use_ssl"),
		},
	}
	if err := errs.ValidateURL(cfg.Index); err != nil {
		return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "index")
	}
	switch cfg.CacheBackend {
	case "memory", "redis", "none":
	default:
		return cfg, errs.New(errs.ErrCodeInvalidConfig, "unknown cache backend %q (want memory, redis or none)", cfg.CacheBackend)
	}
	if cfg.HTTPRetries < 0 {
		return cfg, errs.New(errs.ErrCodeInvalidConfig, "http.retries must not be negative")
	}
	return cfg, nil
}

// versionVars are compared as versions unless a type is given.
var versionVars = map[string]bool{
	"python_version":         true,
	"python_full_version":    true,
	"implementation_version": true,
}

// parseEnvValue reads "type:value" or a bare value. Bare values are
// versions for the Python version variables and strings otherwise.
func parseEnvValue(name, raw string) (pep508.Value, error) {
	if prefix, rest, ok := strings.Cut(raw, ":"); ok {
		if kind, err := pep508.ParseKind(prefix); err == nil {
			return pep508.Value{Kind: kind, Raw: rest}, nil
		}
	}
	if versionVars[name] {
		return pep508.Semver(raw), nil
	}
	return pep508.String(raw), nil
}

// markerEnv builds the marker environment: the host defaults for the
// configured Python version, then config overrides, then assignments of
// the form var=[type:]value.
func markerEnv(cfg Config, assignments []string) (pep508.Env, error) {
	env := pep508.DefaultEnv(cfg.PythonVersion)
	for name, raw := range cfg.Env {
		val, err := parseEnvValue(name, raw)
		if err != nil {
			return nil, err
		}
		env[name] = val
	}
	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "invalid assignment %q (want var=[type:]value)", a)
		}
		val, err := parseEnvValue(name, raw)
		if err != nil {
			return nil, err
		}
		env[name] = val
	}
	return env, nil
}
