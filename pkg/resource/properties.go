package resource

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const DefaultPropertiesPath = "configs/application.yml"

var (
	props      = viper.New()
	envPattern = regexp.MustCompile(`\$\{([^:}]+)(?::([^}]*))?}`)
)

// PropertiesPath returns PROPERTIES_FILE_PATH or the default location.
func PropertiesPath() string {
	if value, ok := os.LookupEnv("PROPERTIES_FILE_PATH"); ok && value != "" {
		return value
	}
	return DefaultPropertiesPath
}

// Load reads the YAML properties file and resolves ${ENV} and ${ENV:default}
// placeholders in every string value, including list items.
func Load(filepath string) error {
	v := viper.New()
	v.SetConfigFile(filepath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("fail to read properties %s: %w", filepath, err)
	}

	resolved := resolveMap(v.AllSettings())
	if err := v.MergeConfigMap(resolved); err != nil {
		return fmt.Errorf("fail to resolve properties %s: %w", filepath, err)
	}

	props = v
	return nil
}

// BindFlags maps command line flags onto property keys. A flag only takes
// precedence over the file when it was set explicitly.
func BindFlags(flags *pflag.FlagSet, bindings map[string]string) error {
	for key, flagName := range bindings {
		flag := flags.Lookup(flagName)
		if flag == nil {
			return fmt.Errorf("unknown flag %q for property %s", flagName, key)
		}
		if err := props.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("fail to bind flag %q: %w", flagName, err)
		}
	}
	return nil
}

// SetDefault registers a fallback for a key absent from the file.
func SetDefault(key string, value any) {
	props.SetDefault(key, value)
}

func resolveMap(data map[string]any) map[string]any {
	result := make(map[string]any, len(data))
	for key, value := range data {
		result[key] = resolveValue(value)
	}
	return result
}

func resolveValue(value any) any {
	switch v := value.(type) {
	case string:
		return resolveEnvVariable(v)
	case map[string]any:
		return resolveMap(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = resolveValue(item)
		}
		return items
	default:
		return v
	}
}

// resolveEnvVariable replaces each placeholder with the variable's value, its
// default, or an empty string.
func resolveEnvVariable(value string) string {
	return envPattern.ReplaceAllStringFunc(value, func(placeholder string) string {
		matches := envPattern.FindStringSubmatch(placeholder)
		if envValue, exists := os.LookupEnv(matches[1]); exists {
			return envValue
		}
		return matches[2]
	})
}

func GetString(key string) string {
	return props.GetString(key)
}

func GetBool(key string) bool {
	return props.GetBool(key)
}

func GetDuration(key string) time.Duration {
	return props.GetDuration(key)
}

func GetInt(key string) int {
	return props.GetInt(key)
}

func GetStringSlice(key string) []string {
	return props.GetStringSlice(key)
}
