// Mango uses flags and a single config file for configuration.
// Flags are the source of truth: every module declares its own knobs next to the code
// that reads them. The config file is a flat YAML mapping of flag names to values, and
// loading it simply sets the matching flags, so a value given on the command line and
// one given in the file go through the exact same path.

package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var configFilePath = flag.String("config_file", "", "Path to the YAML configuration file.")

// yamlValueToString converts a scalar YAML value to its string representation suitable
// for flag setting. Nested mappings and sequences are not supported by design: the file
// is a flat flag-name -> value mapping.
func yamlValueToString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case nil:
		return "", errors.New("null values are not supported")
	default:
		return "", fmt.Errorf("unsupported value type: %T", value)
	}
}

// setConfigFlags applies the parsed config mapping onto registered flags, in flag-name
// order so failures are deterministic. Unknown flag names are an error: a typo in the
// config file should not pass silently.
func setConfigFlags(conf map[string]any) error {
	for _, flagName := range slices.Sorted(maps.Keys(conf)) {
		if flag.Lookup(flagName) == nil {
			return fmt.Errorf("unknown flag in config file: %s", flagName)
		}
		stringValue, err := yamlValueToString(conf[flagName])
		if err != nil {
			return fmt.Errorf("failed to convert %s: %w", flagName, err)
		}
		if err := flag.Set(flagName, stringValue); err != nil {
			return fmt.Errorf("failed to set flag %s: %w", flagName, err)
		}
	}
	return nil
}

// InitFlags initializes the flags from the config file specified by the -config_file flag.
// It should be called after defining all flags and before using them.
func InitFlags() {
	flag.Parse()

	if *configFilePath == "" {
		slog.Info("Config file not specified. Skipping config initialization.")
		return
	}

	// Read config file.
	configFile, err := os.Open(*configFilePath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Config file does not exist.", "path", *configFilePath, "error", err)
		return
	}
	if err != nil { // If the config file cannot be opened, we skip loading and use default flag values.
		slog.Error("Failed to open config file.", "error", err)
		return
	}
	configBytes, err := io.ReadAll(configFile)
	if err != nil {
		slog.Error("Failed to read config file.", "error", err)
		return
	}
	_ = configFile.Close()

	// Apply configurations.
	conf := make(map[string]any)
	if err := yaml.Unmarshal(configBytes, &conf); err != nil {
		slog.Error("Failed to parse config file.", "error", err)
		return
	}
	if err := setConfigFlags(conf); err != nil {
		slog.Error("Failed to set flags from config file.", "error", err)
		return
	}
}

// SetTestFlag sets a flag to a specific value for the duration of the test.
func SetTestFlag(t *testing.T, name, value string) {
	t.Helper()
	flagHolder := flag.Lookup(name)
	require.NotNil(t, flagHolder, "Flag %s not found", name)
	if flagHolder != nil { // Revert the flag value back to its original when the test is done.
		prevValue := flagHolder.Value.String()
		t.Cleanup(func() { require.NoError(t, flag.Set(name, prevValue)) })
	}
	require.NoError(t, flag.Set(name, value))
}
