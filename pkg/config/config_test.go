package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Flags owned by this test file; the config loader sets them through flag.Set just
// like it would set any module's flags.
var (
	testStringFlag = flag.String("config_test_string", "default", "Test-only string flag.")
	testIntFlag    = flag.Int("config_test_int", 7, "Test-only int flag.")
	testBoolFlag   = flag.Bool("config_test_bool", false, "Test-only bool flag.")
)

func TestYamlValueToString(t *testing.T) {
	for _, testCase := range []struct {
		name      string
		value     any
		expected  string
		expectErr bool
	}{
		{name: "string", value: "hello", expected: "hello"},
		{name: "bool", value: true, expected: "true"},
		{name: "int", value: 42, expected: "42"},
		{name: "int64", value: int64(1 << 40), expected: "1099511627776"},
		{name: "float", value: 2.5, expected: "2.5"},
		{name: "null", value: nil, expectErr: true},
		{name: "nested mapping", value: map[string]any{"a": 1}, expectErr: true},
		{name: "sequence", value: []any{1, 2}, expectErr: true},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := yamlValueToString(testCase.value)
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, got)
		})
	}
}

func TestSetConfigFlags(t *testing.T) {
	SetTestFlag(t, "config_test_string", "default")
	SetTestFlag(t, "config_test_int", "7")
	SetTestFlag(t, "config_test_bool", "false")

	err := setConfigFlags(map[string]any{
		"config_test_string": "from-file",
		"config_test_int":    42,
		"config_test_bool":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "from-file", *testStringFlag)
	assert.Equal(t, 42, *testIntFlag)
	assert.True(t, *testBoolFlag)
}

func TestSetConfigFlags_UnknownFlag(t *testing.T) {
	err := setConfigFlags(map[string]any{"no_such_flag_registered": "x"})
	assert.Error(t, err, "A typo in the config file must not pass silently")
}

func TestInitFlags_FromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mango.yaml")
	require.NoError(t, os.WriteFile(configPath,
		[]byte("config_test_string: yaml-value\nconfig_test_int: 99\n"), 0o644))

	SetTestFlag(t, "config_test_string", "default")
	SetTestFlag(t, "config_test_int", "7")
	SetTestFlag(t, "config_file", configPath)
	InitFlags()

	assert.Equal(t, "yaml-value", *testStringFlag)
	assert.Equal(t, 99, *testIntFlag)
}

func TestInitFlags_MissingFileKeepsDefaults(t *testing.T) {
	SetTestFlag(t, "config_test_string", "kept")
	SetTestFlag(t, "config_file", filepath.Join(t.TempDir(), "absent.yaml"))
	InitFlags()
	assert.Equal(t, "kept", *testStringFlag)
}

func TestSetTestFlag_RevertsOnCleanup(t *testing.T) {
	original := *testStringFlag
	t.Run("inner", func(t *testing.T) {
		SetTestFlag(t, "config_test_string", "temporary")
		assert.Equal(t, "temporary", *testStringFlag)
	})
	assert.Equal(t, original, *testStringFlag, "The flag must revert after the subtest")
}
