package config

import (
	"io/ioutil"
	"log"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func assertFieldsMatch(t *testing.T, rt reflect.Type, rawConfig map[interface{}]interface{}) {
	t.Helper()

	knownFields := make(map[string]bool)
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k.(string)]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[interface{}]interface{})
	require.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	assertFieldsMatch(t, reflect.TypeOf(Configuration{}), rawConfig)

	sections := map[string]reflect.Type{
		"expansion":  reflect.TypeOf(Expansion{}),
		"playground": reflect.TypeOf(Playground{}),
	}
	for name, rt := range sections {
		t.Run(name, func(t *testing.T) {
			section, ok := rawConfig[name].(map[interface{}]interface{})
			require.True(t, ok, "section %q isn't a map", name)
			assertFieldsMatch(t, rt, section)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()
	assert.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Expansion.Glob)
	assert.Equal(t, 10*time.Second, cfg.Playground.Timeout())
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.Expansion.MaxDepth = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_depth")
}

func TestInitializeFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger := log.New(ioutil.Discard, "", 0)

	cfg, err := InitializeFs(fs, logger)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig().Expansion, cfg.Expansion)

	written, err := afero.ReadFile(fs, ConfigurationName)
	require.NoError(t, err)
	assert.Equal(t, defaultConfigData, written)

	t.Run("keeps existing", func(t *testing.T) {
		custom := strings.Replace(string(defaultConfigData), "max_depth: 64", "max_depth: 3", 1)
		require.NoError(t, afero.WriteFile(fs, ConfigurationName, []byte(custom), 0600))

		cfg, err := InitializeFs(fs, logger)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Expansion.MaxDepth)
	})

	t.Run("OpenAppLog", func(t *testing.T) {
		fd, err := cfg.OpenAppLog()
		require.NoError(t, err)
		_, err = fd.WriteString("{}\n")
		assert.NoError(t, err)
		fd.Close()

		fd, err = cfg.ReadAppLog()
		require.NoError(t, err)
		defer fd.Close()
		contents, err := ioutil.ReadAll(fd)
		assert.NoError(t, err)
		assert.Equal(t, "{}\n", string(contents))
	})
}

func TestLoadFs_strict(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ConfigurationName, []byte("expansion:\n  globbing: true\n"), 0600))

	_, err := LoadFs(fs)
	assert.Error(t, err)
}

func TestLoadFs_invalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	invalid := strings.Replace(string(defaultConfigData), "max_brace_words: 65536", "max_brace_words: 0", 1)
	require.NoError(t, afero.WriteFile(fs, ConfigurationName, []byte(invalid), 0600))

	_, err := LoadFs(fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_brace_words")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	_, err := Initialize(dir, log.New(ioutil.Discard, "", 0))
	require.NoError(t, err)

	cfg, err := Load(dir + "/" + ConfigurationName)
	require.NoError(t, err)
	assert.Equal(t, dir+"/.ionlex_history", cfg.HistoryPath())
}
