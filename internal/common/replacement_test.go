package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// createTestLogger creates a logger for testing
func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

func TestReplaceKeyReferences_Simple(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"eodhd-api-token": "tok-12345"}

	input := "api_token = {eodhd-api-token}"
	expected := "api_token = tok-12345"

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceKeyReferences_Multiple(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{
		"key1": "val1",
		"key2": "val2",
		"key3": "val3",
	}

	input := "key1={key1}, key2={key2}, key3={key3}"
	expected := "key1=val1, key2=val2, key3=val3"

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceKeyReferences_MissingKey(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"other-key": "value"}

	input := "api_token = {missing-key}"
	expected := "api_token = {missing-key}" // Unchanged

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceKeyReferences_InvalidSyntax(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"invalid key": "value"}

	// Space in key name - doesn't match regex
	input := "api_token = {invalid key}"
	expected := "api_token = {invalid key}" // Unchanged

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceKeyReferences_EmptyInput(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"key": "value"}

	input := ""
	expected := ""

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceKeyReferences_NoReferences(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"key": "value"}

	input := "api_token = static-value"
	expected := "api_token = static-value"

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceKeyReferences_MultipleOccurrences(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"key": "value"}

	input := "{key} and {key} and {key}"
	expected := "value and value and value"

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceKeyReferences_NumbersInKeyName(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{
		"key123":  "value1",
		"123key":  "value2",
		"key-123": "value3",
		"key_123": "value4",
	}

	input := "{key123} {123key} {key-123} {key_123}"
	expected := "value1 value2 value3 value4"

	result := ReplaceKeyReferences(input, kvMap, logger)
	assert.Equal(t, expected, result)
}

func TestReplaceInStruct_SimpleFields(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"eodhd-api-token": "tok-12345"}

	type EODHDConfig struct {
		APIToken string
	}

	type Config struct {
		EODHD EODHDConfig
	}

	config := &Config{
		EODHD: EODHDConfig{
			APIToken: "{eodhd-api-token}",
		},
	}

	err := ReplaceInStruct(config, kvMap, logger)
	require.NoError(t, err)

	assert.Equal(t, "tok-12345", config.EODHD.APIToken)
}

func TestReplaceInStruct_MultipleFields(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{
		"gemini-key": "sk-111",
		"claude-key": "sk-222",
	}

	type GeminiConfig struct {
		APIKey string
	}

	type ClaudeConfig struct {
		APIKey string
	}

	type Config struct {
		Gemini GeminiConfig
		Claude ClaudeConfig
	}

	config := &Config{
		Gemini: GeminiConfig{
			APIKey: "{gemini-key}",
		},
		Claude: ClaudeConfig{
			APIKey: "{claude-key}",
		},
	}

	err := ReplaceInStruct(config, kvMap, logger)
	require.NoError(t, err)

	assert.Equal(t, "sk-111", config.Gemini.APIKey)
	assert.Equal(t, "sk-222", config.Claude.APIKey)
}

func TestReplaceInStruct_UnexportedFields(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"key": "value"}

	type TestStruct struct {
		Exported   string
		unexported string // Should be skipped
	}

	testStruct := &TestStruct{
		Exported:   "{key}",
		unexported: "{key}",
	}

	err := ReplaceInStruct(testStruct, kvMap, logger)
	require.NoError(t, err)

	assert.Equal(t, "value", testStruct.Exported)
	assert.Equal(t, "{key}", testStruct.unexported) // Unchanged
}

func TestReplaceInStruct_PointerFields(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"base-url": "https://eodhd.com/api"}

	type EODHDConfig struct {
		BaseURL string
	}

	type Config struct {
		EODHD *EODHDConfig
	}

	config := &Config{
		EODHD: &EODHDConfig{
			BaseURL: "{base-url}",
		},
	}

	err := ReplaceInStruct(config, kvMap, logger)
	require.NoError(t, err)

	assert.Equal(t, "https://eodhd.com/api", config.EODHD.BaseURL)
}

func TestReplaceInStruct_NilPointer(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"name": "vigil"}

	type EODHDConfig struct {
		BaseURL string
	}

	type Config struct {
		Name  string
		EODHD *EODHDConfig
	}

	config := &Config{
		Name:  "{name}",
		EODHD: nil, // Nil pointer should be handled gracefully
	}

	err := ReplaceInStruct(config, kvMap, logger)
	require.NoError(t, err)

	assert.Equal(t, "vigil", config.Name)
	assert.Nil(t, config.EODHD)
}

func TestReplaceInStruct_MapField(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"interval": "1s"}

	type Config struct {
		Name              string
		ThrottleIntervals map[string]string
	}

	config := &Config{
		Name: "test",
		ThrottleIntervals: map[string]string{
			"scan_progress": "{interval}",
		},
	}

	err := ReplaceInStruct(config, kvMap, logger)
	require.NoError(t, err)

	assert.Equal(t, "1s", config.ThrottleIntervals["scan_progress"])
}

func TestReplaceInStruct_SliceField(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{
		"out1": "console",
		"out2": "file",
	}

	type Config struct {
		Output []string
	}

	config := &Config{
		Output: []string{"{out1}", "{out2}", "static"},
	}

	err := ReplaceInStruct(config, kvMap, logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"console", "file", "static"}, config.Output)
}

func TestReplaceInStruct_NotPointer(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"key": "value"}

	type Config struct {
		Name string
	}

	config := Config{Name: "{key}"}

	// Should return error because not a pointer
	err := ReplaceInStruct(config, kvMap, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a pointer")
}

func TestReplaceInStruct_NotStruct(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{"key": "value"}

	str := "test"

	// Should return error because not a struct pointer
	err := ReplaceInStruct(&str, kvMap, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a struct pointer")
}

func TestReplaceInStruct_DeepNesting(t *testing.T) {
	logger := createTestLogger()
	kvMap := map[string]string{
		"key1": "val1",
		"key2": "val2",
		"key3": "val3",
	}

	type Level3 struct {
		Field string
	}

	type Level2 struct {
		Field  string
		Nested Level3
	}

	type Level1 struct {
		Field  string
		Nested Level2
	}

	type Config struct {
		Field  string
		Nested Level1
	}

	config := &Config{
		Field: "{key1}",
		Nested: Level1{
			Field: "{key2}",
			Nested: Level2{
				Field: "{key3}",
				Nested: Level3{
					Field: "static",
				},
			},
		},
	}

	err := ReplaceInStruct(config, kvMap, logger)
	require.NoError(t, err)

	assert.Equal(t, "val1", config.Field)
	assert.Equal(t, "val2", config.Nested.Field)
	assert.Equal(t, "val3", config.Nested.Nested.Field)
	assert.Equal(t, "static", config.Nested.Nested.Nested.Field)
}
