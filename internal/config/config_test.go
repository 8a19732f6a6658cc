package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "python3", cfg.PythonInterpreter)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DSPAD_ADDR", "127.0.0.1:9999")
	t.Setenv("DSPAD_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("DSPAD_LLM_PROVIDER", "openai")
	t.Setenv("DSPAD_OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Addr)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.True(t, cfg.LLM.HasCredential())
}

func TestValidate_EmptyInterpreter(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.PythonInterpreter = ""
	assert.Error(t, cfg.Validate())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b ,"))
	assert.Nil(t, splitList(" , "))
}
