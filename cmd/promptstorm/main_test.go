package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/promptstorm/providers"
)

const testDoc = "name: demo\nversion: '1.0'\ndescription: d\ncategories:\n  - testing\ncontent: c"

func scriptedRegistry(mp *providers.MockProvider) *providers.ProviderRegistry {
	registry := providers.NewProviderRegistry()
	registry.Register("scripted", func(string, providers.ProviderConfig) (providers.Provider, error) {
		return mp, nil
	}, providers.ProviderConfig{})
	return registry
}

func scriptedProvider() *providers.MockProvider {
	mp := providers.NewMockProvider()
	mp.SetHandler(func(req *providers.Request) (string, error) {
		content := req.Messages[len(req.Messages)-1].Content
		switch {
		case strings.Contains(content, "exactly two lines"):
			return "testing\ndemo", nil
		case strings.Contains(content, "enhance the following prompt"):
			return "Optimized prompt text", nil
		default:
			return "```yaml\n" + testDoc + "\n```", nil
		}
	})
	return mp
}

func run(t *testing.T, registry *providers.ProviderRegistry, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	root := newRootCmd(registry)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestOptimizeCommand(t *testing.T) {
	mp := scriptedProvider()
	out, _, err := run(t, scriptedRegistry(mp), "--provider", "scripted", "--model", "m", "optimize", "write", "a", "poem")
	require.NoError(t, err)
	assert.Equal(t, "Optimized prompt text\n", out)

	reqs := mp.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "m", reqs[0].Model)
	assert.Contains(t, reqs[0].Messages[0].Content, "write a poem")
}

func TestOptimizeCommandYAMLToFile(t *testing.T) {
	mp := scriptedProvider()
	dir := t.TempDir()
	input := filepath.Join(dir, "prompt.txt")
	output := filepath.Join(dir, "prompt.yaml")
	require.NoError(t, os.WriteFile(input, []byte("fibonacci please\n"), 0o644))

	out, _, err := run(t, scriptedRegistry(mp), "--provider", "scripted",
		"optimize", "--input-file", input, "--yaml", "--output-file", output)
	require.NoError(t, err)
	assert.Contains(t, out, "saved to "+output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, testDoc+"\n", string(data))
	assert.Equal(t, 2, mp.CallCount())
}

func TestFormatCommand(t *testing.T) {
	out, _, err := run(t, scriptedRegistry(scriptedProvider()), "--provider", "scripted", "format", "some prompt")
	require.NoError(t, err)
	assert.Equal(t, testDoc+"\n", out)
}

func TestFormatCommandRepairFailure(t *testing.T) {
	_, _, err := run(t, providers.NewProviderRegistry(), "--provider", "mock", "format", "some prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fix YAML content")
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "prompts.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("text\nfirst prompt\nsecond prompt\n"), 0o644))
	outDir := filepath.Join(dir, "out")

	out, stderr, err := run(t, scriptedRegistry(scriptedProvider()), "--provider", "scripted",
		"batch", "--input-csv", csvPath, "--output-dir", outDir, "--prompt-column", "text")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(outDir, "testing", "demo.yaml"))
	assert.FileExists(t, filepath.Join(outDir, "testing", "demo_1.yaml"))
	assert.Contains(t, out, "Processed 2 prompts: 2 succeeded, 0 failed")
	assert.Contains(t, stderr, "[2/2] ok")
}

func TestBatchCommandDerivedCategorizer(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "prompts.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("prompt\nonly one\n"), 0o644))
	outDir := filepath.Join(dir, "out")

	_, _, err := run(t, scriptedRegistry(scriptedProvider()), "--provider", "scripted",
		"batch", "--input-csv", csvPath, "--output-dir", outDir, "--categorizer", "derived")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "testing", "demo.yaml"))
}

func TestBatchCommandErrors(t *testing.T) {
	registry := scriptedRegistry(scriptedProvider())
	dir := t.TempDir()

	_, _, err := run(t, registry, "--provider", "scripted",
		"batch", "--input-csv", filepath.Join(dir, "missing.csv"), "--output-dir", dir)
	assert.ErrorContains(t, err, "prompt source not found")

	_, _, err = run(t, registry, "--provider", "scripted",
		"batch", "--input-csv", filepath.Join(dir, "missing.csv"), "--output-dir", dir, "--categorizer", "magic")
	assert.ErrorContains(t, err, "unknown categorizer")

	_, _, err = run(t, registry, "--provider", "scripted", "batch")
	assert.Error(t, err)
}

func TestRootFlagValidation(t *testing.T) {
	registry := providers.NewProviderRegistry()

	_, _, err := run(t, registry, "--provider", "mock", "--temperature", "1.5", "optimize", "p")
	assert.ErrorContains(t, err, "invalid configuration")

	_, _, err = run(t, registry, "--provider", "mock", "--log-level", "loud", "optimize", "p")
	assert.ErrorContains(t, err, "invalid log level")

	_, _, err = run(t, registry, "--provider", "nope", "optimize", "p")
	assert.ErrorContains(t, err, "unknown provider")

	_, _, err = run(t, registry, "--provider", "mock", "optimize")
	assert.ErrorContains(t, err, "no prompt given")
}

func TestConfigFile(t *testing.T) {
	mp := scriptedProvider()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("provider: scripted\nmodel: from-file\n"), 0o644))

	_, _, err := run(t, scriptedRegistry(mp), "--config", cfgPath, "optimize", "p")
	require.NoError(t, err)
	assert.Equal(t, "from-file", mp.Requests()[0].Model)
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := run(t, providers.NewProviderRegistry(), "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema["required"], "name")
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "short", shorten("short", 10))
	assert.Equal(t, "a b", shorten("a\nb", 10))
	assert.Equal(t, "abcd…", shorten("abcdefgh", 5))
}
