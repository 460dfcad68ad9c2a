package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.CaptureSampleRate != 48000 {
		t.Errorf("Expected default CaptureSampleRate 48000, got %d", cfg.CaptureSampleRate)
	}

	if cfg.CaptureChannels != 2 {
		t.Errorf("Expected default CaptureChannels 2, got %d", cfg.CaptureChannels)
	}

	if cfg.CaptureSampleWidth != 2 {
		t.Errorf("Expected default CaptureSampleWidth 2, got %d", cfg.CaptureSampleWidth)
	}

	if cfg.TargetChunkMs != 300000 {
		t.Errorf("Expected default TargetChunkMs 300000, got %d", cfg.TargetChunkMs)
	}

	if cfg.MinChunkMs != 30000 {
		t.Errorf("Expected default MinChunkMs 30000, got %d", cfg.MinChunkMs)
	}

	if cfg.MaxChunkMs != 600000 {
		t.Errorf("Expected default MaxChunkMs 600000, got %d", cfg.MaxChunkMs)
	}

	if cfg.SilenceThresholdDB != -40 {
		t.Errorf("Expected default SilenceThresholdDB -40, got %f", cfg.SilenceThresholdDB)
	}

	if cfg.MinSilenceMs != 500 {
		t.Errorf("Expected default MinSilenceMs 500, got %d", cfg.MinSilenceMs)
	}

	if cfg.MaxChunkSizeMB != 25 {
		t.Errorf("Expected default MaxChunkSizeMB 25, got %f", cfg.MaxChunkSizeMB)
	}

	if cfg.LongAudioThreshold != 300 {
		t.Errorf("Expected default LongAudioThreshold 300, got %f", cfg.LongAudioThreshold)
	}

	if cfg.DeepgramModel != "nova-2" {
		t.Errorf("Expected default DeepgramModel 'nova-2', got '%s'", cfg.DeepgramModel)
	}

	if cfg.DefaultLanguage != "ja" {
		t.Errorf("Expected default DefaultLanguage 'ja', got '%s'", cfg.DefaultLanguage)
	}

	if cfg.MaxConcurrent != 2 {
		t.Errorf("Expected default MaxConcurrent 2, got %d", cfg.MaxConcurrent)
	}

	if cfg.LLMProvider != "ollama" {
		t.Errorf("Expected default LLMProvider 'ollama', got '%s'", cfg.LLMProvider)
	}

	if cfg.OllamaHost != "http://localhost:11434" {
		t.Errorf("Expected default OllamaHost 'http://localhost:11434', got '%s'", cfg.OllamaHost)
	}

	if cfg.CharBudget != 12000 {
		t.Errorf("Expected default CharBudget 12000, got %d", cfg.CharBudget)
	}

	if cfg.MaxSummaryDepth != 8 {
		t.Errorf("Expected default MaxSummaryDepth 8, got %d", cfg.MaxSummaryDepth)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("TARGET_CHUNK_MS", "120000")
	os.Setenv("SUMMARY_CHAR_BUDGET", "4000")
	defer os.Unsetenv("TARGET_CHUNK_MS")
	defer os.Unsetenv("SUMMARY_CHAR_BUDGET")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.TargetChunkMs != 120000 {
		t.Errorf("Expected TargetChunkMs 120000, got %d", cfg.TargetChunkMs)
	}

	if cfg.CharBudget != 4000 {
		t.Errorf("Expected CharBudget 4000, got %d", cfg.CharBudget)
	}
}

func TestLoad_InvalidChunkDurations(t *testing.T) {
	os.Setenv("MIN_CHUNK_MS", "600000")
	os.Setenv("TARGET_CHUNK_MS", "300000")
	defer os.Unsetenv("MIN_CHUNK_MS")
	defer os.Unsetenv("TARGET_CHUNK_MS")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error when min chunk exceeds target chunk")
	}
}

func TestLoad_OpenAIRequiresKey(t *testing.T) {
	os.Setenv("LLM_PROVIDER", "openai")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Unsetenv("LLM_PROVIDER")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error when LLM_PROVIDER=openai without OPENAI_API_KEY")
	}
}

func TestLoad_UnknownProvider(t *testing.T) {
	os.Setenv("LLM_PROVIDER", "bard")
	defer os.Unsetenv("LLM_PROVIDER")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error for unknown LLM_PROVIDER")
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := GetEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = GetEnv("NON_EXISTENT_KEY", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}
