package srv

import (
	"testing"

	"github.com/trellis-ai/trellis-ai/pkg/types"
)

func TestSetupAI_Defaults(t *testing.T) {
	a, err := SetupAI(AIConfig{})
	if err != nil {
		t.Fatalf("SetupAI failed: %v", err)
	}

	if a.chatDriver == nil {
		t.Error("chat usage has no driver")
	}
	if a.embedDriver == nil {
		t.Error("embedding usage has no driver")
	}
	if !a.EnhanceUsable() {
		t.Error("enhance should default to the chat driver")
	}
	if a.TokenCounter() == nil {
		t.Error("token counter not set")
	}
}

func TestSetupAI_UsageRouting(t *testing.T) {
	a, err := SetupAI(AIConfig{
		Usage: map[string]string{
			types.MODEL_TYPE_CHAT:      "openai",
			types.MODEL_TYPE_EMBEDDING: "ollama",
			types.MODEL_TYPE_ENHANCE:   ENHANCE_DISABLED,
		},
	})
	if err != nil {
		t.Fatalf("SetupAI failed: %v", err)
	}

	if a.EnhanceUsable() {
		t.Error("enhance usage should be disabled")
	}
}

func TestSetupAI_EmbeddingUnsupported(t *testing.T) {
	_, err := SetupAI(AIConfig{
		Usage: map[string]string{
			types.MODEL_TYPE_EMBEDDING: "deepseek",
		},
	})
	if err == nil {
		t.Fatal("deepseek has no embedding models, SetupAI should refuse it")
	}
}

func TestSetupAI_UnknownDriver(t *testing.T) {
	_, err := SetupAI(AIConfig{
		Usage: map[string]string{
			types.MODEL_TYPE_CHAT: "bard",
		},
	})
	if err == nil {
		t.Fatal("unknown driver name should fail setup")
	}
}
