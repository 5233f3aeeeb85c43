package ai

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptTemplate_Build(t *testing.T) {
	tests := []struct {
		name     string
		template *PromptTemplate
		want     string
	}{
		{
			name: "template without vars",
			template: &PromptTemplate{
				Body: "plain text",
				Vars: make(map[string]string),
			},
			want: "plain text",
		},
		{
			name: "template with variables",
			template: &PromptTemplate{
				Body: "Q: ${query} P: ${promotions}",
				Vars: map[string]string{
					PROMPT_VAR_QUERY:      "how to withdraw",
					PROMPT_VAR_PROMOTIONS: "none",
				},
			},
			want: "Q: how to withdraw P: none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.template.Build()
			if got != tt.want {
				t.Errorf("Build() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPromptTemplate_Validate(t *testing.T) {
	ok := &PromptTemplate{Name: "ok", Body: "x ${query} y ${relevant_passage}"}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	bad := &PromptTemplate{Name: "bad", Body: "x ${not_a_thing}"}
	err := bad.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for unknown placeholder")
	}
	if !errors.Is(err, ErrUnknownPlaceholder) {
		t.Errorf("Validate() error = %v, want ErrUnknownPlaceholder", err)
	}
}

func TestPromptManager_Builtins(t *testing.T) {
	pm, err := NewPromptManager(PromptConfig{})
	if err != nil {
		t.Fatal(err)
	}

	personas := pm.Personas()
	for _, want := range []string{PERSONA_BUSINESS, PERSONA_BELLA, PERSONA_BEN} {
		found := false
		for _, p := range personas {
			if p == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Personas() missing %s", want)
		}
	}

	template := pm.GetPersonaTemplate(PERSONA_BELLA, "")
	if template == nil {
		t.Fatal("GetPersonaTemplate() returned nil")
	}
	if !strings.Contains(template.Body, "Белла") {
		t.Error("bella template does not carry the bella persona text")
	}

	// Unknown persona falls back to the default one.
	fallback := pm.GetPersonaTemplate("stranger", "")
	if fallback.Body != pm.GetPersonaTemplate(PERSONA_DEFAULT, "").Body {
		t.Error("unknown persona did not fall back to default")
	}
}

func TestPromptManager_FileOverride(t *testing.T) {
	dir := t.TempDir()
	override := "Override persona. Context: ${relevant_passage} Q: ${query} H: ${histories}"
	if err := os.WriteFile(filepath.Join(dir, "system_bella.txt"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}
	promotions := filepath.Join(dir, "promotions.txt")
	if err := os.WriteFile(promotions, []byte("50 free spins this week\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pm, err := NewPromptManager(PromptConfig{Dir: dir, PromotionsFile: promotions})
	if err != nil {
		t.Fatal(err)
	}

	template := pm.GetPersonaTemplate(PERSONA_BELLA, "")
	if template.Body != override {
		t.Errorf("override not applied, body = %q", template.Body)
	}
	if template.Vars[PROMPT_VAR_PROMOTIONS] != "50 free spins this week" {
		t.Errorf("promotions not bound, got %q", template.Vars[PROMPT_VAR_PROMOTIONS])
	}
}

func TestPromptManager_InvalidOverrideFailsSetup(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "system_ben.txt"), []byte("bad ${typo_here}"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewPromptManager(PromptConfig{Dir: dir})
	if err == nil {
		t.Fatal("expected setup to fail on unknown placeholder")
	}
	if !errors.Is(err, ErrUnknownPlaceholder) {
		t.Errorf("error = %v, want ErrUnknownPlaceholder", err)
	}
}

func TestPromptManager_PromotionsFallback(t *testing.T) {
	pm, err := NewPromptManager(PromptConfig{})
	if err != nil {
		t.Fatal(err)
	}

	ru := pm.GetPersonaTemplate(PERSONA_BUSINESS, MODEL_BASE_LANGUAGE_RU)
	if ru.Vars[PROMPT_VAR_PROMOTIONS] != PROMPT_PROMOTIONS_EMPTY_RU {
		t.Errorf("ru promotions fallback missing, got %q", ru.Vars[PROMPT_VAR_PROMOTIONS])
	}

	en := pm.GetPersonaTemplate(PERSONA_BUSINESS, MODEL_BASE_LANGUAGE_EN)
	if en.Vars[PROMPT_VAR_PROMOTIONS] != PROMPT_PROMOTIONS_EMPTY_EN {
		t.Errorf("en promotions fallback missing, got %q", en.Vars[PROMPT_VAR_PROMOTIONS])
	}
	if !strings.Contains(en.Body, "${site_title}") {
		t.Error("en default template lost the site title placeholder")
	}
}

func TestParseEnhanceContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		casual  bool
		rewrite string
	}{
		{name: "rewrite", content: "how to register account", rewrite: "how to register account"},
		{name: "rewrite with spaces", content: "  minimum deposit amount \n", rewrite: "minimum deposit amount"},
		{name: "casual sentinel", content: "CASUAL_CHAT", casual: true},
		{name: "quoted sentinel", content: `"CASUAL_CHAT"`, casual: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseEnhanceContent(tt.content)
			if res.Casual != tt.casual {
				t.Errorf("Casual = %v, want %v", res.Casual, tt.casual)
			}
			if res.Rewrite != tt.rewrite {
				t.Errorf("Rewrite = %q, want %q", res.Rewrite, tt.rewrite)
			}
		})
	}
}
