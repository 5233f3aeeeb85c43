package ai

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrUnknownPlaceholder marks a template carrying a ${...} marker the
// assembler has no binding for. Surfaced at load time where possible.
var ErrUnknownPlaceholder = errors.New("unknown template placeholder")

var placeholderPattern = regexp.MustCompile(`\$\{[a-zA-Z0-9_]+\}`)

// PromptTemplate is one named persona template. Body carries ${...}
// placeholders, Vars are the bindings applied on Build.
type PromptTemplate struct {
	Name string
	Body string
	Lang string
	Vars map[string]string
}

// Build substitutes every bound variable into the body. Keys apply in
// sorted order so the output is stable for identical bindings.
func (pt *PromptTemplate) Build() string {
	keys := make([]string, 0, len(pt.Vars))
	for k := range pt.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	prompt := pt.Body
	for _, k := range keys {
		prompt = strings.ReplaceAll(prompt, k, pt.Vars[k])
	}
	return prompt
}

func (pt *PromptTemplate) SetVar(key, value string) {
	if pt.Vars == nil {
		pt.Vars = make(map[string]string)
	}
	pt.Vars[key] = value
}

// Placeholders lists the distinct ${...} markers present in the body.
func (pt *PromptTemplate) Placeholders() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range placeholderPattern.FindAllString(pt.Body, -1) {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Validate rejects placeholders outside the known vocabulary. A typo
// in a template file must fail the boot, not a live request.
func (pt *PromptTemplate) Validate() error {
	known := make(map[string]struct{}, len(KnownPromptVars))
	for _, v := range KnownPromptVars {
		known[v] = struct{}{}
	}
	for _, m := range pt.Placeholders() {
		if _, ok := known[m]; !ok {
			return fmt.Errorf("template %q: %w: %s", pt.Name, ErrUnknownPlaceholder, m)
		}
	}
	return nil
}

// PromptConfig points at the operator-provided template overrides.
type PromptConfig struct {
	// Dir holds system_<persona>.txt override files. Missing dir means
	// built-in defaults only.
	Dir string `toml:"dir"`
	// PromotionsFile feeds ${promotions}. Missing or empty file falls
	// back to a fixed "no promotions" text.
	PromotionsFile string `toml:"promotions_file"`
	Lang           string `toml:"lang"`
}

// PromptManager resolves persona names to templates. Overrides load
// once at setup; templates are immutable afterwards.
type PromptManager struct {
	overrides  map[string]*PromptTemplate
	builtins   map[string]string
	promotions string
	lang       string
}

const personaFilePrefix = "system_"

func NewPromptManager(cfg PromptConfig) (*PromptManager, error) {
	lang := cfg.Lang
	if lang == "" {
		lang = MODEL_BASE_LANGUAGE_RU
	}

	pm := &PromptManager{
		overrides: make(map[string]*PromptTemplate),
		builtins: map[string]string{
			PERSONA_BUSINESS: PROMPT_PERSONA_BUSINESS_RU,
			PERSONA_BELLA:    PROMPT_PERSONA_BELLA_RU,
			PERSONA_BEN:      PROMPT_PERSONA_BEN_RU,
		},
		lang: lang,
	}

	if cfg.Dir != "" {
		if err := pm.loadOverrides(cfg.Dir); err != nil {
			return nil, err
		}
	}

	if cfg.PromotionsFile != "" {
		raw, err := os.ReadFile(cfg.PromotionsFile)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read promotions file, %w", err)
		}
		pm.promotions = strings.TrimSpace(string(raw))
	}

	return pm, nil
}

func (pm *PromptManager) loadOverrides(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read prompts dir, %w", err)
	}

	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasPrefix(name, personaFilePrefix) || !strings.HasSuffix(name, ".txt") {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read template %s, %w", name, err)
		}

		persona := strings.TrimSuffix(strings.TrimPrefix(name, personaFilePrefix), ".txt")
		tpl := &PromptTemplate{
			Name: persona,
			Body: strings.TrimSpace(string(raw)),
		}
		if tpl.Body == "" {
			continue
		}
		if err := tpl.Validate(); err != nil {
			return err
		}
		pm.overrides[persona] = tpl
	}
	return nil
}

// GetPersonaTemplate resolves a persona to a fresh template with the
// common variables bound. Unknown personas fall back to the default.
func (pm *PromptManager) GetPersonaTemplate(persona, lang string) *PromptTemplate {
	if persona == "" {
		persona = PERSONA_DEFAULT
	}
	if lang == "" {
		lang = pm.lang
	}

	body := ""
	if override, ok := pm.overrides[persona]; ok {
		body = override.Body
	} else if lang == MODEL_BASE_LANGUAGE_EN {
		body = PROMPT_PERSONA_DEFAULT_EN
	} else if builtin, ok := pm.builtins[persona]; ok {
		body = builtin
	} else {
		body = pm.builtins[PERSONA_DEFAULT]
	}

	tpl := &PromptTemplate{
		Name: persona,
		Body: body,
		Lang: lang,
		Vars: make(map[string]string),
	}

	tpl.SetVar(PROMPT_VAR_SITE_TITLE, SITE_TITLE)

	promotions := pm.promotions
	if promotions == "" {
		if lang == MODEL_BASE_LANGUAGE_EN {
			promotions = PROMPT_PROMOTIONS_EMPTY_EN
		} else {
			promotions = PROMPT_PROMOTIONS_EMPTY_RU
		}
	}
	tpl.SetVar(PROMPT_VAR_PROMOTIONS, promotions)

	return tpl
}

// Personas lists every resolvable persona name.
func (pm *PromptManager) Personas() []string {
	seen := make(map[string]struct{})
	var out []string
	for name := range pm.builtins {
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for name := range pm.overrides {
		if _, ok := seen[name]; ok {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
