// Package character holds the debate persona registry. Personas are data:
// prompts, voice parameters, scoring weights and fallback phrasing all come
// from YAML rather than per-persona branches.
package character

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

const DefaultID = "luna"

// GenericFallbackTemplate is used for personas without their own template.
const GenericFallbackTemplate = `You mentioned {point} about "{topic}". From my {side} perspective, I see it differently. Your thoughts?`

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelExpert       = "expert"
)

//go:embed characters.yaml
var builtinYAML []byte

type Character struct {
	ID               string  `yaml:"id" json:"id"`
	Name             string  `yaml:"name" json:"name"`
	Level            string  `yaml:"level" json:"level"`
	Emoji            string  `yaml:"emoji" json:"emoji"`
	Description      string  `yaml:"description" json:"description"`
	Personality      string  `yaml:"personality" json:"personality"`
	Model            string  `yaml:"model" json:"model"`
	SystemPrompt     string  `yaml:"system_prompt" json:"-"`
	Voice            Voice   `yaml:"voice" json:"voice"`
	Prompts          Prompts `yaml:"prompts" json:"prompts"`
	Scoring          Scoring `yaml:"scoring" json:"scoring"`
	FallbackTemplate string  `yaml:"fallback_template" json:"-"`
}

// Voice carries synthesis parameters. The JSON names are the ones debate
// clients read from the voiceConfig field of a reply.
type Voice struct {
	Gender        string     `yaml:"gender" json:"type"`
	Rate          float64    `yaml:"rate" json:"speed"`
	Pitch         float64    `yaml:"pitch" json:"pitch"`
	Style         string     `yaml:"style" json:"emotion"`
	HostedVoiceID string     `yaml:"hosted_voice_id" json:"-"`
	Match         VoiceMatch `yaml:"match" json:"-"`
}

// VoiceMatch describes which installed system voices suit a persona. Keywords
// are compared against whole words of the voice name, ignoring case.
type VoiceMatch struct {
	AllOf  []string `yaml:"all_of"`
	AnyOf  []string `yaml:"any_of"`
	NoneOf []string `yaml:"none_of"`
	Locale string   `yaml:"locale"`
}

type Prompts struct {
	Introduction  string `yaml:"introduction" json:"introduction"`
	Thinking      string `yaml:"thinking" json:"thinking"`
	ResponseStyle string `yaml:"response_style" json:"responseStyle"`
	Difficulty    string `yaml:"difficulty" json:"difficulty"`
}

type Scoring struct {
	BasePoints      int     `yaml:"base_points" json:"basePoints"`
	LevelMultiplier float64 `yaml:"level_multiplier" json:"levelMultiplier"`
	WinProbability  float64 `yaml:"win_probability" json:"winProbability"`
}

type registryFile struct {
	Default    string      `yaml:"default"`
	Characters []Character `yaml:"characters"`
}

type Registry struct {
	defaultID string
	order     []string
	byID      map[string]Character
}

// Builtin returns the registry compiled into the binary.
func Builtin() *Registry {
	registry, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("character: builtin registry invalid: %v", err))
	}
	return registry
}

// Load reads a registry from path, or returns the builtin one when path is
// empty.
func Load(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read characters file: %w", err)
	}
	registry, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return registry, nil
}

func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode characters: %w", err)
	}
	if len(file.Characters) == 0 {
		return nil, errors.New("no characters defined")
	}

	registry := &Registry{
		defaultID: strings.TrimSpace(file.Default),
		byID:      make(map[string]Character, len(file.Characters)),
	}
	if registry.defaultID == "" {
		registry.defaultID = DefaultID
	}
	for _, c := range file.Characters {
		c.ID = strings.ToLower(strings.TrimSpace(c.ID))
		if c.ID == "" {
			return nil, errors.New("character without id")
		}
		if _, exists := registry.byID[c.ID]; exists {
			return nil, fmt.Errorf("duplicate character id %q", c.ID)
		}
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Model) == "" {
			return nil, fmt.Errorf("character %q needs a name and a model", c.ID)
		}
		c.Level = strings.ToLower(strings.TrimSpace(c.Level))
		if c.Voice.Rate <= 0 {
			c.Voice.Rate = 1.0
		}
		if c.Voice.Pitch <= 0 {
			c.Voice.Pitch = 1.0
		}
		registry.byID[c.ID] = c
		registry.order = append(registry.order, c.ID)
	}
	if _, ok := registry.byID[registry.defaultID]; !ok {
		return nil, fmt.Errorf("default character %q is not defined", registry.defaultID)
	}
	return registry, nil
}

// Lookup never fails: an empty or unknown id yields the default persona.
func (r *Registry) Lookup(id string) Character {
	if c, ok := r.Get(id); ok {
		return c
	}
	return r.byID[r.defaultID]
}

func (r *Registry) Get(id string) (Character, bool) {
	c, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	return c, ok
}

func (r *Registry) Default() Character {
	return r.byID[r.defaultID]
}

func (r *Registry) All() []Character {
	out := make([]Character, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Models maps persona id to the model it debates with.
func (r *Registry) Models() map[string]string {
	out := make(map[string]string, len(r.order))
	for _, id := range r.order {
		out[id] = r.byID[id].Model
	}
	return out
}

// LevelMultiplier is the relevance multiplier used when scoring replies given
// against a persona of the given level. Unknown levels score at 1.0.
func LevelMultiplier(level string) float64 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelIntermediate:
		return 1.2
	case LevelExpert:
		return 1.5
	default:
		return 1.0
	}
}

// FallbackText fills the persona's fallback template.
func (c Character) FallbackText(point, topic, side string) string {
	template := c.FallbackTemplate
	if strings.TrimSpace(template) == "" {
		template = GenericFallbackTemplate
	}
	return strings.NewReplacer("{point}", point, "{topic}", topic, "{side}", side).Replace(template)
}

// Matches reports whether a system voice with the given name and language tag
// suits this persona.
func (m VoiceMatch) Matches(name, lang string) bool {
	words := map[string]struct{}{}
	for _, word := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[word] = struct{}{}
	}
	has := func(keyword string) bool {
		_, ok := words[strings.ToLower(strings.TrimSpace(keyword))]
		return ok
	}

	for _, keyword := range m.AllOf {
		if !has(keyword) {
			return false
		}
	}
	for _, keyword := range m.NoneOf {
		if has(keyword) {
			return false
		}
	}
	if len(m.AnyOf) == 0 && m.Locale == "" {
		return len(m.AllOf) > 0 || len(m.NoneOf) > 0
	}
	for _, keyword := range m.AnyOf {
		if has(keyword) {
			return true
		}
	}
	if m.Locale != "" && strings.EqualFold(normalizeLocale(lang), normalizeLocale(m.Locale)) {
		return true
	}
	return false
}

func normalizeLocale(lang string) string {
	return strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
}
