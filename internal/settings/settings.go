// Package settings serves the per-channel bot instructions (introduction,
// do/don't guidance, word limit, retrieval depth) used to assemble answer
// prompts. Settings are owned elsewhere; this package carries baked-in
// defaults and optionally overlays them from a YAML file so the orchestrator
// never blocks on missing settings.
package settings

import (
	"os"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/utils"
)

// BotSettings drives prompt assembly for one channel.
type BotSettings struct {
	Introduction string   `yaml:"introduction"`
	Dos          []string `yaml:"dos"`
	Donts        []string `yaml:"donts"`
	WordLimit    int      `yaml:"word_limit"`
	NResults     int      `yaml:"n_results"`
}

const reloadTTL = 5 * time.Minute

// Service resolves settings per channel, reloading file overrides on a TTL.
type Service struct {
	path string

	mu       sync.Mutex
	loaded   map[string]BotSettings
	loadedAt time.Time
}

func NewService(path string) *Service {
	return &Service{path: path}
}

// ForChannel returns the settings for a channel name ("website", "instagram",
// "whatsapp"), falling back to defaults field by field.
func (s *Service) ForChannel(channel string) BotSettings {
	def, ok := defaults[channel]
	if !ok {
		def = defaults["website"]
	}

	override, ok := s.overrides()[channel]
	if !ok {
		return def
	}

	if override.Introduction != "" {
		def.Introduction = override.Introduction
	}
	if len(override.Dos) > 0 {
		def.Dos = override.Dos
	}
	if len(override.Donts) > 0 {
		def.Donts = override.Donts
	}
	if override.WordLimit > 0 {
		def.WordLimit = override.WordLimit
	}
	if override.NResults > 0 {
		def.NResults = override.NResults
	}
	return def
}

func (s *Service) overrides() map[string]BotSettings {
	if s == nil || s.path == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded != nil && time.Since(s.loadedAt) < reloadTTL {
		return s.loaded
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		utils.Zlog.Warn("Failed to read bot settings file, using defaults",
			zap.String("path", s.path),
			zap.Error(err))
		s.loaded = map[string]BotSettings{}
		s.loadedAt = time.Now()
		return s.loaded
	}

	parsed := map[string]BotSettings{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		utils.Zlog.Warn("Failed to parse bot settings file, using defaults",
			zap.String("path", s.path),
			zap.Error(err))
		parsed = map[string]BotSettings{}
	}

	s.loaded = parsed
	s.loadedAt = time.Now()
	return s.loaded
}

var defaults = map[string]BotSettings{
	"website": {
		Introduction: "You are RapteeHV's professional AI assistant for the Raptee.HV T30 electric motorcycle.",
		Dos: []string{
			"Answer ONLY about Raptee.HV and the T30 motorcycle",
			"Be friendly for greetings",
			"Keep responses concise and professional",
			"Use the provided context to answer questions",
		},
		Donts: []string{
			"Don't discuss competitor brands (Ather, Ola, Revolt, etc.)",
			"Don't use emojis",
			"Don't make up information not in context",
			"Don't mention words like 'database', 'context', 'knowledge base'",
		},
		WordLimit: 100,
		NResults:  2,
	},
	"instagram": {
		Introduction: "You are RapteeHV's professional customer service assistant for Instagram.",
		Dos: []string{
			"Provide concise, professional responses",
			"Guide users to book test rides or find showrooms",
			"Answer questions about T30 features",
		},
		Donts: []string{
			"Don't use emojis",
			"Don't make up information",
			"Don't provide pricing without context",
		},
		WordLimit: 80,
		NResults:  2,
	},
	"whatsapp": {
		Introduction: "You are Raptee.HV's AI assistant for WhatsApp.",
		Dos: []string{
			"Answer concisely",
			"Guide users to menu options when relevant",
			"Be helpful and professional",
		},
		Donts: []string{
			"Don't provide overly long responses",
			"Don't make up information",
		},
		WordLimit: 80,
		NResults:  2,
	},
}
