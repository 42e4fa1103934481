package tts

// DefaultVoice is used for any language without an explicit mapping.
const DefaultVoice = "alloy"

// DefaultVoices maps wire language codes to OpenAI voice identifiers.
var DefaultVoices = map[string]string{
	"en": "alloy",
	"sw": "alloy",
	"rw": "alloy",
}

// VoiceMap resolves a language code to a voice. Unknown codes fall back to
// the default voice rather than failing.
type VoiceMap struct {
	voices   map[string]string
	fallback string
}

// NewVoiceMap copies voices and uses fallback for unmapped languages.
func NewVoiceMap(voices map[string]string, fallback string) VoiceMap {
	m := VoiceMap{voices: make(map[string]string, len(voices)), fallback: fallback}
	for lang, voice := range voices {
		m.voices[lang] = voice
	}
	return m
}

// Voice returns the voice for lang.
func (m VoiceMap) Voice(lang string) string {
	if v, ok := m.voices[lang]; ok && v != "" {
		return v
	}
	return m.fallback
}
