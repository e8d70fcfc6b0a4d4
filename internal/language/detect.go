// Package language detects the user's language so replies can match it.
//
// Short messages defeat statistical detectors, so detection is staged:
// keyword lexicons first, then the session's previous language, then the
// lingua statistical detector for anything long enough to classify.
package language

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// shortTextThreshold is the length below which statistical detection is
// considered unreliable and keyword matching runs first.
const shortTextThreshold = 15

// DefaultLanguage is assumed when nothing else gives a signal.
const DefaultLanguage = "en"

var linguaToISO = map[lingua.Language]string{
	lingua.English:    "en",
	lingua.Spanish:    "es",
	lingua.Portuguese: "pt",
	lingua.French:     "fr",
	lingua.German:     "de",
	lingua.Italian:    "it",
	lingua.Hindi:      "hi",
	lingua.Japanese:   "ja",
	lingua.Korean:     "ko",
	lingua.Chinese:    "zh-cn",
	lingua.Arabic:     "ar",
	lingua.Russian:    "ru",
}

var languageNames = map[string]string{
	"en":    "English",
	"es":    "Spanish",
	"pt":    "Portuguese",
	"fr":    "French",
	"de":    "German",
	"it":    "Italian",
	"hi":    "Hindi",
	"ja":    "Japanese",
	"ko":    "Korean",
	"zh-cn": "Chinese",
	"ar":    "Arabic",
	"ru":    "Russian",
}

// keywords holds per-language lexicons of common short phrases. Checked in
// a fixed order so overlapping entries resolve deterministically.
var keywordOrder = []string{"es", "en", "hi", "pt", "fr"}

var keywords = map[string][]string{
	"es": {
		"hola", "gracias", "buenos días", "buenas tardes", "buenas noches",
		"ayuda", "vuelos", "equipaje", "buscar", "cuánto", "cuándo", "dónde",
		"quiero", "necesito", "puedo", "tengo", "cómo", "qué", "por favor",
		"aeropuerto", "avión", "pasaje", "reserva", "cancelar", "maleta",
		"dame", "dime", "mañana", "hoy", "ayer", "vuelo", "viajar",
	},
	"en": {
		"hello", "hi", "hey", "thanks", "thank you", "help", "please",
		"flights", "baggage", "luggage", "book", "cancel", "airport",
		"how", "what", "where", "when", "can", "want", "need", "find",
		"tomorrow", "today", "search", "show", "get",
	},
	"hi": {
		"नमस्ते", "धन्यवाद", "मदद", "कृपया", "उड़ान", "सामान", "हवाई",
		"कब", "कहाँ", "कैसे", "क्या", "चाहिए", "बुक", "रद्द",
	},
	"pt": {
		"olá", "obrigado", "obrigada", "ajuda", "voos", "bagagem",
		"aeroporto", "quando", "onde", "como", "quero", "preciso",
		"amanhã", "hoje", "procurar", "reservar", "cancelar",
	},
	"fr": {
		"bonjour", "merci", "aide", "vols", "bagages", "aéroport",
		"quand", "où", "comment", "voulez", "besoin", "chercher",
	},
}

// borderlineMargin is the confidence gap below which Spanish and
// Portuguese are considered indistinguishable and the session hint wins.
const borderlineMargin = 0.10

// Detector classifies message language. Safe for concurrent use.
type Detector struct {
	detector lingua.LanguageDetector
	log      zerolog.Logger
}

// NewDetector builds the detector with its statistical models preloaded.
// Construction is expensive; build once at startup and share.
func NewDetector() *Detector {
	langs := make([]lingua.Language, 0, len(linguaToISO))
	for l := range linguaToISO {
		langs = append(langs, l)
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(langs...).
			WithPreloadedLanguageModels().
			Build(),
		log: log.With().Str("component", "language").Logger(),
	}
}

// Detect returns the ISO 639-1 code for text. sessionHint is the language
// previously detected for this session, or "" on the first turn.
func (d *Detector) Detect(text, sessionHint string) string {
	clean := strings.ToLower(strings.TrimSpace(text))
	if clean == "" {
		return fallback(sessionHint)
	}

	if utf8.RuneCountInString(clean) < shortTextThreshold {
		if lang, ok := matchKeywords(clean); ok {
			d.log.Debug().Str("language", lang).Str("text", clean).Msg("keyword match")
			return lang
		}
		if sessionHint != "" {
			return sessionHint
		}
	}

	detected, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		d.log.Debug().Str("text", clean).Msg("statistical detection inconclusive")
		return fallback(sessionHint)
	}
	code, ok := linguaToISO[detected]
	if !ok {
		return fallback(sessionHint)
	}

	return d.disambiguate(text, code, sessionHint)
}

// disambiguate applies the Spanish/Portuguese rule: when the detector
// lands on one of the pair with borderline confidence over the other, and
// the session previously settled on the other, keep the session language.
func (d *Detector) disambiguate(text, code, sessionHint string) string {
	if sessionHint == code || (sessionHint != "es" && sessionHint != "pt") {
		return code
	}
	if code != "es" && code != "pt" {
		return code
	}

	es := d.detector.ComputeLanguageConfidence(text, lingua.Spanish)
	pt := d.detector.ComputeLanguageConfidence(text, lingua.Portuguese)
	gap := es - pt
	if gap < 0 {
		gap = -gap
	}
	if gap < borderlineMargin {
		d.log.Debug().Str("detected", code).Str("hint", sessionHint).
			Float64("gap", gap).Msg("borderline es/pt, keeping session language")
		return sessionHint
	}
	return code
}

func matchKeywords(clean string) (string, bool) {
	for _, lang := range keywordOrder {
		for _, kw := range keywords[lang] {
			if clean == kw || strings.Contains(clean, kw) {
				return lang, true
			}
		}
	}
	return "", false
}

func fallback(sessionHint string) string {
	if sessionHint != "" {
		return sessionHint
	}
	return DefaultLanguage
}

// Name returns the English name for an ISO code, defaulting to English.
func Name(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "English"
}

// Instruction renders the system-prompt directive forcing replies in the
// detected language.
func Instruction(code string) string {
	name := Name(code)

	var disambiguation string
	switch code {
	case "es":
		disambiguation = "\n- **IMPORTANT**: User is speaking SPANISH (not Portuguese). Use Spanish vocabulary."
	case "pt":
		disambiguation = "\n- **IMPORTANT**: User is speaking PORTUGUESE (not Spanish). Use Portuguese vocabulary."
	}

	return fmt.Sprintf(`
**DETECTED USER LANGUAGE: %s (%s)**

**CRITICAL LANGUAGE INSTRUCTION:**
- The user is communicating in **%s**.
- You MUST respond ENTIRELY in **%s**.
- Do NOT switch to English unless the user explicitly asks.
- Maintain natural, professional %s throughout your entire response.%s
`, strings.ToUpper(name), code, name, name, name, disambiguation)
}
