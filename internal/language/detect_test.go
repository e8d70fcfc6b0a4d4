package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The detector loads statistical models once for the whole package.
var testDetector = NewDetector()

func TestDetectShortTextKeywords(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"hola", "es"},
		{"gracias", "es"},
		{"hello", "en"},
		{"thanks", "en"},
		{"olá", "pt"},
		{"obrigado", "pt"},
		{"bonjour", "fr"},
		{"नमस्ते", "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, testDetector.Detect(tt.text, ""))
		})
	}
}

func TestDetectLongText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "I would like to book a flight from Delhi to Mumbai next week", "en"},
		{"spanish", "Quisiera reservar un vuelo de Madrid a Barcelona la próxima semana", "es"},
		{"french", "Je voudrais réserver un vol de Paris à Lyon la semaine prochaine", "fr"},
		{"hindi", "मुझे अगले हफ्ते दिल्ली से मुंबई की उड़ान बुक करनी है", "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testDetector.Detect(tt.text, ""))
		})
	}
}

func TestDetectEmptyFallsBackToHint(t *testing.T) {
	assert.Equal(t, "es", testDetector.Detect("", "es"))
	assert.Equal(t, DefaultLanguage, testDetector.Detect("   ", ""))
}

func TestDetectShortAmbiguousUsesSessionHint(t *testing.T) {
	// Two words with no lexicon entry in any language: the session's
	// previous language must win over a statistical guess.
	assert.Equal(t, "es", testDetector.Detect("si claro", "es"))
}

func TestDetectSessionSticky(t *testing.T) {
	// Turn 1 establishes Spanish, turn 2 is ambiguous but stays Spanish.
	first := testDetector.Detect("hola, necesito ayuda con mi equipaje por favor", "")
	assert.Equal(t, "es", first)
	assert.Equal(t, "es", testDetector.Detect("vale bien", first))
}

func TestName(t *testing.T) {
	assert.Equal(t, "Spanish", Name("es"))
	assert.Equal(t, "Hindi", Name("hi"))
	assert.Equal(t, "English", Name("unknown"))
}

func TestInstruction(t *testing.T) {
	inst := Instruction("es")
	assert.Contains(t, inst, "SPANISH")
	assert.Contains(t, inst, "not Portuguese")

	inst = Instruction("pt")
	assert.Contains(t, inst, "PORTUGUESE")
	assert.Contains(t, inst, "not Spanish")

	inst = Instruction("en")
	assert.NotContains(t, inst, "IMPORTANT")
}
