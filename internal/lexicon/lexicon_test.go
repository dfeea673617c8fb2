package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "spanish", l.Language())

	names := make([]string, 0)
	for _, d := range l.Domains() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"fisioterapia", "respiratorio", "musculoesquelético", "neurología",
		"cardiaco", "medicina", "biomecánica", "dolor",
	}, names)
}

func TestLexicon_Stopwords(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	assert.True(t, l.IsStopword("la"))
	assert.True(t, l.IsStopword("Según"))
	assert.True(t, l.IsStopword("segun"))
	assert.True(t, l.IsStopword("the"))
	assert.False(t, l.IsStopword("función"))
	assert.False(t, l.IsStopword("fisioterapia"))

	assert.True(t, l.IsNoise("función"))
	assert.True(t, l.IsNoise("funcion"))
	assert.True(t, l.IsNoise("la"))
	assert.False(t, l.IsNoise("pulmonar"))
}

func TestLexicon_HasTechnicalAffix(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	assert.True(t, l.HasTechnicalAffix("artritis"))
	assert.True(t, l.HasTechnicalAffix("neurona"))
	assert.True(t, l.HasTechnicalAffix("ventilación"))
	assert.True(t, l.HasTechnicalAffix("ventilacion"))
	assert.False(t, l.HasTechnicalAffix("mejora"))
}

func TestLexicon_IsPhysio(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	assert.True(t, l.IsPhysio("fisioterapia respiratoria"))
	assert.True(t, l.IsPhysio("Rehabilitación cardíaca"))
	assert.True(t, l.IsPhysio("rehabilitacion"))
	assert.False(t, l.IsPhysio("diabetes tipo 2"))
	assert.Equal(t, []string{"physical therapy", "rehabilitation", "exercise therapy"}, l.PhysioMeSH())
}

func TestLexicon_IsTrustedHost(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	assert.True(t, l.IsTrustedHost("link.springer.com"))
	assert.True(t, l.IsTrustedHost("www.NCBI.nlm.nih.gov"))
	assert.False(t, l.IsTrustedHost("example.com"))
}

func TestLexicon_ReturnsCopies(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	domains := l.Domains()
	domains[0].Name = "mutated"
	domains[0].Keywords[0] = "mutated"

	again := l.Domains()
	assert.Equal(t, "fisioterapia", again[0].Name)
	assert.Equal(t, "fisioterapia", again[0].Keywords[0])

	triggers := l.CitationTriggers()
	triggers[0] = "mutated"
	assert.NotEqual(t, "mutated", l.CitationTriggers()[0])
}

func TestLexicon_Domain(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	d, ok := l.Domain("dolor")
	require.True(t, ok)
	assert.Contains(t, d.MeSH, "pain management")

	_, ok = l.Domain("astronomía")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed yaml", data: "stopwords: [a, b"},
		{name: "no stopwords", data: "domains:\n  - name: x\n    keywords: [y]\n"},
		{name: "no domains", data: "stopwords: [a]\n"},
		{name: "reserved name", data: "stopwords: [a]\ndomains:\n  - name: general\n    keywords: [y]\n"},
		{name: "duplicate name", data: "stopwords: [a]\ndomains:\n  - name: x\n    keywords: [y]\n  - name: x\n    keywords: [z]\n"},
		{name: "no keywords", data: "stopwords: [a]\ndomains:\n  - name: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	data := "stopwords: [el]\ndomains:\n  - name: óptica\n    keywords: [Lente, retina]\n    mesh: [optics]\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	l, err := Load(path)
	require.NoError(t, err)

	d, ok := l.Domain("óptica")
	require.True(t, ok)
	assert.Equal(t, []string{"lente", "retina"}, d.Keywords)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
