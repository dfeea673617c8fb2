package weave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/lexicon"
	"github.com/helixir/citation-service/internal/text"
)

var testTriggers = []string{"estudio", "según", "%"}

func article(family string, year int) *domain.Article {
	return &domain.Article{
		Title:   family + " article",
		Authors: []domain.Author{{Name: family + " J", Family: family, Initials: "J"}},
		Year:    year,
	}
}

func newWeaver() *Weaver {
	return New(text.NewLinguistic([]string{"dr", "al"}), testTriggers, Config{})
}

func TestWeaver_Weave(t *testing.T) {
	t.Run("single sentence gets exactly one marker", func(t *testing.T) {
		w := newWeaver()
		got := w.Weave("La fisioterapia respiratoria mejora la función pulmonar.",
			[]*domain.Article{article("Smith", 2020), article("García", 2021)})

		assert.Equal(t, "La fisioterapia respiratoria mejora la función pulmonar (Smith, 2020).", got.Text)
		assert.Equal(t, []domain.CitationMarker{{SentenceIndex: 0, ReferenceNumber: 1}}, got.Markers)
		require.Len(t, got.Cited, 1)
		assert.Equal(t, "Smith", got.Cited[0].Authors[0].Family)
	})

	t.Run("trigger then leftover on trailing sentence", func(t *testing.T) {
		w := newWeaver()
		got := w.Weave("Primera frase sin nada. Un estudio mostró mejoras. Otra frase.",
			[]*domain.Article{article("Smith", 2020), article("Lee", 2021)})

		assert.Equal(t, "Primera frase sin nada. Un estudio mostró mejoras (Smith, 2020). Otra frase (Lee, 2021).", got.Text)
		assert.Equal(t, []domain.CitationMarker{
			{SentenceIndex: 1, ReferenceNumber: 1},
			{SentenceIndex: 2, ReferenceNumber: 2},
		}, got.Markers)
		assert.Len(t, got.Cited, 2)
	})

	t.Run("cadence applies to longer texts", func(t *testing.T) {
		w := newWeaver()
		doc := "Uno. Dos. Tres. Cuatro. Cinco. Seis."
		got := w.Weave(doc, []*domain.Article{article("A", 2001), article("B", 2002), article("C", 2003)})

		assert.Equal(t, "Uno. Dos. Tres (A, 2001). Cuatro. Cinco (C, 2003). Seis (B, 2002).", got.Text)
		assert.Equal(t, []domain.CitationMarker{
			{SentenceIndex: 2, ReferenceNumber: 1},
			{SentenceIndex: 4, ReferenceNumber: 3},
			{SentenceIndex: 5, ReferenceNumber: 2},
		}, got.Markers)
	})

	t.Run("cadence does not apply to short texts", func(t *testing.T) {
		w := newWeaver()
		assert.False(t, w.NeedsCitation("Tres.", 2, 3))
		assert.True(t, w.NeedsCitation("Tres.", 2, 4))
		assert.True(t, w.NeedsCitation("El 40% mejoró.", 0, 1))
		assert.True(t, w.NeedsCitation("SEGÚN los autores.", 0, 1))
	})

	t.Run("articles are never reused", func(t *testing.T) {
		w := newWeaver()
		got := w.Weave("Un estudio. Otro estudio. Un tercer estudio.", []*domain.Article{article("Solo", 2019)})

		assert.Equal(t, "Un estudio (Solo, 2019). Otro estudio. Un tercer estudio.", got.Text)
		assert.Len(t, got.Markers, 1)
		assert.Len(t, got.Cited, 1)
	})

	t.Run("more articles than sentences", func(t *testing.T) {
		w := newWeaver()
		got := w.Weave("Una frase. Otra frase.", []*domain.Article{article("A", 2001), article("B", 2002), article("C", 2003)})

		assert.Equal(t, "Una frase (A, 2001). Otra frase (B, 2002).", got.Text)
		assert.Len(t, got.Cited, 2)
	})

	t.Run("missing punctuation and metadata", func(t *testing.T) {
		w := newWeaver()
		got := w.Weave("Sin punto final", []*domain.Article{{Title: "x"}})
		assert.Equal(t, "Sin punto final (Autor desconocido, s.f.).", got.Text)
	})

	t.Run("marker goes before question mark and after closers", func(t *testing.T) {
		w := newWeaver()
		got := w.Weave("¿Funciona el ejercicio?", []*domain.Article{article("Kim", 2022)})
		assert.Equal(t, "¿Funciona el ejercicio (Kim, 2022)?", got.Text)

		got = w.Weave("Ver anexo (tabla 2)", []*domain.Article{article("Kim", 2022)})
		assert.Equal(t, "Ver anexo (tabla 2) (Kim, 2022).", got.Text)
	})

	t.Run("no articles leaves text unchanged", func(t *testing.T) {
		w := newWeaver()
		doc := "Un estudio. Otra frase."
		got := w.Weave(doc, nil)
		assert.Equal(t, doc, got.Text)
		assert.Empty(t, got.Markers)
		assert.Empty(t, got.Cited)
	})

	t.Run("deterministic", func(t *testing.T) {
		w := New(text.NewBasic(), testTriggers, Config{Every: 2, MinSentences: 2})
		doc := "Uno. Dos según Pérez. Tres. Cuatro. Cinco."
		articles := []*domain.Article{article("A", 2001), article("B", 2002)}

		first := w.Weave(doc, articles)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, w.Weave(doc, articles))
		}
	})
}

func TestWeaver_DefaultTriggers(t *testing.T) {
	lex, err := lexicon.Default()
	require.NoError(t, err)
	w := New(text.NewLinguistic(lex.Abbreviations()), lex.CitationTriggers(), Config{})

	assert.True(t, w.NeedsCitation("Los resultados indican una mejora.", 0, 1))
	assert.True(t, w.NeedsCitation("According to recent evidence, it works.", 0, 1))
	assert.False(t, w.NeedsCitation("La fisioterapia respiratoria mejora la función pulmonar.", 0, 1))
}

func TestMarker(t *testing.T) {
	tests := []struct {
		name     string
		article  domain.Article
		expected string
	}{
		{name: "family and year", article: domain.Article{Authors: []domain.Author{{Name: "Smith JA", Family: "Smith"}}, Year: 2020}, expected: "(Smith, 2020)"},
		{name: "surname from name", article: domain.Article{Authors: []domain.Author{{Name: "J García"}}, Year: 2018}, expected: "(García, 2018)"},
		{name: "no authors no year", article: domain.Article{}, expected: "(Autor desconocido, s.f.)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Marker(&tt.article))
		})
	}
}
