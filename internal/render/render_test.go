package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedDate = time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

func count(texts []string, want string) int {
	n := 0
	for _, t := range texts {
		if t == want {
			n++
		}
	}
	return n
}

func TestPlan_EmptyDocumentFallbacks(t *testing.T) {
	texts := Plan(birthplan.Fields{}, Options{Date: fixedDate}).Texts()

	assert.Equal(t, 4, count(texts, NotSpecified))
	assert.Equal(t, 1, count(texts, NoPainRelief))
	assert.NotContains(t, texts, NotesHeading)
	assert.Contains(t, texts, "Data: 05/03/2024")
	for _, s := range texts {
		assert.False(t, strings.HasPrefix(s, "Gestante:"), "no author line without an author")
	}
}

func TestPlan_SectionOrder(t *testing.T) {
	f := birthplan.Fields{
		CompanionName:         "João",
		CompanionRelationship: "Esposo",
		BirthPosition:         birthplan.BirthPositionFree,
		CordClamping:          birthplan.CordClampingDelayed,
		SkinToSkin:            birthplan.SkinToSkinImmediate,
		Breastfeeding:         birthplan.BreastfeedingFirstHour,
		AdditionalNotes:       "Luz baixa",
	}
	texts := Plan(f, Options{Author: "Maria Silva", Date: fixedDate}).Texts()

	want := []string{
		Title,
		"Gestante: Maria Silva",
		"Data: 05/03/2024",
		"1. Acompanhante no Parto",
		"Nome: João",
		"Relação: Esposo",
		"2. Métodos Não Farmacológicos para Dor",
		NoPainRelief,
		"3. Posição Preferida para o Parto",
		string(birthplan.BirthPositionFree),
		"4. Clampeamento do Cordão Umbilical",
		string(birthplan.CordClampingDelayed),
		"5. Contato Pele-a-Pele Pós-Parto",
		string(birthplan.SkinToSkinImmediate),
		"6. Amamentação na Primeira Hora",
		string(birthplan.BreastfeedingFirstHour),
		NotesHeading,
		"Luz baixa",
	}
	assert.Equal(t, want, texts)
}

func TestPlan_PainReliefBullets(t *testing.T) {
	f := birthplan.Fields{PainReliefMethods: birthplan.PainReliefSet{birthplan.PainReliefMassage, birthplan.PainReliefSwissBall}}
	var bullets []string
	for _, s := range Plan(f, Options{Date: fixedDate}).Texts() {
		if strings.HasPrefix(s, BulletPrefix) {
			bullets = append(bullets, s)
		}
	}
	assert.Equal(t, []string{"• Massagem", "• Bola suíça"}, bullets)
}

func TestPlan_LongNotesWrapAndPaginate(t *testing.T) {
	notes := strings.Repeat("Quero a luz baixa e música calma durante todo o trabalho de parto. ", 200)
	l := Plan(birthplan.Fields{AdditionalNotes: notes}, Options{Date: fixedDate})

	require.Greater(t, len(l.Pages), 1)
	for _, p := range l.Pages {
		for _, it := range p.Items {
			assert.LessOrEqual(t, it.Y, bottomLimit+noteLeading)
		}
	}
	// second page starts at the top margin
	assert.InDelta(t, margin, l.Pages[1].Items[0].Y, 0.001)

	// no text is lost by wrapping
	var words []string
	for _, s := range l.Texts() {
		if s == NotesHeading {
			words = nil
			continue
		}
		words = append(words, strings.Fields(s)...)
	}
	assert.Equal(t, strings.Fields(notes), words)
}

func TestPlan_SplitsOverlongWords(t *testing.T) {
	word := strings.Repeat("a", 400)
	texts := Plan(birthplan.Fields{AdditionalNotes: word}, Options{Date: fixedDate}).Texts()
	i := len(texts) - 1
	for texts[i] != NotesHeading {
		i--
	}
	lines := texts[i+1:]
	require.Greater(t, len(lines), 1)
	assert.Equal(t, word, strings.Join(lines, ""))
}

func TestRender_ProducesPDF(t *testing.T) {
	var a, b bytes.Buffer
	f := birthplan.Fields{CompanionName: "Ana", AdditionalNotes: "Observação"}
	opts := Options{Author: "Maria", Date: fixedDate}
	require.NoError(t, Render(&a, f, opts))
	require.NoError(t, Render(&b, f, opts))
	assert.True(t, bytes.HasPrefix(a.Bytes(), []byte("%PDF-")))
	assert.Equal(t, a.Len(), b.Len())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "plano-parto-Maria-da-Silva.pdf", FileName("Maria  da\tSilva"))
	assert.Equal(t, "plano-parto-documento.pdf", FileName(""))
	assert.Equal(t, "plano-parto-documento.pdf", FileName("   "))
	assert.Equal(t, "plano-parto-a-b.pdf", FileName("a/b"))
}

func TestPlan_ReportsCharactersOutsideCoreFonts(t *testing.T) {
	f := birthplan.Fields{
		CompanionName:   "Ana 💛",
		AdditionalNotes: "Quero música 🎵 e luz baixa 🎵",
	}
	l := Plan(f, Options{Author: "Maria Silva", Date: fixedDate})

	assert.Equal(t, []rune{'💛', '🎵'}, l.Replaced)
	texts := l.Texts()
	assert.Contains(t, texts, "Nome: Ana ?")
	assert.Contains(t, texts, "Quero música ? e luz baixa ?")
	assert.Contains(t, texts, "Gestante: Maria Silva")

	plain := Plan(birthplan.Fields{AdditionalNotes: "Sem ansiedade, com calma: ç ã é •"}, Options{Date: fixedDate})
	assert.Empty(t, plain.Replaced, "Portuguese text fits the core fonts")

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, f, Options{Date: fixedDate}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
