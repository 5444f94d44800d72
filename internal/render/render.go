// Package render lays a birth plan out on A4 pages and writes it as PDF.
package render

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan"
	"golang.org/x/text/encoding/charmap"
)

// Page geometry in millimetres.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 20.0
	indent       = 5.0
	notesBreakAt = 250.0
	bottomLimit  = pageHeight - margin
	fontFamily   = "Helvetica"
	bodySize     = 11.0
	// body line height at a 1.15 leading, points to millimetres
	noteLeading = bodySize * 1.15 * 25.4 / 72
)

const (
	Title         = "Plano de Parto Humanizado"
	NotSpecified  = "Não especificado"
	NoPainRelief  = "Nenhum método selecionado"
	NotesHeading  = "7. Outras Observações"
	BulletPrefix  = "• "
	// Replacement stands in for characters outside Windows-1252, the only
	// encoding the core PDF fonts can show.
	Replacement   = "?"
	fallbackFile  = "documento"
	fileNameStart = "plano-parto-"
)

// Options carries what the document itself does not know.
type Options struct {
	Author string    // display name of the pregnant user, optional
	Date   time.Time // generation date; zero means now
}

type ItemKind int

const (
	KindText ItemKind = iota
	KindRule
)

// Item is one drawing instruction. Text items are placed on their baseline.
type Item struct {
	Kind ItemKind
	X, Y float64
	X2   float64 // rule end
	Size float64
	Bold bool
	Text string
}

type Page struct {
	Items []Item
}

// Layout is the positioned content of every page, in drawing order.
type Layout struct {
	Pages []Page
	// Replaced lists, in first-seen order, the characters that were
	// drawn as Replacement.
	Replaced []rune
}

// Texts returns the text of every item, page by page.
func (l *Layout) Texts() []string {
	var out []string
	for _, p := range l.Pages {
		for _, it := range p.Items {
			if it.Kind == KindText {
				out = append(out, it.Text)
			}
		}
	}
	return out
}

// Plan computes the layout of f without producing any bytes.
func Plan(f birthplan.Fields, opts Options) *Layout {
	return plan(newPDF(opts), f, opts)
}

// Render writes f as a PDF document to w using the core Helvetica font.
// Characters outside Windows-1252, such as emoji, are drawn as Replacement;
// Plan reports which ones.
func Render(w io.Writer, f birthplan.Fields, opts Options) error {
	pdf := newPDF(opts)
	l := plan(pdf, f, opts)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, p := range l.Pages {
		pdf.AddPage()
		for _, it := range p.Items {
			switch it.Kind {
			case KindRule:
				pdf.SetLineWidth(it.Size)
				pdf.Line(it.X, it.Y, it.X2, it.Y)
			case KindText:
				setFont(pdf, it.Size, it.Bold)
				pdf.Text(it.X, it.Y, tr(it.Text))
			}
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render birth plan: %w", err)
	}
	return pdf.Output(w)
}

// FileName derives the download name from the author; runs of whitespace
// become a single dash.
func FileName(author string) string {
	name := strings.Join(strings.FieldsFunc(author, func(r rune) bool {
		return unicode.IsSpace(r) || r == '/' || r == '\\'
	}), "-")
	if name == "" {
		name = fallbackFile
	}
	return fileNameStart + name + ".pdf"
}

func newPDF(opts Options) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle(Title, true)
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	pdf.SetCreationDate(date(opts))
	pdf.SetCatalogSort(true)
	return pdf
}

func date(opts Options) time.Time {
	if opts.Date.IsZero() {
		return time.Now()
	}
	return opts.Date
}

func setFont(pdf *fpdf.Fpdf, size float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont(fontFamily, style, size)
}

// cursor accumulates items and tracks the vertical position.
type cursor struct {
	pages    []Page
	y        float64
	replaced []rune
}

func (c *cursor) text(x float64, size float64, bold bool, s string) {
	p := &c.pages[len(c.pages)-1]
	p.Items = append(p.Items, Item{Kind: KindText, X: x, Y: c.y, Size: size, Bold: bold, Text: c.encodable(s)})
}

// encodable swaps every rune Windows-1252 cannot encode for Replacement
// and records it.
func (c *cursor) encodable(s string) string {
	var b strings.Builder
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteRune(r)
			continue
		}
		if !slices.Contains(c.replaced, r) {
			c.replaced = append(c.replaced, r)
		}
		b.WriteString(Replacement)
	}
	return b.String()
}

func (c *cursor) rule(width float64) {
	p := &c.pages[len(c.pages)-1]
	p.Items = append(p.Items, Item{Kind: KindRule, X: margin, X2: pageWidth - margin, Y: c.y, Size: width})
}

func (c *cursor) newPage() {
	c.pages = append(c.pages, Page{})
	c.y = margin
}

func (c *cursor) heading(s string) {
	c.text(margin, 14, true, s)
	c.y += 8
}

func (c *cursor) body(s string) {
	c.text(margin+indent, bodySize, false, s)
}

func (c *cursor) choice(heading, value string) {
	c.heading(heading)
	if value == "" {
		value = NotSpecified
	}
	c.body(value)
	c.y += 10
}

func plan(pdf *fpdf.Fpdf, f birthplan.Fields, opts Options) *Layout {
	c := &cursor{}
	c.newPage()

	c.text(margin, 20, true, Title)
	c.y += 15
	if opts.Author != "" {
		c.text(margin, 12, false, "Gestante: "+opts.Author)
		c.y += 10
	}
	c.text(margin, 12, false, "Data: "+date(opts).Format("02/01/2006"))
	c.y += 15
	c.rule(0.5)
	c.y += 10

	c.heading("1. Acompanhante no Parto")
	if f.CompanionName != "" {
		c.body("Nome: " + f.CompanionName)
		c.y += 6
	}
	if f.CompanionRelationship != "" {
		c.body("Relação: " + f.CompanionRelationship)
		c.y += 10
	}

	c.heading("2. Métodos Não Farmacológicos para Dor")
	if len(f.PainReliefMethods) > 0 {
		for _, m := range f.PainReliefMethods {
			c.body(BulletPrefix + string(m))
			c.y += 6
		}
		c.y += 4
	} else {
		c.body(NoPainRelief)
		c.y += 10
	}

	c.choice("3. Posição Preferida para o Parto", string(f.BirthPosition))
	c.choice("4. Clampeamento do Cordão Umbilical", string(f.CordClamping))
	c.choice("5. Contato Pele-a-Pele Pós-Parto", string(f.SkinToSkin))
	c.choice("6. Amamentação na Primeira Hora", string(f.Breastfeeding))

	if strings.TrimSpace(f.AdditionalNotes) != "" {
		if c.y > notesBreakAt {
			c.newPage()
		}
		c.heading(NotesHeading)
		setFont(pdf, bodySize, false)
		for _, line := range wrap(pdf, c.encodable(f.AdditionalNotes), pageWidth-2*margin-indent) {
			if c.y > bottomLimit {
				c.newPage()
			}
			c.body(line)
			c.y += noteLeading
		}
	}
	return &Layout{Pages: c.pages, Replaced: c.replaced}
}

// wrap breaks s into lines no wider than width at the current font.
// Explicit newlines are kept; words wider than a line are split.
func wrap(pdf *fpdf.Fpdf, s string, width float64) []string {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	fits := func(t string) bool { return pdf.GetStringWidth(tr(t)) <= width }

	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			for !fits(word) {
				head := longestPrefix(word, fits)
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				lines = append(lines, head)
				word = word[len(head):]
			}
			switch {
			case line == "":
				line = word
			case fits(line + " " + word):
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// longestPrefix returns the longest rune prefix of w accepted by fits,
// never less than one rune.
func longestPrefix(w string, fits func(string) bool) string {
	runes := []rune(w)
	n := 1
	for n < len(runes) && fits(string(runes[:n+1])) {
		n++
	}
	return string(runes[:n])
}
