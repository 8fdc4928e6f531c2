package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

func writeJSON(w io.Writer, t Transcript) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(t)
}

func writeMarkdown(w io.Writer, t Transcript) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", t.Topic))
	sb.WriteString(fmt.Sprintf("- **Opponent:** %s (%s)\n", t.speaker(Turn{}), t.Level))
	sb.WriteString(fmt.Sprintf("- **Your side:** %s\n", t.UserSide))
	sb.WriteString(fmt.Sprintf("- **Opponent side:** %s\n", t.AISide))
	if !t.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **Started:** %s\n", t.StartedAt.Format("January 2, 2006 at 3:04 PM")))
	}
	sb.WriteString(fmt.Sprintf("- **Total score:** %d\n\n", t.TotalScore))

	sb.WriteString("## Debate\n\n")
	if len(t.Turns) == 0 {
		sb.WriteString("*No turns recorded.*\n\n")
	}
	for i, turn := range t.Turns {
		sb.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, t.speaker(turn)))
		sb.WriteString(turn.Text)
		sb.WriteString("\n\n")
		if turn.Score != nil {
			sb.WriteString(fmt.Sprintf("*Relevance %d/10, +%d points*\n\n", turn.Score.Relevance, turn.Score.FinalScore))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writePDF(w io.Writer, t Transcript) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, pdfText(t.Topic), "", "C", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 10)
	pdfRow(pdf, "Opponent:", fmt.Sprintf("%s (%s)", t.speaker(Turn{}), t.Level))
	pdfRow(pdf, "Your side:", t.UserSide)
	pdfRow(pdf, "Their side:", t.AISide)
	if !t.StartedAt.IsZero() {
		pdfRow(pdf, "Started:", t.StartedAt.Format("January 2, 2006 at 3:04 PM"))
	}
	pdfRow(pdf, "Total score:", fmt.Sprintf("%d", t.TotalScore))
	pdf.Ln(5)

	if len(t.Turns) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No turns recorded.")
		pdf.Ln(6)
	}
	for _, turn := range t.Turns {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
		if turn.Score != nil {
			pdf.SetFillColor(200, 230, 255)
		} else {
			pdf.SetFillColor(255, 230, 200)
		}
		header := t.speaker(turn)
		if turn.Score != nil {
			header = fmt.Sprintf("%s (relevance %d/10, +%d)", header, turn.Score.Relevance, turn.Score.FinalScore)
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, pdfText(header), "", 1, "", true, 0, "")

		pdf.SetFont("Arial", "", 9)
		pdf.SetFillColor(255, 255, 255)
		pdf.MultiCell(0, 5, pdfText(turn.Text), "", "", false)
		pdf.Ln(4)
	}

	return pdf.Output(w)
}

func pdfRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 5, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, pdfText(value))
	pdf.Ln(5)
}

// pdfText maps typographic punctuation to the cp1252 subset the core fonts
// render.
func pdfText(text string) string {
	return strings.NewReplacer(
		"‘", "'",
		"’", "'",
		"“", "\"",
		"”", "\"",
		"–", "-",
		"—", "--",
		"…", "...",
		"•", "*",
		"\u00a0", " ",
	).Replace(text)
}
