// Package export renders loan contracts as PDF documents.
package export

import (
	"bytes"
	"fmt"
	"image"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// LogoMaxWidth and LogoMaxHeight bound the letterhead logo in pixels
	LogoMaxWidth  = 360
	LogoMaxHeight = 120

	logoName     = "letterhead"
	headerHeight = 30.0
	marginLeft   = 20.0
)

var (
	primaryColor   = [3]int{59, 130, 246}
	secondaryColor = [3]int{107, 114, 128}
	stripeColor    = [3]int{248, 250, 252}

	unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// ContractRenderer builds contract PDFs for loans
type ContractRenderer struct {
	issuer string
	logo   []byte
}

// NewContractRenderer creates a renderer. An empty logoPath disables the letterhead logo.
func NewContractRenderer(issuer, logoPath string) (*ContractRenderer, error) {
	r := &ContractRenderer{issuer: issuer}
	if logoPath == "" {
		return r, nil
	}

	img, err := imaging.Open(logoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open contract logo: %w", err)
	}
	logo, err := EncodeLogo(img)
	if err != nil {
		return nil, err
	}
	r.logo = logo
	return r, nil
}

// EncodeLogo fits img inside the letterhead box and encodes it as PNG
func EncodeLogo(img image.Image) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() > LogoMaxWidth || b.Dy() > LogoMaxHeight {
		img = imaging.Fit(img, LogoMaxWidth, LogoMaxHeight, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode contract logo: %w", err)
	}
	return buf.Bytes(), nil
}

// HasLogo reports whether a letterhead logo is configured
func (r *ContractRenderer) HasLogo() bool {
	return len(r.logo) > 0
}

// Render draws the contract for loan and client: party data, loan terms,
// the full schedule table and its totals.
func (r *ContractRenderer) Render(loan *domain.Loan, client *domain.Client, generatedAt time.Time) ([]byte, error) {
	if loan == nil {
		return nil, domain.ErrLoanNotFound
	}
	if client == nil {
		return nil, domain.ErrClientNotFound
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	_, pageHeight := pdf.GetPageSize()

	pdf.SetFooterFunc(func() {
		pdf.SetY(-22)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(secondaryColor[0], secondaryColor[1], secondaryColor[2])
		pdf.CellFormat(0, 6, tr("Documento generado por "+r.issuer), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 6, tr("Fecha de generación: "+domain.FormatDisplayDate(generatedAt)), "", 0, "C", false, 0, "")
	})
	pdf.SetAutoPageBreak(true, 30)
	pdf.AddPage()

	r.header(pdf, tr)

	pdf.SetY(headerHeight + 12)
	pdf.SetTextColor(0, 0, 0)
	section(pdf, tr, "DATOS DEL CLIENTE:")
	for _, line := range clientLines(client) {
		textLine(pdf, tr, line)
	}

	pdf.Ln(6)
	section(pdf, tr, "DATOS DEL PRÉSTAMO:")
	for _, line := range loanLines(loan) {
		textLine(pdf, tr, line)
	}

	pdf.Ln(6)
	section(pdf, tr, "CRONOGRAMA DE PAGOS:")
	scheduleTable(pdf, tr, loan.Schedule)

	// keep the summary block on one page
	if pdf.GetY()+40 > pageHeight-30 {
		pdf.AddPage()
	}
	pdf.Ln(8)
	capital, interest, total := loan.Schedule.Totals()
	section(pdf, tr, "RESUMEN:")
	pdf.SetFont("Helvetica", "B", 11)
	textLine(pdf, tr, "Total Capital: "+domain.FormatSoles(capital))
	textLine(pdf, tr, "Total Intereses: "+domain.FormatSoles(interest))
	textLine(pdf, tr, "TOTAL A PAGAR: "+domain.FormatSoles(total))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render contract: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *ContractRenderer) header(pdf *fpdf.Fpdf, tr func(string) string) {
	pageWidth, _ := pdf.GetPageSize()
	pdf.SetFillColor(primaryColor[0], primaryColor[1], primaryColor[2])
	pdf.Rect(0, 0, pageWidth, headerHeight, "F")

	if r.HasLogo() {
		pdf.RegisterImageOptionsReader(logoName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(r.logo))
		pdf.ImageOptions(logoName, 8, 4, 0, headerHeight-8, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(0, 10)
	pdf.CellFormat(pageWidth, 12, tr("CONTRATO DE PRÉSTAMO"), "", 0, "C", false, 0, "")
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetX(marginLeft)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func textLine(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetX(marginLeft)
	pdf.CellFormat(0, 7, tr(text), "", 1, "L", false, 0, "")
}

func clientLines(client *domain.Client) []string {
	var lines []string
	switch p := client.Party.(type) {
	case domain.LegalEntity:
		lines = append(lines, "Razón Social: "+p.BusinessName)
	case domain.NaturalPerson:
		lines = append(lines, "Nombre: "+p.DisplayName())
	default:
		lines = append(lines, "Nombre: "+client.DisplayName())
	}
	lines = append(lines, fmt.Sprintf("%s: %s", client.Document.Type, client.Document.Number))
	if client.Contact.Phone != "" {
		lines = append(lines, "Teléfono: "+client.Contact.Phone)
	}
	if client.Contact.Address != "" {
		lines = append(lines, "Dirección: "+client.Contact.Address)
	}
	return lines
}

func loanLines(loan *domain.Loan) []string {
	method := "Simple"
	if loan.Method == domain.MethodCompound {
		method = "Compuesto"
	}
	return []string{
		"Monto: " + domain.FormatSoles(loan.Principal),
		"Tasa de Interés: " + loan.AnnualRate.String() + "% anual",
		fmt.Sprintf("Plazo: %d meses", loan.TermMonths),
		"Fecha de Inicio: " + domain.FormatDisplayDate(loan.StartDate),
		"Tipo de Interés: " + method,
	}
}

func scheduleTable(pdf *fpdf.Fpdf, tr func(string) string, schedule domain.Schedule) {
	headers := []string{"Cuota", "Fecha Venc.", "Capital", "Interés", "Total"}
	widths := []float64{20, 36, 38, 38, 38}
	aligns := []string{"C", "C", "R", "R", "R"}

	drawHead := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(primaryColor[0], primaryColor[1], primaryColor[2])
		pdf.SetTextColor(255, 255, 255)
		pdf.SetX(marginLeft)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(0, 0, 0)
	}

	_, pageHeight := pdf.GetPageSize()
	drawHead()
	for row, inst := range schedule {
		if pdf.GetY()+7 > pageHeight-30 {
			pdf.AddPage()
			drawHead()
		}
		fill := row%2 == 1
		if fill {
			pdf.SetFillColor(stripeColor[0], stripeColor[1], stripeColor[2])
		}
		cells := []string{
			fmt.Sprintf("%d", inst.Number),
			domain.FormatDisplayDate(inst.DueDate),
			domain.FormatSoles(inst.Capital),
			domain.FormatSoles(inst.Interest),
			domain.FormatSoles(inst.Total),
		}
		pdf.SetX(marginLeft)
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, tr(c), "1", 0, aligns[i], fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

// ContractFilename builds the download name, e.g. prestamo_<id>_Juan_Perez.pdf
func ContractFilename(loan *domain.Loan, client *domain.Client) string {
	name := strings.Join(strings.Fields(client.DisplayName()), "_")
	name = unsafeFilename.ReplaceAllString(stripAccents(name), "")
	if name == "" {
		return fmt.Sprintf("prestamo_%s.pdf", loan.ID)
	}
	return fmt.Sprintf("prestamo_%s_%s.pdf", loan.ID, name)
}

// stripAccents drops combining marks, so "Núñez" becomes "Nunez"
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
