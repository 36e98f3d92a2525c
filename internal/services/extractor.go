package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"

	"github.com/nexconsult/detran-api/internal/models"
)

// Field is the variant-tagged result of one scalar extraction. Absence is an
// expected outcome and is resolved by the orchestrator's defaulting step,
// never by an error.
type Field struct {
	Value string
	Found bool
}

// ExtractedVehicle holds everything recovered from a result frame before the
// orchestrator substitutes caller-facing defaults. FoundInSource, the debt
// total and the itemized debts reflect what was actually observed and are
// never defaulted.
type ExtractedVehicle struct {
	FoundInSource   bool
	Plate           Field
	Model           Field
	Color           Field
	Municipality    Field
	Restrictions    Field
	LicensingYear   int
	YearFound       bool
	HasRestrictions bool
	TotalDebts      float64
	TotalFound      bool
	DebtDetails     []models.DebtDetail
}

// Diagnostics is the ordered trace of one extraction run. Operator-facing
// only; never part of the canonical record.
type Diagnostics []string

// Add appends one trace message
func (d *Diagnostics) Add(msg string) {
	*d = append(*d, msg)
}

const (
	debtTableID      = "tblDebitosVeiculo"
	totalDebtsLabel  = "Total dos Débitos"
	debtCategory     = "Débito Vencido"
	noRestrictions   = "Sem Restrições"
	dueDateHeader    = "Vencimento"
	nominalHeader    = "Valor Nominal"
	debtsPanelHeader = "Listagem de Débitos"
)

var fieldLabels = struct {
	Plate, Model, Color, Municipality, Licensed, Manufacture, Restrictions string
}{
	Plate:        "Placa",
	Model:        "Marca/Modelo",
	Color:        "Cor",
	Municipality: "Município de Emplacamento",
	Licensed:     "Licenciado",
	Manufacture:  "Fabricação/Modelo",
	Restrictions: "Restrições",
}

// Extractor recovers the canonical vehicle record from a result frame's
// visible text and table markup. All heuristics live here so they can be
// exercised against fixtures without a browser.
type Extractor struct {
	logger *logrus.Logger

	trailingLabels []*regexp.Regexp
	leadingModel   *regexp.Regexp
	leadingColor   *regexp.Regexp
	currency       *regexp.Regexp
	dueDate        *regexp.Regexp
	spaces         *regexp.Regexp
	fieldPatterns  map[string]*regexp.Regexp
	yearPatterns   []*regexp.Regexp
	platePattern   *regexp.Regexp
}

// NewExtractor creates a new extractor with its patterns precompiled
func NewExtractor(logger *logrus.Logger) *Extractor {
	e := &Extractor{
		logger: logger,
		trailingLabels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Fabricação.*`),
			regexp.MustCompile(`(?i)Carroceria.*`),
			regexp.MustCompile(`(?i)Licenciado.*`),
			regexp.MustCompile(`(?i)Categoria.*`),
		},
		leadingModel:  regexp.MustCompile(`^\d+\s*-\s*`),
		leadingColor:  regexp.MustCompile(`^\d+\s*-?\s*`),
		currency:      regexp.MustCompile(`(\d{1,3}(?:\.\d{3})+,\d{2}|\d+,\d{2})`),
		dueDate:       regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
		spaces:        regexp.MustCompile(`\s+`),
		fieldPatterns: make(map[string]*regexp.Regexp),
		platePattern:  regexp.MustCompile(`(?i)Placa\s*[\r\n]+\s*([A-Z0-9]{7})`),
		yearPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Licenciado\s*[\r\n]+\s*(\d{4})`),
			regexp.MustCompile(`(?i)Fabricação/Modelo\s*[\r\n]+\s*(\d{4})`),
		},
	}
	// Precompiled up front; ExtractField may run on concurrent queries.
	for _, label := range []string{
		fieldLabels.Plate, fieldLabels.Model, fieldLabels.Color,
		fieldLabels.Municipality, fieldLabels.Restrictions,
	} {
		e.fieldPatterns[label] = compileFieldPattern(label)
	}
	return e
}

func compileFieldPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `\s*[\r\n]+[ \t]*([^\r\n]+)`)
}

// Extract runs the full field and debt extraction against one frame
// snapshot. now anchors the overdue filter.
func (e *Extractor) Extract(snapshot *FrameSnapshot, now time.Time) (*ExtractedVehicle, Diagnostics) {
	var diags Diagnostics
	result := &ExtractedVehicle{}

	if snapshot == nil || ClassifyFrameText(snapshot.Text) != FrameData {
		diags.Add("frame sem dados de veículo")
		return result, diags
	}
	result.FoundInSource = true

	text := snapshot.Text

	if plate, ok := e.extractPlate(text); ok {
		result.Plate = Field{Value: plate, Found: true}
	} else {
		diags.Add("placa não localizada no texto do frame")
	}

	if raw, ok := e.ExtractField(text, fieldLabels.Model); ok {
		result.Model = Field{Value: e.CleanModel(raw), Found: true}
	} else {
		diags.Add("marca/modelo não localizado")
	}

	if raw, ok := e.ExtractField(text, fieldLabels.Color); ok {
		result.Color = Field{Value: e.CleanColor(raw), Found: true}
	} else {
		diags.Add("cor não localizada")
	}

	if raw, ok := e.ExtractField(text, fieldLabels.Municipality); ok {
		result.Municipality = Field{Value: raw, Found: true}
	} else {
		diags.Add("município de emplacamento não localizado")
	}

	if year, ok := e.ExtractLicensingYear(text); ok {
		result.LicensingYear = year
		result.YearFound = true
	} else {
		diags.Add("ano de licenciamento não localizado")
	}

	rawRestrictions, _ := e.ExtractField(text, fieldLabels.Restrictions)
	normalized, has := e.NormalizeRestrictions(rawRestrictions)
	result.Restrictions = Field{Value: normalized, Found: true}
	result.HasRestrictions = has

	doc, err := e.parseHTML(snapshot.HTML)
	if err != nil {
		diags.Add("falha ao parsear HTML do frame: " + err.Error())
		return result, diags
	}

	total, found := e.ResolveTotalDebts(doc)
	result.TotalDebts = total
	result.TotalFound = found
	if !found {
		diags.Add("valor de \"Total dos Débitos\" não encontrado; assumindo zero")
	}

	result.DebtDetails = e.ParseDebtItems(doc, now)

	return result, diags
}

// extractPlate anchors on the plate label and requires the strict
// 7-character shape, unlike the generic field rule.
func (e *Extractor) extractPlate(text string) (string, bool) {
	if match := e.platePattern.FindStringSubmatch(text); match != nil {
		return strings.ToUpper(match[1]), true
	}
	return "", false
}

// ExtractField recovers the value following a known label: the label, a line
// break, then the value up to the next line break or tab. Fragments of
// adjacent labels that bled into the match are stripped afterwards.
func (e *Extractor) ExtractField(text, label string) (string, bool) {
	pattern, ok := e.fieldPatterns[label]
	if !ok {
		pattern = compileFieldPattern(label)
	}

	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}

	value := match[1]
	if idx := strings.IndexByte(value, '\t'); idx >= 0 {
		value = value[:idx]
	}
	value = strings.TrimSpace(value)

	for _, trailing := range e.trailingLabels {
		value = trailing.ReplaceAllString(value, "")
	}
	value = strings.TrimSpace(value)

	if value == "" {
		return "", false
	}
	return value, true
}

// CleanModel strips the Detran numeric code prefix from a model
// ("108661 - FIAT UNO" becomes "FIAT UNO"). Idempotent.
func (e *Extractor) CleanModel(raw string) string {
	return strings.TrimSpace(e.leadingModel.ReplaceAllString(raw, ""))
}

// CleanColor strips the numeric color code prefix ("4-BRANCA" becomes
// "BRANCA"). Idempotent: an already clean value has no leading digits.
func (e *Extractor) CleanColor(raw string) string {
	return strings.TrimSpace(e.leadingColor.ReplaceAllString(raw, ""))
}

// ExtractLicensingYear prefers the 4-digit year after the "Licenciado"
// label and falls back to the manufacturing/model year.
func (e *Extractor) ExtractLicensingYear(text string) (int, bool) {
	for _, pattern := range e.yearPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			year, err := strconv.Atoi(match[1])
			if err == nil {
				return year, true
			}
		}
	}
	return 0, false
}

// NormalizeRestrictions maps "nothing to report" variants onto the canonical
// no-restrictions value. Any other non-empty text is kept verbatim and flags
// the vehicle as restricted.
func (e *Extractor) NormalizeRestrictions(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return noRestrictions, false
	}
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "nenhuma") || strings.Contains(lower, "nada consta") {
		return noRestrictions, false
	}
	return raw, true
}

// ParseCurrency parses a Brazilian-formatted currency fragment
// ("R$ 1.377,19" yields 1377.19). A cell holding only a label, with no
// decimal-comma number, yields no match rather than zero.
func (e *Extractor) ParseCurrency(raw string) (float64, bool) {
	match := e.currency.FindString(raw)
	if match == "" {
		return 0, false
	}
	cleaned := strings.ReplaceAll(match, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ResolveTotalDebts finds the first table row carrying the aggregate debt
// label and scans its cells from last to first (the total is conventionally
// right-aligned) for a parseable currency value. Missing row or value means
// a zero total, which is a valid outcome for a clean record.
func (e *Extractor) ResolveTotalDebts(doc *goquery.Document) (float64, bool) {
	var total float64
	var found bool

	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		rowText := strings.TrimSpace(e.spaces.ReplaceAllString(row.Text(), " "))
		if !strings.Contains(rowText, totalDebtsLabel) {
			return true
		}

		cells := row.Find("td")
		for i := cells.Length() - 1; i >= 0; i-- {
			cellText := strings.TrimSpace(cells.Eq(i).Text())
			if !strings.Contains(cellText, "R$") && !e.currency.MatchString(cellText) {
				continue
			}
			// The label sometimes leaks into the value cell.
			cellText = strings.ReplaceAll(cellText, totalDebtsLabel, "")
			if value, ok := e.ParseCurrency(cellText); ok {
				total = value
				found = true
				return false
			}
		}
		return true
	})

	return total, found
}

// ParseDebtItems walks the debt table and surfaces one line item per data
// row holding both a due date and an amount, keeping only items strictly
// overdue relative to now's calendar day. Items due today or later are
// excluded even though the aggregate total may include them.
func (e *Extractor) ParseDebtItems(doc *goquery.Document, now time.Time) []models.DebtDetail {
	table := e.findDebtTable(doc)
	if table == nil {
		return nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var items []models.DebtDetail

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}

		description := strings.TrimSpace(cells.First().Text())

		var dueText string
		for i := 0; i < cells.Length(); i++ {
			text := strings.TrimSpace(cells.Eq(i).Text())
			if e.dueDate.MatchString(text) {
				dueText = text
				break
			}
		}

		var value float64
		var valueFound bool
		for i := cells.Length() - 1; i >= 0; i-- {
			text := strings.TrimSpace(cells.Eq(i).Text())
			if !strings.Contains(text, ",") {
				continue
			}
			if v, ok := e.ParseCurrency(text); ok {
				value = v
				valueFound = true
				break
			}
		}

		if dueText == "" || !valueFound {
			return
		}

		due, err := time.ParseInLocation("02/01/2006", dueText, now.Location())
		if err != nil {
			return
		}
		if !due.Before(midnight) {
			return
		}

		items = append(items, models.DebtDetail{
			Description: description,
			Type:        debtCategory,
			DueDate:     dueText,
			Value:       value,
		})
	})

	return items
}

// findDebtTable locates the itemized debt table by its stable id, falling
// back to the first table carrying both expected column headers.
func (e *Extractor) findDebtTable(doc *goquery.Document) *goquery.Selection {
	table := doc.Find("#" + debtTableID).First()
	if table.Length() > 0 {
		return table
	}

	var fallback *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		text := t.Text()
		if strings.Contains(text, dueDateHeader) && strings.Contains(text, nominalHeader) {
			fallback = t
			return false
		}
		return true
	})
	return fallback
}

// parseHTML parses frame markup, converting the legacy system's ISO-8859-1
// pages when the charset sniffer asks for it.
func (e *Extractor) parseHTML(htmlContent string) (*goquery.Document, error) {
	reader := strings.NewReader(htmlContent)
	utf8Reader, err := charset.NewReader(reader, "")
	if err != nil {
		return goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	}
	return goquery.NewDocumentFromReader(utf8Reader)
}
