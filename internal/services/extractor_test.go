package services

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *Extractor {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewExtractor(logger)
}

// referenceNow anchors the overdue filter in every fixture-driven test.
var referenceNow = time.Date(2026, time.August, 29, 14, 30, 0, 0, time.Local)

const vehicleWithDebtsText = `DetranNet - Consulta de Veículos
Dados do Veiculo
Placa
MCJ8430
Marca/Modelo
108661 - FIAT UNO MILLE FIRE FLEX
Cor
4-BRANCA
Fabricação/Modelo
2008
Município de Emplacamento
FLORIANOPOLIS
Licenciado
2024
Restrições
NENHUMA
Listagem de Débitos
Total dos Débitos R$ 1.402,69`

const vehicleWithDebtsHTML = `<html><body>
<table id="tblDebitosVeiculo">
<tr><td>Descrição</td><td>Exercício</td><td>Vencimento</td><td>Valor Nominal</td><td>Juros</td><td>Total</td></tr>
<tr><td>IPVA</td><td>2024</td><td>10/01/2024</td><td>R$ 1.377,19</td><td>R$ 0,00</td><td>R$ 1.377,19</td></tr>
<tr><td>Taxa de Licenciamento</td><td>2026</td><td>28/08/2026</td><td>R$ 25,50</td><td>R$ 0,00</td><td>R$ 25,50</td></tr>
<tr><td>IPVA</td><td>2026</td><td>29/08/2026</td><td>R$ 400,00</td><td>R$ 0,00</td><td>R$ 400,00</td></tr>
<tr><td>Seguro</td><td>2026</td><td>30/12/2026</td><td>R$ 90,00</td><td>R$ 0,00</td><td>R$ 90,00</td></tr>
<tr><td colspan="5">Total dos Débitos</td><td>R$ 1.402,69</td></tr>
</table>
</body></html>`

const cleanVehicleText = `DetranNet - Consulta de Veículos
Dados do Veiculo
Placa
ABC1D23
Marca/Modelo
VW/GOL 1.6
Cor
PRETA
Município de Emplacamento
JOINVILLE
Licenciado
2026
Restrições
ALIENACAO FIDUCIARIA`

const cleanVehicleHTML = `<html><body><p>Sem débitos registrados</p></body></html>`

func TestExtractVehicleWithDebts(t *testing.T) {
	e := newTestExtractor()

	snapshot := &FrameSnapshot{
		Index: 1,
		Name:  "principal",
		Text:  vehicleWithDebtsText,
		HTML:  vehicleWithDebtsHTML,
	}

	result, diags := e.Extract(snapshot, referenceNow)
	require.NotNil(t, result)

	assert.True(t, result.FoundInSource)
	assert.Equal(t, Field{Value: "MCJ8430", Found: true}, result.Plate)
	assert.Equal(t, Field{Value: "FIAT UNO MILLE FIRE FLEX", Found: true}, result.Model)
	assert.Equal(t, Field{Value: "BRANCA", Found: true}, result.Color)
	assert.Equal(t, Field{Value: "FLORIANOPOLIS", Found: true}, result.Municipality)
	assert.True(t, result.YearFound)
	assert.Equal(t, 2024, result.LicensingYear)
	assert.Equal(t, "Sem Restrições", result.Restrictions.Value)
	assert.False(t, result.HasRestrictions)

	assert.True(t, result.TotalFound)
	assert.InDelta(t, 1402.69, result.TotalDebts, 0.001)

	// Only strictly overdue items survive: the 29/08 item is due today and
	// the 30/12 item is in the future.
	require.Len(t, result.DebtDetails, 2)
	assert.Equal(t, "IPVA", result.DebtDetails[0].Description)
	assert.Equal(t, "10/01/2024", result.DebtDetails[0].DueDate)
	assert.Equal(t, "Débito Vencido", result.DebtDetails[0].Type)
	assert.InDelta(t, 1377.19, result.DebtDetails[0].Value, 0.001)
	assert.Equal(t, "Taxa de Licenciamento", result.DebtDetails[1].Description)
	assert.InDelta(t, 25.50, result.DebtDetails[1].Value, 0.001)

	assert.Empty(t, diags)
}

func TestExtractCleanVehicle(t *testing.T) {
	e := newTestExtractor()

	snapshot := &FrameSnapshot{
		Index: 1,
		Text:  cleanVehicleText,
		HTML:  cleanVehicleHTML,
	}

	result, diags := e.Extract(snapshot, referenceNow)
	require.NotNil(t, result)

	assert.True(t, result.FoundInSource)
	assert.Equal(t, "ABC1D23", result.Plate.Value)
	assert.Equal(t, "VW/GOL 1.6", result.Model.Value)
	assert.Equal(t, "PRETA", result.Color.Value)
	assert.Equal(t, "JOINVILLE", result.Municipality.Value)
	assert.Equal(t, 2026, result.LicensingYear)

	assert.Equal(t, "ALIENACAO FIDUCIARIA", result.Restrictions.Value)
	assert.True(t, result.HasRestrictions)

	assert.False(t, result.TotalFound)
	assert.Zero(t, result.TotalDebts)
	assert.Empty(t, result.DebtDetails)

	assert.NotEmpty(t, diags)
}

func TestExtractZeroDebtTotal(t *testing.T) {
	e := newTestExtractor()

	snapshot := &FrameSnapshot{
		Text: cleanVehicleText,
		HTML: `<html><body><table><tr><td>Total dos Débitos</td><td>R$ 0,00</td></tr></table></body></html>`,
	}

	result, diags := e.Extract(snapshot, referenceNow)
	require.NotNil(t, result)

	// An explicit R$ 0,00 is an observed zero, not an assumed one.
	assert.True(t, result.TotalFound)
	assert.Zero(t, result.TotalDebts)
	for _, diag := range diags {
		assert.NotContains(t, diag, "assumindo zero")
	}
}

func TestExtractNotFound(t *testing.T) {
	e := newTestExtractor()

	snapshot := &FrameSnapshot{
		Text: "Nenhum veículo encontrado para a placa informada",
		HTML: "<html><body></body></html>",
	}

	result, _ := e.Extract(snapshot, referenceNow)
	require.NotNil(t, result)

	assert.False(t, result.FoundInSource)
	assert.False(t, result.Plate.Found)
	assert.Zero(t, result.TotalDebts)
	assert.Empty(t, result.DebtDetails)
}

func TestExtractNilSnapshot(t *testing.T) {
	e := newTestExtractor()

	result, diags := e.Extract(nil, referenceNow)
	require.NotNil(t, result)
	assert.False(t, result.FoundInSource)
	assert.NotEmpty(t, diags)
}

func TestExtractField(t *testing.T) {
	e := newTestExtractor()

	t.Run("value on the following line", func(t *testing.T) {
		value, ok := e.ExtractField("Cor\nBRANCA\noutra coisa", "Cor")
		assert.True(t, ok)
		assert.Equal(t, "BRANCA", value)
	})

	t.Run("tab cuts the value", func(t *testing.T) {
		value, ok := e.ExtractField("Cor\nBRANCA\tCategoria", "Cor")
		assert.True(t, ok)
		assert.Equal(t, "BRANCA", value)
	})

	t.Run("adjacent label stripped", func(t *testing.T) {
		value, ok := e.ExtractField("Marca/Modelo\nFIAT UNO Fabricação/Modelo 2008", "Marca/Modelo")
		assert.True(t, ok)
		assert.Equal(t, "FIAT UNO", value)
	})

	t.Run("label absent", func(t *testing.T) {
		_, ok := e.ExtractField("Placa\nABC1234", "Cor")
		assert.False(t, ok)
	})

	t.Run("value reduced to nothing", func(t *testing.T) {
		_, ok := e.ExtractField("Cor\nLicenciado 2024", "Cor")
		assert.False(t, ok)
	})
}

func TestCleanModel(t *testing.T) {
	e := newTestExtractor()

	assert.Equal(t, "FIAT UNO", e.CleanModel("108661 - FIAT UNO"))
	assert.Equal(t, "FIAT UNO", e.CleanModel("FIAT UNO"))
	// Idempotent
	assert.Equal(t, "FIAT UNO", e.CleanModel(e.CleanModel("108661 - FIAT UNO")))
}

func TestCleanColor(t *testing.T) {
	e := newTestExtractor()

	assert.Equal(t, "BRANCA", e.CleanColor("4-BRANCA"))
	assert.Equal(t, "BRANCA", e.CleanColor("4 - BRANCA"))
	assert.Equal(t, "BRANCA", e.CleanColor("4 BRANCA"))
	assert.Equal(t, "BRANCA", e.CleanColor("BRANCA"))
	assert.Equal(t, "BRANCA", e.CleanColor(e.CleanColor("4-BRANCA")))
}

func TestExtractLicensingYear(t *testing.T) {
	e := newTestExtractor()

	t.Run("licensed year preferred", func(t *testing.T) {
		year, ok := e.ExtractLicensingYear("Fabricação/Modelo\n2008\nLicenciado\n2024")
		assert.True(t, ok)
		assert.Equal(t, 2024, year)
	})

	t.Run("manufacture year fallback", func(t *testing.T) {
		year, ok := e.ExtractLicensingYear("Fabricação/Modelo\n2008")
		assert.True(t, ok)
		assert.Equal(t, 2008, year)
	})

	t.Run("no year", func(t *testing.T) {
		_, ok := e.ExtractLicensingYear("Placa\nABC1234")
		assert.False(t, ok)
	})
}

func TestNormalizeRestrictions(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name       string
		input      string
		expected   string
		restricted bool
	}{
		{"empty", "", "Sem Restrições", false},
		{"nenhuma", "NENHUMA", "Sem Restrições", false},
		{"nada consta", "Nada Consta", "Sem Restrições", false},
		{"real restriction", "ALIENACAO FIDUCIARIA", "ALIENACAO FIDUCIARIA", true},
		{"judicial block", "BLOQUEIO JUDICIAL", "BLOQUEIO JUDICIAL", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, restricted := e.NormalizeRestrictions(tt.input)
			assert.Equal(t, tt.expected, value)
			assert.Equal(t, tt.restricted, restricted)
		})
	}
}

func TestParseCurrency(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"with symbol and thousands", "R$ 1.377,19", 1377.19, true},
		{"plain decimal", "25,50", 25.50, true},
		{"millions", "1.234.567,89", 1234567.89, true},
		{"embedded in text", "Total: R$ 350,00 vencido", 350.00, true},
		{"label only cell", "Total dos Débitos", 0, false},
		{"empty", "", 0, false},
		{"integer without cents", "1377", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := e.ParseCurrency(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, value, 0.001)
			}
		})
	}
}

func TestResolveTotalDebts(t *testing.T) {
	e := newTestExtractor()

	t.Run("value in its own cell", func(t *testing.T) {
		doc, err := e.parseHTML(`<table><tr><td>Total dos Débitos</td><td>R$ 1.377,19</td></tr></table>`)
		require.NoError(t, err)

		total, found := e.ResolveTotalDebts(doc)
		assert.True(t, found)
		assert.InDelta(t, 1377.19, total, 0.001)
	})

	t.Run("label leaks into the value cell", func(t *testing.T) {
		doc, err := e.parseHTML(`<table><tr><td>Total dos Débitos R$ 350,00</td></tr></table>`)
		require.NoError(t, err)

		total, found := e.ResolveTotalDebts(doc)
		assert.True(t, found)
		assert.InDelta(t, 350.00, total, 0.001)
	})

	t.Run("zero total is still found", func(t *testing.T) {
		doc, err := e.parseHTML(`<table><tr><td>Total dos Débitos</td><td>R$ 0,00</td></tr></table>`)
		require.NoError(t, err)

		total, found := e.ResolveTotalDebts(doc)
		assert.True(t, found)
		assert.Zero(t, total)
	})

	t.Run("no total row", func(t *testing.T) {
		doc, err := e.parseHTML(`<table><tr><td>IPVA</td><td>R$ 100,00</td></tr></table>`)
		require.NoError(t, err)

		total, found := e.ResolveTotalDebts(doc)
		assert.False(t, found)
		assert.Zero(t, total)
	})

	t.Run("row without parseable value", func(t *testing.T) {
		doc, err := e.parseHTML(`<table><tr><td>Total dos Débitos</td><td>-</td></tr></table>`)
		require.NoError(t, err)

		_, found := e.ResolveTotalDebts(doc)
		assert.False(t, found)
	})
}

func TestParseDebtItemsOverdueBoundary(t *testing.T) {
	e := newTestExtractor()

	doc, err := e.parseHTML(vehicleWithDebtsHTML)
	require.NoError(t, err)

	items := e.ParseDebtItems(doc, referenceNow)
	require.Len(t, items, 2)

	for _, item := range items {
		assert.Equal(t, "Débito Vencido", item.Type)
	}
	assert.Equal(t, "10/01/2024", items[0].DueDate)
	assert.Equal(t, "28/08/2026", items[1].DueDate)
}

func TestParseDebtItemsSkipsShortRows(t *testing.T) {
	e := newTestExtractor()

	doc, err := e.parseHTML(`<table id="tblDebitosVeiculo">
<tr><td>IPVA</td><td>10/01/2024</td><td>R$ 100,00</td></tr>
</table>`)
	require.NoError(t, err)

	items := e.ParseDebtItems(doc, referenceNow)
	assert.Empty(t, items)
}

func TestFindDebtTableFallback(t *testing.T) {
	e := newTestExtractor()

	doc, err := e.parseHTML(`<table><tr><td>Vencimento</td><td>Valor Nominal</td></tr></table>`)
	require.NoError(t, err)

	table := e.findDebtTable(doc)
	require.NotNil(t, table)
	assert.Equal(t, 1, table.Length())
}
