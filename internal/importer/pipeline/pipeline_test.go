package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1enzo1/nfe-product-import/internal/config"
)

const masterCSV = `Código,Descrição,EAN13,Marca,Categoria,Peso Prod C/ Emb (KG)
09616,Bandeja Redonda Noz,7891000100103,Oxford,Mesa Posta,"1,25"
10234,Vaso Cerâmica Branco,,Casa Nova,Decoração,"0,30"
`

const invoiceXML = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe">
  <NFe>
    <infNFe Id="NFe35240112345678000195550010000012341000012349">
      <ide><nNF>1234</nNF><dhEmi>2024-01-15T10:30:00-03:00</dhEmi></ide>
      <emit><xNome>Distribuidora Casa Ltda</xNome></emit>
      <det nItem="1">
        <prod>
          <cProd>09616</cProd><xProd>BANDEJA REDONDA NOZ</xProd>
          <uCom>UN</uCom><qCom>12</qCom><vUnCom>10.50</vUnCom><vProd>126.00</vProd>
        </prod>
      </det>
      <det nItem="2">
        <prod>
          <cProd>FORN-999</cProd><xProd>PRODUTO INEXISTENTE QUALQUER</xProd>
          <uCom>UN</uCom><qCom>1</qCom><vUnCom>5.00</vUnCom><vProd>5.00</vProd>
        </prod>
      </det>
    </infNFe>
  </NFe>
</nfeProc>`

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	dir := t.TempDir()

	master := filepath.Join(dir, "master.csv")
	require.NoError(t, os.WriteFile(master, []byte(masterCSV), 0o644))

	input := filepath.Join(dir, "input")
	require.NoError(t, os.MkdirAll(input, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(input, "nota.xml"), []byte(invoiceXML), 0o644))

	cfg := config.Default()
	cfg.Paths.MasterDataFile = master
	cfg.Paths.NFEInputFolder = input
	cfg.Paths.OutputFolder = filepath.Join(dir, "output")
	cfg.Paths.PendingsFolder = filepath.Join(dir, "pendings")
	cfg.Paths.SynonymCacheFile = filepath.Join(dir, "synonyms.json")
	cfg.Paths.MetricsFile = filepath.Join(dir, "metrics.json")
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testSettings(t)
	p := New(cfg, zerolog.Nop())

	summary, err := p.Run(nil, "manual")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.MatchedCount)
	assert.Equal(t, 1, summary.UnmatchedCount)
	assert.Equal(t, 1, summary.ExportedRows)
	assert.Equal(t, 1, summary.PendingRows)
	require.Len(t, summary.Invoices, 1)
	assert.Equal(t, "35240112345678000195550010000012341000012349", summary.Invoices[0].AccessKey)

	data, err := os.ReadFile(summary.CSVPath)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "\xEF\xBB\xBF"))
	assert.Contains(t, content, "bandeja-redonda-noz")
	assert.Contains(t, content, "09616")
	// markup 2.2 over cost 10.50
	assert.Contains(t, content, "23.10")

	pendings, err := os.ReadFile(summary.PendingsPath)
	require.NoError(t, err)
	assert.Contains(t, string(pendings), "FORN-999")

	// run summary persisted and listable
	runs, err := p.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].RunID)

	// metrics recorded for the run
	records, err := p.Metrics()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].TotalRows)
}

func TestRunFailsWithoutInput(t *testing.T) {
	cfg := testSettings(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.NFEInputFolder, "nota.xml")))

	p := New(cfg, zerolog.Nop())
	_, err := p.Run(nil, "manual")
	assert.Error(t, err)
}

func TestRegisterMatchThenResolve(t *testing.T) {
	cfg := testSettings(t)
	p := New(cfg, zerolog.Nop())

	// first run leaves the unknown supplier code pending
	first, err := p.Run(nil, "manual")
	require.NoError(t, err)
	require.Equal(t, 1, first.UnmatchedCount)

	require.NoError(t, p.RegisterMatch("FORN-999", "10234"))

	second, err := p.Run(nil, "manual")
	require.NoError(t, err)
	assert.Equal(t, 2, second.MatchedCount)
	assert.Equal(t, 0, second.UnmatchedCount)
}

func TestRegisterMatchUnknownSKU(t *testing.T) {
	cfg := testSettings(t)
	p := New(cfg, zerolog.Nop())
	err := p.RegisterMatch("FORN-999", "00000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present in catalog")
}
