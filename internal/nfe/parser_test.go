package nfe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNFeProc = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  <NFe>
    <infNFe Id="NFe35240112345678000195550010000012341000012349" versao="4.00">
      <ide>
        <nNF>1234</nNF>
        <dhEmi>2024-01-15T10:30:00-03:00</dhEmi>
      </ide>
      <emit>
        <xNome>Distribuidora Casa Ltda</xNome>
        <CNPJ>12345678000195</CNPJ>
      </emit>
      <det nItem="1">
        <prod>
          <cProd>09616</cProd>
          <xProd>BANDEJA REDONDA NOZ</xProd>
          <cEAN>7891000100103</cEAN>
          <NCM>44191900</NCM>
          <CFOP>5102</CFOP>
          <uCom>UN</uCom>
          <qCom>12.0000</qCom>
          <vUnCom>10.5000</vUnCom>
          <vProd>126.00</vProd>
        </prod>
        <infAdProd>Produto fragil</infAdProd>
      </det>
      <det nItem="2">
        <prod>
          <cProd>10234</cProd>
          <xProd>VASO CERAMICA BRANCO</xProd>
          <cEAN>SEM GTIN</cEAN>
          <cEANTrib>SEM GTIN</cEANTrib>
          <NCM>69120000</NCM>
          <CFOP>5102</CFOP>
          <uCom>CX</uCom>
          <qCom>2.0000</qCom>
          <vUnCom>45.0000</vUnCom>
          <vProd>90.00</vProd>
        </prod>
      </det>
    </infNFe>
  </NFe>
</nfeProc>`

const sampleBareNFe = `<?xml version="1.0" encoding="UTF-8"?>
<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
  <infNFe Id="NFe35240198765432000188550010000056781000056789">
    <ide>
      <nNF>5678</nNF>
      <dEmi>2024-02-20</dEmi>
    </ide>
    <emit><xNome>Fornecedor XYZ</xNome></emit>
    <det nItem="1">
      <prod>
        <cProd>A-1</cProd>
        <xProd>KIT POTES</xProd>
        <qCom>1</qCom>
        <vUnCom>30</vUnCom>
      </prod>
    </det>
  </infNFe>
</NFe>`

func TestParseNFeProc(t *testing.T) {
	invoice, err := Parse([]byte(sampleNFeProc))
	require.NoError(t, err)

	assert.Equal(t, "35240112345678000195550010000012341000012349", invoice.AccessKey)
	assert.Equal(t, "1234", invoice.InvoiceNumber)
	assert.Equal(t, "Distribuidora Casa Ltda", invoice.SupplierName)
	assert.Equal(t, "12345678000195", invoice.SupplierCNPJ)
	require.NotNil(t, invoice.IssueDate)
	assert.Equal(t, 2024, invoice.IssueDate.Year())

	require.Len(t, invoice.Items, 2)

	first := invoice.Items[0]
	assert.Equal(t, 1, first.ItemNumber)
	assert.Equal(t, "09616", first.SKU)
	assert.Equal(t, "BANDEJA REDONDA NOZ", first.Description)
	assert.Equal(t, "7891000100103", first.GTIN)
	assert.Equal(t, "44191900", first.NCM)
	assert.Equal(t, "5102", first.CFOP)
	assert.Equal(t, "UN", first.Unit)
	assert.InDelta(t, 12, first.Quantity, 1e-9)
	assert.InDelta(t, 10.5, first.UnitPrice, 1e-9)
	assert.InDelta(t, 126, first.TotalValue, 1e-9)
	assert.Equal(t, "Produto fragil", first.UsageNotes)

	// "SEM GTIN" placeholders collapse to empty
	assert.Equal(t, "", invoice.Items[1].GTIN)
}

func TestParseBareNFe(t *testing.T) {
	invoice, err := Parse([]byte(sampleBareNFe))
	require.NoError(t, err)

	assert.Equal(t, "35240198765432000188550010000056781000056789", invoice.AccessKey)
	require.NotNil(t, invoice.IssueDate)
	assert.Equal(t, "2024-02-20", invoice.IssueDate.Format("2006-01-02"))

	require.Len(t, invoice.Items, 1)
	item := invoice.Items[0]
	assert.Equal(t, "A-1", item.SKU)
	// vProd absent: total falls back to qty * unit price
	assert.InDelta(t, 30, item.TotalValue, 1e-9)
}

func TestParseMissingInfNFe(t *testing.T) {
	_, err := Parse([]byte(`<?xml version="1.0"?><foo/>`))
	assert.Error(t, err)
}

func TestParseFileSetsInvoiceKeyOnItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nota.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleNFeProc), 0o644))

	invoice, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, invoice.FilePath)
	for _, item := range invoice.Items {
		assert.Equal(t, invoice.AccessKey, item.InvoiceKey)
	}
}
