// Package nfe extracts invoice line items from NF-e XML documents.
package nfe

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/1enzo1/nfe-product-import/internal/importer/model"
)

type xmlDocument struct {
	XMLName xml.Name
	NFe     *xmlNFe    `xml:"NFe"`
	InfNFe  *xmlInfNFe `xml:"infNFe"`
}

type xmlNFe struct {
	InfNFe *xmlInfNFe `xml:"infNFe"`
}

type xmlInfNFe struct {
	ID   string `xml:"Id,attr"`
	Ide  xmlIde `xml:"ide"`
	Emit xmlEmit `xml:"emit"`
	Dets []xmlDet `xml:"det"`
}

type xmlIde struct {
	NNF   string `xml:"nNF"`
	DhEmi string `xml:"dhEmi"`
	DEmi  string `xml:"dEmi"`
}

type xmlEmit struct {
	XNome string `xml:"xNome"`
	CNPJ  string `xml:"CNPJ"`
}

type xmlDet struct {
	NItem     string  `xml:"nItem,attr"`
	Prod      xmlProd `xml:"prod"`
	InfAdProd string  `xml:"infAdProd"`
}

type xmlProd struct {
	CProd    string `xml:"cProd"`
	XProd    string `xml:"xProd"`
	CEAN     string `xml:"cEAN"`
	CEANTrib string `xml:"cEANTrib"`
	NCM      string `xml:"NCM"`
	CEST     string `xml:"CEST"`
	CFOP     string `xml:"CFOP"`
	UCom     string `xml:"uCom"`
	QCom     string `xml:"qCom"`
	VUnCom   string `xml:"vUnCom"`
	VProd    string `xml:"vProd"`
}

// ParseFile reads one NF-e XML file (either a bare NFe or the signed
// nfeProc wrapper) into an Invoice.
func ParseFile(path string) (model.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("read nfe file: %w", err)
	}
	invoice, err := Parse(data)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("parse %s: %w", path, err)
	}
	invoice.FilePath = path
	if invoice.AccessKey == "" {
		invoice.AccessKey = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for i := range invoice.Items {
		invoice.Items[i].InvoiceKey = invoice.AccessKey
	}
	return invoice, nil
}

// Parse decodes NF-e XML bytes.
func Parse(data []byte) (model.Invoice, error) {
	var doc xmlDocument
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	decoder.CharsetReader = charsetReader
	if err := decoder.Decode(&doc); err != nil {
		return model.Invoice{}, err
	}

	inf := doc.InfNFe
	if inf == nil && doc.NFe != nil {
		inf = doc.NFe.InfNFe
	}
	if inf == nil {
		return model.Invoice{}, fmt.Errorf("nfe: missing infNFe node")
	}

	accessKey := strings.TrimPrefix(inf.ID, "NFe")
	invoice := model.Invoice{
		AccessKey:     accessKey,
		InvoiceNumber: strings.TrimSpace(inf.Ide.NNF),
		IssueDate:     parseIssueDate(inf.Ide.DhEmi, inf.Ide.DEmi),
		SupplierName:  strings.TrimSpace(inf.Emit.XNome),
		SupplierCNPJ:  strings.TrimSpace(inf.Emit.CNPJ),
	}

	for i, det := range inf.Dets {
		itemNumber, err := strconv.Atoi(strings.TrimSpace(det.NItem))
		if err != nil || itemNumber <= 0 {
			itemNumber = i + 1
		}

		quantity := parseDecimal(det.Prod.QCom)
		unitPrice := parseDecimal(det.Prod.VUnCom)
		total := parseDecimal(det.Prod.VProd)
		if total == 0 {
			total = quantity * unitPrice
		}

		gtin := digitsOnly(det.Prod.CEAN)
		if gtin == "" {
			gtin = digitsOnly(det.Prod.CEANTrib)
		}

		invoice.Items = append(invoice.Items, model.LineItem{
			InvoiceKey:  accessKey,
			ItemNumber:  itemNumber,
			SKU:         strings.TrimSpace(det.Prod.CProd),
			Description: strings.TrimSpace(det.Prod.XProd),
			GTIN:        gtin,
			NCM:         strings.TrimSpace(det.Prod.NCM),
			CEST:        strings.TrimSpace(det.Prod.CEST),
			CFOP:        strings.TrimSpace(det.Prod.CFOP),
			Unit:        strings.TrimSpace(det.Prod.UCom),
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			TotalValue:  total,
			UsageNotes:  strings.TrimSpace(det.InfAdProd),
		})
	}

	return invoice, nil
}

func parseIssueDate(dhEmi, dEmi string) *time.Time {
	if v := strings.TrimSpace(dhEmi); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t
		}
	}
	if v := strings.TrimSpace(dEmi); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return &t
		}
	}
	return nil
}

// parseDecimal reads the dot-decimal numbers the NF-e schema mandates.
func parseDecimal(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// digitsOnly drops "SEM GTIN" placeholders and formatting.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
