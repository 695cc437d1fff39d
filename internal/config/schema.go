package config

// DefaultColumns is the versioned Shopify import header. Column set
// and order must stay identical across configuration variants that
// claim compatibility with the commerce platform importer.
var DefaultColumns = []string{
	"Handle",
	"Title",
	"Body (HTML)",
	"Vendor",
	"Tags",
	"Published",
	"Option1 Name",
	"Option1 Value",
	"Option2 Name",
	"Option2 Value",
	"Option3 Name",
	"Option3 Value",
	"Variant SKU",
	"Variant Price",
	"Variant Compare At Price",
	"Variant Inventory Qty",
	"Variant Weight",
	"Variant Weight Unit",
	"Variant Requires Shipping",
	"Image Src",
	"Variant Barcode",
	"Variant Grams",
	"Variant Inventory Tracker",
	"Variant Inventory Policy",
	"Variant Fulfillment Service",
	"product.metafields.custom.unidade",
	"product.metafields.custom.catalogo",
	"product.metafields.custom.dimensoes_do_produto",
	"product.metafields.custom.composicao",
	"product.metafields.custom.capacidade",
	"product.metafields.custom.modo_de_uso",
	"product.metafields.custom.icms",
	"product.metafields.custom.ncm",
	"product.metafields.custom.pis",
	"product.metafields.custom.ipi",
	"product.metafields.custom.cofins",
	"product.metafields.custom.componente_de_kit",
	"product.metafields.custom.resistencia_a_agua",
	"Variant Taxable",
	"Cost per item",
	"Image Position",
	"Variant Image",
	"Product Category",
	"Type",
	"Collection",
	"Status",
}

// DefaultMetafieldKeys maps logical field names onto metafield keys.
// The spreadsheet side of each mapping lives in the catalog loader's
// header aliases; these are the output keys.
var DefaultMetafieldKeys = map[string]string{
	"unidade":              "unidade",
	"catalogo":             "catalogo",
	"dimensoes_do_produto": "dimensoes_do_produto",
	"composicao":           "composicao",
	"capacidade":           "capacidade",
	"modo_de_uso":          "modo_de_uso",
	"icms":                 "icms",
	"ncm":                  "ncm",
	"pis":                  "pis",
	"ipi":                  "ipi",
	"cofins":               "cofins",
	"componente_de_kit":    "componente_de_kit",
	"resistencia_a_agua":   "resistencia_a_agua",
}

// DefaultCriticalMetafields lists the columns whose coverage the
// metrics recorder tracks per run.
var DefaultCriticalMetafields = []string{
	"product.metafields.custom.unidade",
	"product.metafields.custom.catalogo",
	"product.metafields.custom.dimensoes_do_produto",
	"product.metafields.custom.composicao",
	"product.metafields.custom.capacidade",
	"product.metafields.custom.modo_de_uso",
	"product.metafields.custom.ncm",
	"product.metafields.custom.ipi",
}
