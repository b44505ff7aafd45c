package pdf

// Labels são os textos fixos do documento.
type Labels struct {
	DocumentTitle    string
	InvoiceCode      string // recebe o código
	SubInvoiceMarker string
	PayerSection     string
	TaxID            string
	DetailsSection   string
	Period           string
	PeriodRange      string // recebe início e fim
	DueDate          string
	ItemCount        string
	Status           string
	ItemsSection     string
	ColDescription   string
	ColTracking      string
	ColStatus        string
	ColValue         string
	Continued        string // recebe o código
	TotalDue         string
	FooterCaption    string // recebe a marca
	GeneratedAt      string // recebe data/hora
	PageOf           string // recebe página e total
}

// LabelsPTBR é o padrão.
var LabelsPTBR = Labels{
	DocumentTitle:    "FATURA DE SERVIÇOS",
	InvoiceCode:      "Fatura #%s",
	SubInvoiceMarker: "SUBFATURA",
	PayerSection:     "Dados do Pagador",
	TaxID:            "CPF/CNPJ",
	DetailsSection:   "Detalhes da Fatura",
	Period:           "Período",
	PeriodRange:      "%s a %s",
	DueDate:          "Vencimento",
	ItemCount:        "Total de itens",
	Status:           "Status",
	ItemsSection:     "Itens",
	ColDescription:   "Descrição",
	ColTracking:      "Rastreio",
	ColStatus:        "Status",
	ColValue:         "Valor",
	Continued:        "Fatura #%s — continuação",
	TotalDue:         "TOTAL A PAGAR",
	FooterCaption:    "%s - Sistema de Faturamento",
	GeneratedAt:      "Gerado em %s",
	PageOf:           "Página %d de %d",
}

var LabelsEN = Labels{
	DocumentTitle:    "SERVICE INVOICE",
	InvoiceCode:      "Invoice #%s",
	SubInvoiceMarker: "SUBINVOICE",
	PayerSection:     "Payer Data",
	TaxID:            "Tax ID",
	DetailsSection:   "Invoice Details",
	Period:           "Period",
	PeriodRange:      "%s to %s",
	DueDate:          "Due date",
	ItemCount:        "Total items",
	Status:           "Status",
	ItemsSection:     "Items",
	ColDescription:   "Description",
	ColTracking:      "Tracking",
	ColStatus:        "Status",
	ColValue:         "Value",
	Continued:        "Invoice #%s — continued",
	TotalDue:         "TOTAL DUE",
	FooterCaption:    "%s - Billing System",
	GeneratedAt:      "Generated at %s",
	PageOf:           "Page %d of %d",
}

// LabelsFor escolhe os textos pelo locale ("pt-BR" ou "en").
func LabelsFor(locale string) Labels {
	if locale == "en" {
		return LabelsEN
	}
	return LabelsPTBR
}

// Theme são as cores RGB do documento.
type Theme struct {
	Primary   [3]int
	OnPrimary [3]int
	Text      [3]int
	Muted     [3]int
	RowAlt    [3]int
	TableHead [3]int
	Rule      [3]int
}

var DefaultTheme = Theme{
	Primary:   [3]int{26, 101, 158},
	OnPrimary: [3]int{255, 255, 255},
	Text:      [3]int{33, 37, 41},
	Muted:     [3]int{108, 117, 125},
	RowAlt:    [3]int{242, 244, 246},
	TableHead: [3]int{222, 230, 238},
	Rule:      [3]int{200, 205, 210},
}
