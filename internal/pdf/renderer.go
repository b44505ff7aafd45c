// Package pdf gera o PDF paginado de uma fatura a partir de dados já carregados.
// Não faz I/O: recebe a fatura, o pagador e os itens e devolve os bytes do documento.
package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const fontFamily = "Helvetica"

// Address é o endereço do pagador.
type Address struct {
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
	PostalCode string
}

// Payer é quem liquida a fatura (pessoa física ou jurídica).
type Payer struct {
	Name    string
	TaxID   string // CPF ou CNPJ, com ou sem máscara
	Address Address
	Phone   string
}

// LineItem é uma linha cobrável (normalmente um envio).
type LineItem struct {
	Description  string
	TrackingCode string
	Status       string
	Value        decimal.Decimal
}

// Invoice é a fatura como veio do faturamento. O renderer nunca recalcula Total.
type Invoice struct {
	Code        string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	DueDate     *time.Time
	Total       decimal.Decimal
	Status      string
	Items       []LineItem
}

// Input é a entrada de uma renderização.
type Input struct {
	Invoice    Invoice
	Payer      Payer
	SubInvoice bool
	// OverrideTotal, quando não nil, substitui Invoice.Total (inclusive se for zero).
	OverrideTotal *decimal.Decimal
	// OverrideItems, quando não nil (mesmo vazio), substitui Invoice.Items.
	OverrideItems []LineItem
}

// PageLayout descreve o que foi desenhado em uma página.
type PageLayout struct {
	Number       int
	Continuation bool
	ItemIndexes  []int
	HasTotal     bool
	TotalTop     float64
	LastRowEnd   float64
	Footer       string
}

// Document é o resultado completo de uma renderização.
type Document struct {
	PDF         []byte
	TotalPages  int
	Total       decimal.Decimal
	ItemCount   int
	GeneratedAt time.Time
	Pages       []PageLayout
}

// Base64 devolve o PDF codificado em base64 padrão.
func (d *Document) Base64() string {
	return base64.StdEncoding.EncodeToString(d.PDF)
}

// Renderer monta o PDF. Não guarda estado entre chamadas e pode ser usado por várias goroutines.
type Renderer struct {
	Layout    Layout
	Labels    Labels
	Theme     Theme
	BrandName string
	Compress  bool
	// ZeroOverrideFallback reproduz o comportamento legado em que um OverrideTotal
	// igual a zero é tratado como ausente.
	ZeroOverrideFallback bool
	// Now fornece o instante de geração impresso no rodapé e nos metadados.
	Now func() time.Time
}

// NewRenderer cria um Renderer com geometria, textos e cores padrão.
func NewRenderer(brandName string) *Renderer {
	return &Renderer{
		Layout:    DefaultLayout(),
		Labels:    LabelsPTBR,
		Theme:     DefaultTheme,
		BrandName: brandName,
		Compress:  true,
		Now:       time.Now,
	}
}

// Render gera o PDF e devolve seus bytes em base64.
func (r *Renderer) Render(in Input) (string, error) {
	doc, err := r.RenderDocument(in)
	if err != nil {
		return "", err
	}
	return doc.Base64(), nil
}

// ResolveItems devolve os itens a desenhar: OverrideItems quando informado, senão os da fatura.
func ResolveItems(in Input) []LineItem {
	if in.OverrideItems != nil {
		return in.OverrideItems
	}
	return in.Invoice.Items
}

// ResolveTotal devolve o total exibido.
func ResolveTotal(in Input, zeroOverrideFallback bool) decimal.Decimal {
	if in.OverrideTotal == nil {
		return in.Invoice.Total
	}
	if zeroOverrideFallback && in.OverrideTotal.IsZero() {
		return in.Invoice.Total
	}
	return *in.OverrideTotal
}

// RenderDocument gera o PDF e devolve os bytes junto com o traçado das páginas.
// Em caso de erro nenhum byte é devolvido.
func (r *Renderer) RenderDocument(in Input) (*Document, error) {
	l := r.Layout
	if err := l.Validate(); err != nil {
		return nil, err
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	generatedAt := now()

	items := ResolveItems(in)
	total := ResolveTotal(in, r.ZeroOverrideFallback)
	totalPages := l.PageCount(len(items))

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: l.PageWidth, Ht: l.PageHeight},
	})
	pdf.SetCompression(r.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(l.SideMargin, l.TopMargin, l.SideMargin)
	pdf.SetTitle(toWin1252(fmt.Sprintf(r.Labels.InvoiceCode, in.Invoice.Code)), false)
	pdf.SetCreator(toWin1252(r.BrandName), false)

	d := &drawer{pdf: pdf, l: l, labels: r.Labels, theme: r.Theme, brand: r.BrandName, generatedAt: generatedAt}

	pages := make([]PageLayout, 0, totalPages)
	current := PageLayout{Number: 1}

	pdf.AddPage()
	d.firstPageHeader(in, len(items))
	d.tableHeader(l.FirstPageTableTop)

	y := l.rowsTop(1)
	rowsOnPage := 0
	for i, item := range items {
		if rowsOnPage == l.capacity(current.Number) {
			current.Footer = d.footer(current.Number, totalPages)
			pages = append(pages, current)

			current = PageLayout{Number: current.Number + 1, Continuation: true}
			pdf.AddPage()
			d.continuationHeader(in.Invoice.Code)
			d.tableHeader(l.ContinuationTableTop)
			y = l.rowsTop(current.Number)
			rowsOnPage = 0
		}
		if y+l.RowHeight > l.PageHeight-l.BottomMargin {
			return nil, fmt.Errorf("%w: linha %d ultrapassa a margem inferior na página %d", ErrInvalidLayout, i+1, current.Number)
		}

		d.row(i, item, y)
		current.ItemIndexes = append(current.ItemIndexes, i)
		y += l.RowHeight
		rowsOnPage++
	}

	if current.Number != totalPages {
		return nil, fmt.Errorf("%w: %d páginas desenhadas, %d estimadas", ErrInvalidLayout, current.Number, totalPages)
	}

	current.LastRowEnd = y
	current.TotalTop = y + l.TotalBlockGap
	current.HasTotal = true
	d.totalBlock(current.TotalTop, total)
	current.Footer = d.footer(current.Number, totalPages)
	pages = append(pages, current)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("falha ao gerar PDF da fatura %s: %w", in.Invoice.Code, err)
	}

	return &Document{
		PDF:         buf.Bytes(),
		TotalPages:  totalPages,
		Total:       total,
		ItemCount:   len(items),
		GeneratedAt: generatedAt,
		Pages:       pages,
	}, nil
}

// drawer concentra as chamadas de desenho de uma renderização.
type drawer struct {
	pdf         *gofpdf.Fpdf
	l           Layout
	labels      Labels
	theme       Theme
	brand       string
	generatedAt time.Time
}

func (d *drawer) text(x, y float64, s string) {
	d.pdf.Text(x, y, toWin1252(s))
}

func (d *drawer) setText(c [3]int) { d.pdf.SetTextColor(c[0], c[1], c[2]) }
func (d *drawer) setFill(c [3]int) { d.pdf.SetFillColor(c[0], c[1], c[2]) }
func (d *drawer) setDraw(c [3]int) { d.pdf.SetDrawColor(c[0], c[1], c[2]) }

func (d *drawer) sectionTitle(y float64, title string) {
	d.pdf.SetFont(fontFamily, "B", 12)
	d.setText(d.theme.Primary)
	d.text(d.l.SideMargin, y, title)
	d.setDraw(d.theme.Rule)
	d.pdf.SetLineWidth(0.5)
	d.pdf.Line(d.l.SideMargin, y+4, d.l.PageWidth-d.l.SideMargin, y+4)
}

func (d *drawer) firstPageHeader(in Input, itemCount int) {
	l := d.l
	labels := d.labels

	// Banner
	d.setFill(d.theme.Primary)
	d.pdf.Rect(0, 0, l.PageWidth, l.BannerHeight, "F")
	d.setText(d.theme.OnPrimary)
	d.pdf.SetFont(fontFamily, "B", 20)
	d.text(l.SideMargin, 36, d.brand)
	d.pdf.SetFont(fontFamily, "", 11)
	d.text(l.SideMargin, 56, labels.DocumentTitle)
	d.pdf.SetFont(fontFamily, "B", 12)
	d.text(l.SideMargin, 74, fmt.Sprintf(labels.InvoiceCode, in.Invoice.Code))
	if in.SubInvoice {
		marker := toWin1252(labels.SubInvoiceMarker)
		d.pdf.SetFont(fontFamily, "B", 11)
		w := d.pdf.GetStringWidth(marker)
		d.pdf.Text(l.PageWidth-l.SideMargin-w, 74, marker)
	}

	// Pagador
	d.sectionTitle(115, labels.PayerSection)
	line1, line2 := addressLines(in.Payer.Address)
	d.setText(d.theme.Text)
	d.pdf.SetFont(fontFamily, "B", 10)
	d.text(l.SideMargin, 133, truncate(in.Payer.Name, l.AddressMaxChars))
	d.pdf.SetFont(fontFamily, "", 10)
	d.text(l.SideMargin, 147, labels.TaxID+": "+FormatTaxID(in.Payer.TaxID))
	d.text(l.SideMargin, 161, truncate(line1, l.AddressMaxChars))
	d.text(l.SideMargin, 175, truncate(line2, l.AddressMaxChars))

	// Detalhes em grade 2x2
	d.sectionTitle(200, labels.DetailsSection)
	col2 := l.SideMargin + l.contentWidth()/2
	details := []struct {
		x, y         float64
		label, value string
	}{
		{l.SideMargin, 218, labels.Period, fmt.Sprintf(labels.PeriodRange, FormatDate(in.Invoice.PeriodStart), FormatDate(in.Invoice.PeriodEnd))},
		{col2, 218, labels.DueDate, FormatDate(in.Invoice.DueDate)},
		{l.SideMargin, 234, labels.ItemCount, strconv.Itoa(itemCount)},
		{col2, 234, labels.Status, in.Invoice.Status},
	}
	for _, item := range details {
		label := toWin1252(item.label + ": ")
		d.pdf.SetFont(fontFamily, "B", 10)
		d.setText(d.theme.Muted)
		d.pdf.Text(item.x, item.y, label)
		w := d.pdf.GetStringWidth(label)
		d.pdf.SetFont(fontFamily, "", 10)
		d.setText(d.theme.Text)
		d.text(item.x+w, item.y, item.value)
	}

	d.sectionTitle(262, labels.ItemsSection)
}

func (d *drawer) continuationHeader(code string) {
	d.pdf.SetFont(fontFamily, "B", 12)
	d.setText(d.theme.Primary)
	d.text(d.l.SideMargin, d.l.TopMargin, fmt.Sprintf(d.labels.Continued, code))
}

func (d *drawer) tableHeader(top float64) {
	l := d.l
	d.setFill(d.theme.TableHead)
	d.pdf.Rect(l.SideMargin, top, l.contentWidth(), l.TableHeaderHeight, "F")
	d.pdf.SetFont(fontFamily, "B", 10)
	d.setText(d.theme.Text)

	headers := []string{d.labels.ColDescription, d.labels.ColTracking, d.labels.ColStatus, d.labels.ColValue}
	x := l.SideMargin
	for i, h := range headers {
		align := "LM"
		if i == len(headers)-1 {
			align = "RM"
		}
		d.pdf.SetXY(x, top)
		d.pdf.CellFormat(l.ColumnWidths[i], l.TableHeaderHeight, toWin1252(h), "", 0, align, false, 0, "")
		x += l.ColumnWidths[i]
	}
}

func (d *drawer) row(index int, item LineItem, y float64) {
	l := d.l
	// Linhas pares brancas, ímpares cinza claro.
	if index%2 == 1 {
		d.setFill(d.theme.RowAlt)
		d.pdf.Rect(l.SideMargin, y, l.contentWidth(), l.RowHeight, "F")
	}

	cells := []string{
		truncate(item.Description, l.DescriptionMaxChars),
		item.TrackingCode,
		truncate(item.Status, l.StatusMaxChars),
		FormatCurrency(item.Value),
	}
	d.setText(d.theme.Text)
	x := l.SideMargin
	for i, c := range cells {
		align := "LM"
		style := ""
		if i == len(cells)-1 {
			align = "RM"
			style = "B"
		}
		d.pdf.SetFont(fontFamily, style, 9)
		d.pdf.SetXY(x, y)
		d.pdf.CellFormat(l.ColumnWidths[i], l.RowHeight, toWin1252(c), "", 0, align, false, 0, "")
		x += l.ColumnWidths[i]
	}
}

func (d *drawer) totalBlock(top float64, total decimal.Decimal) {
	l := d.l
	x := l.PageWidth - l.SideMargin - l.TotalBlockWidth
	d.setFill(d.theme.Primary)
	d.pdf.Rect(x, top, l.TotalBlockWidth, l.TotalBlockHeight, "F")
	d.setText(d.theme.OnPrimary)

	d.pdf.SetFont(fontFamily, "B", 11)
	d.pdf.SetXY(x+10, top)
	d.pdf.CellFormat(l.TotalBlockWidth/2-10, l.TotalBlockHeight, toWin1252(d.labels.TotalDue), "", 0, "LM", false, 0, "")
	d.pdf.SetFont(fontFamily, "B", 14)
	d.pdf.SetXY(x+l.TotalBlockWidth/2, top)
	d.pdf.CellFormat(l.TotalBlockWidth/2-10, l.TotalBlockHeight, toWin1252(FormatCurrency(total)), "", 0, "RM", false, 0, "")
}

// footer desenha o rodapé da página atual e devolve o texto de paginação.
func (d *drawer) footer(page, totalPages int) string {
	l := d.l
	ruleY := l.PageHeight - l.FooterHeight + 10
	textY := ruleY + 16
	d.setDraw(d.theme.Rule)
	d.pdf.SetLineWidth(0.5)
	d.pdf.Line(l.SideMargin, ruleY, l.PageWidth-l.SideMargin, ruleY)

	d.pdf.SetFont(fontFamily, "", 8)
	d.setText(d.theme.Muted)
	d.text(l.SideMargin, textY, fmt.Sprintf(d.labels.FooterCaption, d.brand))

	generated := toWin1252(fmt.Sprintf(d.labels.GeneratedAt, d.generatedAt.Format("02/01/2006 15:04")))
	w := d.pdf.GetStringWidth(generated)
	d.pdf.Text((l.PageWidth-w)/2, textY, generated)

	pageText := fmt.Sprintf(d.labels.PageOf, page, totalPages)
	encoded := toWin1252(pageText)
	w = d.pdf.GetStringWidth(encoded)
	d.pdf.Text(l.PageWidth-l.SideMargin-w, textY, encoded)
	return pageText
}
