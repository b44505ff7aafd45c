package pdf

import (
	"errors"
	"fmt"
)

// Capacidade de linhas por página. A primeira página carrega também o banner,
// o bloco do pagador e os detalhes da fatura, por isso cabe menos.
const (
	FirstPageCapacity        = 18
	ContinuationPageCapacity = 32
)

// ErrInvalidLayout indica uma geometria em que as linhas, o bloco de total ou o
// rodapé não cabem na página.
var ErrInvalidLayout = errors.New("geometria de página inválida")

// Layout reúne a geometria da página em pontos (origem no canto superior esquerdo).
type Layout struct {
	PageWidth    float64
	PageHeight   float64
	TopMargin    float64
	BottomMargin float64 // reservado para o bloco de total e o rodapé
	SideMargin   float64

	BannerHeight      float64
	RowHeight         float64
	TableHeaderHeight float64

	// Topo da faixa de cabeçalho da tabela em cada tipo de página.
	FirstPageTableTop    float64
	ContinuationTableTop float64

	FooterHeight     float64
	TotalBlockGap    float64
	TotalBlockHeight float64
	TotalBlockWidth  float64

	FirstPageCapacity        int
	ContinuationPageCapacity int

	// Larguras das colunas: descrição, rastreio, status, valor.
	ColumnWidths [4]float64

	DescriptionMaxChars int
	StatusMaxChars      int
	AddressMaxChars     int
}

// DefaultLayout é a geometria A4 (595x842pt) da fatura.
func DefaultLayout() Layout {
	return Layout{
		PageWidth:    595,
		PageHeight:   842,
		TopMargin:    50,
		BottomMargin: 100,
		SideMargin:   40,

		BannerHeight:      90,
		RowHeight:         20,
		TableHeaderHeight: 25,

		FirstPageTableTop:    270,
		ContinuationTableTop: 62,

		FooterHeight:     50,
		TotalBlockGap:    10,
		TotalBlockHeight: 36,
		TotalBlockWidth:  240,

		FirstPageCapacity:        FirstPageCapacity,
		ContinuationPageCapacity: ContinuationPageCapacity,

		ColumnWidths: [4]float64{190, 140, 95, 90},

		DescriptionMaxChars: 30,
		StatusMaxChars:      15,
		AddressMaxChars:     70,
	}
}

// PageCount devolve 1 + ceil(max(0, n-primeira) / continuação).
func (l Layout) PageCount(itemCount int) int {
	rest := itemCount - l.FirstPageCapacity
	if rest <= 0 {
		return 1
	}
	return 1 + (rest+l.ContinuationPageCapacity-1)/l.ContinuationPageCapacity
}

// capacity devolve quantas linhas cabem na página informada (1-based).
func (l Layout) capacity(page int) int {
	if page == 1 {
		return l.FirstPageCapacity
	}
	return l.ContinuationPageCapacity
}

// rowsTop devolve o y da primeira linha de itens da página.
func (l Layout) rowsTop(page int) float64 {
	if page == 1 {
		return l.FirstPageTableTop + l.TableHeaderHeight
	}
	return l.ContinuationTableTop + l.TableHeaderHeight
}

func (l Layout) contentWidth() float64 {
	return l.PageWidth - 2*l.SideMargin
}

// Validate garante que uma página cheia (nas duas variantes) ainda deixa espaço
// para o bloco de total e para o rodapé. Com isso a contagem estimada de páginas
// é sempre a contagem real.
func (l Layout) Validate() error {
	if l.PageWidth <= 0 || l.PageHeight <= 0 || l.RowHeight <= 0 || l.TableHeaderHeight <= 0 {
		return fmt.Errorf("%w: dimensões devem ser positivas", ErrInvalidLayout)
	}
	if l.FirstPageCapacity <= 0 || l.ContinuationPageCapacity <= 0 {
		return fmt.Errorf("%w: capacidades devem ser positivas (%d/%d)", ErrInvalidLayout, l.FirstPageCapacity, l.ContinuationPageCapacity)
	}
	if l.ContinuationTableTop < l.TopMargin {
		return fmt.Errorf("%w: tabela de continuação (%.0f) acima da margem superior (%.0f)", ErrInvalidLayout, l.ContinuationTableTop, l.TopMargin)
	}
	if l.FirstPageTableTop < l.BannerHeight {
		return fmt.Errorf("%w: tabela da primeira página (%.0f) sobrepõe o banner (%.0f)", ErrInvalidLayout, l.FirstPageTableTop, l.BannerHeight)
	}

	var sum float64
	for _, w := range l.ColumnWidths {
		if w <= 0 {
			return fmt.Errorf("%w: largura de coluna deve ser positiva", ErrInvalidLayout)
		}
		sum += w
	}
	if sum > l.contentWidth()+0.01 {
		return fmt.Errorf("%w: colunas (%.0f) excedem a largura útil (%.0f)", ErrInvalidLayout, sum, l.contentWidth())
	}
	if l.TotalBlockWidth > l.contentWidth() {
		return fmt.Errorf("%w: bloco de total mais largo que a área útil", ErrInvalidLayout)
	}

	rowsLimit := l.PageHeight - l.BottomMargin
	totalLimit := l.PageHeight - l.FooterHeight
	for _, page := range []int{1, 2} {
		rowsEnd := l.rowsTop(page) + float64(l.capacity(page))*l.RowHeight
		if rowsEnd > rowsLimit {
			return fmt.Errorf("%w: %d linhas terminam em %.0f, além do limite %.0f (página %d)",
				ErrInvalidLayout, l.capacity(page), rowsEnd, rowsLimit, page)
		}
		if rowsEnd+l.TotalBlockGap+l.TotalBlockHeight > totalLimit {
			return fmt.Errorf("%w: bloco de total não cabe acima do rodapé (página %d)", ErrInvalidLayout, page)
		}
	}
	return nil
}
