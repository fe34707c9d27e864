// Package pricing computes booking prices. All amounts are integer cents.
package pricing

import (
	"math"

	"github.com/iliyamo/cineplex-booking/internal/apperr"
	"github.com/iliyamo/cineplex-booking/internal/model"
)

// Table holds the price configuration. Missing format or class entries
// add nothing; a missing ticket type is an error.
type Table struct {
	BookingSurchargeCents int64
	TicketBaseCents       map[model.TicketType]int64
	FormatSurchargeCents  map[model.MovieFormat]int64
	ClassSurchargeCents   map[model.CinemaClass]int64
}

// DefaultTable returns the house price list with the given booking surcharge.
func DefaultTable(bookingSurchargeCents int64) Table {
	return Table{
		BookingSurchargeCents: bookingSurchargeCents,
		TicketBaseCents: map[model.TicketType]int64{
			model.TicketStandard: 1000,
			model.TicketStudent:  700,
			model.TicketSenior:   600,
			model.TicketPeak:     1300,
		},
		FormatSurchargeCents: map[model.MovieFormat]int64{
			model.Format2D:          0,
			model.Format3D:          300,
			model.FormatBlockbuster: 100,
		},
		ClassSurchargeCents: map[model.CinemaClass]int64{
			model.ClassStandard: 0,
			model.ClassGold:     500,
			model.ClassPlatinum: 1000,
		},
	}
}

// Input is everything a price depends on.
type Input struct {
	Tickets map[model.TicketType]int
	Format  model.MovieFormat
	Class   model.CinemaClass
}

// Quote is a price at the point of the payment request.
type Quote struct {
	SubtotalCents int64   `json:"subtotal_cents"`
	TaxRate       float64 `json:"tax_rate"`
	TotalCents    int64   `json:"total_cents"`
}

// Engine is stateless after construction and safe for concurrent use.
type Engine struct {
	table   Table
	taxRate float64
}

func NewEngine(table Table, taxRate float64) *Engine {
	return &Engine{table: table, taxRate: taxRate}
}

// Price returns the pre-tax price:
//
//	surcharge + sum(base[type] * count) + tickets*format + tickets*class
func (e *Engine) Price(in Input) (int64, error) {
	total := e.table.BookingSurchargeCents
	tickets := int64(0)
	for tt, n := range in.Tickets {
		if n < 0 {
			return 0, apperr.InvalidArgument("price", "negative count for %s", tt)
		}
		base, ok := e.table.TicketBaseCents[tt]
		if !ok {
			return 0, apperr.InvalidArgument("price", "no price for ticket type %s", tt)
		}
		total += base * int64(n)
		tickets += int64(n)
	}
	total += tickets * e.table.FormatSurchargeCents[in.Format]
	total += tickets * e.table.ClassSurchargeCents[in.Class]
	return total, nil
}

// WithTax applies the tax rate, rounding half away from zero.
func (e *Engine) WithTax(cents int64) int64 {
	return int64(math.Round(float64(cents) * (1 + e.taxRate)))
}

// Quote prices the input and applies tax.
func (e *Engine) Quote(in Input) (Quote, error) {
	sub, err := e.Price(in)
	if err != nil {
		return Quote{}, err
	}
	return Quote{SubtotalCents: sub, TaxRate: e.taxRate, TotalCents: e.WithTax(sub)}, nil
}
