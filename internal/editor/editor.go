// Package editor turns raw trade form input into trade records.
package editor

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"trading-journal-go/internal/models"
)

const dateLayout = "2006-01-02"

// ErrInvalidForm is returned when form input fails validation. No record is produced.
var ErrInvalidForm = errors.New("invalid trade form")

var (
	validate   = newValidator()
	defaultLot = decimal.RequireFromString("0.01")
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Let numeric tags such as gt=0 see decimals as floats.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Classify maps a profit to Win, Loss or BreakEven.
func Classify(profit decimal.Decimal) models.Result {
	return models.ClassifyProfit(profit)
}

// Prepare validates a form and normalizes it into a trade ready to persist.
// The returned trade has no ID.
func Prepare(form models.TradeForm) (models.Trade, error) {
	form.Pair = strings.TrimSpace(form.Pair)
	if err := validate.Struct(form); err != nil {
		return models.Trade{}, fmt.Errorf("%w: %s", ErrInvalidForm, describe(err))
	}

	date, err := time.Parse(dateLayout, form.DateStr)
	if err != nil {
		return models.Trade{}, fmt.Errorf("%w: date: %v", ErrInvalidForm, err)
	}

	return models.Trade{
		Date:       date.UnixMilli(),
		Pair:       strings.ToUpper(form.Pair),
		Position:   form.Position,
		Entry:      decimal.Zero,
		Exit:       decimal.Zero,
		Lot:        form.Lot,
		StopLoss:   nil,
		TakeProfit: nil,
		Profit:     form.Profit,
		Result:     Classify(form.Profit),
		Notes:      form.Notes,
	}, nil
}

// DefaultForm returns an empty form dated on the given day.
func DefaultForm(now time.Time) models.TradeForm {
	return models.TradeForm{
		DateStr:  now.UTC().Format(dateLayout),
		Position: models.PositionBuy,
		Lot:      defaultLot,
		Profit:   decimal.Zero,
	}
}

// FormFromTrade prefills a form for editing an existing trade.
func FormFromTrade(t models.Trade) models.TradeForm {
	return models.TradeForm{
		DateStr:  t.Time().Format(dateLayout),
		Pair:     t.Pair,
		Position: t.Position,
		Lot:      t.Lot,
		Profit:   t.Profit,
		Notes:    t.Notes,
	}
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
