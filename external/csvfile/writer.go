package csvfile

import (
	"context"
	"encoding/csv"
	"github.com/pkg/errors"
	"github.com/qubic/go-tx-engine/entities"
	"github.com/shopspring/decimal"
	"io"
	"strconv"
)

const DefaultPrecision = 4

var header = []string{"client", "available", "held", "total", "locked"}

// Writer serializes account snapshots as CSV.
type Writer struct {
	out       io.Writer
	precision int32
}

func NewWriter(out io.Writer, precision int32) *Writer {
	return &Writer{out: out, precision: precision}
}

func (w *Writer) PublishAccounts(_ context.Context, accounts []entities.Account) error {
	return w.WriteAccounts(accounts)
}

func (w *Writer) WriteAccounts(accounts []entities.Account) error {
	cw := csv.NewWriter(w.out)

	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, account := range accounts {
		row := []string{
			strconv.FormatUint(uint64(account.Client), 10),
			FormatAmount(account.Amounts.Available, w.precision),
			FormatAmount(account.Amounts.Held, w.precision),
			FormatAmount(account.Amounts.Total(), w.precision),
			strconv.FormatBool(account.Locked),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing account [%d]", account.Client)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing accounts")
}

// FormatAmount renders at least precision fractional digits and never drops
// digits of the value itself.
func FormatAmount(amount decimal.Decimal, precision int32) string {
	return amount.StringFixed(max(precision, -amount.Exponent()))
}
