package csvfile

import (
	"encoding/csv"
	"github.com/pkg/errors"
	"github.com/qubic/go-tx-engine/entities"
	"github.com/shopspring/decimal"
	"io"
	"strconv"
	"strings"
)

const (
	columnType   = "type"
	columnClient = "client"
	columnTx     = "tx"
	columnAmount = "amount"
)

// Reader decodes transaction records from CSV with a `type, client, tx, amount`
// header. All fields are trimmed and the amount column may be empty or missing.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
	line    int
}

func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{columnType, columnClient, columnTx} {
		if _, ok := columns[required]; !ok {
			return nil, errors.Errorf("missing column [%s] in header %v", required, header)
		}
	}

	return &Reader{csv: cr, columns: columns, line: 1}, nil
}

// Next returns the next record or io.EOF after the last one.
func (r *Reader) Next() (entities.Record, error) {
	fields, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return entities.Record{}, io.EOF
	}
	r.line++
	if err != nil {
		return entities.Record{}, errors.Wrapf(err, "reading line [%d]", r.line)
	}

	record, err := r.decode(fields)
	if err != nil {
		return entities.Record{}, errors.Wrapf(err, "decoding line [%d]", r.line)
	}
	return record, nil
}

func (r *Reader) decode(fields []string) (entities.Record, error) {
	var record entities.Record

	recordType, err := entities.ParseRecordType(r.field(fields, columnType))
	if err != nil {
		return record, err
	}
	record.Type = recordType

	client, err := strconv.ParseUint(r.field(fields, columnClient), 10, 16)
	if err != nil {
		return record, errors.Wrap(err, "parsing client")
	}
	record.Client = entities.ClientID(client)

	tx, err := strconv.ParseUint(r.field(fields, columnTx), 10, 32)
	if err != nil {
		return record, errors.Wrap(err, "parsing tx")
	}
	record.Tx = entities.TxID(tx)

	if value := r.field(fields, columnAmount); value != "" {
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return record, errors.Wrap(err, "parsing amount")
		}
		record.Amount = decimal.NewNullDecimal(amount)
	}

	return record, nil
}

func (r *Reader) field(fields []string, column string) string {
	i, ok := r.columns[column]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}
