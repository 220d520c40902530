package csvfile

import (
	"bytes"
	"context"
	"github.com/qubic/go-tx-engine/business/domain/ledger"
	"github.com/qubic/go-tx-engine/entities"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFormatAmount(t *testing.T) {

	testData := []struct {
		name      string
		amount    decimal.Decimal
		precision int32
		expected  string
	}{
		{name: "TestFormatAmount_Zero", amount: decimal.Decimal{}, precision: 4, expected: "0.0000"},
		{name: "TestFormatAmount_Integer", amount: decimal.NewFromInt(2), precision: 4, expected: "2.0000"},
		{name: "TestFormatAmount_Padded", amount: decimal.RequireFromString("1.5"), precision: 4, expected: "1.5000"},
		{name: "TestFormatAmount_KeepsScale", amount: decimal.RequireFromString("0.123456"), precision: 4, expected: "0.123456"},
		{name: "TestFormatAmount_Negative", amount: decimal.RequireFromString("-6"), precision: 4, expected: "-6.0000"},
		{name: "TestFormatAmount_Precision", amount: decimal.RequireFromString("3.1"), precision: 2, expected: "3.10"},
	}

	for _, testRun := range testData {
		t.Run(testRun.name, func(t *testing.T) {
			require.Equal(t, testRun.expected, FormatAmount(testRun.amount, testRun.precision))
		})
	}
}

func TestWriter_WriteAccounts(t *testing.T) {
	var out bytes.Buffer
	writer := NewWriter(&out, DefaultPrecision)

	accounts := []entities.Account{
		{Client: 1, Amounts: entities.Amounts{Available: decimal.RequireFromString("1.5"), Held: decimal.RequireFromString("2")}},
		{Client: 2, Locked: true},
	}
	require.NoError(t, writer.PublishAccounts(context.Background(), accounts))

	expected := "client,available,held,total,locked\n" +
		"1,1.5000,2.0000,3.5000,false\n" +
		"2,0.0000,0.0000,0.0000,true\n"
	require.Equal(t, expected, out.String())
}

func processFile(t *testing.T, path string) (string, error) {
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader, err := NewReader(file)
	require.NoError(t, err)

	var out bytes.Buffer
	reducer := ledger.NewReducer(ledger.NewMemoryIndex(), nil)
	proc := ledger.NewProcessor(reader, reducer, NewWriter(&out, DefaultPrecision), nil, time.Second, zap.NewNop().Sugar())
	_, err = proc.Run(context.Background())
	return out.String(), err
}

func TestProcessFiles(t *testing.T) {
	inputs, err := filepath.Glob(filepath.Join("testdata", "*.input.csv"))
	require.NoError(t, err)
	require.NotEmpty(t, inputs)

	for _, input := range inputs {
		output := strings.Replace(input, ".input.csv", ".output.csv", 1)
		if _, err := os.Stat(output); err != nil {
			continue
		}
		t.Run(filepath.Base(input), func(t *testing.T) {
			expected, err := os.ReadFile(output)
			require.NoError(t, err)

			got, err := processFile(t, input)
			require.NoError(t, err)
			require.Equal(t, string(expected), got)
		})
	}
}

func TestProcessFiles_MissingAmount(t *testing.T) {
	got, err := processFile(t, filepath.Join("testdata", "missing_amount.input.csv"))
	require.ErrorIs(t, err, entities.ErrDepositMissingAmount)
	require.ErrorContains(t, err, "transaction [2]")
	require.Empty(t, got)
}
