package rfm

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/riskit/core"
)

const sampleCSV = `CustomerId,InvoiceDate,InvoiceNo,Amount
1,2023-01-01,A001,100
1,2023-01-15,A002,150
2,2023-01-10,A003,200
2,2023-01-20,A004,80
3,2023-01-05,A005,300
`

func TestAggregate(t *testing.T) {
	txns, err := ReadTransactionsCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, txns, 5)

	records, err := Aggregate(txns)
	require.NoError(t, err)

	// 快照为最大交易日期 + 1 天：2023-01-21
	assert.Equal(t, []core.RFMRecord{
		{CustomerID: "1", Recency: 6, Frequency: 2, Monetary: 250},
		{CustomerID: "2", Recency: 1, Frequency: 2, Monetary: 280},
		{CustomerID: "3", Recency: 16, Frequency: 1, Monetary: 300},
	}, records)

	table, err := ToTable(records)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Rows())
	assert.Equal(t, []string{"recency", "frequency", "monetary"}, table.Names())
	assert.Equal(t, []string{"1", "2", "3"}, CustomerIDs(records))
}

func TestAggregate_Snapshot(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC) }
	txns := []core.Transaction{
		{CustomerID: "10", InvoiceDate: day(1), InvoiceNo: "X1", Amount: 5},
		{CustomerID: "10", InvoiceDate: day(1).Add(12 * time.Hour), InvoiceNo: "X1", Amount: 5},
		{CustomerID: "9", InvoiceDate: day(3), InvoiceNo: "X2", Amount: -2},
	}

	records, err := Aggregate(txns, WithSnapshot(day(11)))
	require.NoError(t, err)
	// 数字 ID 按数值排序；同一发票只计一次；不足一天向下取整
	assert.Equal(t, []core.RFMRecord{
		{CustomerID: "9", Recency: 8, Frequency: 1, Monetary: -2},
		{CustomerID: "10", Recency: 9, Frequency: 1, Monetary: 10},
	}, records)
}

func TestAggregate_Errors(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		txns []core.Transaction
	}{
		{"empty", nil},
		{"no customer", []core.Transaction{{InvoiceDate: now, Amount: 1}}},
		{"no date", []core.Transaction{{CustomerID: "1", Amount: 1}}},
		{"nan amount", []core.Transaction{{CustomerID: "1", InvoiceDate: now, Amount: math.NaN()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(tt.txns)
			assert.True(t, core.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestSortCustomerIDs(t *testing.T) {
	ids := []string{"12", "3", "100"}
	sortCustomerIDs(ids)
	assert.Equal(t, []string{"3", "12", "100"}, ids)

	ids = []string{"b", "10", "a"}
	sortCustomerIDs(ids)
	assert.Equal(t, []string{"10", "a", "b"}, ids)
}
