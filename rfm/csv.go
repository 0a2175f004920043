package rfm

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rushteam/riskit/core"
)

// 交易 CSV 必需的列
const (
	ColumnCustomerID  = "CustomerId"
	ColumnInvoiceDate = "InvoiceDate"
	ColumnInvoiceNo   = "InvoiceNo"
	ColumnAmount      = "Amount"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate 解析交易日期，支持 2006-01-02、2006-01-02 15:04:05 与 RFC 3339
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ReadTransactionsCSV 读取交易 CSV。列按表头名称定位，顺序无关，多余的列被忽略。
func ReadTransactionsCSV(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.InvalidInput(core.ModuleRFM, "transactions csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read transactions header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{ColumnCustomerID, ColumnInvoiceDate, ColumnInvoiceNo, ColumnAmount} {
		if _, ok := index[required]; !ok {
			return nil, core.InvalidInput(core.ModuleRFM, "transactions csv: missing column %q", required)
		}
	}

	var txns []core.Transaction
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read transactions line %d: %w", line, err)
		}

		date, err := ParseDate(record[index[ColumnInvoiceDate]])
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleRFM, core.ErrorCodeInvalidInput, err, "transactions csv line %d", line)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(record[index[ColumnAmount]]), 64)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleRFM, core.ErrorCodeInvalidInput, err, "transactions csv line %d: bad amount", line)
		}
		txns = append(txns, core.Transaction{
			CustomerID:  strings.TrimSpace(record[index[ColumnCustomerID]]),
			InvoiceDate: date,
			InvoiceNo:   strings.TrimSpace(record[index[ColumnInvoiceNo]]),
			Amount:      amount,
		})
	}
	return txns, nil
}
