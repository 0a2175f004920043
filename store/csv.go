package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/rushteam/riskit/core"
)

// WriteTableCSV 以 CSV 写出特征表：表头为列名，行顺序不变。
// 数值 NaN 与编码缺失值写为空单元格。
func WriteTableCSV(w io.Writer, t *core.FeatureTable) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(cols))
	for row := 0; row < t.Rows(); row++ {
		for i, c := range cols {
			record[i] = formatCell(c, row)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(c *core.Column, row int) string {
	switch c.Kind {
	case core.KindNumeric:
		v := c.Numeric[row]
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case core.KindCategorical:
		return c.Categorical[row]
	case core.KindEncoded:
		v := c.Encoded[row]
		if !v.Valid {
			return ""
		}
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return ""
	}
}

// WriteTargetCSV 写出单列 target
func WriteTargetCSV(w io.Writer, name string, y []int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{name}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range y {
		if err := cw.Write([]string{strconv.Itoa(v)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTableCSV 读取 CSV 特征表。kinds 指定列类型，未指定的列自动推断：
// 所有非空单元格都能解析为数值时为数值列（空单元格为 NaN），否则为类别列。
// 编码列的空单元格读为缺失值。
func ReadTableCSV(r io.Reader, kinds map[string]core.ColumnKind) (*core.FeatureTable, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.InvalidInput(core.ModuleStore, "csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	raw := make([][]string, len(header))
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		for i := range header {
			raw[i] = append(raw[i], record[i])
		}
	}

	cols := make([]*core.Column, len(header))
	for i, name := range header {
		kind, ok := kinds[name]
		if !ok {
			kind = inferKind(raw[i])
		}
		col, err := parseColumn(name, kind, raw[i])
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return core.NewFeatureTable(cols...)
}

func inferKind(cells []string) core.ColumnKind {
	for _, c := range cells {
		if c == "" {
			continue
		}
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			return core.KindCategorical
		}
	}
	return core.KindNumeric
}

func parseColumn(name string, kind core.ColumnKind, cells []string) (*core.Column, error) {
	switch kind {
	case core.KindCategorical:
		return core.CategoricalColumn(name, append([]string{}, cells...)), nil
	case core.KindNumeric:
		values := make([]float64, len(cells))
		for i, c := range cells {
			if c == "" {
				values[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return nil, core.InvalidInput(core.ModuleStore, "csv: column %q row %d: %q is not numeric", name, i, c)
			}
			values[i] = v
		}
		return core.NumericColumn(name, values), nil
	case core.KindEncoded:
		values := make([]core.NullFloat, len(cells))
		for i, c := range cells {
			if c == "" {
				values[i] = core.Missing()
				continue
			}
			v, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return nil, core.InvalidInput(core.ModuleStore, "csv: column %q row %d: %q is not numeric", name, i, c)
			}
			values[i] = core.Some(v)
		}
		return core.EncodedColumn(name, values), nil
	default:
		return nil, core.InvalidInput(core.ModuleStore, "csv: column %q has unknown kind %s", name, kind)
	}
}

// WriteTableFile 将特征表写入文件
func WriteTableFile(path string, t *core.FeatureTable) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteTableCSV(f, t)
}

// WriteTargetFile 将 target 写入文件
func WriteTargetFile(path, name string, y []int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteTargetCSV(f, name, y)
}
