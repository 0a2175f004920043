package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feature"
)

// renderIV 输出 IV 排行，format 为 json 或 table；reports 非空时附带分箱明细
func renderIV(w io.Writer, scores core.IVScores, reports []*feature.IVReport, selected []string, threshold float64, format string) error {
	if format == "json" {
		out := map[string]any{
			"threshold": threshold,
			"scores":    scores,
			"selected":  selected,
		}
		if reports != nil {
			out["bins"] = reports
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Feature", "IV", "Selected"})
	for i, s := range scores {
		mark := ""
		if slices.Contains(selected, s.Feature) {
			mark = "yes"
		}
		t.AppendRow(table.Row{i + 1, s.Feature, fmt.Sprintf("%.4f", s.IV), mark})
	}
	t.AppendFooter(table.Row{"", "threshold", fmt.Sprintf("%.4f", threshold), len(selected)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()

	for _, r := range reports {
		renderBins(w, r)
	}
	return nil
}

// renderBins 输出单个特征的分箱明细
func renderBins(w io.Writer, r *feature.IVReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s (%s, iv %.4f)", r.Feature, r.Status, r.IV))
	t.AppendHeader(table.Row{"Bin", "Good", "Bad", "WOE", "IV"})
	for _, s := range r.Stats {
		t.AppendRow(table.Row{s.Bin.String(), s.Good, s.Bad, fmt.Sprintf("%.4f", s.WOE), fmt.Sprintf("%.4f", s.IV)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

// renderMetrics 输出模型评估指标
func renderMetrics(w io.Writer, metrics map[string]float64, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(metrics)
	}
	names := make([]string, 0, len(metrics))
	for k := range metrics {
		names = append(names, k)
	}
	slices.Sort(names)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Value"})
	for _, k := range names {
		t.AppendRow(table.Row{k, fmt.Sprintf("%.4f", metrics[k])})
	}
	t.Render()
	return nil
}
