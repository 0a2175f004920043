package main

import (
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/model"
	"github.com/rushteam/riskit/pipeline"
	"github.com/rushteam/riskit/store"
)

func newMetricsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Evaluate and validate classifier metrics",
	}
	cmd.AddCommand(newMetricsValidateCmd())
	cmd.AddCommand(newMetricsEvaluateCmd(a))
	return cmd
}

func newMetricsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <metrics.json>",
		Short: "Check that accuracy, roc_auc and f1_score are present and within [0, 1]",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var metrics map[string]float64
			if err := json.Unmarshal(data, &metrics); err != nil {
				return core.WrapDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, err, "parse %s", args[0])
			}
			if err := model.ValidateMetrics(metrics); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: metrics valid\n", args[0])
			return nil
		},
	}
}

func newMetricsEvaluateCmd(a *app) *cobra.Command {
	var (
		featuresPath string
		targetPath   string
		out          string
		format       string
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score an encoded test table with the configured model",
		Example: `  riskit metrics evaluate --features model/features_test_woe.csv --target model/target_test.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := model.NewRiskModel(a.cfg.Model)
			if err != nil {
				return err
			}
			x, err := readTable(featuresPath, nil)
			if err != nil {
				return err
			}
			y, err := readTarget(targetPath)
			if err != nil {
				return err
			}

			proba, err := scoreTable(m, x)
			if err != nil {
				return err
			}
			eval, err := model.Evaluate(y, proba, a.cfg.Model.Threshold)
			if err != nil {
				return err
			}
			metrics := eval.Map()
			if err := model.ValidateMetrics(metrics); err != nil {
				return err
			}
			if out != "" {
				data, err := json.MarshalIndent(metrics, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return err
				}
			}
			return renderMetrics(cmd.OutOrStdout(), metrics, format)
		},
	}
	cmd.Flags().StringVar(&featuresPath, "features", "model/"+pipeline.TestFeaturesFile, "encoded feature csv")
	cmd.Flags().StringVar(&targetPath, "target", "model/"+pipeline.TestTargetFile, "target csv")
	cmd.Flags().StringVar(&out, "out", "", "write metrics json to this file")
	cmd.Flags().StringVar(&format, "format", "table", "output format (table|json)")
	return cmd
}

func readTable(path string, kinds map[string]core.ColumnKind) (*core.FeatureTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return store.ReadTableCSV(f, kinds)
}

func readTarget(path string) ([]int, error) {
	t, err := readTable(path, map[string]core.ColumnKind{pipeline.TargetColumn: core.KindNumeric})
	if err != nil {
		return nil, err
	}
	col, ok := t.Column(pipeline.TargetColumn)
	if !ok {
		return nil, core.InvalidInput(core.ModuleModel, "%s: missing column %s", path, pipeline.TargetColumn)
	}
	y := make([]int, len(col.Numeric))
	for i, v := range col.Numeric {
		y[i] = int(v)
	}
	return y, nil
}

// scoreTable 逐行打分；空单元格（未知分箱）不进入模型输入
func scoreTable(m model.RiskModel, x *core.FeatureTable) ([]float64, error) {
	proba := make([]float64, x.Rows())
	for i := range proba {
		input := make(map[string]float64, len(x.Names()))
		for _, col := range x.Columns() {
			switch col.Kind {
			case core.KindEncoded:
				if v := col.Encoded[i]; v.Valid {
					input[col.Name] = v.Float
				}
			case core.KindNumeric:
				if v := col.Numeric[i]; !math.IsNaN(v) {
					input[col.Name] = v
				}
			}
		}
		p, err := m.Predict(input)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		proba[i] = p
	}
	return proba, nil
}
