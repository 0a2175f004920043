package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/riskit/config"
	"github.com/rushteam/riskit/pipeline"
	"github.com/rushteam/riskit/store"
)

func newTrainCmd(a *app) *cobra.Command {
	var (
		transactions string
		output       string
		pipelineFile string
		format       string
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run the WOE training pipeline",
		Long: `Load transactions, aggregate RFM features, label high-risk customers,
rank features by IV, split train/test, fit the WOE encoder and persist
the encoded tables, the encoder artifact and the IV ranking.`,
		Example: `  riskit train --transactions data/transactions.csv --output model
  RISKIT_STORE__TYPE=sqlite riskit train`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("transactions") {
				a.cfg.Train.Transactions = transactions
			}
			if flags.Changed("output") {
				a.cfg.Train.OutputDir = output
			}
			if flags.Changed("pipeline") {
				a.cfg.Train.Pipeline = pipelineFile
			}

			pc, err := a.cfg.TrainingPipeline()
			if err != nil {
				return err
			}
			p, err := pc.BuildPipeline(config.DefaultFactory())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := store.NewStore(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer s.Close()

			st := &pipeline.State{Store: s}
			if err := p.Run(ctx, st); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if st.IVScores != nil {
				if err := renderIV(out, st.IVScores, nil, st.Selected, a.cfg.Train.IVThreshold, format); err != nil {
					return err
				}
			}
			if format != "json" {
				for _, o := range st.Outputs {
					fmt.Fprintf(out, "wrote %s\n", o)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&transactions, "transactions", "", "transactions csv (CustomerId, InvoiceDate, InvoiceNo, Amount)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory for encoded tables and artifact")
	cmd.Flags().StringVar(&pipelineFile, "pipeline", "", "custom pipeline yaml")
	cmd.Flags().StringVar(&format, "format", "table", "output format (table|json)")
	return cmd
}
