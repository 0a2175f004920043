package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/pkg/logging"
)

// Pipeline 把训练流程拆成可组合的 Stage 链，按顺序执行，遇错即停。
type Pipeline struct {
	Name   string
	Stages []Stage
}

func (p *Pipeline) Run(ctx context.Context, st *State) error {
	if st == nil {
		return core.InvalidInput(core.ModulePipeline, "pipeline: nil state")
	}
	started := time.Now()
	for _, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := time.Now()
		if err := stage.Run(ctx, st); err != nil {
			logging.Error().Err(err).
				Str("pipeline", p.Name).
				Str("stage", stage.Name()).
				Msg("stage failed")
			return fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		logging.Info().
			Str("pipeline", p.Name).
			Str("stage", stage.Name()).
			Str("kind", string(stage.Kind())).
			Dur("elapsed", time.Since(t)).
			Msg("stage done")
	}
	logging.Info().Str("pipeline", p.Name).Dur("elapsed", time.Since(started)).Msg("pipeline done")
	return nil
}
