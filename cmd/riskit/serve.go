package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rushteam/riskit/config"
	"github.com/rushteam/riskit/core"
	"github.com/rushteam/riskit/feast"
	"github.com/rushteam/riskit/feature"
	"github.com/rushteam/riskit/model"
	"github.com/rushteam/riskit/pkg/logging"
	"github.com/rushteam/riskit/service"
	"github.com/rushteam/riskit/store"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve risk predictions over HTTP",
		Long: `Load the fitted WOE encoder artifact and the classifier once at startup,
then serve POST /predict, GET /customers/{id}/risk, GET /monitor/{feature},
GET /health and GET /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := store.NewStore(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer s.Close()

			artifact, err := loadArtifact(ctx, a.cfg.Server, s)
			if err != nil {
				return err
			}
			m, err := model.NewRiskModel(a.cfg.Model)
			if err != nil {
				return err
			}
			monitor := feature.NewMemoryEncodingMonitor(a.cfg.Server.MonitorSamples)
			predictor, err := service.NewPredictorFromArtifact(artifact, m,
				service.WithThreshold(a.cfg.Model.Threshold),
				service.WithMonitor(monitor),
			)
			if err != nil {
				return err
			}

			opts := []service.ServerOption{service.WithEncodingMonitor(monitor)}
			featureSvc, err := newFeatureService(s, a.cfg.Online)
			if err != nil {
				return err
			}
			if featureSvc != nil {
				defer featureSvc.Close(context.Background())
				opts = append(opts, service.WithFeatureService(featureSvc))
			}

			logging.Info().
				Str("model", m.Name()).
				Strs("features", predictor.Features()).
				Str("online", a.cfg.Online.Source).
				Msg("predictor ready")
			return service.NewServer(predictor, opts...).ListenAndServe(ctx, a.cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	return cmd
}

// loadArtifact 优先读取产物文件，文件不存在时从存储读取
func loadArtifact(ctx context.Context, cfg config.ServerConfig, s core.Store) (*feature.Artifact, error) {
	if cfg.ArtifactPath != "" {
		data, err := os.ReadFile(cfg.ArtifactPath)
		switch {
		case err == nil:
			return feature.UnmarshalArtifact(data)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
		logging.Warn().Str("path", cfg.ArtifactPath).Msg("artifact file not found, fall back to store")
	}
	return feature.LoadArtifact(ctx, s, cfg.ArtifactKey)
}

// newFeatureService 根据配置创建在线特征服务；source 为 none 时返回 nil
func newFeatureService(s core.Store, cfg config.OnlineConfig) (core.FeatureService, error) {
	switch cfg.Source {
	case config.OnlineStore:
		return feature.NewStoreFeatureService(s, cfg.KeyPrefix), nil
	case config.OnlineFeast:
		var opts []feast.ClientOption
		if cfg.Feast.Timeout > 0 {
			opts = append(opts, feast.WithTimeout(cfg.Feast.Timeout))
		}
		if cfg.Feast.Token != "" {
			opts = append(opts, feast.WithAuth(&feast.AuthConfig{
				Type:      "static",
				Token:     cfg.Feast.Token,
				EnableTLS: cfg.Feast.EnableTLS,
			}))
		}
		client, err := feast.NewGrpcClient(cfg.Feast.Host, cfg.Feast.Port, cfg.Feast.Project, opts...)
		if err != nil {
			return nil, err
		}
		return feast.NewFeatureService(client, cfg.Feast.View), nil
	default:
		return nil, nil
	}
}
