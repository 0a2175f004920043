package model

import (
	"fmt"
	"time"

	"github.com/rushteam/riskit/core"
)

// 模型类型
const (
	TypeLR  = "lr"
	TypeRPC = "rpc"
)

// Config 模型配置
type Config struct {
	Type      string        `koanf:"type" validate:"required,oneof=lr rpc"`
	Name      string        `koanf:"name"`
	Path      string        `koanf:"path" validate:"required_if=Type lr"`
	Endpoint  string        `koanf:"endpoint" validate:"required_if=Type rpc,omitempty,url"`
	Timeout   time.Duration `koanf:"timeout"`
	Threshold float64       `koanf:"threshold" validate:"gte=0,lte=1"`
}

// NewRiskModel 根据配置创建模型
func NewRiskModel(cfg Config) (RiskModel, error) {
	switch cfg.Type {
	case TypeLR:
		return LoadLRModel(cfg.Path)
	case TypeRPC:
		name := cfg.Name
		if name == "" {
			name = TypeRPC
		}
		return NewRPCModel(name, cfg.Endpoint, cfg.Timeout), nil
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: unsupported type %q", cfg.Type))
	}
}
