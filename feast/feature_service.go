package feast

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rushteam/riskit/core"
)

// FeatureServiceConfig Feast 在线特征服务配置
type FeatureServiceConfig struct {
	// FeatureView 特征视图名称，默认 customer_rfm
	FeatureView string `koanf:"feature_view"`
	// EntityKey 实体列名，默认 customer_id
	EntityKey string `koanf:"entity_key"`
	// NumericEntity 实体 ID 是否为 int64（否则按字符串传递）
	NumericEntity bool `koanf:"numeric_entity"`
	// Features 读取的特征，默认 recency / frequency / monetary
	Features []string `koanf:"features"`
}

// FeatureService 将 Feast Client 适配为 core.FeatureService。
type FeatureService struct {
	client Client
	cfg    FeatureServiceConfig
	refs   []string
}

var _ core.FeatureService = (*FeatureService)(nil)

// NewFeatureService 创建基于 Feast 的在线特征服务
func NewFeatureService(client Client, cfg FeatureServiceConfig) *FeatureService {
	if cfg.FeatureView == "" {
		cfg.FeatureView = "customer_rfm"
	}
	if cfg.EntityKey == "" {
		cfg.EntityKey = "customer_id"
	}
	if len(cfg.Features) == 0 {
		cfg.Features = core.RFMFeatures()
	}
	refs := make([]string, len(cfg.Features))
	for i, f := range cfg.Features {
		refs[i] = cfg.FeatureView + ":" + f
	}
	return &FeatureService{client: client, cfg: cfg, refs: refs}
}

func (s *FeatureService) Name() string { return "feast." + s.cfg.FeatureView }

func (s *FeatureService) GetCustomerFeatures(ctx context.Context, customerID string) (map[string]float64, error) {
	var entity any = customerID
	if s.cfg.NumericEntity {
		id, err := strconv.ParseInt(customerID, 10, 64)
		if err != nil {
			return nil, core.InvalidInput(core.ModuleFeast, "customer id %q is not numeric", customerID)
		}
		entity = id
	}

	resp, err := s.client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   s.refs,
		EntityRows: []map[string]any{{s.cfg.EntityKey: entity}},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.FeatureVectors) == 0 || len(resp.FeatureVectors[0].Values) == 0 {
		return nil, core.ErrFeatureNotFound
	}

	features := make(map[string]float64, len(s.refs))
	for ref, v := range resp.FeatureVectors[0].Values {
		f, ok := v.(float64)
		if !ok {
			return nil, core.InvalidInput(core.ModuleFeast, "feature %s is %T, want number", ref, v)
		}
		features[featureName(ref)] = f
	}
	for _, f := range s.cfg.Features {
		if _, ok := features[f]; !ok {
			return nil, fmt.Errorf("%w: %s for customer %s", core.ErrFeatureNotFound, f, customerID)
		}
	}
	return features, nil
}

func (s *FeatureService) Close(ctx context.Context) error {
	return s.client.Close()
}

// featureName 去掉特征视图前缀：customer_rfm:recency -> recency
func featureName(ref string) string {
	if _, name, ok := strings.Cut(ref, ":"); ok {
		return name
	}
	return ref
}
