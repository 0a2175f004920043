package feature

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/riskit/core"
)

// DefaultCustomerKeyPrefix 客户 RFM 特征的默认 key 前缀
const DefaultCustomerKeyPrefix = "rfm:"

// StoreFeatureService 是基于 Store 的在线特征服务，采用适配器模式。
// 将 core.Store 适配为 core.FeatureService 接口；特征以 JSON 存于 <prefix><customerID>。
type StoreFeatureService struct {
	store      core.Store
	keyPrefix  string
	serializer FeatureSerializer
}

var _ core.FeatureService = (*StoreFeatureService)(nil)

// FeatureSerializer 是特征序列化接口，支持不同的序列化格式
type FeatureSerializer interface {
	Serialize(features map[string]float64) ([]byte, error)
	Deserialize(data []byte) (map[string]float64, error)
}

// JSONSerializer 是 JSON 序列化实现
type JSONSerializer struct{}

func (j *JSONSerializer) Serialize(features map[string]float64) ([]byte, error) {
	return json.Marshal(features)
}

func (j *JSONSerializer) Deserialize(data []byte) (map[string]float64, error) {
	var features map[string]float64
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, err
	}
	return features, nil
}

// NewStoreFeatureService 创建基于 Store 的特征服务
func NewStoreFeatureService(store core.Store, keyPrefix string) *StoreFeatureService {
	if keyPrefix == "" {
		keyPrefix = DefaultCustomerKeyPrefix
	}
	return &StoreFeatureService{
		store:      store,
		keyPrefix:  keyPrefix,
		serializer: &JSONSerializer{},
	}
}

// WithSerializer 设置序列化器
func (p *StoreFeatureService) WithSerializer(serializer FeatureSerializer) *StoreFeatureService {
	p.serializer = serializer
	return p
}

func (p *StoreFeatureService) Name() string {
	return fmt.Sprintf("store.%s", p.store.Name())
}

func (p *StoreFeatureService) key(customerID string) string {
	return p.keyPrefix + customerID
}

func (p *StoreFeatureService) GetCustomerFeatures(ctx context.Context, customerID string) (map[string]float64, error) {
	data, err := p.store.Get(ctx, p.key(customerID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrFeatureNotFound
		}
		return nil, err
	}
	return p.serializer.Deserialize(data)
}

// BatchGetCustomerFeatures 批量获取客户特征，不存在或无法解析的客户会被跳过
func (p *StoreFeatureService) BatchGetCustomerFeatures(ctx context.Context, customerIDs []string) (map[string]map[string]float64, error) {
	if len(customerIDs) == 0 {
		return make(map[string]map[string]float64), nil
	}

	keys := make([]string, len(customerIDs))
	keyToID := make(map[string]string, len(customerIDs))
	for i, id := range customerIDs {
		keys[i] = p.key(id)
		keyToID[keys[i]] = id
	}

	dataMap, err := p.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	result := make(map[string]map[string]float64, len(dataMap))
	for key, data := range dataMap {
		features, err := p.serializer.Deserialize(data)
		if err != nil {
			continue // 跳过反序列化失败的特征
		}
		result[keyToID[key]] = features
	}
	return result, nil
}

// Publish 批量发布客户 RFM 特征（训练流水线的 persist.online 阶段使用）
func (p *StoreFeatureService) Publish(ctx context.Context, records []core.RFMRecord, ttl ...int) error {
	if len(records) == 0 {
		return nil
	}
	kvs := make(map[string][]byte, len(records))
	for _, r := range records {
		data, err := p.serializer.Serialize(r.Features())
		if err != nil {
			return fmt.Errorf("serialize features of %s: %w", r.CustomerID, err)
		}
		kvs[p.key(r.CustomerID)] = data
	}
	return p.store.BatchSet(ctx, kvs, ttl...)
}

// Close 不关闭底层 Store，其生命周期由创建方管理
func (p *StoreFeatureService) Close(ctx context.Context) error {
	return nil
}
