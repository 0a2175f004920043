package core

import "context"

// FeatureService 是在线特征服务的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（feature、feast）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景：
//   - 在线打分：按客户 ID 获取最新的 RFM 特征，再走同一套 WOE 变换
//
// 实现：
//   - feature.StoreFeatureService 基于 Store（Redis / 内存 / SQLite）
//   - feast.FeatureService 基于 Feast Online Store
type FeatureService interface {
	// Name 返回特征服务名称（用于日志/监控）
	Name() string

	// GetCustomerFeatures 获取单个客户的特征
	GetCustomerFeatures(ctx context.Context, customerID string) (map[string]float64, error)

	// Close 关闭特征服务，释放资源
	Close(ctx context.Context) error
}

// ErrFeatureNotFound 表示客户特征不存在
var ErrFeatureNotFound = NewDomainError(ModuleFeature, ErrorCodeNotFound, "feature: customer features not found")
