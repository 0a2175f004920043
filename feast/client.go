package feast

import (
	"context"
	"time"
)

// Client 是 Feast Feature Store 在线读取的客户端接口。
//
// Feast 是一个开源的 Feature Store；风控打分只使用在线存储（Online Store），
// 按客户实体读取最新的 RFM 特征。
//
// 参考：https://github.com/feast-dev/feast
type Client interface {
	// GetOnlineFeatures 获取在线特征（用于实时预测）
	//
	// 参数：
	//   - features: 特征引用列表，例如 ["customer_rfm:recency", "customer_rfm:frequency"]
	//   - entityRows: 实体行，例如 [{"customer_id": "12346"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征引用列表，格式为 <feature_view>:<feature>
	Features []string

	// EntityRows 实体行
	EntityRows []map[string]any

	// Project 项目名称（可选，默认使用客户端的项目）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，每个元素对应一个实体行
	FeatureVectors []FeatureVector
}

// FeatureVector 特征向量
type FeatureVector struct {
	// Values 特征值，key 为特征引用，缺失或空值的特征不出现
	Values map[string]any

	// EntityRow 对应的实体行
	EntityRow map[string]any
}

// ClientOption Feast 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig Feast 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
	Auth     *AuthConfig
}

// AuthConfig 认证配置
type AuthConfig struct {
	// Type 认证类型：static（gRPC 静态 Token）
	Type string

	// Token 静态 Token
	Token string

	// EnableTLS 是否启用 TLS
	EnableTLS bool
}

// WithTimeout 配置选项：设置单次请求超时时间
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAuth 配置选项：设置认证信息
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = auth
	}
}
