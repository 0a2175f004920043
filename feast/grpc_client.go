package feast

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/riskit/core"
)

// DefaultGRPCPort Feast Serving 默认 gRPC 端口
const DefaultGRPCPort = 6565

// GrpcClient 是基于官方 Feast Go SDK 的 gRPC 客户端实现。
//
// 使用场景：
//   - 在线打分时按客户 ID 读取 RFM 特征
type GrpcClient struct {
	// client 官方 SDK 的 gRPC 客户端
	client *feastsdk.GrpcClient

	// Project 项目名称
	Project string

	// Endpoint 服务端点（用于信息展示）
	Endpoint string

	timeout time.Duration
}

// NewGrpcClient 创建一个基于官方 SDK 的 Feast gRPC 客户端。
//
// 参数：
//   - host: Feast Serving 主机地址，例如 "localhost"
//   - port: gRPC 端口，0 表示默认 6565
//   - project: 项目名称
func NewGrpcClient(host string, port int, project string, opts ...ClientOption) (*GrpcClient, error) {
	if port == 0 {
		port = DefaultGRPCPort
	}

	config := &ClientConfig{
		Endpoint: fmt.Sprintf("%s:%d", host, port),
		Project:  project,
		Timeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(config)
	}

	var (
		client *feastsdk.GrpcClient
		err    error
	)
	if config.Auth != nil && config.Auth.Type == "static" && config.Auth.Token != "" {
		security := feastsdk.SecurityConfig{
			EnableTLS:  config.Auth.EnableTLS,
			Credential: feastsdk.NewStaticCredential(config.Auth.Token),
		}
		client, err = feastsdk.NewSecureGrpcClient(host, port, security)
	} else {
		client, err = feastsdk.NewGrpcClient(host, port)
	}
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleFeast, core.ErrorCodeUnavailable, err, "connect feast %s", config.Endpoint)
	}

	return &GrpcClient{
		client:   client,
		Project:  project,
		Endpoint: config.Endpoint,
		timeout:  config.Timeout,
	}, nil
}

// GetOnlineFeatures 获取在线特征（实现 Client 接口）
func (c *GrpcClient) GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	if len(req.Features) == 0 {
		return nil, core.InvalidInput(core.ModuleFeast, "features are required")
	}
	if len(req.EntityRows) == 0 {
		return nil, core.InvalidInput(core.ModuleFeast, "entity rows are required")
	}
	project := req.Project
	if project == "" {
		project = c.Project
	}
	if project == "" {
		return nil, core.InvalidInput(core.ModuleFeast, "project is required")
	}

	entityRows := make([]feastsdk.Row, len(req.EntityRows))
	for i, row := range req.EntityRows {
		entityRow := make(feastsdk.Row, len(row))
		for k, v := range row {
			entityRow[k] = toSDKValue(v)
		}
		entityRows[i] = entityRow
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	sdkResp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: req.Features,
		Entities: entityRows,
		Project:  project,
	})
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleFeast, core.ErrorCodeUnavailable, err, "feast get online features")
	}

	rows := sdkResp.Rows()
	if len(rows) != len(req.EntityRows) {
		return nil, fmt.Errorf("response row count mismatch: expected %d, got %d", len(req.EntityRows), len(rows))
	}

	vectors := make([]FeatureVector, len(rows))
	for i, row := range rows {
		values := make(map[string]any, len(req.Features))
		for _, name := range req.Features {
			if v := fromSDKValue(row[name]); v != nil {
				values[name] = v
			}
		}
		vectors[i] = FeatureVector{Values: values, EntityRow: req.EntityRows[i]}
	}
	return &GetOnlineFeaturesResponse{FeatureVectors: vectors}, nil
}

// Close 关闭客户端连接（实现 Client 接口）
func (c *GrpcClient) Close() error {
	// SDK 的连接由 gRPC 库管理，这里只释放引用
	c.client = nil
	return nil
}

// toSDKValue 将实体值转换为 SDK 的 *types.Value
func toSDKValue(v any) *types.Value {
	switch val := v.(type) {
	case string:
		return feastsdk.StrVal(val)
	case int:
		return feastsdk.Int64Val(int64(val))
	case int64:
		return feastsdk.Int64Val(val)
	case int32:
		return feastsdk.Int64Val(int64(val))
	case float64:
		return feastsdk.DoubleVal(val)
	case float32:
		return feastsdk.FloatVal(val)
	case bool:
		return feastsdk.BoolVal(val)
	case []byte:
		return feastsdk.BytesVal(val)
	default:
		return feastsdk.StrVal(fmt.Sprintf("%v", val))
	}
}

// fromSDKValue 从 SDK 值中取出 Go 值；数值统一为 float64，空值返回 nil
func fromSDKValue(v *types.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.GetVal().(type) {
	case *types.Value_DoubleVal:
		return val.DoubleVal
	case *types.Value_FloatVal:
		return float64(val.FloatVal)
	case *types.Value_Int64Val:
		return float64(val.Int64Val)
	case *types.Value_Int32Val:
		return float64(val.Int32Val)
	case *types.Value_BoolVal:
		if val.BoolVal {
			return 1.0
		}
		return 0.0
	case *types.Value_StringVal:
		return val.StringVal
	case *types.Value_BytesVal:
		return string(val.BytesVal)
	default:
		return nil
	}
}

// 确保 GrpcClient 实现了 Client 接口
var _ Client = (*GrpcClient)(nil)
