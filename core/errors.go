package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - Feature 错误：INVALID_INPUT, NOT_FITTED, BINNING_DEGENERATE, UNSEEN_CATEGORY
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Service 错误：UNAVAILABLE
type DomainError struct {
	Code    string // 错误代码（如 "INVALID_INPUT", "NOT_FITTED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "feature", "store", "rfm"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层错误的领域错误
func WrapDomainError(module, code string, err error, format string, args ...any) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// InvalidInput 是 ErrorCodeInvalidInput 的快捷构造
func InvalidInput(module, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效：空数据、非二值 target、行数不一致
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 特征工程错误代码
	ErrorCodeNotFitted         = "NOT_FITTED"         // Transform 早于 Fit
	ErrorCodeBinningDegenerate = "BINNING_DEGENERATE" // 分位数切分无法产生不同的边界（本地降级，不向上抛出）
	ErrorCodeUnseenCategory    = "UNSEEN_CATEGORY"    // Transform 时遇到训练时未出现的分箱/类别（本地降级为缺失值）
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleFeature  = "feature"  // 特征模块
	ModuleRFM      = "rfm"      // RFM 聚合模块
	ModuleModel    = "model"    // 模型模块
	ModuleService  = "service"  // 服务模块
	ModulePipeline = "pipeline" // 训练流水线模块
	ModuleFeast    = "feast"    // Feast 特征存储模块
	ModuleConfig   = "config"   // 配置模块
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsNotFitted 检查错误是否为 NOT_FITTED
func IsNotFitted(err error) bool { return hasCode(err, ErrorCodeNotFitted) }

// IsBinningDegenerate 检查错误是否为 BINNING_DEGENERATE
func IsBinningDegenerate(err error) bool { return hasCode(err, ErrorCodeBinningDegenerate) }
