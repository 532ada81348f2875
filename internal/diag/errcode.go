package diag

import (
	"context"
	"errors"
	"net"

	"doctrans/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/退出码汇总，与具体错误文本解耦。
type Code string

const (
	CodeUnknown    Code = "unknown"
	CodeConfig     Code = "config"
	CodeAuth       Code = "auth"
	CodeValidation Code = "validation"
	CodeTransport  Code = "transport"
	CodeProtocol   Code = "protocol"
	CodeCancel     Code = "cancel"
)

// Classify 将错误归为最小分类。
// 说明：仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, contract.ErrConfig) ||
		errors.Is(err, contract.ErrTemplateNotFound) ||
		errors.Is(err, contract.ErrFormatNotFound) {
		return CodeConfig
	}
	if errors.Is(err, contract.ErrAuth) {
		return CodeAuth
	}
	if errors.Is(err, contract.ErrValidation) {
		return CodeValidation
	}
	// 协议/响应
	if errors.Is(err, contract.ErrResponseInvalid) ||
		errors.Is(err, contract.ErrTruncated) ||
		errors.Is(err, contract.ErrMarkersNotFound) ||
		errors.Is(err, contract.ErrVendor) {
		return CodeProtocol
	}
	if errors.Is(err, contract.ErrTransport) {
		return CodeTransport
	}
	// 网络（连接/超时等）
	var nerr net.Error
	if errors.As(err, &nerr) {
		return CodeTransport
	}
	return CodeUnknown
}
