package contract

import "errors"

// 最小错误分类（哨兵；上层仅用 errors.Is 判定，不做字符串匹配）。
// 全部终态：本层不重试。
var (
	// ErrConfig: 未知模型/厂商、缺失必填变量等配置问题（I/O 前失败）。
	ErrConfig = errors.New("configuration invalid")
	// ErrAuth: 凭证缺失（I/O 前失败）。
	ErrAuth = errors.New("credential missing")
	// ErrValidation: 前/后置语法或 schema 校验失败；绝不落下半套翻译。
	ErrValidation = errors.New("validation failed")
	// ErrTransport: 网络失败或未被接管的 HTTP 状态。
	ErrTransport = errors.New("transport failed")
	// ErrResponseInvalid: 厂商载荷畸形（content 缺失/非字符串等）。
	ErrResponseInvalid = errors.New("response invalid")
	// ErrTruncated: 厂商截断信号；快速失败，不做部分恢复。
	ErrTruncated = errors.New("response truncated")
	// ErrMarkersNotFound: 回显缺失哨兵标记；绝不当作裸文本静默返回。
	ErrMarkersNotFound = errors.New("markers not found")
	// ErrVendor: 厂商结构化错误包络（message 保留在包装串中）。
	ErrVendor = errors.New("vendor error")
	// ErrTemplateNotFound / ErrFormatNotFound: 提示词目录查找失败。
	ErrTemplateNotFound = errors.New("template not found")
	ErrFormatNotFound   = errors.New("format not found")
)
