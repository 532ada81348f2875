package contract

// Request: 驱动构造的线上请求（凭证未注入；注入由编排层完成）。
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
	// Form: Body 为 application/x-www-form-urlencoded（field 型驱动）。
	// 编排层据此决定 form 位凭证的追加方式。
	Form bool
}

// Response: 驱动从线上响应中抽取的结果。
// Usage 为厂商原始用量载荷（未归一化前不定型）；可为 nil。
type Response struct {
	Text  string
	Usage map[string]any
}

// Driver: 厂商驱动能力集。实现按厂商标签经注册表解析。
// 约束：
//   - BuildRequest 在任何网络活动前对配置/变量缺失快速失败（ErrConfig）；
//   - ParseResponse 全部错误终态，不在本层重试；
//   - 实现每次调用新建，允许在 Build/Parse 间携带私有状态。
type Driver interface {
	BuildRequest(cfg ModelConfig, prepared string, opts CallOptions) (Request, error)
	ParseResponse(cfg ModelConfig, rawBody []byte) (Response, error)
}
