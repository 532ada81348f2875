package contract

import "context"

// HTTPRequest: 传输协作者的入参。
// Secrets 中列出的值必须在两个调试串中脱敏；调试串永不含凭证明文。
type HTTPRequest struct {
	Method  string
	URL     string
	Header  map[string]string
	Body    []byte
	Secrets []string
	// DryRun: 不触网；仅构造调试串返回（Status=0，Body=nil）。
	DryRun  bool
	Verbose bool
}

// HTTPResult: 状态、响应头/体与已脱敏的调试串。
type HTTPResult struct {
	Status        int
	Header        map[string]string
	Body          []byte
	DebugRequest  string
	DebugResponse string
}

// HTTPClient: 同步传输协作者。
// 仅网络层失败返回 error；HTTP 状态不在此层判定。
// 超时/取消经由 ctx 由调用方掌控。
type HTTPClient interface {
	Do(ctx context.Context, req HTTPRequest) (HTTPResult, error)
}
