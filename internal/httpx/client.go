package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"doctrans/pkg/contract"
)

// 响应体读取上限；厂商响应不应超过此规模。
const maxBodyBytes = 4 << 20

// Client: 同步 HTTP 传输协作者。
// 仅网络层失败返回 error；HTTP 状态原样带回由编排层判定。
// 调试串在构造时即脱敏，凭证明文不离开本层。
type Client struct {
	hc *http.Client
}

// New 构造客户端；proxy 为空时走环境代理。
func New(timeout time.Duration, proxy string) (*Client, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if strings.TrimSpace(proxy) != "" {
		pu, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("httpx: %w: proxy url: %v", contract.ErrConfig, err)
		}
		tr.Proxy = http.ProxyURL(pu)
	}
	return &Client{hc: &http.Client{Timeout: timeout, Transport: tr}}, nil
}

// Do 执行一次请求。DryRun 不触网：仅返回已脱敏的请求调试串。
func (c *Client) Do(ctx context.Context, req contract.HTTPRequest) (contract.HTTPResult, error) {
	debugReq := redact(formatRequest(req), req.Secrets)
	if req.DryRun {
		return contract.HTTPResult{Status: 0, DebugRequest: debugReq}, nil
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return contract.HTTPResult{DebugRequest: debugReq}, fmt.Errorf("httpx: new request: %w", err)
	}
	for k, v := range req.Header {
		if k == "" {
			continue
		}
		hreq.Header.Set(k, v)
	}

	resp, err := c.hc.Do(hreq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return contract.HTTPResult{DebugRequest: debugReq}, ctx.Err()
		}
		return contract.HTTPResult{DebugRequest: debugReq}, err
	}
	defer resp.Body.Close()

	body, rerr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if rerr != nil {
		return contract.HTTPResult{Status: resp.StatusCode, DebugRequest: debugReq}, rerr
	}

	header := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		header[k] = resp.Header.Get(k)
	}
	debugResp := redact(formatResponse(resp.StatusCode, header, body), req.Secrets)
	return contract.HTTPResult{
		Status:        resp.StatusCode,
		Header:        header,
		Body:          body,
		DebugRequest:  debugReq,
		DebugResponse: debugResp,
	}, nil
}

// redact 将 secrets 中的每个值替换为占位；空串忽略。
func redact(s string, secrets []string) string {
	for _, sec := range secrets {
		if sec == "" {
			continue
		}
		s = strings.ReplaceAll(s, sec, "***")
	}
	return s
}

func formatRequest(req contract.HTTPRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", req.Method, req.URL)
	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, req.Header[k])
	}
	sb.WriteString("\n")
	sb.Write(previewBytes(req.Body))
	return sb.String()
}

func formatResponse(status int, header map[string]string, body []byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "HTTP %d\n", status)
	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, header[k])
	}
	sb.WriteString("\n")
	sb.Write(previewBytes(body))
	return sb.String()
}

// previewBytes 截断调试预览，避免超大载荷撑爆日志。
func previewBytes(b []byte) []byte {
	const limit = 2048
	if len(b) <= limit {
		return b
	}
	out := make([]byte, limit, limit+16)
	copy(out, b[:limit])
	return append(out, []byte("...(truncated)")...)
}

var _ contract.HTTPClient = (*Client)(nil)
