package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// Client ERP后端基础客户端
// 提供带令牌的通用HTTP请求和响应信封解包，供各资源子模块共用
// 每次调用单次尝试，不重试、不缓存、不去重
// =============================================================================

const defaultUserAgent = "lapesquerapp-ops/1.0"

// Client ERP后端客户端
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 创建ERP客户端实例
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// listEnvelope 列表响应信封 {data, links, meta}
type listEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Links *Links          `json:"links"`
	Meta  *Meta           `json:"meta"`
}

// singleEnvelope 单记录响应信封 {data}
type singleEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// errorBody 错误响应体
type errorBody struct {
	Message     string   `json:"message"`
	UserMessage string   `json:"userMessage"`
	Errors      []string `json:"errors"`
}

// Links 分页链接
type Links struct {
	First string `json:"first"`
	Last  string `json:"last"`
	Prev  string `json:"prev"`
	Next  string `json:"next"`
}

// Meta 分页元数据
type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// do 执行ERP API请求
// token会作为Bearer认证头附带，body会被JSON序列化（nil则不发送）
// 非2xx状态码转换为*Error，消息优先取服务端userMessage，否则用fallback
func (c *Client) do(ctx context.Context, token, method, path string, body interface{}, fallback string) (int, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &Error{
			Kind:        KindNetwork,
			Message:     err.Error(),
			UserMessage: fallback,
			cause:       err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &Error{
			Kind:        KindNetwork,
			Message:     err.Error(),
			UserMessage: fallback,
			cause:       err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, respBody, c.errorFromResponse(resp.StatusCode, respBody, path, fallback)
	}

	return resp.StatusCode, respBody, nil
}

// errorFromResponse 将非成功响应转换为类型化错误
func (c *Client) errorFromResponse(status int, body []byte, path, fallback string) *Error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	userMsg := eb.UserMessage
	if userMsg == "" {
		userMsg = fallback
	}
	msg := eb.Message
	if msg == "" {
		msg = fmt.Sprintf("ERP API error %d (path=%s)", status, path)
	}

	if c.logger != nil {
		c.logger.Warn("ERP request failed",
			zap.Int("status", status),
			zap.String("path", path),
			zap.String("message", msg),
		)
	}

	return &Error{
		Kind:        kindForStatus(status),
		Status:      status,
		Message:     msg,
		UserMessage: userMsg,
		Details:     eb.Errors,
	}
}

// getList 执行列表查询并解包 {data:[...]}
func (c *Client) getList(ctx context.Context, token, path string, query url.Values, out interface{}, fallback string) (*Meta, error) {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	_, body, err := c.do(ctx, token, http.MethodGet, path, nil, fallback)
	if err != nil {
		return nil, err
	}

	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode list envelope: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return nil, fmt.Errorf("decode list data: %w", err)
	}
	return env.Meta, nil
}

// getOne 执行单记录查询并解包 {data:{...}}
func (c *Client) getOne(ctx context.Context, token, path string, out interface{}, fallback string) error {
	_, body, err := c.do(ctx, token, http.MethodGet, path, nil, fallback)
	if err != nil {
		return err
	}
	return unwrapSingle(body, out)
}

// send 执行写操作，可选解包返回记录
func (c *Client) send(ctx context.Context, token, method, path string, payload, out interface{}, fallback string) error {
	_, body, err := c.do(ctx, token, method, path, payload, fallback)
	if err != nil {
		return err
	}
	if out != nil {
		return unwrapSingle(body, out)
	}
	return nil
}

func unwrapSingle(body []byte, out interface{}) error {
	var env singleEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Data) == 0 {
		// 部分删除接口只返回确认消息，没有data
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
