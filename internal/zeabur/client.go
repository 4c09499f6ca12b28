// Package zeabur 是 Zeabur 控制面的最小客户端：GraphQL 接口和代码上传接口
package zeabur

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client Zeabur API 客户端
type Client struct {
	graphqlEndpoint string
	uploadEndpoint  string
	token           string
	timeout         time.Duration
	httpClient      *http.Client
}

// Option 自定义客户端
type Option func(*Client)

// WithHTTPClient 替换默认的 HTTP 客户端
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithToken 设置 API Token，临时项目可以不设
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout 设置请求超时，0 表示不限制
// 与 WithHTTPClient 同时使用时作用在客户端的副本上，不修改调用方的 http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New 创建客户端
func New(graphqlEndpoint, uploadEndpoint string, opts ...Option) (*Client, error) {
	gql, err := normalizeURL(graphqlEndpoint)
	if err != nil {
		return nil, fmt.Errorf("无效的 GraphQL 地址: %w", err)
	}
	upload, err := normalizeURL(uploadEndpoint)
	if err != nil {
		return nil, fmt.Errorf("无效的上传地址: %w", err)
	}
	c := &Client{
		graphqlEndpoint: gql,
		uploadEndpoint:  upload,
		httpClient:      &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		h := *c.httpClient
		h.Timeout = c.timeout
		c.httpClient = &h
	}
	return c, nil
}

func normalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("地址为空")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("不支持的协议: %q", u.Scheme)
	}
	return strings.TrimRight(trimmed, "/"), nil
}

// graphqlRequest GraphQL 请求体
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse GraphQL 响应外层
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// query 发送 GraphQL 请求并把 data 解码到 v
func (c *Client) query(ctx context.Context, operation, query string, variables map[string]any, v any) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("编码 %s 请求失败: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("创建 %s 请求失败: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, operation)
	if err != nil {
		return err
	}

	var resp graphqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &DecodeError{Operation: operation, Err: err}
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return &GraphQLError{Operation: operation, Messages: msgs}
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return &DecodeError{Operation: operation, Err: fmt.Errorf("响应缺少 data 字段")}
	}
	if err := json.Unmarshal(resp.Data, v); err != nil {
		return &DecodeError{Operation: operation, Err: err}
	}
	return nil
}

// do 发送请求，状态码 >= 400 时返回 APIError
func (c *Client) do(req *http.Request, operation string) ([]byte, error) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s 请求失败: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 响应失败: %w", operation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Operation: operation, Status: resp.StatusCode, Message: extractError(body)}
	}
	return body, nil
}

func extractError(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if payload.Error != "" {
		return strings.TrimSpace(payload.Error)
	}
	return strings.TrimSpace(payload.Message)
}

// UploadCode 以 multipart 表单上传代码包
// 只检查 HTTP 状态码，不解析响应体；上传被接受之后的构建失败不会在这里体现
func (c *Client) UploadCode(ctx context.Context, projectID, serviceID, environmentID string, code io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("environment", environmentID); err != nil {
		return fmt.Errorf("构造上传表单失败: %w", err)
	}
	part, err := mw.CreateFormFile("code", "code.zip")
	if err != nil {
		return fmt.Errorf("构造上传表单失败: %w", err)
	}
	if _, err := io.Copy(part, code); err != nil {
		return fmt.Errorf("读取代码包失败: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("构造上传表单失败: %w", err)
	}

	endpoint := fmt.Sprintf("%s/projects/%s/services/%s/deploy",
		c.uploadEndpoint, url.PathEscape(projectID), url.PathEscape(serviceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("创建上传请求失败: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, err = c.do(req, "uploadCode")
	return err
}
