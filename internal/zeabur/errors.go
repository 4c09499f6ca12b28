package zeabur

import (
	"fmt"
	"strings"
)

// APIError 接口返回了非 2xx 状态码
type APIError struct {
	Operation string
	Status    int
	Message   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s 失败: HTTP %d", e.Operation, e.Status)
	}
	return fmt.Sprintf("%s 失败: HTTP %d: %s", e.Operation, e.Status, e.Message)
}

// GraphQLError 响应中带有 errors 数组
type GraphQLError struct {
	Operation string
	Messages  []string
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("%s 失败: %s", e.Operation, strings.Join(e.Messages, "; "))
}

// DecodeError 响应无法按预期结构解析，与网络错误区分开
type DecodeError struct {
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("解析 %s 响应失败: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
