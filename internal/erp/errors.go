package erp

import "errors"

// =============================================================================
// ERP API错误模型
// 在HTTP边界一次性分类，下游按Kind分支，不做字符串匹配
// =============================================================================

// Kind 错误类别
type Kind int

const (
	KindServer Kind = iota // 服务器错误（5xx或未知）
	KindNetwork            // 网络错误（连接失败、超时）
	KindNotFound           // 资源不存在（404）
	KindValidation         // 校验失败（422）
	KindRollback           // 批量操作服务端整体回滚（200带错误详情）
)

// Error ERP API错误
type Error struct {
	Kind        Kind
	Status      int    // HTTP状态码，网络错误时为0
	Message     string // 技术性错误消息
	UserMessage string // 用于直接展示的用户消息
	Details     []string
	cause       error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.UserMessage
}

func (e *Error) Unwrap() error {
	return e.cause
}

// DisplayMessage 返回优先展示的消息：userMessage > message
func (e *Error) DisplayMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

// AsError 提取类型化的ERP错误
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Kind == kind
	}
	return false
}

func kindForStatus(status int) Kind {
	switch {
	case status == 404:
		return KindNotFound
	case status == 422:
		return KindValidation
	default:
		return KindServer
	}
}
