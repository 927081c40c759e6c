package apperrors

import (
	"errors"
	"net/http"
)

// Kind 区分错误类别，供调用方和指标按类别处理
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindCapacity
	KindRender
	KindServiceUnavailable
	KindNotFound
	KindConflict
)

// AppError 自定义错误类型
type AppError struct {
	Kind    Kind
	Code    int
	Field   string // 参数校验错误时指出出错字段
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode 创建通用业务错误
func WithCode(code int, message string) *AppError {
	return &AppError{
		Kind:    KindUnknown,
		Code:    code,
		Message: message,
	}
}

// BusinessError 封装业务逻辑错误（通用）
func BusinessError(code int, message string) *AppError {
	return WithCode(code, message)
}

// ValidationError 参数校验错误，field 指出出错的字段
func ValidationError(field, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    http.StatusBadRequest,
		Field:   field,
		Message: message,
	}
}

// InvalidRequestError 封装参数校验错误
func InvalidRequestError(message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// InvalidRequestErrorDefault 默认参数校验错误
func InvalidRequestErrorDefault() *AppError {
	return InvalidRequestError("Parameter verification failed")
}

// CapacityError 内容超出二维码容量
func CapacityError(message string) *AppError {
	return &AppError{
		Kind:    KindCapacity,
		Code:    http.StatusRequestEntityTooLarge,
		Message: message,
	}
}

// RenderError 渲染链路失败
func RenderError(message string, cause error) *AppError {
	return &AppError{
		Kind:    KindRender,
		Code:    http.StatusInternalServerError,
		Message: message,
		Cause:   cause,
	}
}

// ServiceUnavailableError 熔断器打开时的快速失败错误
func ServiceUnavailableError(message string) *AppError {
	return &AppError{
		Kind:    KindServiceUnavailable,
		Code:    http.StatusServiceUnavailable,
		Message: message,
	}
}

// NotFoundError 资源不存在
func NotFoundError(message string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    http.StatusNotFound,
		Message: message,
	}
}

// ConflictError shortID 冲突等唯一性冲突
func ConflictError(message string) *AppError {
	return &AppError{
		Kind:    KindConflict,
		Code:    http.StatusConflict,
		Message: message,
	}
}

// SystemError 封装系统内部错误
func SystemError(message string) *AppError {
	return WithCode(http.StatusInternalServerError, message)
}

// SystemErrorDefault 默认系统内部错误
func SystemErrorDefault() *AppError {
	return WithCode(http.StatusInternalServerError, "System error")
}

// KindOf 提取错误类别，非 AppError 返回 KindUnknown
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}
