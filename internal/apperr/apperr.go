// Package apperr 定义引擎内的错误分类：校验、未找到、数据源暂时不可用、消息投递失败
package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	// KindValidation 用户输入不合法，不可重试，原样展示给提交者
	KindValidation Kind = iota + 1
	// KindNotFound 比赛/频道/成员不存在
	KindNotFound
	// KindTransientSource 数据源不可达或响应异常，下一周期自动重试
	KindTransientSource
	// KindDelivery 公告/结果消息发送失败
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransientSource:
		return "transient_source"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// 校验错误码
const (
	CodeBadFormat       = "BadFormat"
	CodeExceedsFormat   = "ExceedsFormat"
	CodeImpossibleTie   = "ImpossibleTie"
	CodeNoWinner        = "NoWinner"
	CodeDeadlinePassed  = "DeadlinePassed"
	CodeAlreadySettled  = "AlreadySettled"
	CodeInvalidArgument = "InvalidArgument"
)

// 未找到错误码
const (
	CodeMatchNotOpen = "MatchNotOpen"
)

// Error 引擎统一错误类型
type Error struct {
	Kind    Kind
	Code    string
	Message string // 面向用户的提示
	Err     error  // 底层错误
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 按 Kind+Code 比较，便于 errors.Is(err, apperr.Validation(CodeNoWinner, ""))
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
}

// Validation 创建校验错误
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NotFound 创建未找到错误
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// TransientSource 包装数据源错误
func TransientSource(message string, err error) *Error {
	return &Error{Kind: KindTransientSource, Message: message, Err: err}
}

// Delivery 包装消息投递错误
func Delivery(message string, err error) *Error {
	return &Error{Kind: KindDelivery, Message: message, Err: err}
}

// KindOf 取出错误链中的 Kind
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// CodeOf 取出错误链中的错误码
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsKind 判断错误是否属于某类别
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// UserMessage 返回可直接展示给用户的提示；非用户类错误返回通用提示
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && (e.Kind == KindValidation || e.Kind == KindNotFound) {
		return e.Message
	}
	return "系統暫時無法處理，請稍後再試"
}
