package vm

import (
	"errors"
	"fmt"
)

// ErrorKind 失败类型，每个失败的请求恰好对应一种
type ErrorKind string

const (
	KindUnauthorized              ErrorKind = "Unauthorized"
	KindVaultLocked               ErrorKind = "VaultLocked"
	KindInsufficientVaultBalance  ErrorKind = "InsufficientVaultBalance"
	KindInsufficientCallerBalance ErrorKind = "InsufficientCallerBalance"
	KindOverflow                  ErrorKind = "Overflow"
	KindInvalidAmount             ErrorKind = "InvalidAmount"
	KindInvalidIdentity           ErrorKind = "InvalidIdentity"
	KindInvalidNonce              ErrorKind = "InvalidNonce"
	KindVaultNotFound             ErrorKind = "VaultNotFound"
	KindUnknown                   ErrorKind = "UnknownKind"
	KindInternal                  ErrorKind = "Internal"
)

// Error 带类型的执行错误
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按 Kind 匹配，errors.Is(err, ErrVaultLocked) 对任意 VaultLocked 错误成立
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthorized              = &Error{Kind: KindUnauthorized}
	ErrVaultLocked               = &Error{Kind: KindVaultLocked}
	ErrInsufficientVaultBalance  = &Error{Kind: KindInsufficientVaultBalance}
	ErrInsufficientCallerBalance = &Error{Kind: KindInsufficientCallerBalance}
	ErrAmountOverflow            = &Error{Kind: KindOverflow}
	ErrInvalidAmount             = &Error{Kind: KindInvalidAmount}
	ErrInvalidIdentity           = &Error{Kind: KindInvalidIdentity}
	ErrInvalidNonce              = &Error{Kind: KindInvalidNonce}
	ErrVaultNotFound             = &Error{Kind: KindVaultNotFound}
	ErrUnknownKind               = &Error{Kind: KindUnknown}
	ErrInternal                  = &Error{Kind: KindInternal}
)

var (
	ErrNilRequest      = errors.New("nil request")
	ErrInvalidSnapshot = errors.New("invalid snapshot index")
)

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 取出错误类型，非 *Error 一律视为 Internal
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// asError 把任意错误收敛成 *Error
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return wrapError(KindInternal, err, "internal failure")
}
