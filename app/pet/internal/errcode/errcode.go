// Package errcode 定义宠物引擎对调用方暴露的业务错误码
// 调用方通过 Is / CodeOf 判断错误种类，不依赖错误文本
package errcode

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Code 业务错误码
type Code string

const (
	NotFound             Code = "NOT_FOUND"
	AlreadyOwned         Code = "ALREADY_OWNED"
	AlreadyTamed         Code = "ALREADY_TAMED"
	NotMountEligible     Code = "NOT_MOUNT_ELIGIBLE"
	LevelTooLow          Code = "LEVEL_TOO_LOW"
	InsufficientResource Code = "INSUFFICIENT_RESOURCE"
	NotTamed             Code = "NOT_TAMED"
	NoneEquipped         Code = "NONE_EQUIPPED"
	InvalidArgument      Code = "INVALID_ARGUMENT"
)

// Error 业务错误
// Material / Required 仅在 INSUFFICIENT_RESOURCE 时有值
type Error struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Material string `json:"material,omitempty"`
	Required int64  `json:"required,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is 让 errors.Is(err, &Error{Code: X}) 按错误码匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New 创建业务错误
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NewNotFound(format string, args ...any) *Error {
	return New(NotFound, format, args...)
}

func NewAlreadyOwned(userID int64, creatureID int32) *Error {
	return New(AlreadyOwned, "user %d already owns creature %d", userID, creatureID)
}

func NewAlreadyTamed(ownershipID int64) *Error {
	return New(AlreadyTamed, "ownership %d is already tamed", ownershipID)
}

func NewNotMountEligible(creatureID int32) *Error {
	return New(NotMountEligible, "creature %d cannot be tamed as a mount", creatureID)
}

func NewLevelTooLow(level, required int32) *Error {
	return New(LevelTooLow, "level %d is below the required level %d", level, required)
}

func NewInsufficientResource(material string, required int64) *Error {
	return &Error{
		Code:     InsufficientResource,
		Message:  fmt.Sprintf("requires %d x %s", required, material),
		Material: material,
		Required: required,
	}
}

func NewNotTamed(ownershipID int64) *Error {
	return New(NotTamed, "ownership %d is not tamed", ownershipID)
}

func NewNoneEquipped(userID int64) *Error {
	return New(NoneEquipped, "user %d has nothing equipped", userID)
}

func NewInvalidArgument(format string, args ...any) *Error {
	return New(InvalidArgument, format, args...)
}

// Is 判断 err 链上是否存在指定错误码的业务错误
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf 返回 err 链上第一个业务错误的错误码，不是业务错误时返回空串
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsBusiness 判断是否为业务错误（调用方可恢复），否则视为基础设施错误
func IsBusiness(err error) bool {
	return CodeOf(err) != ""
}

// As 取出业务错误
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
