package sdk

import (
	"errors"
	"fmt"
)

// ErrNotInitialized SDK 尚未初始化
var ErrNotInitialized = errors.New("sdk: not initialized")

// Error SDK 返回的非零结果码
type Error struct {
	Op   string
	Code uint32
}

func (e *Error) Error() string {
	var cat string
	switch {
	case e.connectionFailed():
		cat = "connection failed"
	case e.outOfMemory():
		cat = "out of memory"
	default:
		cat = "sdk error"
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: 0x%X", cat, e.Code)
	}
	return fmt.Sprintf("%s: %s: 0x%X", e.Op, cat, e.Code)
}

func (e *Error) connectionFailed() bool { return e.Code >= 0x8200 && e.Code <= 0x82FF }
func (e *Error) outOfMemory() bool      { return e.Code >= 0x8300 && e.Code <= 0x83FF }

// CheckResult 将 SDK 结果码转换为 error，0 表示成功
func CheckResult(op string, code uint32) error {
	if code == 0 {
		return nil
	}
	return &Error{Op: op, Code: code}
}

// IsConnectionFailed 是否为连接类错误 (0x8200-0x82FF)
func IsConnectionFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.connectionFailed()
}

// IsOutOfMemory 是否为内存分配失败 (0x8300-0x83FF)
func IsOutOfMemory(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.outOfMemory()
}
