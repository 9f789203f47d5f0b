package apperrors

import (
	"fmt"

	"github.com/palemoky/bop/internal/protocol"
)

// GameError 本地操作错误，仅在本端提示，不会发送给对端
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrWrongPhase        = &GameError{Code: protocol.ErrCodeWrongPhase, Message: protocol.ErrorMessages[protocol.ErrCodeWrongPhase]}
	ErrNotYourTurn       = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: protocol.ErrorMessages[protocol.ErrCodeNotYourTurn]}
	ErrInsufficientMoney = &GameError{Code: protocol.ErrCodeInsufficientMoney, Message: protocol.ErrorMessages[protocol.ErrCodeInsufficientMoney]}
	ErrBidTooLow         = &GameError{Code: protocol.ErrCodeBidTooLow, Message: protocol.ErrorMessages[protocol.ErrCodeBidTooLow]}
	ErrInvalidSlot       = &GameError{Code: protocol.ErrCodeInvalidSlot, Message: protocol.ErrorMessages[protocol.ErrCodeInvalidSlot]}
	ErrInvalidItem       = &GameError{Code: protocol.ErrCodeInvalidItem, Message: protocol.ErrorMessages[protocol.ErrCodeInvalidItem]}
	ErrGameOver          = &GameError{Code: protocol.ErrCodeGameOver, Message: protocol.ErrorMessages[protocol.ErrCodeGameOver]}
	ErrInvalidTarget     = &GameError{Code: protocol.ErrCodeInvalidTarget, Message: protocol.ErrorMessages[protocol.ErrCodeInvalidTarget]}
)

// DesyncError 序号不连续，双方历史已分叉，对局无法继续
type DesyncError struct {
	Expected int
	Got      int
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("message seq no does not match: expected %d, got %d", e.Expected, e.Got)
}

// Code 对应的错误码
func (e *DesyncError) Code() int {
	return protocol.ErrCodeDesync
}
