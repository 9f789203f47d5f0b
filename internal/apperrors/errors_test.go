package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/bop/internal/protocol"
)

func TestGameError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "金币不足", ErrInsufficientMoney.Error())
	assert.Equal(t, protocol.ErrCodeBidTooLow, ErrBidTooLow.Code)

	wrapped := fmt.Errorf("bid: %w", ErrInvalidSlot)
	var ge *GameError
	assert.True(t, errors.As(wrapped, &ge))
	assert.Same(t, ErrInvalidSlot, ge)
}

func TestDesyncError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("apply: %w", &DesyncError{Expected: 3, Got: 5})

	var desync *DesyncError
	assert.True(t, errors.As(err, &desync))
	assert.Equal(t, 3, desync.Expected)
	assert.Equal(t, 5, desync.Got)
	assert.Equal(t, protocol.ErrCodeDesync, desync.Code())
	assert.Contains(t, err.Error(), "expected 3, got 5")
}
