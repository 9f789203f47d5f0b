package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/bop/internal/apperrors"
	"github.com/palemoky/bop/internal/game/item"
)

func TestCheckBid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		money  int
		slot   int
		amount int
		want   error
	}{
		{"minimum on open slot", 5, 0, 1, nil},
		{"above minimum on live slot", 5, 1, 5, nil},
		{"below minimum on live slot", 5, 1, 4, apperrors.ErrBidTooLow},
		{"more than money", 5, 0, 6, apperrors.ErrInsufficientMoney},
		{"invalid slot", 5, 3, 1, apperrors.ErrInvalidSlot},
		{"broke all-in on open slot", 0, 2, 0, nil},
		{"broke cannot undercut live bid", 0, 1, 0, apperrors.ErrBidTooLow},
		{"all-in needs every coin", 1, 0, 0, apperrors.ErrBidTooLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newStarted(t)
			bid(t, s, 0, 1, 3)
			s.Players[1].Status.Money = tt.money

			err := s.CheckBid(1, tt.slot, tt.amount)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAllInSlots(t *testing.T) {
	t.Parallel()

	s := newStarted(t)
	bid(t, s, 0, 1, 3)

	assert.Nil(t, s.AllInSlots(1), "can still afford an open slot")

	s.Players[1].Status.Money = 0
	assert.Equal(t, []int{0, 2}, s.AllInSlots(1))

	// 每个位置都有人出价时全部开放
	s.OnOffer = item.FromKinds([]item.Kind{item.Dagger, item.Cure})
	bid(t, s, 0, 0, 2)
	assert.Equal(t, []int{0, 1}, s.AllInSlots(1))
}
