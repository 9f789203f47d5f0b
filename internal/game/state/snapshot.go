package state

import (
	"slices"

	"github.com/palemoky/bop/internal/game/item"
	"github.com/palemoky/bop/internal/game/status"
)

// PlayerView 单名玩家的只读视图
type PlayerView struct {
	Name      string
	Approved  bool
	Inventory []item.Item
	Status    status.Attributes
}

// OfferView 展示区某个位置的只读视图
type OfferView struct {
	Item       item.Item
	CurrentBid int
	Bidder     int // -1 表示无人出价
	MinimumBid int
}

// Snapshot 供界面轮询的只读快照
type Snapshot struct {
	Phase          PhaseType
	Turn           int
	OwnIndex       int
	InputGuard     bool
	ConsumedSeqNo  int
	Players        []PlayerView
	Offer          []OfferView
	ScheduledCount int
	Initiatives    []int
	Log            []string
	GameOver       bool
	Winner         int
}

// Snapshot 生成快照，logLimit 为保留的最近日志条数
func (s *SharedState) Snapshot(logLimit int) Snapshot {
	snap := Snapshot{
		Phase:          s.Phase,
		Turn:           s.Turn,
		OwnIndex:       s.OwnIndex,
		InputGuard:     s.InputGuard,
		ConsumedSeqNo:  s.ConsumedSeqNo,
		ScheduledCount: len(s.Scheduled),
		Initiatives:    slices.Clone(s.Initiatives),
		GameOver:       s.Phase == GameEnd,
		Winner:         -1,
	}
	for _, p := range s.Players {
		snap.Players = append(snap.Players, PlayerView{
			Name:      p.Name,
			Approved:  p.GameStartApproved,
			Inventory: slices.Clone(p.Inventory),
			Status:    p.Status,
		})
	}
	mins := s.MinimumBids()
	for slot, it := range s.OnOffer {
		snap.Offer = append(snap.Offer, OfferView{
			Item:       it,
			CurrentBid: s.CurrentBid(slot),
			Bidder:     s.CurrentBidder(slot),
			MinimumBid: mins[slot],
		})
	}
	if snap.GameOver {
		snap.Winner, _ = s.Winner()
	}

	names := s.Names()
	start := 0
	if logLimit > 0 && len(s.Log) > logLimit {
		start = len(s.Log) - logLimit
	}
	for _, e := range s.Log[start:] {
		snap.Log = append(snap.Log, e.Format(names))
	}
	return snap
}
