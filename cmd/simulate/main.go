// simulate 无界面地让两名电脑玩家对战，用于检验完整的对局流程
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/palemoky/bop/internal/config"
	"github.com/palemoky/bop/internal/game/cpu"
	"github.com/palemoky/bop/internal/game/item"
	"github.com/palemoky/bop/internal/session"
)

const maxSteps = 2000

var errStalled = errors.New("simulate: no actor required but game not over")

type result struct {
	winner int
	turns  int
	seq    int
	took   time.Duration
}

func main() {
	games := flag.Int("games", 10, "对局数")
	rollouts := flag.Int("rollouts", 0, "每步模拟局数，0 使用配置值")
	seed := flag.Uint64("seed", 0, "随机种子，0 按时间取种子")
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
	}
	if *rollouts > 0 {
		cfg.CPU.Rollouts = *rollouts
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	r := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	wins := make([]int, 2)
	for i := range *games {
		res, err := playOne(cfg, r)
		if err != nil {
			log.Fatalf("第 %d 局失败: %v", i+1, err)
		}
		if res.winner >= 0 {
			wins[res.winner]++
		}
		fmt.Printf("第 %3d 局: 胜者 %d  回合 %2d  消息 %3d  用时 %v\n",
			i+1, res.winner, res.turns, res.seq, res.took.Round(time.Millisecond))
	}
	fmt.Printf("\n共 %d 局  座位0胜 %d  座位1胜 %d  (种子 %d)\n", *games, wins[0], wins[1], *seed)
}

// playOne 同一会话轮流替两个座位决策，消息经本地回环同步投递
func playOne(cfg *config.Config, r *rand.Rand) (result, error) {
	start := time.Now()
	lb := session.NewLoopback("sim")
	g := session.New(session.Config{
		UserID:   "sim",
		Names:    []string{"电脑A", "电脑B"},
		Host:     true,
		Items:    item.DefaultSet(r),
		Initial:  cfg.Game.Initial(),
		Rollouts: cfg.CPU.Rollouts,
	}, lb)
	lb.Attach(g)
	defer lb.Close()

	if err := g.Start(); err != nil {
		return result{}, err
	}

	ctx := context.Background()
	for range maxSteps {
		lb.Drain()
		if err := g.Err(); err != nil {
			return result{}, err
		}
		snap := g.Snapshot()
		if snap.GameOver {
			return result{winner: snap.Winner, turns: snap.Turn, seq: snap.ConsumedSeqNo, took: time.Since(start)}, nil
		}

		actor := g.RequiredActor()
		if actor < 0 {
			return result{}, errStalled
		}
		msg, err := session.ChooseMove(ctx, g.StateClone(), actor, cfg.CPU.Rollouts, cpu.WithSeed(r.Uint64()))
		if err != nil {
			return result{}, err
		}
		if err := g.Send(msg); err != nil {
			return result{}, err
		}
	}
	return result{}, fmt.Errorf("simulate: game did not finish in %d steps", maxSteps)
}
