package item

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/bop/internal/game/status"
)

// pair 两名玩家的最小 Target 实现
type pair [2]status.Attributes

func (p *pair) PlayerAttributes(i int) *status.Attributes { return &p[i] }
func (p *pair) OpponentIndex(i int) int                    { return (i + 1) % 2 }

func newPair() *pair {
	return &pair{status.Initial(), status.Initial()}
}

func TestDefaultSet(t *testing.T) {
	t.Parallel()

	items := DefaultSet(rand.New(rand.NewPCG(1, 2)))
	require.Len(t, items, 22)
	assert.Equal(t, Excalibur, items[len(items)-1].Kind)

	counts := map[Kind]int{}
	for _, it := range items {
		counts[it.Kind]++
	}
	assert.Equal(t, 2, counts[MagicBolt])
	assert.Equal(t, 1, counts[Excalibur])
	assert.Len(t, counts, 21)
}

func TestDefaultSet_SameSeedSameOrder(t *testing.T) {
	t.Parallel()

	a := DefaultSet(rand.New(rand.NewPCG(9, 9)))
	b := DefaultSet(rand.New(rand.NewPCG(9, 9)))
	assert.Equal(t, Kinds(a), Kinds(b))
	assert.Equal(t, Kinds(a), Kinds(FromKinds(Kinds(a))))
}

func TestKind_TextMarshalling(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal([]Kind{LongSword, Excalibur, HPSwap})
	require.NoError(t, err)
	assert.JSONEq(t, `["long_sword","excalibur","hp_swap"]`, string(data))

	var kinds []Kind
	require.NoError(t, json.Unmarshal(data, &kinds))
	assert.Equal(t, []Kind{LongSword, Excalibur, HPSwap}, kinds)

	assert.Error(t, json.Unmarshal([]byte(`["nope"]`), &kinds))
}

func TestEveryKindHasEffectAndText(t *testing.T) {
	t.Parallel()

	for _, k := range AllKinds {
		assert.NotPanics(t, func() { k.Effect() }, k.String())
		assert.NotEmpty(t, k.Name())
		assert.NotEmpty(t, k.Description())
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
}

func TestEffects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		kind   Kind
		setup  func(p *pair)
		verify func(t *testing.T, p *pair)
	}{
		{
			name: "long sword raises own attack",
			kind: LongSword,
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 20, p[0].Attack)
				assert.Equal(t, 10, p[1].Attack)
			},
		},
		{
			name: "magic bolt hits the opponent",
			kind: MagicBolt,
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 35, p[1].CurrentHP)
				assert.Equal(t, 50, p[0].CurrentHP)
			},
		},
		{
			name:  "cure is capped at max hp",
			kind:  Cure,
			setup: func(p *pair) { p[0].CurrentHP = 45 },
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 50, p[0].CurrentHP)
			},
		},
		{
			name: "build up raises max then current",
			kind: BuildUp,
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 60, p[0].MaxHP)
				assert.Equal(t, 60, p[0].CurrentHP)
			},
		},
		{
			name:  "armour break rounds the cut up",
			kind:  ArmourBreak,
			setup: func(p *pair) { p[1].Defence = 5 },
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 2, p[1].Defence)
			},
		},
		{
			name:  "weakness halves opponent attack",
			kind:  Weakness,
			setup: func(p *pair) { p[1].Attack = 1 },
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 0, p[1].Attack)
			},
		},
		{
			name: "hp swap exchanges current and max",
			kind: HPSwap,
			setup: func(p *pair) {
				p[0].MaxHP, p[0].CurrentHP = 60, 10
				p[1].MaxHP, p[1].CurrentHP = 50, 45
			},
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 50, p[0].MaxHP)
				assert.Equal(t, 45, p[0].CurrentHP)
				assert.Equal(t, 60, p[1].MaxHP)
				assert.Equal(t, 10, p[1].CurrentHP)
			},
		},
		{
			name:  "atk swap",
			kind:  ATKSwap,
			setup: func(p *pair) { p[1].Attack = 3 },
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 3, p[0].Attack)
				assert.Equal(t, 10, p[1].Attack)
			},
		},
		{
			name: "balance takes max plus one",
			kind: Balance,
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 11, p[0].Attack)
				assert.Equal(t, 11, p[0].Defence)
			},
		},
		{
			name:  "shrink takes min minus one with floor",
			kind:  Shrink,
			setup: func(p *pair) { p[1].Defence = 0 },
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 0, p[1].Attack)
				assert.Equal(t, 0, p[1].Defence)
			},
		},
		{
			name:  "golden heal scales with money",
			kind:  GoldenHeal,
			setup: func(p *pair) { p[0].CurrentHP = 20; p[0].Money = 7 },
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 34, p[0].CurrentHP)
				assert.Equal(t, 7, p[0].Money)
			},
		},
		{
			name: "chaos hits both players",
			kind: Chaos,
			verify: func(t *testing.T, p *pair) {
				for i := range 2 {
					assert.Equal(t, 45, p[i].CurrentHP)
					assert.Equal(t, 15, p[i].Attack)
					assert.Equal(t, 0, p[i].Defence)
				}
			},
		},
		{
			name: "excalibur",
			kind: Excalibur,
			setup: func(p *pair) {
				p[0].CurrentHP = 30
			},
			verify: func(t *testing.T, p *pair) {
				assert.Equal(t, 40, p[0].CurrentHP)
				assert.Equal(t, 20, p[0].Attack)
				assert.Equal(t, 15, p[0].Defence)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPair()
			if tt.setup != nil {
				tt.setup(p)
			}
			GetEffect(tt.kind, 0)(p)
			tt.verify(t, p)
		})
	}
}

func TestEffect_ActorSelectsTarget(t *testing.T) {
	t.Parallel()

	p := newPair()
	MagicBolt.Effect().Apply(p, 1)
	assert.Equal(t, 35, p[0].CurrentHP)
	assert.Equal(t, 50, p[1].CurrentHP)
}

func TestEffect_RandomSequencesKeepHPInvariant(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(3, 5))
	p := newPair()
	for range 2000 {
		k := AllKinds[r.IntN(len(AllKinds))]
		GetEffect(k, r.IntN(2))(p)
		for i := range 2 {
			assert.GreaterOrEqual(t, p[i].CurrentHP, 0)
			assert.LessOrEqual(t, p[i].CurrentHP, p[i].MaxHP)
		}
	}
}

func TestEffect_UnknownOpPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { Effect{Op: Op(99)}.Apply(newPair(), 0) })
}
