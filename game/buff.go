package game

import "sort"

type BuffType string

const (
	BuffPower        BuffType = "POWER"
	BuffLife         BuffType = "LIFE"
	BuffSpeed        BuffType = "SPEED"
	BuffWeakness     BuffType = "WEAKNESS"
	BuffBleed        BuffType = "BLEED"
	BuffSlow         BuffType = "SLOW"
	BuffStun         BuffType = "STUN"
	BuffRoot         BuffType = "ROOT"
	BuffBlind        BuffType = "BLIND"
	BuffInvulnerable BuffType = "INVULNERABLE"
	BuffDeathMark    BuffType = "DEATH_MARK"
	BuffFeint        BuffType = "FEINT"
	BuffChallenge    BuffType = "CHALLENGE"
)

// TileBuffTypes are the buffs a buff tile can roll, in roll order.
var TileBuffTypes = []BuffType{BuffPower, BuffLife, BuffSpeed, BuffWeakness, BuffBleed, BuffSlow}

// Modifiers is the additive bundle derived from one or more buffs.
type Modifiers struct {
	BonusAttack   int `json:"bonusAttack,omitempty"`
	BleedDamage   int `json:"bleedDamage,omitempty"`
	IncomingBonus int `json:"incomingBonus,omitempty"`

	Stunned         bool `json:"stunned,omitempty"`
	Rooted          bool `json:"rooted,omitempty"`
	Slowed          bool `json:"slowed,omitempty"`
	Blinded         bool `json:"blinded,omitempty"`
	Disarmed        bool `json:"disarmed,omitempty"`
	ExtraAction     bool `json:"extraAction,omitempty"`
	Invulnerable    bool `json:"invulnerable,omitempty"`
	NoMoveAndAttack bool `json:"noMoveAndAttack,omitempty"`
	BreaksObstacles bool `json:"breaksObstacles,omitempty"`
	Feint           bool `json:"feint,omitempty"`
	Challenge       bool `json:"challenge,omitempty"`
}

// Merge folds o into m: numbers add, flags OR.
func (m Modifiers) Merge(o Modifiers) Modifiers {
	m.BonusAttack += o.BonusAttack
	m.BleedDamage += o.BleedDamage
	m.IncomingBonus += o.IncomingBonus
	m.Stunned = m.Stunned || o.Stunned
	m.Rooted = m.Rooted || o.Rooted
	m.Slowed = m.Slowed || o.Slowed
	m.Blinded = m.Blinded || o.Blinded
	m.Disarmed = m.Disarmed || o.Disarmed
	m.ExtraAction = m.ExtraAction || o.ExtraAction
	m.Invulnerable = m.Invulnerable || o.Invulnerable
	m.NoMoveAndAttack = m.NoMoveAndAttack || o.NoMoveAndAttack
	m.BreaksObstacles = m.BreaksObstacles || o.BreaksObstacles
	m.Feint = m.Feint || o.Feint
	m.Challenge = m.Challenge || o.Challenge
	return m
}

// BuffInstance is one active buff on one unit. Payload carries optional
// numeric data (the counter damage of FEINT and CHALLENGE).
type BuffInstance struct {
	ID           string    `json:"id"`
	Type         BuffType  `json:"type"`
	SourceUnitID string    `json:"sourceUnitId,omitempty"`
	Duration     int       `json:"duration"`
	Modifiers    Modifiers `json:"modifiers"`
	Payload      int       `json:"payload,omitempty"`
}

// IsDebuff reports whether cleansing effects may remove this buff. An
// attack penalty that comes with an extra action (SPEED) is not a debuff.
func (b BuffInstance) IsDebuff() bool {
	m := b.Modifiers
	if m.BleedDamage > 0 || m.Slowed || m.Stunned || m.Rooted || m.Blinded {
		return true
	}
	return m.BonusAttack < 0 && !m.ExtraAction
}

type buffSpec struct {
	duration  int
	modifiers Modifiers
	onAcquire int
	payload   int
}

const DefaultBuffDuration = 2

const CounterDamage = 2

var buffTable = map[BuffType]buffSpec{
	BuffPower:        {duration: 2, modifiers: Modifiers{BonusAttack: 3, NoMoveAndAttack: true, BreaksObstacles: true}, onAcquire: 1},
	BuffLife:         {duration: 2, onAcquire: 3},
	BuffSpeed:        {duration: 2, modifiers: Modifiers{BonusAttack: -1, ExtraAction: true}},
	BuffWeakness:     {duration: 2, modifiers: Modifiers{BonusAttack: -2}, onAcquire: -1},
	BuffBleed:        {duration: 2, modifiers: Modifiers{BleedDamage: 1}},
	BuffSlow:         {duration: 2, modifiers: Modifiers{Slowed: true}},
	BuffStun:         {duration: 1, modifiers: Modifiers{Stunned: true}},
	BuffRoot:         {duration: 1, modifiers: Modifiers{Rooted: true}},
	BuffBlind:        {duration: 1, modifiers: Modifiers{Blinded: true}},
	BuffInvulnerable: {duration: 1, modifiers: Modifiers{Invulnerable: true, Disarmed: true}},
	BuffDeathMark:    {duration: 2, modifiers: Modifiers{IncomingBonus: 2}},
	BuffFeint:        {duration: 2, modifiers: Modifiers{Feint: true}, payload: CounterDamage},
	BuffChallenge:    {duration: 2, modifiers: Modifiers{Challenge: true}, payload: CounterDamage},
}

// KnownBuff reports whether t is part of the closed buff enumeration.
func KnownBuff(t BuffType) bool {
	_, ok := buffTable[t]
	return ok
}

// CanonicalDuration is the number of round ends a freshly granted buff lasts.
func CanonicalDuration(t BuffType) int {
	if def, ok := buffTable[t]; ok {
		return def.duration
	}
	return DefaultBuffDuration
}

// OnAcquireHP is the one-time HP delta applied when a buff is granted.
func OnAcquireHP(t BuffType) int {
	return buffTable[t].onAcquire
}

// NewBuff builds a buff of type t with its canonical duration and modifiers.
func NewBuff(id string, t BuffType, source string) BuffInstance {
	def := buffTable[t]
	return BuffInstance{
		ID:           id,
		Type:         t,
		SourceUnitID: source,
		Duration:     def.duration,
		Modifiers:    def.modifiers,
		Payload:      def.payload,
	}
}

// UnitBuffs maps unit ID to that unit's buffs in grant order. Iterate with
// UnitIDs for a deterministic order.
type UnitBuffs map[string][]BuffInstance

func (b UnitBuffs) Clone() UnitBuffs {
	if b == nil {
		return nil
	}
	out := make(UnitBuffs, len(b))
	for id, list := range b {
		if len(list) == 0 {
			continue
		}
		cp := make([]BuffInstance, len(list))
		copy(cp, list)
		out[id] = cp
	}
	return out
}

// UnitIDs returns the keys in ascending order.
func (b UnitBuffs) UnitIDs() []string {
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (b UnitBuffs) Has(unitID string, t BuffType) bool {
	for _, bi := range b[unitID] {
		if bi.Type == t {
			return true
		}
	}
	return false
}

func (b UnitBuffs) Count(unitID string, t BuffType) int {
	n := 0
	for _, bi := range b[unitID] {
		if bi.Type == t {
			n++
		}
	}
	return n
}
