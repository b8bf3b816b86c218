package game

type Category string

const (
	Hero   Category = "HERO"
	Minion Category = "MINION"
)

type HeroClass string

const (
	Warrior  HeroClass = "WARRIOR"
	Mage     HeroClass = "MAGE"
	Rogue    HeroClass = "ROGUE"
	Huntress HeroClass = "HUNTRESS"
	Duelist  HeroClass = "DUELIST"
	Cleric   HeroClass = "CLERIC"
)

type MinionType string

const (
	Tank     MinionType = "TANK"
	Archer   MinionType = "ARCHER"
	Assassin MinionType = "ASSASSIN"
)

// Beacon is the skill state of a placed warp beacon.
type Beacon struct {
	Position Position `json:"position"`
}

// SkillState is the optional extra state a hero carries between the phases
// of a two-phase skill. Only one family exists today.
type SkillState struct {
	Beacon *Beacon `json:"beacon,omitempty"`
}

func (s *SkillState) clone() *SkillState {
	if s == nil {
		return nil
	}
	out := &SkillState{}
	if s.Beacon != nil {
		b := *s.Beacon
		out.Beacon = &b
	}
	return out
}

// Unit is a hero, minion or temporary summon on the board.
//
// HP may exceed MaxHP (overheal persists). HP <= 0 implies !Alive.
type Unit struct {
	ID          string     `json:"id"`
	Owner       PlayerID   `json:"owner"`
	Category    Category   `json:"category"`
	HeroClass   HeroClass  `json:"heroClass,omitempty"`
	MinionType  MinionType `json:"minionType,omitempty"`
	HP          int        `json:"hp"`
	MaxHP       int        `json:"maxHp"`
	Attack      int        `json:"attack"`
	MoveRange   int        `json:"moveRange"`
	AttackRange int        `json:"attackRange"`
	Position    Position   `json:"position"`
	Alive       bool       `json:"alive"`
	ActionsUsed int        `json:"actionsUsed"`

	SkillID       string      `json:"skillId,omitempty"`
	SkillCooldown int         `json:"skillCooldown"`
	SkillState    *SkillState `json:"skillState,omitempty"`

	Shield             int `json:"shield,omitempty"`
	ShieldRounds       int `json:"shieldRounds,omitempty"`
	BonusAttackDamage  int `json:"bonusAttackDamage,omitempty"`
	BonusAttackCharges int `json:"bonusAttackCharges,omitempty"`

	Invisible     bool    `json:"invisible,omitempty"`
	Invulnerable  bool    `json:"invulnerable,omitempty"`
	Preparing     bool    `json:"preparing,omitempty"`
	PendingAction *Action `json:"pendingAction,omitempty"`

	Temporary       bool `json:"temporary,omitempty"`
	TemporaryRounds int  `json:"temporaryRounds,omitempty"`
}

func (u Unit) clone() Unit {
	u.SkillState = u.SkillState.clone()
	if u.PendingAction != nil {
		a := u.PendingAction.Clone()
		u.PendingAction = &a
	}
	return u
}

// WithDamage subtracts amount from HP (after shield) and marks the unit dead
// at zero or below.
func (u Unit) WithDamage(amount int) Unit {
	if amount <= 0 || !u.Alive {
		return u
	}
	if u.Shield > 0 {
		absorbed := min(u.Shield, amount)
		u.Shield -= absorbed
		amount -= absorbed
		if u.Shield == 0 {
			u.ShieldRounds = 0
		}
	}
	u.HP -= amount
	if u.HP <= 0 {
		u.Alive = false
	}
	return u
}

// WithHeal adds amount to HP with no ceiling.
func (u Unit) WithHeal(amount int) Unit {
	if amount <= 0 || !u.Alive {
		return u
	}
	u.HP += amount
	return u
}

func (u Unit) WithPosition(p Position) Unit {
	u.Position = p
	return u
}

func (u Unit) WithActionUsed() Unit {
	u.ActionsUsed++
	return u
}

func (u Unit) WithSkillUsed(cooldown int) Unit {
	u.SkillCooldown = cooldown
	u.ActionsUsed++
	return u
}

func (u Unit) WithPreparing(a Action) Unit {
	pending := a.Clone()
	u.Preparing = true
	u.PendingAction = &pending
	u.ActionsUsed++
	return u
}

func (u Unit) WithoutPreparing() Unit {
	u.Preparing = false
	u.PendingAction = nil
	return u
}

func (u Unit) WithBeacon(p Position) Unit {
	u.SkillState = &SkillState{Beacon: &Beacon{Position: p}}
	return u
}

func (u Unit) WithoutSkillState() Unit {
	u.SkillState = nil
	return u
}

// Beacon returns the placed warp beacon, if any.
func (u *Unit) Beacon() *Beacon {
	if u.SkillState == nil {
		return nil
	}
	return u.SkillState.Beacon
}
