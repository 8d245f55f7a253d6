package ability

import (
	"fmt"
	"strings"
)

// OnAttack fires when the holder's attack lands.
type OnAttack struct {
	FlinchChance Ratio `json:"flinch_chance" yaml:"flinch_chance"`
}

func (OnAttack) Kind() Kind { return KindOnAttack }

func (d OnAttack) Validate() error {
	v := violations{kind: d.Kind()}
	v.probability("flinch_chance", d.FlinchChance)
	return v.err()
}

// TurnEnd changes one of the holder's stats at the end of every turn.
type TurnEnd struct {
	Stat   Stat `json:"stat" yaml:"stat"`
	Stages int  `json:"stages" yaml:"stages"`
}

func (TurnEnd) Kind() Kind { return KindTurnEnd }

func (d TurnEnd) Validate() error {
	v := violations{kind: d.Kind()}
	v.stat(d.Stat)
	v.stages(d.Stages)
	return v.err()
}

// OnSwitchIn either changes a stat of Target or summons Weather when the
// holder enters the field.
type OnSwitchIn struct {
	Stat    Stat    `json:"stat,omitempty" yaml:"stat,omitempty"`
	Stages  int     `json:"stages,omitempty" yaml:"stages,omitempty"`
	Target  Target  `json:"target,omitempty" yaml:"target,omitempty"`
	Weather Weather `json:"weather,omitempty" yaml:"weather,omitempty"`
}

func (OnSwitchIn) Kind() Kind { return KindOnSwitchIn }

func (d OnSwitchIn) Validate() error {
	v := violations{kind: d.Kind()}
	statChange := d.Stat != "" || d.Stages != 0 || d.Target != ""
	switch {
	case d.Weather != "" && statChange:
		v.add("weather cannot be combined with stat, stages or target")
	case d.Weather != "":
		v.weather(d.Weather)
	case statChange:
		v.stat(d.Stat)
		v.stages(d.Stages)
		if d.Target != "" {
			v.target(d.Target)
		}
	default:
		v.add("requires weather or a stat change")
	}
	return v.err()
}

// BeforeDamage adjusts or cancels incoming damage before it is applied.
type BeforeDamage struct {
	ImmuneTypes []Type    `json:"immune_types,omitempty" yaml:"immune_types,omitempty"`
	Condition   Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Multiplier  Ratio     `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
	Immune      bool      `json:"immune,omitempty" yaml:"immune,omitempty"`
}

func (BeforeDamage) Kind() Kind { return KindBeforeDamage }

func (d BeforeDamage) Validate() error {
	v := violations{kind: d.Kind()}
	if len(d.ImmuneTypes) == 0 && d.Multiplier == 0 && !d.Immune {
		v.add("requires immune_types, multiplier or immune")
	}
	if d.Multiplier != 0 && d.Immune {
		v.add("multiplier cannot be combined with immune")
	}
	if len(d.ImmuneTypes) > 0 {
		v.types("immune_types", d.ImmuneTypes)
	}
	if d.Condition != "" {
		v.condition(d.Condition)
	}
	if d.Multiplier != 0 {
		v.ratio("multiplier", d.Multiplier)
	}
	return v.err()
}

// StatCalc scales one of the holder's stats whenever it is computed.
type StatCalc struct {
	Stat       Stat  `json:"stat" yaml:"stat"`
	Multiplier Ratio `json:"multiplier" yaml:"multiplier"`
}

func (StatCalc) Kind() Kind { return KindStatCalc }

func (d StatCalc) Validate() error {
	v := violations{kind: d.Kind()}
	v.stat(d.Stat)
	v.ratio("multiplier", d.Multiplier)
	return v.err()
}

// TypeEffectiveness scales damage taken from moves of the listed types.
type TypeEffectiveness struct {
	Types      []Type `json:"types" yaml:"types"`
	Multiplier Ratio  `json:"multiplier" yaml:"multiplier"`
}

func (TypeEffectiveness) Kind() Kind { return KindTypeEffectiveness }

func (d TypeEffectiveness) Validate() error {
	v := violations{kind: d.Kind()}
	v.types("types", d.Types)
	v.ratio("multiplier", d.Multiplier)
	return v.err()
}

// DamageCalc modifies outgoing damage. Condition, TypeBoost and MoveFlags
// narrow which attacks Multiplier applies to.
type DamageCalc struct {
	Condition          Condition  `json:"condition,omitempty" yaml:"condition,omitempty"`
	TypeBoost          Type       `json:"type_boost,omitempty" yaml:"type_boost,omitempty"`
	MoveFlags          []MoveFlag `json:"move_flags,omitempty" yaml:"move_flags,omitempty"`
	Multiplier         Ratio      `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
	StabMultiplier     Ratio      `json:"stab_multiplier,omitempty" yaml:"stab_multiplier,omitempty"`
	CriticalMultiplier Ratio      `json:"critical_multiplier,omitempty" yaml:"critical_multiplier,omitempty"`
}

func (DamageCalc) Kind() Kind { return KindDamageCalc }

func (d DamageCalc) Validate() error {
	v := violations{kind: d.Kind()}
	if d.Multiplier == 0 && d.StabMultiplier == 0 && d.CriticalMultiplier == 0 {
		v.add("requires multiplier, stab_multiplier or critical_multiplier")
	}
	narrowed := d.Condition != "" || d.TypeBoost != "" || len(d.MoveFlags) > 0
	if narrowed && d.Multiplier == 0 {
		v.add("condition, type_boost and move_flags require multiplier")
	}
	if d.Condition != "" {
		v.condition(d.Condition)
	}
	if d.TypeBoost != "" {
		v.types("type_boost", []Type{d.TypeBoost})
	}
	for _, f := range d.MoveFlags {
		if !validMoveFlags[f] {
			v.add("unknown move flag %q", f)
		}
	}
	if d.Multiplier != 0 {
		v.ratio("multiplier", d.Multiplier)
	}
	if d.StabMultiplier != 0 {
		v.ratio("stab_multiplier", d.StabMultiplier)
	}
	if d.CriticalMultiplier != 0 {
		v.ratio("critical_multiplier", d.CriticalMultiplier)
	}
	return v.err()
}

// OnKO changes one of the holder's stats after it knocks out a target.
type OnKO struct {
	Stat   Stat `json:"stat" yaml:"stat"`
	Stages int  `json:"stages" yaml:"stages"`
}

func (OnKO) Kind() Kind { return KindOnKO }

func (d OnKO) Validate() error {
	v := violations{kind: d.Kind()}
	v.stat(d.Stat)
	v.stages(d.Stages)
	return v.err()
}

// OnContact may inflict Status on an attacker that makes contact.
type OnContact struct {
	Status Status `json:"status" yaml:"status"`
	Chance Ratio  `json:"chance" yaml:"chance"`
}

func (OnContact) Kind() Kind { return KindOnContact }

func (d OnContact) Validate() error {
	v := violations{kind: d.Kind()}
	v.status(d.Status)
	if d.Status == StatusAny {
		v.add("status must name a concrete status")
	}
	v.probability("chance", d.Chance)
	return v.err()
}

// Immunity prevents a status or a class of damage.
type Immunity struct {
	Status      Status       `json:"status,omitempty" yaml:"status,omitempty"`
	DamageTypes []DamageType `json:"damage_types,omitempty" yaml:"damage_types,omitempty"`
}

func (Immunity) Kind() Kind { return KindImmunity }

func (d Immunity) Validate() error {
	v := violations{kind: d.Kind()}
	switch {
	case d.Status != "" && len(d.DamageTypes) > 0:
		v.add("status cannot be combined with damage_types")
	case d.Status != "":
		v.status(d.Status)
	case len(d.DamageTypes) > 0:
		for _, t := range d.DamageTypes {
			if !validDamageTypes[t] {
				v.add("unknown damage type %q", t)
			}
		}
	default:
		v.add("requires status or damage_types")
	}
	return v.err()
}

// StatusActive scales a stat while the holder is afflicted by Status.
type StatusActive struct {
	Status     Status `json:"status" yaml:"status"`
	Stat       Stat   `json:"stat" yaml:"stat"`
	Multiplier Ratio  `json:"multiplier" yaml:"multiplier"`
}

func (StatusActive) Kind() Kind { return KindStatusActive }

func (d StatusActive) Validate() error {
	v := violations{kind: d.Kind()}
	v.status(d.Status)
	v.stat(d.Stat)
	v.ratio("multiplier", d.Multiplier)
	return v.err()
}

// WeatherActive scales a stat while Weather is in effect.
type WeatherActive struct {
	Weather    Weather `json:"weather" yaml:"weather"`
	Stat       Stat    `json:"stat" yaml:"stat"`
	Multiplier Ratio   `json:"multiplier" yaml:"multiplier"`
}

func (WeatherActive) Kind() Kind { return KindWeatherActive }

func (d WeatherActive) Validate() error {
	v := violations{kind: d.Kind()}
	v.weather(d.Weather)
	v.stat(d.Stat)
	v.ratio("multiplier", d.Multiplier)
	return v.err()
}

// HitByType absorbs a move of Type. Exactly one payoff applies: a heal,
// a special attack boost, or a stat change.
type HitByType struct {
	Type               Type  `json:"type" yaml:"type"`
	HealPercent        Ratio `json:"heal_percent,omitempty" yaml:"heal_percent,omitempty"`
	SpecialAttackBoost int   `json:"special_attack_boost,omitempty" yaml:"special_attack_boost,omitempty"`
	Stat               Stat  `json:"stat,omitempty" yaml:"stat,omitempty"`
	Stages             int   `json:"stages,omitempty" yaml:"stages,omitempty"`
}

func (HitByType) Kind() Kind { return KindHitByType }

func (d HitByType) Validate() error {
	v := violations{kind: d.Kind()}
	v.types("type", []Type{d.Type})

	payoffs := 0
	if d.HealPercent != 0 {
		payoffs++
		v.fraction("heal_percent", d.HealPercent)
	}
	if d.SpecialAttackBoost != 0 {
		payoffs++
		if d.SpecialAttackBoost < 0 || d.SpecialAttackBoost > MaxStage {
			v.add("special_attack_boost must be in [1, %d], got %d", MaxStage, d.SpecialAttackBoost)
		}
	}
	if d.Stat != "" || d.Stages != 0 {
		payoffs++
		v.stat(d.Stat)
		v.stages(d.Stages)
	}
	if payoffs != 1 {
		v.add("requires exactly one of heal_percent, special_attack_boost or stat/stages, got %d", payoffs)
	}
	return v.err()
}

// HitByMove reacts to being targeted by a move of Category.
type HitByMove struct {
	Category Category `json:"category" yaml:"category"`
	Reflect  bool     `json:"reflect" yaml:"reflect"`
}

func (HitByMove) Kind() Kind { return KindHitByMove }

func (d HitByMove) Validate() error {
	v := violations{kind: d.Kind()}
	v.category(d.Category)
	if !d.Reflect {
		v.add("requires an effect: reflect")
	}
	return v.err()
}

// PriorityBoost raises the priority of matching moves by Boost.
type PriorityBoost struct {
	Condition Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Category  Category  `json:"category,omitempty" yaml:"category,omitempty"`
	Type      Type      `json:"type,omitempty" yaml:"type,omitempty"`
	Boost     int       `json:"boost" yaml:"boost"`
}

func (PriorityBoost) Kind() Kind { return KindPriorityBoost }

func (d PriorityBoost) Validate() error {
	v := violations{kind: d.Kind()}
	if d.Category == "" && d.Type == "" {
		v.add("requires category or type to select moves")
	}
	if d.Condition != "" {
		v.condition(d.Condition)
	}
	if d.Category != "" {
		v.category(d.Category)
	}
	if d.Type != "" {
		v.types("type", []Type{d.Type})
	}
	if d.Boost == 0 || d.Boost < -7 || d.Boost > 5 {
		v.add("boost must be a non-zero value in [-7, 5], got %d", d.Boost)
	}
	return v.err()
}

// BeforeMove changes the holder's type before it moves.
type BeforeMove struct {
	TypeChange TypeChange `json:"type_change" yaml:"type_change"`
}

func (BeforeMove) Kind() Kind { return KindBeforeMove }

func (d BeforeMove) Validate() error {
	v := violations{kind: d.Kind()}
	if !validTypeChanges[d.TypeChange] {
		v.add("type_change must be %q, got %q", TypeChangeMoveType, d.TypeChange)
	}
	return v.err()
}

// NotImplemented marks an ability whose behaviour is not modelled yet.
type NotImplemented struct{}

func (NotImplemented) Kind() Kind { return KindNotImplemented }

func (NotImplemented) Validate() error { return nil }

// violations collects every problem with one descriptor.
type violations struct {
	kind Kind
	errs []string
}

func (v *violations) add(format string, args ...any) {
	v.errs = append(v.errs, fmt.Sprintf(format, args...))
}

func (v *violations) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalidDescriptor, v.kind, strings.Join(v.errs, "; "))
}

func (v *violations) stat(s Stat) {
	if !validStats[s] {
		v.add("unknown stat %q", s)
	}
}

func (v *violations) stages(n int) {
	if n == 0 || n < MinStage || n > MaxStage {
		v.add("stages must be a non-zero value in [%d, %d], got %d", MinStage, MaxStage, n)
	}
}

func (v *violations) target(t Target) {
	if !validTargets[t] {
		v.add("target must be %q or %q, got %q", TargetSelf, TargetOpponent, t)
	}
}

func (v *violations) status(s Status) {
	if !validStatuses[s] {
		v.add("unknown status %q", s)
	}
}

func (v *violations) weather(w Weather) {
	if !validWeather[w] {
		v.add("unknown weather %q", w)
	}
}

func (v *violations) condition(c Condition) {
	if !validConditions[c] {
		v.add("unknown condition %q", c)
	}
}

func (v *violations) category(c Category) {
	if !validCategories[c] {
		v.add("unknown move category %q", c)
	}
}

func (v *violations) types(field string, ts []Type) {
	if len(ts) == 0 {
		v.add("%s must list at least one type", field)
	}
	for _, t := range ts {
		if !validTypes[t] {
			v.add("%s: unknown type %q", field, t)
		}
	}
}

// ratio rejects zero, negatives and NaN.
func (v *violations) ratio(field string, r Ratio) {
	if !(r > 0) {
		v.add("%s must be > 0, got %v", field, float64(r))
	}
}

func (v *violations) probability(field string, p Ratio) {
	if !(p > 0 && p <= 1) {
		v.add("%s must be in (0, 1], got %v", field, float64(p))
	}
}

// fraction checks a share of max HP.
func (v *violations) fraction(field string, f Ratio) {
	if !(f > 0 && f <= 1) {
		v.add("%s must be a fraction of max HP in (0, 1], got %v", field, float64(f))
	}
}
