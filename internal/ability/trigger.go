package ability

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidDescriptor is returned when a trigger descriptor carries an
// unknown kind, an attribute foreign to its kind, or an out-of-range value.
var ErrInvalidDescriptor = errors.New("invalid trigger descriptor")

// Kind is the game event under which an ability's effect is evaluated.
type Kind string

const (
	KindOnAttack          Kind = "on_attack"
	KindTurnEnd           Kind = "turn_end"
	KindOnSwitchIn        Kind = "on_switch_in"
	KindBeforeDamage      Kind = "before_damage"
	KindStatCalc          Kind = "stat_calc"
	KindTypeEffectiveness Kind = "type_effectiveness"
	KindDamageCalc        Kind = "damage_calc"
	KindOnKO              Kind = "on_ko"
	KindOnContact         Kind = "on_contact"
	KindImmunity          Kind = "immunity"
	KindStatusActive      Kind = "status_active"
	KindWeatherActive     Kind = "weather_active"
	KindHitByType         Kind = "hit_by_type"
	KindHitByMove         Kind = "hit_by_move"
	KindPriorityBoost     Kind = "priority_boost"
	KindBeforeMove        Kind = "before_move"
	KindNotImplemented    Kind = "not_implemented"
)

// Descriptor is one variant of the trigger descriptor union. Each concrete
// type carries only the attributes valid for its Kind.
type Descriptor interface {
	Kind() Kind
	// Validate reports every attribute that is missing or out of range.
	Validate() error
}

// decoders maps every known Kind to a strict decoder for its variant.
var decoders = map[Kind]func(decode func(any) error) (Descriptor, error){
	KindOnAttack:          decodeAs[OnAttack],
	KindTurnEnd:           decodeAs[TurnEnd],
	KindOnSwitchIn:        decodeAs[OnSwitchIn],
	KindBeforeDamage:      decodeAs[BeforeDamage],
	KindStatCalc:          decodeAs[StatCalc],
	KindTypeEffectiveness: decodeAs[TypeEffectiveness],
	KindDamageCalc:        decodeAs[DamageCalc],
	KindOnKO:              decodeAs[OnKO],
	KindOnContact:         decodeAs[OnContact],
	KindImmunity:          decodeAs[Immunity],
	KindStatusActive:      decodeAs[StatusActive],
	KindWeatherActive:     decodeAs[WeatherActive],
	KindHitByType:         decodeAs[HitByType],
	KindHitByMove:         decodeAs[HitByMove],
	KindPriorityBoost:     decodeAs[PriorityBoost],
	KindBeforeMove:        decodeAs[BeforeMove],
	KindNotImplemented:    decodeAs[NotImplemented],
}

func decodeAs[T Descriptor](decode func(any) error) (Descriptor, error) {
	var v T
	if err := decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Kinds returns every known trigger kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindOnAttack, KindTurnEnd, KindOnSwitchIn, KindBeforeDamage,
		KindStatCalc, KindTypeEffectiveness, KindDamageCalc, KindOnKO,
		KindOnContact, KindImmunity, KindStatusActive, KindWeatherActive,
		KindHitByType, KindHitByMove, KindPriorityBoost, KindBeforeMove,
		KindNotImplemented,
	}
}

// decodeDescriptor builds and validates the variant for kind. decode must
// reject attributes the variant does not declare.
func decodeDescriptor(kind Kind, decode func(any) error) (Descriptor, error) {
	build, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown trigger %q", ErrInvalidDescriptor, kind)
	}
	d, err := build(decode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDescriptor, kind, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Params wraps a Descriptor for serialization. It encodes as a flat object
// whose first key is "trigger", followed by the variant's attributes.
// A zero Params encodes as not_implemented.
type Params struct {
	Descriptor Descriptor `json:"-"`
}

// NewParams wraps d. A nil d yields the not_implemented variant.
func NewParams(d Descriptor) Params {
	if d == nil {
		d = NotImplemented{}
	}
	return Params{Descriptor: d}
}

// Kind returns the wrapped descriptor's kind.
func (p Params) Kind() Kind {
	if p.Descriptor == nil {
		return KindNotImplemented
	}
	return p.Descriptor.Kind()
}

// MarshalJSON implements json.Marshaler.
func (p Params) MarshalJSON() ([]byte, error) {
	d := p.Descriptor
	if d == nil {
		d = NotImplemented{}
	}
	head, err := json.Marshal(d.Kind())
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding %s params: %w", d.Kind(), err)
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("encoding %s params: variant is not an object", d.Kind())
	}

	var buf bytes.Buffer
	buf.WriteString(`{"trigger":`)
	buf.Write(head)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. Unknown triggers and
// attributes foreign to the trigger are rejected.
func (p *Params) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decoding params: %w", err)
	}
	raw, ok := fields["trigger"]
	if !ok {
		return fmt.Errorf("%w: params missing trigger", ErrInvalidDescriptor)
	}
	var kind Kind
	if err := json.Unmarshal(raw, &kind); err != nil {
		return fmt.Errorf("%w: trigger: %w", ErrInvalidDescriptor, err)
	}
	delete(fields, "trigger")

	rest, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	d, err := decodeDescriptor(kind, func(v any) error {
		dec := json.NewDecoder(bytes.NewReader(rest))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	})
	if err != nil {
		return err
	}
	p.Descriptor = d
	return nil
}

// Ratio is a real-valued factor: a multiplier, a probability, or a heal
// fraction. Integral values encode with a trailing ".0".
type Ratio float64

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("ratio %v is not finite", f)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return []byte(s), nil
}

// Stage bounds for stat modifiers.
const (
	MinStage = -6
	MaxStage = 6
)

// Stat is a battle stat reference.
type Stat string

const (
	StatAttack         Stat = "attack"
	StatDefense        Stat = "defense"
	StatSpecialAttack  Stat = "special_attack"
	StatSpecialDefense Stat = "special_defense"
	StatSpeed          Stat = "speed"
	StatAccuracy       Stat = "accuracy"
	StatEvasion        Stat = "evasion"
)

var validStats = map[Stat]bool{
	StatAttack: true, StatDefense: true, StatSpecialAttack: true,
	StatSpecialDefense: true, StatSpeed: true, StatAccuracy: true, StatEvasion: true,
}

// Target selects who a stat change applies to.
type Target string

const (
	TargetSelf     Target = "self"
	TargetOpponent Target = "opponent"
)

var validTargets = map[Target]bool{TargetSelf: true, TargetOpponent: true}

// Status is a major or volatile status condition. StatusAny matches every
// major status.
type Status string

const (
	StatusParalysis Status = "paralysis"
	StatusPoison    Status = "poison"
	StatusBurn      Status = "burn"
	StatusSleep     Status = "sleep"
	StatusFreeze    Status = "freeze"
	StatusConfusion Status = "confusion"
	StatusAny       Status = "any"
)

var validStatuses = map[Status]bool{
	StatusParalysis: true, StatusPoison: true, StatusBurn: true, StatusSleep: true,
	StatusFreeze: true, StatusConfusion: true, StatusAny: true,
}

// Weather is a field weather condition.
type Weather string

const (
	WeatherRain      Weather = "rain"
	WeatherSun       Weather = "sun"
	WeatherSandstorm Weather = "sandstorm"
	WeatherHail      Weather = "hail"
)

var validWeather = map[Weather]bool{
	WeatherRain: true, WeatherSun: true, WeatherSandstorm: true, WeatherHail: true,
}

// Type is an elemental type tag.
type Type string

var validTypes = map[Type]bool{
	"normal": true, "fire": true, "water": true, "electric": true, "grass": true,
	"ice": true, "fighting": true, "poison": true, "ground": true, "flying": true,
	"psychic": true, "bug": true, "rock": true, "ghost": true, "dragon": true,
	"dark": true, "steel": true, "fairy": true,
}

// Category is a move damage category.
type Category string

const (
	CategoryPhysical Category = "physical"
	CategorySpecial  Category = "special"
	CategoryStatus   Category = "status"
)

var validCategories = map[Category]bool{
	CategoryPhysical: true, CategorySpecial: true, CategoryStatus: true,
}

// Condition is a predicate tag evaluated by the battle engine.
type Condition string

const (
	ConditionHPBelowThird      Condition = "hp_below_third"
	ConditionHPFull            Condition = "hp_full"
	ConditionPowerAtMost60     Condition = "power_le_60"
	ConditionNotSuperEffective Condition = "not_super_effective"
)

var validConditions = map[Condition]bool{
	ConditionHPBelowThird: true, ConditionHPFull: true,
	ConditionPowerAtMost60: true, ConditionNotSuperEffective: true,
}

// MoveFlag tags a family of moves (biting, contact, punching...).
type MoveFlag string

var validMoveFlags = map[MoveFlag]bool{
	"bite": true, "contact": true, "punch": true, "sound": true,
	"bullet": true, "pulse": true, "recoil": true,
}

// DamageType classifies the origin of damage.
type DamageType string

var validDamageTypes = map[DamageType]bool{"direct": true, "indirect": true}

// TypeChange names what a before_move type change copies.
type TypeChange string

const TypeChangeMoveType TypeChange = "move_type"

var validTypeChanges = map[TypeChange]bool{TypeChangeMoveType: true}
