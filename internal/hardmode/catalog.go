package hardmode

import "strings"

// Variant 游戏模式（服务器主武器）
type Variant int

const (
	VariantVanilla Variant = iota
	VariantLaser
	VariantHammer
	VariantGrenade
	VariantNinja
)

var variantNames = map[string]Variant{
	"vanilla": VariantVanilla,
	"laser":   VariantLaser,
	"hammer":  VariantHammer,
	"grenade": VariantGrenade,
	"ninja":   VariantNinja,
}

// ParseVariant 解析配置里的模式名，未知时返回 vanilla
func ParseVariant(name string) (Variant, bool) {
	v, ok := variantNames[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

func (v Variant) String() string {
	for name, candidate := range variantNames {
		if candidate == v {
			return name
		}
	}
	return "unknown"
}

// Kind 修饰器类型
type Kind int

const (
	KindAmmoLimit Kind = iota
	KindOverheat
	KindHookWhileKilling
	KindTotalFails
	KindKillTimelimit
	KindDoubleKill
)

// Gate decides whether a modifier may be picked under a variant.
type Gate func(Variant) bool

func grenadeOnly(v Variant) bool { return v == VariantGrenade }

func laserOrGrenade(v Variant) bool { return v == VariantLaser || v == VariantGrenade }

// Modifier is one catalog entry. Only the payload fields of its Kind are used.
type Modifier struct {
	Name string
	Kind Kind
	gate Gate

	AmmoLimit       uint // KindAmmoLimit
	AmmoRegenFactor uint // KindAmmoLimit
	MaxFails        uint // KindTotalFails
	Seconds         uint // KindKillTimelimit
}

func (m Modifier) Allowed(v Variant) bool {
	return m.gate != nil && m.gate(v)
}

func (m Modifier) apply(s *State) {
	switch m.Kind {
	case KindAmmoLimit:
		s.AmmoLimit = m.AmmoLimit
		s.AmmoRegenFactor = m.AmmoRegenFactor
	case KindOverheat:
		s.Overheat.Active = true
	case KindHookWhileKilling:
		s.HookWhileKilling = true
	case KindTotalFails:
		s.TotalFails.Active = true
		s.TotalFails.Max = m.MaxFails
	case KindKillTimelimit:
		s.KillTimelimit.Active = true
		s.KillTimelimit.Seconds = m.Seconds
	case KindDoubleKill:
		s.DoubleKill.Active = true
		s.DoubleKill.clear()
	}
}

var catalog = []Modifier{
	{Name: "ammo210", Kind: KindAmmoLimit, gate: grenadeOnly, AmmoLimit: 2, AmmoRegenFactor: 10},
	{Name: "ammo15", Kind: KindAmmoLimit, gate: grenadeOnly, AmmoLimit: 1, AmmoRegenFactor: 5},
	{Name: "overheat", Kind: KindOverheat, gate: laserOrGrenade},
	{Name: "hookkill", Kind: KindHookWhileKilling, gate: laserOrGrenade},
	{Name: "fail0", Kind: KindTotalFails, gate: grenadeOnly, MaxFails: 0},
	{Name: "fail3", Kind: KindTotalFails, gate: grenadeOnly, MaxFails: 3},
	{Name: "5s", Kind: KindKillTimelimit, gate: laserOrGrenade, Seconds: 5},
	{Name: "10s", Kind: KindKillTimelimit, gate: laserOrGrenade, Seconds: 10},
	{Name: "20s", Kind: KindKillTimelimit, gate: laserOrGrenade, Seconds: 20},
	{Name: "double", Kind: KindDoubleKill, gate: laserOrGrenade},
}

// Lookup 按名字查找（不区分大小写）
func Lookup(name string) (Modifier, bool) {
	for _, m := range catalog {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Modifier{}, false
}

// Available lists the modifier names selectable under v.
func Available(v Variant) []string {
	var names []string
	for _, m := range catalog {
		if m.Allowed(v) {
			names = append(names, m.Name)
		}
	}
	return names
}
