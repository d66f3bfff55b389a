package hardmode

import (
	"math/rand"
	"strings"
)

// CharacterRef identifies one life of one player. A new spawn makes old refs stale.
type CharacterRef struct {
	Player int
	Life   uint32
}

type Overheat struct {
	Active bool
	Heat   uint
}

type KillTimelimit struct {
	Active       bool
	Seconds      uint
	LastKillTick int64
}

type DoubleKill struct {
	Active     bool
	Partner    CharacterRef
	hasPartner bool
}

func (d *DoubleKill) clear() {
	d.Partner = CharacterRef{}
	d.hasPartner = false
}

type TotalFails struct {
	Active bool
	Max    uint
	Fails  uint
}

// State 玩家的困难模式状态，零值即未激活
type State struct {
	Active           bool
	AmmoLimit        uint // 0 = unlimited
	AmmoRegenFactor  uint
	Overheat         Overheat
	HookWhileKilling bool
	KillTimelimit    KillTimelimit
	DoubleKill       DoubleKill
	TotalFails       TotalFails

	applied []string
}

// Add 添加一个修饰器。未知名字或模式不匹配返回 false，状态不变
func (s *State) Add(name string, v Variant) bool {
	m, ok := Lookup(name)
	if !ok || !m.Allowed(v) {
		return false
	}
	m.apply(s)
	s.Active = true
	for _, n := range s.applied {
		if n == m.Name {
			return true
		}
	}
	s.applied = append(s.applied, m.Name)
	return true
}

// AddRandom applies the first modifier of a random catalog permutation that is allowed
// under v and returns its name, or "" when none is.
func (s *State) AddRandom(v Variant, rng *rand.Rand) string {
	for _, i := range rng.Perm(len(catalog)) {
		m := catalog[i]
		if !m.Allowed(v) {
			continue
		}
		if s.Add(m.Name, v) {
			return m.Name
		}
	}
	return ""
}

// Reset 清空全部状态
func (s *State) Reset() {
	*s = State{}
}

// Restart clears the per-life counters only.
func (s *State) Restart() {
	s.TotalFails.Fails = 0
	s.DoubleKill.clear()
}

// OnSpawn 出生时重置过热与计数
func (s *State) OnSpawn() {
	s.Overheat.Heat = 0
	s.Restart()
}

// OnKill starts a new kill-timelimit window.
func (s *State) OnKill(tick int64) {
	s.KillTimelimit.LastKillTick = tick
}

// Description 已选修饰器列表
func (s *State) Description() string {
	if !s.Active {
		return ""
	}
	return strings.Join(s.applied, ", ")
}

type StepKind int

const (
	StepNone StepKind = iota
	StepCountdown
	StepRelease
)

// Step is what the kill-timelimit countdown asks the caller to do this tick.
type Step struct {
	Kind        StepKind
	SecondsLeft int
}

// Advance moves the kill-timelimit countdown. holding tells whether the player holds at
// least one victim.
func (s *State) Advance(tick int64, tps int, holding bool) Step {
	tl := &s.KillTimelimit
	if !s.Active || !tl.Active || !holding || tps <= 0 || tl.Seconds == 0 {
		return Step{}
	}

	window := int64(tl.Seconds) * int64(tps)
	left := tl.LastKillTick + window - tick
	if left < 0 {
		// victim gained without a kill after the window ran out
		tl.LastKillTick = tick
		left = window
	}

	switch {
	case left == 0:
		tl.LastKillTick = tick
		return Step{Kind: StepRelease}
	case left%int64(tps) == 0:
		return Step{Kind: StepCountdown, SecondsLeft: int(left / int64(tps))}
	}
	return Step{}
}

// FailResult 失误计数结果
type FailResult struct {
	Fails      uint
	Max        uint
	Eliminated bool
}

// FailedShot counts a shot that neither killed nor was a speed shot. ok is false when
// the total-fails modifier is not active.
func (s *State) FailedShot() (res FailResult, ok bool) {
	tf := &s.TotalFails
	if !s.Active || !tf.Active {
		return FailResult{}, false
	}

	tf.Fails++
	res = FailResult{Fails: tf.Fails, Max: tf.Max}
	if tf.Fails > tf.Max {
		res.Eliminated = true
		tf.Fails = 0
	}
	return res, true
}

// DoubleKillHit reports whether a hit on ref should kill. With the double modifier the
// first hit only marks the character and the second consecutive hit on the same life kills.
func (s *State) DoubleKillHit(ref CharacterRef) bool {
	dk := &s.DoubleKill
	if !s.Active || !dk.Active {
		return true
	}
	if dk.hasPartner && dk.Partner == ref {
		dk.clear()
		return true
	}
	dk.Partner = ref
	dk.hasPartner = true
	return false
}
