package core

import (
	"fmt"

	"zcatch-server/internal/hardmode"
)

// AddHardMode 为玩家添加困难模式修饰器
func (r *Room) AddHardMode(p *Player, name string) bool {
	if !p.HardMode.Add(name, r.opts.Variant) {
		return false
	}
	r.notifier.Notify(p.ID, "Hard mode: "+p.HardMode.Description())
	return true
}

// AddRandomHardMode returns the picked modifier name, or "" if the variant has none.
func (r *Room) AddRandomHardMode(p *Player) string {
	name := p.HardMode.AddRandom(r.opts.Variant, r.rng)
	if name != "" {
		r.notifier.Notify(p.ID, "Hard mode: "+p.HardMode.Description())
	}
	return name
}

// HardModeFailedShot 未命中的射击
func (r *Room) HardModeFailedShot(p *Player) {
	res, ok := p.HardMode.FailedShot()
	if !ok {
		return
	}
	if res.Eliminated {
		r.KillCharacter(p)
		r.notifier.Notify(p.ID, "You failed too often.")
		return
	}
	r.notifier.Notify(p.ID, fmt.Sprintf("Fails: %d/%d", res.Fails, res.Max))
}

func (r *Room) tickHardMode(p *Player) {
	step := p.HardMode.Advance(r.CurrentTick, r.TicksPerSecond(), p.HasVictims())
	switch step.Kind {
	case hardmode.StepRelease:
		r.Release(p, ReleaseAll, 1, false)
		r.notifier.Notify(p.ID, "One of your victims has been released.")
	case hardmode.StepCountdown:
		r.notifier.Notify(p.ID, fmt.Sprintf("You have %d seconds to catch the next one.", step.SecondsLeft))
	}
}
