package core

import (
	"fmt"
	"strconv"
	"strings"

	"zcatch-server/internal/hardmode"
)

// HandleChat 处理聊天，以 / 开头的是命令
func (r *Room) HandleChat(p *Player, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if !strings.HasPrefix(text, "/") {
		r.notifier.Chat(fmt.Sprintf("%s: %s", p.Name, text))
		return
	}

	fields := strings.Fields(text)
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "/hard":
		r.cmdHard(p, args)
	case "/release":
		r.cmdRelease(p, args)
	case "/rank":
		r.RequestRank(p, strings.Join(args, " "))
	case "/spec":
		r.RequestTeam(p, TeamSpectators)
	case "/join":
		r.RequestTeam(p, TeamPlaying)
	case "/victims":
		r.cmdVictims(p)
	default:
		r.notifier.Notify(p.ID, "Unknown command: "+fields[0])
	}
}

func (r *Room) cmdHard(p *Player, args []string) {
	if len(args) == 0 {
		available := hardmode.Available(r.opts.Variant)
		if len(available) == 0 {
			r.notifier.Notify(p.ID, "No hard modes in this game mode.")
			return
		}
		r.notifier.Notify(p.ID, "Hard modes: "+strings.Join(available, ", ")+", random")
		return
	}

	for _, name := range args {
		if strings.EqualFold(name, "random") {
			if r.AddRandomHardMode(p) == "" {
				r.notifier.Notify(p.ID, "No hard modes in this game mode.")
			}
			continue
		}
		if !r.AddHardMode(p, name) {
			r.notifier.Notify(p.ID, fmt.Sprintf("Hard mode '%s' is not available.", name))
		}
	}
}

// cmdRelease frees the last victim, or the given player id.
func (r *Room) cmdRelease(p *Player, args []string) {
	target := ReleaseAll
	if len(args) > 0 {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			r.notifier.Notify(p.ID, "Usage: /release [player id]")
			return
		}
		target = PlayerID(id)
	}

	released := r.nextReleaseName(p, target)
	if r.Release(p, target, 1, true) == 0 {
		r.notifier.Notify(p.ID, "Nobody to release.")
		return
	}
	r.notifier.Chat(fmt.Sprintf("'%s' released '%s'", p.Name, released))
}

// nextReleaseName is the name of the record Release(p, target, 1, ...) would free first.
func (r *Room) nextReleaseName(p *Player, target PlayerID) string {
	for _, v := range p.Victims() {
		if target != ReleaseAll && v.ID != target {
			continue
		}
		if victim := r.Resolve(v.ID); victim != nil {
			return victim.Name
		}
		return ""
	}
	return ""
}

func (r *Room) cmdVictims(p *Player) {
	if !p.HasVictims() {
		r.notifier.Notify(p.ID, "You have no victims.")
		return
	}
	names := make([]string, 0, p.NumVictims())
	for _, v := range p.Victims() {
		if victim := r.Resolve(v.ID); victim != nil {
			names = append(names, victim.Name)
		}
	}
	r.notifier.Notify(p.ID, "Victims: "+strings.Join(names, ", "))
}
