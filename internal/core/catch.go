package core

// Resolve 查找在线玩家，不存在返回 nil
func (r *Room) Resolve(id PlayerID) *Player {
	if id < 0 {
		return nil
	}
	return r.Players[id]
}

// Capture lets capturer hold victim. Unknown ids, self-capture and victims that are
// already held are ignored.
func (r *Room) Capture(capturerID, victimID PlayerID, reason CaptureReason) {
	capturer := r.Resolve(capturerID)
	victim := r.Resolve(victimID)
	if capturer == nil || victim == nil || capturer == victim || victim.IsCaught() {
		return
	}

	capturer.victims = append(capturer.victims, Victim{ID: victim.ID, Reason: reason})
	capturer.TotalCaught++

	victim.CaughtBy = capturer.ID
	victim.SpecExplicit = false
	victim.JoinSpecWhenReleased = false
	victim.Team = TeamSpectators
	victim.SpectatorID = capturer.ID
}

// Release frees victims of capturer, last caught first. target is a player id or
// ReleaseAll; limit 0 means no limit. manual counts released kills. Returns the number
// of records removed.
func (r *Room) Release(capturer *Player, target PlayerID, limit int, manual bool) int {
	if capturer == nil {
		return 0
	}

	released := 0
	for i := len(capturer.victims) - 1; i >= 0; i-- {
		v := capturer.victims[i]
		if target != ReleaseAll && v.ID != target {
			continue
		}

		if victim := r.Resolve(v.ID); victim != nil && victim.CaughtBy == capturer.ID {
			victim.CaughtBy = NotCaught
			victim.Team = TeamPlaying
			victim.SpectatorID = SpecFreeview
			victim.RespawnTick = r.CurrentTick
			// after the direct team change, otherwise SetTeam skips the spectator message
			if victim.JoinSpecWhenReleased {
				victim.JoinSpecWhenReleased = false
				r.SetTeam(victim, TeamSpectators, true)
			}
		}

		if manual && v.Reason == ReasonKilled {
			capturer.KillsReleased++
		}

		capturer.victims = append(capturer.victims[:i], capturer.victims[i+1:]...)
		released++
		if limit > 0 && released >= limit {
			break
		}
	}
	return released
}

// detach 玩家离开时的清理：先释放自己抓的人，再从抓自己的人那里移除
func (r *Room) detach(p *Player) {
	r.Release(p, ReleaseAll, 0, false)

	if captor := r.Resolve(p.CaughtBy); captor != nil {
		p.JoinSpecWhenReleased = false
		r.Release(captor, p.ID, 0, false)
	}
	p.CaughtBy = NotCaught

	for _, other := range r.Players {
		if other.SpectatorID == p.ID {
			other.SpectatorID = SpecFreeview
		}
	}
}

// leader is the uncaught player holding the most victims, ties to the lowest id.
func (r *Room) leader(exclude PlayerID) *Player {
	var best *Player
	for _, id := range r.playerIDs() {
		p := r.Players[id]
		if id == exclude || p.IsCaught() || p.Team == TeamSpectators || !p.HasVictims() {
			continue
		}
		if best == nil || p.NumVictims() > best.NumVictims() {
			best = p
		}
	}
	return best
}

// catchByLeader 中途加入的玩家直接被当前领先者抓住
func (r *Room) catchByLeader(p *Player) bool {
	leader := r.leader(p.ID)
	if leader == nil {
		return false
	}
	r.Capture(leader.ID, p.ID, ReasonJoining)
	if p.CaughtBy != leader.ID {
		return false
	}
	r.notifier.Notify(p.ID, "You are caught until '"+leader.Name+"' dies.")
	return true
}
