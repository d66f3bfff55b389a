package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"zcatch-server/internal/rank"
	"zcatch-server/internal/task"
)

const rankQueryTimeout = 2 * time.Second

// SaveRanking stops the play clock and ships a copy of the cache. Called on disconnect.
func (r *Room) SaveRanking(p *Player) {
	p.Rank.StopPlaying(r.CurrentTick)
	r.submitRankWrite(p.Name, p.Rank.Take(r.CurrentTick))
}

// flushRanking 回合结束时写入，计时继续
func (r *Room) flushRanking(p *Player) {
	r.submitRankWrite(p.Name, p.Rank.Take(r.CurrentTick))
}

func (r *Room) submitRankWrite(name string, stats rank.Cache) {
	gw := r.opts.Ranking
	if !gw.IsEnabled() || stats.Empty() {
		return
	}

	// stats is a copy, the task must never see the live session
	r.tasks.Submit(task.Go("rank-write:"+name, func() {
		err := gw.WithLock(-1, func(s rank.Store) error {
			ctx, cancel := context.WithTimeout(context.Background(), rankQueryTimeout)
			defer cancel()
			return s.Write(ctx, name, stats)
		})
		if err != nil {
			log.Printf("rank: failed to save %s: %v", name, err)
		}
	}))
}

// RequestRank queues a lookup answered from the tick loop.
func (r *Room) RequestRank(p *Player, name string) {
	if name == "" {
		name = p.Name
	}
	p.pendingRank = name
}

func (r *Room) processRankQueries() {
	gw := r.opts.Ranking
	timeout := r.opts.LockTimeoutMs
	if timeout < 0 {
		timeout = 0
	}

	for _, id := range r.playerIDs() {
		p := r.Players[id]
		if p.pendingRank == "" {
			continue
		}

		var stats rank.Cache
		err := gw.WithLock(timeout, func(s rank.Store) error {
			ctx, cancel := context.WithTimeout(context.Background(), rankQueryTimeout)
			defer cancel()
			var err error
			stats, err = s.Read(ctx, p.pendingRank)
			return err
		})

		switch {
		case errors.Is(err, rank.ErrLockTimeout):
			// store busy, try again next tick
			return
		case errors.Is(err, rank.ErrDisabled):
			r.notifier.Notify(p.ID, "Ranking is not available on this server.")
		case errors.Is(err, rank.ErrNotFound):
			r.notifier.Notify(p.ID, fmt.Sprintf("'%s' is not ranked yet.", p.pendingRank))
		case err != nil:
			log.Printf("rank: lookup of %s failed: %v", p.pendingRank, err)
			r.notifier.Notify(p.ID, "Rank lookup failed.")
		default:
			r.notifier.Notify(p.ID, r.formatRank(p.pendingRank, stats))
		}
		p.pendingRank = ""
	}
}

func (r *Room) formatRank(name string, s rank.Cache) string {
	played := time.Duration(s.TimePlayed) * time.Second / time.Duration(r.TicksPerSecond())
	return fmt.Sprintf("'%s': %d points, %d wins, %d kills (%d wallshots), %d deaths, %d shots, %s played",
		name, s.Points, s.Wins, s.Kills, s.KillsWallshot, s.Deaths, s.Shots, played.Truncate(time.Second))
}
