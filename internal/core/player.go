package core

import (
	"math"
	"unicode/utf8"

	"zcatch-server/internal/hardmode"
	"zcatch-server/internal/rank"
)

// PlayerID 连接期间稳定，断开后可复用
type PlayerID int

const (
	NotCaught    PlayerID = -1
	ReleaseAll   PlayerID = -1
	SpecFreeview PlayerID = -1
)

// MaxNameLength 名字最大字节数，超出部分在 UTF-8 边界截断
const MaxNameLength = 16

const (
	TeamSpectators = -1
	TeamPlaying    = 0
)

type CaptureReason int

const (
	ReasonJoining CaptureReason = iota
	ReasonKilled
)

func (r CaptureReason) String() string {
	if r == ReasonKilled {
		return "killed"
	}
	return "joining"
}

// Victim is one capture record held by a capturer.
type Victim struct {
	ID     PlayerID
	Reason CaptureReason
}

type Player struct {
	ID   PlayerID
	Name string
	Conn *WebSocketConn // 网络连接封装, nil for bots and tests

	Team         int
	SpectatorID  PlayerID
	SpecExplicit bool

	// 抓捕状态
	CaughtBy             PlayerID
	JoinSpecWhenReleased bool
	victims              []Victim // stack, newest last
	TotalCaught          int
	KillsInARow          int
	KillsReleased        int

	// 角色生命
	Alive       bool
	Life        uint32
	RespawnTick int64

	HardMode hardmode.State
	Rank     rank.Cache

	// 瞄准速度 (bot detection)
	latestTarget [2]float64
	curTarget    [2]float64
	AimSpeed     float64

	pendingRank string
}

func NewPlayer(id PlayerID, name string, conn *WebSocketConn) *Player {
	return &Player{
		ID:          id,
		Name:        name,
		Conn:        conn,
		Team:        TeamPlaying,
		SpectatorID: SpecFreeview,
		CaughtBy:    NotCaught,
		Rank:        rank.NewCache(),
	}
}

func (p *Player) IsCaught() bool { return p.CaughtBy != NotCaught }

func (p *Player) HasVictims() bool { return len(p.victims) > 0 }

func (p *Player) NumVictims() int { return len(p.victims) }

// Victims returns the capture records, most recently caught first.
func (p *Player) Victims() []Victim {
	out := make([]Victim, 0, len(p.victims))
	for i := len(p.victims) - 1; i >= 0; i-- {
		out = append(out, p.victims[i])
	}
	return out
}

func (p *Player) CharacterRef() hardmode.CharacterRef {
	return hardmode.CharacterRef{Player: int(p.ID), Life: p.Life}
}

// SetTarget records the latest cursor position from input.
func (p *Player) SetTarget(x, y float64) {
	p.latestTarget = [2]float64{x, y}
}

func (p *Player) updateAim() {
	last := p.curTarget
	p.curTarget = p.latestTarget
	p.AimSpeed = math.Hypot(p.curTarget[0]-last[0], p.curTarget[1]-last[1])
}

// clampName cuts name to MaxNameLength bytes without splitting a rune.
func clampName(name string) string {
	if len(name) <= MaxNameLength {
		return name
	}
	n := MaxNameLength
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	return name[:n]
}
