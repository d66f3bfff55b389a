package core

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"zcatch-server/internal/hardmode"
	"zcatch-server/internal/rank"
	"zcatch-server/internal/task"
)

const (
	DefaultTickRate   = 50
	DefaultMaxPlayers = 16
	DefaultMinPlayers = 2

	respawnDelaySeconds = 3
)

var (
	ErrRoomFull   = errors.New("room is full")
	ErrRoomClosed = errors.New("room is closed")
)

// Publisher ships round results off the tick loop (amqp in production).
type Publisher interface {
	Publish(v interface{}) error
}

type RoomOptions struct {
	TickRate      int
	MaxPlayers    int
	MinPlayers    int
	Variant       hardmode.Variant
	AimBotSpeed   float64 // 0 disables the check
	LockTimeoutMs int     // gateway wait from the tick loop

	Ranking   *rank.Gateway
	Publisher Publisher
	Notifier  Notifier   // defaults to the websocket connections
	Rand      *rand.Rand // defaults to a time seeded source
}

// RoundResult 回合结果，发送到 MQ
type RoundResult struct {
	MatchID   string `json:"match_id"`
	RoomID    string `json:"room_id"`
	Winner    string `json:"winner"`
	WinnerID  int    `json:"winner_id"`
	Victims   int    `json:"victims"`
	Players   int    `json:"players"`
	Timestamp int64  `json:"timestamp"`
}

type joinRequest struct {
	name  string
	conn  *WebSocketConn
	reply chan joinReply
}

type joinReply struct {
	id  PlayerID
	err error
}

type Room struct {
	ID         string
	Players    map[PlayerID]*Player
	Register   chan joinRequest
	Unregister chan PlayerID
	Commands   chan Command

	// 状态控制
	Mutex    sync.RWMutex
	Ticker   *time.Ticker
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// Tick系统
	CurrentTick int64
	RoundID     string

	LastActiveTime int64
	CreatedAt      int64

	opts     RoomOptions
	notifier Notifier
	tasks    *task.Pool
	rng      *rand.Rand
}

func NewRoom(id string, opts RoomOptions) *Room {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = DefaultMaxPlayers
	}
	if opts.MinPlayers < 2 {
		opts.MinPlayers = DefaultMinPlayers
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	now := time.Now().Unix()
	r := &Room{
		ID:             id,
		Players:        make(map[PlayerID]*Player),
		Register:       make(chan joinRequest),
		Unregister:     make(chan PlayerID),
		Commands:       make(chan Command, 256),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		RoundID:        uuid.New().String(),
		LastActiveTime: now,
		CreatedAt:      now,
		opts:           opts,
		tasks:          task.NewPool(),
		rng:            opts.Rand,
	}
	r.notifier = opts.Notifier
	if r.notifier == nil {
		r.notifier = connNotifier{room: r}
	}
	return r
}

func (r *Room) TicksPerSecond() int { return r.opts.TickRate }

func (r *Room) Run() {
	defer close(r.done)

	r.Ticker = time.NewTicker(time.Second / time.Duration(r.opts.TickRate))
	defer r.Ticker.Stop()

	for {
		select {
		case <-r.quit:
			r.shutdown()
			return

		case req := <-r.Register:
			r.Mutex.Lock()
			p, err := r.Join(req.name, req.conn)
			r.Mutex.Unlock()
			if err != nil {
				req.reply <- joinReply{id: NotCaught, err: err}
				continue
			}
			req.reply <- joinReply{id: p.ID}

		case id := <-r.Unregister:
			r.Mutex.Lock()
			r.Leave(id, "")
			r.Mutex.Unlock()

		case cmd := <-r.Commands:
			r.Mutex.Lock()
			r.Apply(cmd)
			r.Mutex.Unlock()

		case <-r.Ticker.C:
			r.GameLoop()
		}
	}
}

// Stop ends the loop, saves every session and waits for background work.
// Must not be called from the room goroutine.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
	<-r.done
}

func (r *Room) shutdown() {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()

	for _, id := range r.playerIDs() {
		r.Leave(id, "server shutdown")
	}
	r.tasks.DrainAll()
	log.Printf("Room %s stopped", r.ID)
}

// RequestJoin is called from connection goroutines.
func (r *Room) RequestJoin(name string, conn *WebSocketConn) (PlayerID, error) {
	req := joinRequest{name: name, conn: conn, reply: make(chan joinReply, 1)}
	select {
	case r.Register <- req:
	case <-r.done:
		return NotCaught, ErrRoomClosed
	}
	rep := <-req.reply
	return rep.id, rep.err
}

func (r *Room) RequestLeave(id PlayerID) {
	select {
	case r.Unregister <- id:
	case <-r.done:
	}
}

func (r *Room) Submit(cmd Command) {
	select {
	case r.Commands <- cmd:
	case <-r.done:
	}
}

// --- 核心 Tick 逻辑 ---
func (r *Room) GameLoop() {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()

	r.CurrentTick++

	// 1. 回收已完成的后台任务
	r.tasks.PollCompleted()

	// 2. 玩家逐个推进
	for _, id := range r.playerIDs() {
		if p := r.Players[id]; p != nil {
			r.tickPlayer(p)
		}
	}

	// 3. 排名查询
	r.processRankQueries()

	// 4. 检查胜利条件
	r.CheckWinCondition()
}

func (r *Room) tickPlayer(p *Player) {
	p.updateAim()

	if !p.Alive && p.Team != TeamSpectators && !p.IsCaught() && p.RespawnTick <= r.CurrentTick {
		r.spawn(p)
	}

	r.tickHardMode(p)
}

func (r *Room) spawn(p *Player) {
	p.Alive = true
	p.Life++
	p.HardMode.OnSpawn()
}

// playerIDs 按 id 排序，保证每个 tick 的处理顺序确定
func (r *Room) playerIDs() []PlayerID {
	ids := make([]PlayerID, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Room) allocID() (PlayerID, bool) {
	for id := PlayerID(0); int(id) < r.opts.MaxPlayers; id++ {
		if _, taken := r.Players[id]; !taken {
			return id, true
		}
	}
	return NotCaught, false
}

// Join creates a session. Players joining a running round are caught by the leader.
func (r *Room) Join(name string, conn *WebSocketConn) (*Player, error) {
	id, ok := r.allocID()
	if !ok {
		return nil, ErrRoomFull
	}
	name = clampName(strings.TrimSpace(name))
	if name == "" {
		name = fmt.Sprintf("player%d", id)
	}

	p := NewPlayer(id, name, conn)
	p.RespawnTick = r.CurrentTick
	p.Rank.StartPlaying(r.CurrentTick)
	r.Players[id] = p
	r.LastActiveTime = time.Now().Unix()

	r.notifier.Chat(fmt.Sprintf("'%s' entered and joined the game", name))
	r.catchByLeader(p)
	log.Printf("Player %d (%s) joined room %s", id, name, r.ID)
	return p, nil
}

// Leave 玩家断开：先释放抓捕关系，再保存排名，最后销毁会话
func (r *Room) Leave(id PlayerID, reason string) {
	p := r.Resolve(id)
	if p == nil {
		return
	}

	r.detach(p)
	r.SaveRanking(p)
	p.HardMode.Reset()
	p.Alive = false
	delete(r.Players, id)
	r.LastActiveTime = time.Now().Unix()

	msg := fmt.Sprintf("'%s' has left the game", p.Name)
	if reason != "" {
		msg = fmt.Sprintf("'%s' has left the game (%s)", p.Name, reason)
	}
	r.notifier.Chat(msg)
	log.Printf("Player %d (%s) left room %s", id, p.Name, r.ID)
}

// Apply 执行连接投递来的命令
func (r *Room) Apply(cmd Command) {
	p := r.Resolve(cmd.Player)
	if p == nil {
		return
	}
	// queued by a connection whose session already left, id may be reused
	if cmd.Conn != nil && cmd.Conn != p.Conn {
		return
	}

	switch cmd.Kind {
	case CmdHit:
		r.HandleHit(p.ID, cmd.Target, cmd.Wallshot)
	case CmdShot:
		r.HandleShot(p, cmd.Failed)
	case CmdAim:
		p.SetTarget(cmd.X, cmd.Y)
	case CmdSuicide:
		r.KillCharacter(p)
	case CmdChat:
		r.HandleChat(p, cmd.Text)
	case CmdTeam:
		r.RequestTeam(p, cmd.Team)
	}
}

// HandleHit applies a lethal hit reported by the simulation. The victim's own victims
// go free, then the killer catches the victim.
func (r *Room) HandleHit(killerID, victimID PlayerID, wallshot bool) {
	killer := r.Resolve(killerID)
	victim := r.Resolve(victimID)
	if victim == nil || !victim.Alive {
		return
	}
	if killer == nil || killer == victim {
		r.KillCharacter(victim)
		return
	}
	if !killer.Alive || killer.IsCaught() {
		return
	}
	if !killer.HardMode.DoubleKillHit(victim.CharacterRef()) {
		r.notifier.Notify(killer.ID, "Hit! One more to catch.")
		return
	}

	victim.Alive = false
	victim.RespawnTick = r.CurrentTick + int64(respawnDelaySeconds*r.TicksPerSecond())
	victim.Rank.Deaths++
	victim.KillsInARow = 0

	killer.Rank.Kills++
	if wallshot {
		killer.Rank.KillsWallshot++
	}
	killer.KillsInARow++

	r.Release(victim, ReleaseAll, 0, false)
	r.Capture(killer.ID, victim.ID, ReasonKilled)
	killer.HardMode.OnKill(r.CurrentTick)

	if r.opts.AimBotSpeed > 0 && killer.AimSpeed > r.opts.AimBotSpeed {
		log.Printf("room %s: suspicious aim speed %.0f by %d (%s) catching %d (%s)",
			r.ID, killer.AimSpeed, killer.ID, killer.Name, victim.ID, victim.Name)
	}
}

// KillCharacter ends the current life without a killer (suicide, too many fails).
func (r *Room) KillCharacter(p *Player) {
	if !p.Alive {
		return
	}
	p.Alive = false
	p.RespawnTick = r.CurrentTick + int64(respawnDelaySeconds*r.TicksPerSecond())
	p.Rank.Deaths++
	p.KillsInARow = 0
	r.Release(p, ReleaseAll, 0, false)
}

func (r *Room) HandleShot(p *Player, failed bool) {
	if !p.Alive {
		return
	}
	p.Rank.Shots++
	if failed {
		r.HardModeFailedShot(p)
	}
}

// SetTeam is the full team change path, including the chat line.
func (r *Room) SetTeam(p *Player, team int, doChat bool) {
	if team != TeamSpectators {
		team = TeamPlaying
	}
	if p.Team == team {
		return
	}

	if doChat {
		r.notifier.Chat(fmt.Sprintf("'%s' joined the %s", p.Name, teamName(team)))
	}

	p.Alive = false
	r.Release(p, ReleaseAll, 0, false)
	p.Team = team
	p.SpectatorID = SpecFreeview
	// 0.5 秒后才能重生
	p.RespawnTick = r.CurrentTick + int64(r.TicksPerSecond()/2)

	if team == TeamSpectators {
		for _, other := range r.Players {
			if other.SpectatorID == p.ID {
				other.SpectatorID = SpecFreeview
			}
		}
		p.SpecExplicit = true
		p.Rank.StopPlaying(r.CurrentTick)
	} else {
		p.SpecExplicit = false
		p.Rank.StartPlaying(r.CurrentTick)
	}
}

// RequestTeam handles a player's own team request. Caught players only record the wish.
func (r *Room) RequestTeam(p *Player, team int) {
	if p.IsCaught() {
		if team == TeamSpectators {
			p.JoinSpecWhenReleased = true
			r.notifier.Notify(p.ID, "You will join the spectators once you are released.")
		} else {
			p.JoinSpecWhenReleased = false
			r.notifier.Notify(p.ID, "You will join the game once you are released.")
		}
		return
	}

	r.SetTeam(p, team, true)
	if p.Team == TeamPlaying {
		r.catchByLeader(p)
	}
}

func teamName(team int) string {
	if team == TeamSpectators {
		return "spectators"
	}
	return "game"
}

// CheckWinCondition ends the round when a single uncaught participant is left.
func (r *Room) CheckWinCondition() {
	participants := 0
	var free []*Player
	for _, id := range r.playerIDs() {
		p := r.Players[id]
		switch {
		case p.IsCaught():
			participants++
		case p.Team != TeamSpectators:
			participants++
			free = append(free, p)
		}
	}

	if participants < r.opts.MinPlayers || len(free) != 1 || !free[0].HasVictims() {
		return
	}
	r.endRound(free[0])
}

func (r *Room) endRound(winner *Player) {
	victims := winner.NumVictims()
	winner.Rank.Wins++
	winner.Rank.Points += victims

	r.notifier.Chat(fmt.Sprintf("'%s' won the round with %d victims", winner.Name, victims))
	r.publishResult(RoundResult{
		MatchID:   r.RoundID,
		RoomID:    r.ID,
		Winner:    winner.Name,
		WinnerID:  int(winner.ID),
		Victims:   victims,
		Players:   len(r.Players),
		Timestamp: time.Now().Unix(),
	})

	r.Release(winner, ReleaseAll, 0, false)
	for _, id := range r.playerIDs() {
		p := r.Players[id]
		r.flushRanking(p)
		p.HardMode.Reset()
		p.KillsInARow = 0
		p.Alive = false
		p.RespawnTick = r.CurrentTick + int64(r.TicksPerSecond()/2)
	}
	r.RoundID = uuid.New().String()
}

func (r *Room) publishResult(res RoundResult) {
	pub := r.opts.Publisher
	if pub == nil {
		return
	}
	r.tasks.Submit(task.Go("round-result:"+res.MatchID, func() {
		if err := pub.Publish(res); err != nil {
			log.Printf("Failed to publish round result %s: %v", res.MatchID, err)
		}
	}))
}

// PendingTasks 后台任务数量
func (r *Room) PendingTasks() int {
	return r.tasks.Len()
}

// --- HTTP 只读视图 ---

type PlayerView struct {
	ID            PlayerID   `json:"id"`
	Name          string     `json:"name"`
	Team          int        `json:"team"`
	SpecExplicit  bool       `json:"spec_explicit"`
	Alive         bool       `json:"alive"`
	CaughtBy      PlayerID   `json:"caught_by"`
	Victims       []PlayerID `json:"victims"`
	TotalCaught   int        `json:"total_caught"`
	KillsInARow   int        `json:"kills_in_a_row"`
	KillsReleased int        `json:"kills_released"`
	HardMode      string     `json:"hard_mode,omitempty"`
}

type RoomView struct {
	ID      string       `json:"id"`
	Tick    int64        `json:"tick"`
	RoundID string       `json:"round_id"`
	Players []PlayerView `json:"players"`
}

func (r *Room) View() RoomView {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()

	view := RoomView{ID: r.ID, Tick: r.CurrentTick, RoundID: r.RoundID, Players: make([]PlayerView, 0, len(r.Players))}
	for _, id := range r.playerIDs() {
		p := r.Players[id]
		pv := PlayerView{
			ID:            p.ID,
			Name:          p.Name,
			Team:          p.Team,
			SpecExplicit:  p.SpecExplicit,
			Alive:         p.Alive,
			CaughtBy:      p.CaughtBy,
			Victims:       make([]PlayerID, 0, p.NumVictims()),
			TotalCaught:   p.TotalCaught,
			KillsInARow:   p.KillsInARow,
			KillsReleased: p.KillsReleased,
			HardMode:      p.HardMode.Description(),
		}
		for _, v := range p.Victims() {
			pv.Victims = append(pv.Victims, v.ID)
		}
		view.Players = append(view.Players, pv)
	}
	return view
}
