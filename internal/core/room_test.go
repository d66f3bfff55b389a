package core

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"zcatch-server/internal/hardmode"
	"zcatch-server/internal/rank"
)

type note struct {
	id   PlayerID
	text string
}

// recorder collects notifications instead of writing to connections.
type recorder struct {
	mu    sync.Mutex
	notes []note
	chats []string
}

func (r *recorder) Notify(id PlayerID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{id: id, text: text})
}

func (r *recorder) Chat(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats = append(r.chats, text)
}

func (r *recorder) notesFor(id PlayerID, contains string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.notes {
		if n.id == id && strings.Contains(n.text, contains) {
			out = append(out, n.text)
		}
	}
	return out
}

func (r *recorder) hasChat(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chats {
		if c == text {
			return true
		}
	}
	return false
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
	r.chats = nil
}

// memStore accumulates writes like the SQL upsert does.
type memStore struct {
	mu      sync.Mutex
	records map[string]rank.Cache
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]rank.Cache)}
}

func (m *memStore) Read(_ context.Context, name string) (rank.Cache, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[name]
	if !ok {
		return rank.Cache{}, rank.ErrNotFound
	}
	return c, nil
}

func (m *memStore) Write(_ context.Context, name string, stats rank.Cache) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.records[name]
	c.Points += stats.Points
	c.Wins += stats.Wins
	c.Kills += stats.Kills
	c.KillsWallshot += stats.KillsWallshot
	c.Deaths += stats.Deaths
	c.Shots += stats.Shots
	c.TimePlayed += stats.TimePlayed
	m.records[name] = c
	return nil
}

func (m *memStore) Top(context.Context, int) ([]rank.Entry, error) {
	return nil, nil
}

func (m *memStore) get(name string) (rank.Cache, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[name]
	return c, ok
}

type fakePublisher struct {
	mu      sync.Mutex
	results []RoundResult
}

func (f *fakePublisher) Publish(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := v.(RoundResult); ok {
		f.results = append(f.results, res)
	}
	return nil
}

func newTestRoom(t *testing.T, variant hardmode.Variant) (*Room, *recorder) {
	t.Helper()
	rec := &recorder{}
	r := NewRoom("test", RoomOptions{
		TickRate: 50,
		Variant:  variant,
		Notifier: rec,
		Rand:     rand.New(rand.NewSource(1)),
	})
	return r, rec
}

func mustJoin(t *testing.T, r *Room, name string) *Player {
	t.Helper()
	p, err := r.Join(name, nil)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return p
}

func TestJoinAllocatesLowestFreeID(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	if a.ID != 0 || b.ID != 1 {
		t.Fatalf("expected ids 0 and 1, got %d and %d", a.ID, b.ID)
	}

	r.Leave(a.ID, "")
	c := mustJoin(t, r, "c")
	if c.ID != 0 {
		t.Fatalf("expected reused id 0, got %d", c.ID)
	}
}

func TestJoinRejectsFullRoom(t *testing.T) {
	rec := &recorder{}
	r := NewRoom("full", RoomOptions{MaxPlayers: 1, Notifier: rec})
	mustJoin(t, r, "a")
	if _, err := r.Join("b", nil); err != ErrRoomFull {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
}

func TestFirstTickSpawnsPlayers(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	r.GameLoop()
	if !a.Alive || a.Life != 1 {
		t.Fatalf("expected a alive in life 1, got alive=%v life=%d", a.Alive, a.Life)
	}
}

func TestHitCatchesVictim(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	c := mustJoin(t, r, "c")
	r.GameLoop()

	r.HandleHit(a.ID, b.ID, true)
	if b.CaughtBy != a.ID || b.Alive {
		t.Fatalf("expected b caught by a and dead, got caughtBy=%d alive=%v", b.CaughtBy, b.Alive)
	}
	if a.Rank.Kills != 1 || a.Rank.KillsWallshot != 1 || b.Rank.Deaths != 1 {
		t.Fatalf("unexpected stats: kills=%d wallshot=%d deaths=%d", a.Rank.Kills, a.Rank.KillsWallshot, b.Rank.Deaths)
	}

	// the victim's own victims go free when it dies
	r.HandleHit(c.ID, a.ID, false)
	if b.IsCaught() {
		t.Fatalf("expected b to be released when its captor died")
	}
	if a.CaughtBy != c.ID {
		t.Fatalf("expected a caught by c, got %d", a.CaughtBy)
	}
}

func TestCaughtKillerCannotCatch(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	c := mustJoin(t, r, "c")
	r.GameLoop()

	r.HandleHit(a.ID, b.ID, false)
	b.Alive = true
	r.HandleHit(b.ID, c.ID, false)
	if c.IsCaught() {
		t.Fatalf("expected a caught killer not to catch anybody")
	}
}

func TestDoubleKillNeedsSecondHit(t *testing.T) {
	r, rec := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	mustJoin(t, r, "c")
	r.GameLoop()

	if !r.AddHardMode(a, "double") {
		t.Fatalf("expected double to be available under laser")
	}
	r.HandleHit(a.ID, b.ID, false)
	if b.IsCaught() {
		t.Fatalf("expected first hit not to catch")
	}
	if len(rec.notesFor(a.ID, "One more")) != 1 {
		t.Fatalf("expected a hit notification")
	}
	r.HandleHit(a.ID, b.ID, false)
	if b.CaughtBy != a.ID {
		t.Fatalf("expected second hit to catch b")
	}
}

func TestJoinerCaughtByLeader(t *testing.T) {
	r, rec := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	r.GameLoop()
	r.HandleHit(a.ID, b.ID, false)

	c := mustJoin(t, r, "c")
	if c.CaughtBy != a.ID {
		t.Fatalf("expected joiner caught by leader a, got %d", c.CaughtBy)
	}
	if got := a.Victims(); len(got) != 2 || got[0].ID != c.ID || got[0].Reason != ReasonJoining {
		t.Fatalf("expected newest record to be c joining, got %+v", got)
	}
	if len(rec.notesFor(c.ID, "You are caught until 'a' dies.")) != 1 {
		t.Fatalf("expected caught notification for c")
	}
}

func TestRoundWinFlushesAndResets(t *testing.T) {
	store := newMemStore()
	pub := &fakePublisher{}
	rec := &recorder{}
	r := NewRoom("win", RoomOptions{
		TickRate:  50,
		Variant:   hardmode.VariantLaser,
		Notifier:  rec,
		Ranking:   rank.NewGateway(store),
		Publisher: pub,
	})
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	r.GameLoop()
	r.AddHardMode(a, "5s")
	round := r.RoundID

	r.HandleHit(a.ID, b.ID, false)
	r.GameLoop()

	if !rec.hasChat("'a' won the round with 1 victims") {
		t.Fatalf("expected win chat, got %v", rec.chats)
	}
	if b.IsCaught() || a.HasVictims() {
		t.Fatalf("expected everyone released after the round")
	}
	if a.HardMode.Active {
		t.Fatalf("expected hard mode reset after the round")
	}
	if r.RoundID == round {
		t.Fatalf("expected a new round id")
	}

	r.tasks.DrainAll()
	stats, ok := store.get("a")
	if !ok || stats.Wins != 1 || stats.Points != 1 || stats.Kills != 1 {
		t.Fatalf("unexpected stored stats for a: %+v (found=%v)", stats, ok)
	}
	if stats, _ := store.get("b"); stats.Deaths != 1 {
		t.Fatalf("expected b's death stored, got %+v", stats)
	}
	if a.Rank.Wins != 0 || !a.Rank.IsPlaying() {
		t.Fatalf("expected flushed cache with running clock, got %+v", a.Rank)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.results) != 1 || pub.results[0].Winner != "a" || pub.results[0].MatchID != round {
		t.Fatalf("unexpected published results %+v", pub.results)
	}
}

func TestNoWinBelowMinPlayers(t *testing.T) {
	r, rec := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	r.GameLoop()
	r.SetTeam(b, TeamSpectators, false)

	// spectators do not count, a alone holds nobody anyway
	r.GameLoop()
	for _, c := range rec.chats {
		if strings.Contains(c, "won the round") {
			t.Fatalf("unexpected round end: %s", c)
		}
	}
	if a.Rank.Wins != 0 {
		t.Fatalf("expected no win")
	}
}

func TestSuicideReleasesVictims(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	mustJoin(t, r, "c")
	r.GameLoop()
	r.HandleHit(a.ID, b.ID, false)

	r.Apply(Command{Player: a.ID, Kind: CmdSuicide})
	if a.Alive || b.IsCaught() {
		t.Fatalf("expected a dead and b free, got alive=%v caughtBy=%d", a.Alive, b.CaughtBy)
	}
	if a.Rank.Deaths != 1 {
		t.Fatalf("expected a suicide to count as death")
	}
}

func TestViewListsVictimsNewestFirst(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	c := mustJoin(t, r, "c")
	mustJoin(t, r, "d")
	r.Capture(a.ID, b.ID, ReasonKilled)
	r.Capture(a.ID, c.ID, ReasonKilled)

	view := r.View()
	if len(view.Players) != 4 {
		t.Fatalf("expected 4 players, got %d", len(view.Players))
	}
	got := view.Players[0].Victims
	if len(got) != 2 || got[0] != c.ID || got[1] != b.ID {
		t.Fatalf("expected victims [c b], got %v", got)
	}
}

func TestJoinClampsLongNames(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)

	long := mustJoin(t, r, strings.Repeat("x", 40))
	if long.Name != strings.Repeat("x", MaxNameLength) {
		t.Fatalf("expected name cut to %d bytes, got %q", MaxNameLength, long.Name)
	}

	// 15 ASCII bytes then a 2 byte rune crossing the limit
	multi := mustJoin(t, r, strings.Repeat("a", 15)+"éé")
	if multi.Name != strings.Repeat("a", 15) {
		t.Fatalf("expected cut on a rune boundary, got %q", multi.Name)
	}

	blank := mustJoin(t, r, "   ")
	if blank.Name != "player2" {
		t.Fatalf("expected generated name player2, got %q", blank.Name)
	}
}

func TestLongNameRankKeyFitsStore(t *testing.T) {
	store := newMemStore()
	rec := &recorder{}
	r := NewRoom("names", RoomOptions{Notifier: rec, Ranking: rank.NewGateway(store)})
	p := mustJoin(t, r, strings.Repeat("n", 40))
	p.Rank.Kills = 1

	r.Leave(p.ID, "")
	r.tasks.DrainAll()
	if _, ok := store.get(strings.Repeat("n", MaxNameLength)); !ok {
		t.Fatalf("expected stats stored under the clamped name")
	}
}

func TestStaleConnectionCommandsIgnored(t *testing.T) {
	r, rec := newTestRoom(t, hardmode.VariantLaser)
	oldConn := &WebSocketConn{}
	old, err := r.Join("old", oldConn)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	r.Leave(old.ID, "")

	fresh, err := r.Join("fresh", &WebSocketConn{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if fresh.ID != old.ID {
		t.Fatalf("expected id %d to be reused, got %d", old.ID, fresh.ID)
	}

	r.Apply(Command{Player: fresh.ID, Kind: CmdChat, Text: "left over", Conn: oldConn})
	if rec.hasChat("fresh: left over") {
		t.Fatalf("expected command from the old connection to be dropped")
	}

	r.Apply(Command{Player: fresh.ID, Kind: CmdChat, Text: "hi", Conn: fresh.Conn})
	if !rec.hasChat("fresh: hi") {
		t.Fatalf("expected command from the current connection to apply")
	}
}

func TestViewReportsCounters(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	c := mustJoin(t, r, "c")
	r.GameLoop()
	r.HandleHit(a.ID, b.ID, false)
	r.HandleChat(a, "/release")
	r.SetTeam(c, TeamSpectators, false)

	view := r.View()
	pa := view.Players[0]
	if pa.TotalCaught != 1 || pa.KillsInARow != 1 || pa.KillsReleased != 1 {
		t.Fatalf("unexpected counters %+v", pa)
	}
	if pc := view.Players[2]; pc.Team != TeamSpectators || !pc.SpecExplicit {
		t.Fatalf("expected c listed as explicit spectator, got %+v", pc)
	}
}
