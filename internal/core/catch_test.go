package core

import (
	"testing"

	"zcatch-server/internal/hardmode"
)

func TestCaptureIgnoresInvalidTargets(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	c := mustJoin(t, r, "c")

	r.Capture(a.ID, a.ID, ReasonKilled)
	r.Capture(a.ID, PlayerID(7), ReasonKilled)
	r.Capture(PlayerID(7), a.ID, ReasonKilled)
	if a.HasVictims() || a.IsCaught() {
		t.Fatalf("expected invalid captures to be ignored")
	}

	r.Capture(a.ID, c.ID, ReasonKilled)
	r.Capture(b.ID, c.ID, ReasonKilled)
	if c.CaughtBy != a.ID || b.HasVictims() {
		t.Fatalf("expected c to stay with a, got caughtBy=%d", c.CaughtBy)
	}
	if a.TotalCaught != 1 {
		t.Fatalf("expected TotalCaught 1, got %d", a.TotalCaught)
	}
	if c.Team != TeamSpectators || c.SpectatorID != a.ID {
		t.Fatalf("expected c to watch a as spectator, got team=%d spec=%d", c.Team, c.SpectatorID)
	}
}

func TestReleaseLastCaughtFirst(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	c := mustJoin(t, r, "c")
	d := mustJoin(t, r, "d")
	r.Capture(a.ID, b.ID, ReasonKilled)
	r.Capture(a.ID, c.ID, ReasonKilled)
	r.Capture(a.ID, d.ID, ReasonKilled)

	if n := r.Release(a, ReleaseAll, 1, false); n != 1 {
		t.Fatalf("expected 1 release, got %d", n)
	}
	if d.IsCaught() || !b.IsCaught() || !c.IsCaught() {
		t.Fatalf("expected only d to be released")
	}
	if d.Team != TeamPlaying || d.SpectatorID != SpecFreeview {
		t.Fatalf("expected d back in play, got team=%d spec=%d", d.Team, d.SpectatorID)
	}

	if n := r.Release(a, ReleaseAll, 0, false); n != 2 {
		t.Fatalf("expected 2 releases, got %d", n)
	}
	if a.HasVictims() || b.IsCaught() || c.IsCaught() {
		t.Fatalf("expected everyone released")
	}
}

func TestReleaseSpecificTarget(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	c := mustJoin(t, r, "c")
	r.Capture(a.ID, b.ID, ReasonKilled)
	r.Capture(a.ID, c.ID, ReasonKilled)

	if n := r.Release(a, b.ID, 1, false); n != 1 {
		t.Fatalf("expected 1 release, got %d", n)
	}
	if b.IsCaught() || !c.IsCaught() {
		t.Fatalf("expected only b to be released")
	}
	if n := r.Release(a, b.ID, 1, false); n != 0 {
		t.Fatalf("expected nothing left to release for b, got %d", n)
	}
}

func TestManualReleaseCountsKillsOnly(t *testing.T) {
	r, rec := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	c := mustJoin(t, r, "c")
	r.Capture(a.ID, b.ID, ReasonJoining)
	r.Capture(a.ID, c.ID, ReasonKilled)

	r.HandleChat(a, "/release")
	if a.KillsReleased != 1 {
		t.Fatalf("expected 1 released kill, got %d", a.KillsReleased)
	}
	if !rec.hasChat("'a' released 'c'") {
		t.Fatalf("expected release chat, got %v", rec.chats)
	}

	r.HandleChat(a, "/release")
	if a.KillsReleased != 1 {
		t.Fatalf("expected joining release not to count, got %d", a.KillsReleased)
	}

	r.HandleChat(a, "/release")
	if len(rec.notesFor(a.ID, "Nobody to release.")) != 1 {
		t.Fatalf("expected empty release notification")
	}
}

func TestReleaseJoinsSpectatorsWhenRequested(t *testing.T) {
	r, rec := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	r.Capture(a.ID, b.ID, ReasonKilled)

	r.RequestTeam(b, TeamSpectators)
	if !b.JoinSpecWhenReleased {
		t.Fatalf("expected join-spec wish to be recorded")
	}

	r.Release(a, ReleaseAll, 0, false)
	if b.Team != TeamSpectators || !b.SpecExplicit || b.JoinSpecWhenReleased {
		t.Fatalf("expected b in spectators, got team=%d explicit=%v wish=%v", b.Team, b.SpecExplicit, b.JoinSpecWhenReleased)
	}
	if !rec.hasChat("'b' joined the spectators") {
		t.Fatalf("expected spectator chat, got %v", rec.chats)
	}
}

func TestCapturerDisconnectReleasesAll(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	victims := []*Player{mustJoin(t, r, "b"), mustJoin(t, r, "c"), mustJoin(t, r, "d")}
	for _, v := range victims {
		r.Capture(a.ID, v.ID, ReasonKilled)
	}

	r.Leave(a.ID, "")
	if r.Resolve(a.ID) != nil {
		t.Fatalf("expected a to be gone")
	}
	for _, v := range victims {
		if v.IsCaught() || v.Team != TeamPlaying || v.SpectatorID != SpecFreeview {
			t.Fatalf("expected %s free, got caughtBy=%d team=%d spec=%d", v.Name, v.CaughtBy, v.Team, v.SpectatorID)
		}
	}
}

func TestCaughtCapturerDisconnect(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	c := mustJoin(t, r, "c")
	r.Capture(b.ID, c.ID, ReasonKilled)
	r.Capture(a.ID, b.ID, ReasonKilled)

	r.Leave(b.ID, "")
	if c.IsCaught() {
		t.Fatalf("expected b's victim to be released")
	}
	if a.HasVictims() {
		t.Fatalf("expected b's record removed from a, got %+v", a.Victims())
	}
}

func TestReleaseSkipsVictimHeldElsewhere(t *testing.T) {
	r, _ := newTestRoom(t, hardmode.VariantLaser)
	a := mustJoin(t, r, "a")
	b := mustJoin(t, r, "b")
	c := mustJoin(t, r, "c")
	r.Capture(a.ID, b.ID, ReasonKilled)

	// stale record: b now belongs to c
	b.CaughtBy = c.ID
	if n := r.Release(a, ReleaseAll, 0, false); n != 1 {
		t.Fatalf("expected the stale record to be removed, got %d", n)
	}
	if b.CaughtBy != c.ID {
		t.Fatalf("expected b to stay with c, got %d", b.CaughtBy)
	}
}
