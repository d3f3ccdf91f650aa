package session

import (
	"fmt"
	"testing"
)

func TestAppendEvictsOldestTurns(t *testing.T) {
	s := NewStore()

	for i := 0; i < MaxTurns+3; i++ {
		s.Append("u1", "user", fmt.Sprintf("mensaje %d", i))
	}

	snap, ok := s.Get("u1")
	if !ok {
		t.Fatal("expected a session after Append")
	}
	if len(snap.Turns) != MaxTurns {
		t.Fatalf("window holds %d turns, want %d", len(snap.Turns), MaxTurns)
	}
	if snap.Turns[0].Content != "mensaje 3" {
		t.Errorf("oldest kept turn = %q, want the eviction to drop the first 3", snap.Turns[0].Content)
	}
	if snap.Turns[MaxTurns-1].Content != fmt.Sprintf("mensaje %d", MaxTurns+2) {
		t.Errorf("newest turn = %q", snap.Turns[MaxTurns-1].Content)
	}
}

func TestStartReplacesSession(t *testing.T) {
	s := NewStore()

	first := s.Start("u1")
	s.Append("u1", "user", "hola")
	second := s.Start("u1")

	if first.ID == second.ID {
		t.Error("restarting must mint a new session id")
	}
	snap, _ := s.Get("u1")
	if len(snap.Turns) != 0 {
		t.Errorf("restarted session carried %d turns", len(snap.Turns))
	}
}

func TestResetKeepsSessionOpen(t *testing.T) {
	s := NewStore()

	started := s.Start("u1")
	s.Append("u1", "user", "hola")
	s.Reset("u1")

	snap, ok := s.Get("u1")
	if !ok {
		t.Fatal("reset must not close the session")
	}
	if snap.ID != started.ID {
		t.Error("reset must keep the session id")
	}
	if len(snap.Turns) != 0 {
		t.Errorf("reset left %d turns", len(snap.Turns))
	}
}

func TestEndRemovesSession(t *testing.T) {
	s := NewStore()

	s.Append("u1", "user", "hola")
	s.Append("u1", "assistant", "¡Hola! ¿Cómo te ayudo?")

	snap, ok := s.End("u1")
	if !ok {
		t.Fatal("expected a final snapshot")
	}
	if len(snap.Turns) != 2 {
		t.Errorf("final snapshot has %d turns", len(snap.Turns))
	}
	if _, ok := s.Get("u1"); ok {
		t.Error("session still present after End")
	}

	if _, ok := s.End("u1"); ok {
		t.Error("ending twice must report no session")
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := NewStore()
	s.Append("u1", "user", "hola")

	snap, _ := s.Get("u1")
	snap.Turns[0].Content = "mutado"

	again, _ := s.Get("u1")
	if again.Turns[0].Content != "hola" {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s := NewStore()
	s.Append("u1", "user", "hola")
	s.Append("u2", "user", "buenas")

	a, _ := s.Get("u1")
	b, _ := s.Get("u2")
	if a.ID == b.ID {
		t.Error("users share a session id")
	}
	if a.Turns[0].Content == b.Turns[0].Content {
		t.Error("users share turns")
	}
}
