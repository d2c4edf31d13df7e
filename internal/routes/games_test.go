package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/jobs"
)

func TestCreateGameEnqueuesJobForLobbyMember(t *testing.T) {
	server := setUpServer(t)
	user, token := server.signIn(t, "member@example.com")

	lobby, err := data.CreateLobby(server.db, "game night", user.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}

	body := fmt.Sprintf(`{"lobby_id":%q}`, lobby.ID)
	response := server.perform(t, postRequest("/games", token, body))

	if response.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Status)
	}

	var handle jobs.Handle
	if err := json.Unmarshal(response.Body, &handle); err != nil {
		t.Fatalf("error decoding handle: %s", err)
	}
	if handle.ID == "" {
		t.Fatal("expected a job identifier in the creation envelope")
	}
	if handle.Result != nil {
		t.Errorf("expected a null result immediately after enqueue, got %s", handle.Result)
	}

	// Polling before the worker runs still projects a pending handle.
	poll := server.perform(t, getRequest("/jobs?ids[]="+handle.ID, token))
	if poll.Status != http.StatusOK {
		t.Fatalf("expected 200 polling jobs, got %d", poll.Status)
	}
	var handles []jobs.Handle
	if err := json.Unmarshal(poll.Body, &handles); err != nil {
		t.Fatalf("error decoding handles: %s", err)
	}
	if len(handles) != 1 || handles[0].ID != handle.ID || handles[0].Result != nil {
		t.Errorf("expected one pending handle for %s, got %+v", handle.ID, handles)
	}
}

func TestCreateGameUnknownLobbyEnqueuesNothing(t *testing.T) {
	server := setUpServer(t)
	_, token := server.signIn(t, "member@example.com")

	response := server.perform(t, postRequest("/games", token, `{"lobby_id":"no-such-lobby"}`))

	if response.Status != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown lobby, got %d", response.Status)
	}
	if count := server.pendingJobCount(t); count != 0 {
		t.Errorf("expected an empty job store, found %d records", count)
	}
}

func TestCreateGameRequiresLobbyMembership(t *testing.T) {
	server := setUpServer(t)
	creator, _ := server.signIn(t, "creator@example.com")
	_, outsiderToken := server.signIn(t, "outsider@example.com")

	lobby, err := data.CreateLobby(server.db, "game night", creator.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}

	body := fmt.Sprintf(`{"lobby_id":%q}`, lobby.ID)
	response := server.perform(t, postRequest("/games", outsiderToken, body))

	if response.Status != http.StatusNotFound {
		t.Errorf("expected 404 for a non-member, got %d", response.Status)
	}
	if count := server.pendingJobCount(t); count != 0 {
		t.Errorf("expected an empty job store, found %d records", count)
	}
}

func TestCreateGameAnonymousLooksLikeMissingResource(t *testing.T) {
	server := setUpServer(t)
	user, _ := server.signIn(t, "member@example.com")

	lobby, err := data.CreateLobby(server.db, "game night", user.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}

	body := fmt.Sprintf(`{"lobby_id":%q}`, lobby.ID)
	response := server.perform(t, postRequest("/games", "", body))

	// Anonymous callers get the exact same answer a missing resource would
	// produce, never a distinct forbidden status.
	if response.Status != http.StatusNotFound {
		t.Errorf("expected 404 for anonymous callers, got %d", response.Status)
	}
}

func TestCreateGameOversizedBodyHasNoSideEffects(t *testing.T) {
	server := setUpServer(t)
	user, token := server.signIn(t, "member@example.com")

	lobby, err := data.CreateLobby(server.db, "game night", user.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}

	padding := make([]byte, 2048)
	for i := range padding {
		padding[i] = 'x'
	}
	body := fmt.Sprintf(`{"lobby_id":%q,"padding":%q}`, lobby.ID, padding)
	response := server.perform(t, postRequest("/games", token, body))

	if response.Status != http.StatusInternalServerError {
		t.Errorf("expected a failure response for an oversized body, got %d", response.Status)
	}
	if count := server.pendingJobCount(t); count != 0 {
		t.Errorf("oversized requests must not enqueue anything, found %d records", count)
	}
}

func TestFindGamesReturnsDetailsForMember(t *testing.T) {
	server := setUpServer(t)
	user, token := server.signIn(t, "member@example.com")

	lobby, err := data.CreateLobby(server.db, "game night", user.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}
	game, err := data.CreateGame(server.db, lobby, user.ID)
	if err != nil {
		t.Fatalf("error seeding game: %s", err)
	}

	response := server.perform(t, getRequest("/games?ids[]="+game.ID, token))
	if response.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Status)
	}

	var details struct {
		ID      string `json:"id"`
		Members []struct {
			UserID string `json:"user_id"`
		} `json:"members"`
		Rounds []struct {
			Position int    `json:"position"`
			Prompt   string `json:"prompt"`
		} `json:"rounds"`
	}
	if err := json.Unmarshal(response.Body, &details); err != nil {
		t.Fatalf("error decoding details: %s", err)
	}
	if details.ID != game.ID {
		t.Errorf("expected game %s, got %s", game.ID, details.ID)
	}
	if len(details.Members) != 1 || details.Members[0].UserID != user.ID {
		t.Errorf("unexpected members: %+v", details.Members)
	}
	if len(details.Rounds) == 0 {
		t.Error("expected rounds in the game details")
	}
}

func TestFindGamesHiddenFromNonMembers(t *testing.T) {
	server := setUpServer(t)
	creator, _ := server.signIn(t, "creator@example.com")
	_, outsiderToken := server.signIn(t, "outsider@example.com")

	lobby, err := data.CreateLobby(server.db, "game night", creator.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}
	game, err := data.CreateGame(server.db, lobby, creator.ID)
	if err != nil {
		t.Fatalf("error seeding game: %s", err)
	}

	response := server.perform(t, getRequest("/games?ids[]="+game.ID, outsiderToken))
	if response.Status != http.StatusNotFound {
		t.Errorf("expected 404 for a non-member, got %d", response.Status)
	}
}
