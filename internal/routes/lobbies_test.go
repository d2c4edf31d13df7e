package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/jobs"
)

func TestCreateLobbyEnqueuesJob(t *testing.T) {
	server := setUpServer(t)
	_, token := server.signIn(t, "member@example.com")

	response := server.perform(t, postRequest("/lobbies", token, `{"name":"game night"}`))
	if response.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Status)
	}

	var handle jobs.Handle
	if err := json.Unmarshal(response.Body, &handle); err != nil {
		t.Fatalf("error decoding handle: %s", err)
	}
	if handle.ID == "" || handle.Result != nil {
		t.Errorf("expected a pending handle, got %+v", handle)
	}

	if count := server.pendingJobCount(t); count != 1 {
		t.Errorf("expected one queued job record, found %d", count)
	}
}

func TestCreateLobbyRejectsInvalidPayload(t *testing.T) {
	server := setUpServer(t)
	_, token := server.signIn(t, "member@example.com")

	response := server.perform(t, postRequest("/lobbies", token, `{"name":""}`))
	if response.Status != http.StatusInternalServerError {
		t.Errorf("expected 500 for an invalid payload, got %d", response.Status)
	}
	if count := server.pendingJobCount(t); count != 0 {
		t.Errorf("expected no queued jobs after a rejected payload, found %d", count)
	}
}

func TestFindLobbiesOmitsNonMemberLobbies(t *testing.T) {
	server := setUpServer(t)
	member, token := server.signIn(t, "member@example.com")
	outsider, _ := server.signIn(t, "outsider@example.com")

	mine, err := data.CreateLobby(server.db, "mine", member.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}
	theirs, err := data.CreateLobby(server.db, "theirs", outsider.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}

	path := fmt.Sprintf("/lobbies?ids[]=%s&ids[]=%s", mine.ID, theirs.ID)
	response := server.perform(t, getRequest(path, token))
	if response.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Status)
	}

	var details []lobbyDetails
	if err := json.Unmarshal(response.Body, &details); err != nil {
		t.Fatalf("error decoding lobby details: %s", err)
	}
	if len(details) != 1 || details[0].ID != mine.ID {
		t.Fatalf("expected only the caller's lobby, got %+v", details)
	}
	if len(details[0].Members) != 1 || details[0].Members[0].UserID != member.ID {
		t.Errorf("unexpected member roster: %+v", details[0].Members)
	}
}

func TestFindLobbiesAllHiddenIsNotFound(t *testing.T) {
	server := setUpServer(t)
	_, token := server.signIn(t, "member@example.com")
	outsider, _ := server.signIn(t, "outsider@example.com")

	theirs, err := data.CreateLobby(server.db, "theirs", outsider.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}

	response := server.perform(t, getRequest("/lobbies?ids[]="+theirs.ID, token))
	if response.Status != http.StatusNotFound {
		t.Errorf("expected 404 when every lobby is hidden, got %d", response.Status)
	}
}
