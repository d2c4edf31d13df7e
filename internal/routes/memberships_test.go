package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/jobs"
)

func TestCreateLobbyMembershipJoins(t *testing.T) {
	server := setUpServer(t)
	creator, _ := server.signIn(t, "creator@example.com")
	joiner, token := server.signIn(t, "joiner@example.com")

	lobby, err := data.CreateLobby(server.db, "game night", creator.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}

	body := fmt.Sprintf(`{"lobby_id":%q}`, lobby.ID)
	response := server.perform(t, postRequest("/lobby-memberships", token, body))
	if response.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Status)
	}

	var membership membershipData
	if err := json.Unmarshal(response.Body, &membership); err != nil {
		t.Fatalf("error decoding membership: %s", err)
	}
	if membership.LobbyID != lobby.ID || membership.MembershipID == "" {
		t.Errorf("unexpected membership payload: %+v", membership)
	}

	found, err := data.FindActiveLobbyMembership(server.db, lobby.ID, joiner.ID)
	if err != nil {
		t.Fatalf("error finding membership: %s", err)
	}
	if found == nil || found.ID != membership.MembershipID {
		t.Errorf("membership record missing after join")
	}
}

func TestCreateLobbyMembershipRejoinReturnsExisting(t *testing.T) {
	server := setUpServer(t)
	creator, token := server.signIn(t, "creator@example.com")

	lobby, err := data.CreateLobby(server.db, "game night", creator.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}

	body := fmt.Sprintf(`{"lobby_id":%q}`, lobby.ID)
	response := server.perform(t, postRequest("/lobby-memberships", token, body))
	if response.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Status)
	}

	var membership membershipData
	if err := json.Unmarshal(response.Body, &membership); err != nil {
		t.Fatalf("error decoding membership: %s", err)
	}

	existing, err := data.FindActiveLobbyMembership(server.db, lobby.ID, creator.ID)
	if err != nil {
		t.Fatalf("error finding membership: %s", err)
	}
	if existing == nil || membership.MembershipID != existing.ID {
		t.Errorf("expected the creator's original membership, got %+v", membership)
	}
}

func TestCreateLobbyMembershipUnknownLobby(t *testing.T) {
	server := setUpServer(t)
	_, token := server.signIn(t, "joiner@example.com")

	response := server.perform(t, postRequest("/lobby-memberships", token, `{"lobby_id":"nope"}`))
	if response.Status != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown lobby, got %d", response.Status)
	}
}

func TestDestroyLobbyMembershipLeavesAndEnqueuesCleanup(t *testing.T) {
	server := setUpServer(t)
	member, token := server.signIn(t, "member@example.com")

	lobby, err := data.CreateLobby(server.db, "game night", member.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}
	membership, err := data.FindActiveLobbyMembership(server.db, lobby.ID, member.ID)
	if err != nil || membership == nil {
		t.Fatalf("error finding seeded membership: %s", err)
	}

	body := fmt.Sprintf(`{"membership_id":%q}`, membership.ID)
	response := server.perform(t, deleteRequest("/lobby-memberships", token, body))
	if response.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.Status)
	}

	var handle jobs.Handle
	if err := json.Unmarshal(response.Body, &handle); err != nil {
		t.Fatalf("error decoding handle: %s", err)
	}
	if handle.ID == "" {
		t.Error("expected a cleanup job handle")
	}

	active, err := data.FindActiveLobbyMembership(server.db, lobby.ID, member.ID)
	if err != nil {
		t.Fatalf("error finding membership: %s", err)
	}
	if active != nil {
		t.Error("membership still active after destroy")
	}
}

func TestDestroyLobbyMembershipOnlyByOwner(t *testing.T) {
	server := setUpServer(t)
	member, _ := server.signIn(t, "member@example.com")
	_, intruderToken := server.signIn(t, "intruder@example.com")

	lobby, err := data.CreateLobby(server.db, "game night", member.ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}
	membership, err := data.FindActiveLobbyMembership(server.db, lobby.ID, member.ID)
	if err != nil || membership == nil {
		t.Fatalf("error finding seeded membership: %s", err)
	}

	body := fmt.Sprintf(`{"membership_id":%q}`, membership.ID)
	response := server.perform(t, deleteRequest("/lobby-memberships", intruderToken, body))
	if response.Status != http.StatusNotFound {
		t.Fatalf("expected 404 for a non-owner, got %d", response.Status)
	}

	active, err := data.FindActiveLobbyMembership(server.db, lobby.ID, member.ID)
	if err != nil {
		t.Fatalf("error finding membership: %s", err)
	}
	if active == nil {
		t.Error("membership was severed by a non-owner")
	}
}
