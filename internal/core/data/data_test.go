package data

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Creates a database for testing. For the sake of simplicity, this only uses
// the SQLite engine and creates a new database on every invocation since it
// is relatively cheap to do so (especially given the low number of tests).
func setUpDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	testDBFile := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(testDBFile))
	if err != nil {
		t.Fatalf("error initializing test database: %s", err)
	}

	if err = Migrate(db); err != nil {
		t.Fatalf("error auto migrating db: %s", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *User {
	t.Helper()
	user, err := UpsertUser(db, email, "player "+email)
	if err != nil {
		t.Fatalf("error seeding user: %s", err)
	}
	return user
}

func seedLobbyWithMembers(t *testing.T, db *gorm.DB, emails ...string) (*Lobby, []*User) {
	t.Helper()
	users := make([]*User, 0, len(emails))
	for _, email := range emails {
		users = append(users, seedUser(t, db, email))
	}

	lobby, err := CreateLobby(db, "game night", users[0].ID)
	if err != nil {
		t.Fatalf("error seeding lobby: %s", err)
	}
	for _, user := range users[1:] {
		if _, err := JoinLobby(db, lobby.ID, user.ID); err != nil {
			t.Fatalf("error seeding membership: %s", err)
		}
	}
	return lobby, users
}
