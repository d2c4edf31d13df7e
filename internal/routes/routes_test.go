package routes

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/krumpled/krumd/internal/core"
	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/httpd"
	"github.com/krumpled/krumd/internal/jobs"
	"github.com/krumpled/krumd/internal/session"
)

const testOrigin = "https://krumi.test"

// testServer carries the full request pipeline wired against a throwaway
// SQLite database, so route tests exercise recognition, context assembly,
// dispatch, and the handlers together.
type testServer struct {
	db       *gorm.DB
	jobs     *jobs.Store
	sessions *session.Store
	router   *httpd.Router
	builder  *httpd.ContextBuilder
}

func setUpServer(t *testing.T) *testServer {
	t.Helper()

	testDBFile := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(testDBFile))
	if err != nil {
		t.Fatalf("error initializing test database: %s", err)
	}
	if err := data.Migrate(db); err != nil {
		t.Fatalf("error auto migrating db: %s", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	jobStore, err := jobs.NewStore(db, logger)
	if err != nil {
		t.Fatalf("error initializing job store: %s", err)
	}

	sessions := session.NewStore(time.Hour)

	config := &core.Config{MaxBodyBytes: 1 << 10}
	config.Client.CORSOrigin = testOrigin

	router := httpd.NewRouter(logger)
	handlers := &Routes{ClientAuthRedirect: testOrigin + "/auth", ClientOrigin: testOrigin}
	handlers.Register(router)

	return &testServer{
		db:       db,
		jobs:     jobStore,
		sessions: sessions,
		router:   router,
		builder:  httpd.NewContextBuilder(config, logger, db, jobStore, sessions),
	}
}

// perform pushes a raw HTTP request through the whole pipeline and returns
// the response the connection would receive.
func (s *testServer) perform(t *testing.T, raw string) *httpd.Response {
	t.Helper()

	head, err := httpd.Recognize(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("error recognizing request: %s", err)
	}

	ctx, err := s.builder.ForRequest(head)
	if err != nil {
		t.Fatalf("error building context: %s", err)
	}

	return s.router.Dispatch(ctx, head)
}

// signIn seeds a user and returns a bearer token for them.
func (s *testServer) signIn(t *testing.T, email string) (*data.User, string) {
	t.Helper()
	user, err := data.UpsertUser(s.db, email, "player "+email)
	if err != nil {
		t.Fatalf("error seeding user: %s", err)
	}
	return user, s.sessions.Create(user.ID)
}

func (s *testServer) pendingJobCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := s.db.Model(&jobs.Record{}).Count(&count).Error; err != nil {
		t.Fatalf("error counting job records: %s", err)
	}
	return count
}

func postRequest(path, token, body string) string {
	auth := ""
	if token != "" {
		auth = fmt.Sprintf("Authorization: Bearer %s\r\n", token)
	}
	return fmt.Sprintf(
		"POST %s HTTP/1.1\r\nHost: test\r\n%sContent-Length: %d\r\n\r\n%s",
		path, auth, len(body), body,
	)
}

func deleteRequest(path, token, body string) string {
	auth := ""
	if token != "" {
		auth = fmt.Sprintf("Authorization: Bearer %s\r\n", token)
	}
	return fmt.Sprintf(
		"DELETE %s HTTP/1.1\r\nHost: test\r\n%sContent-Length: %d\r\n\r\n%s",
		path, auth, len(body), body,
	)
}

func getRequest(path, token string) string {
	auth := ""
	if token != "" {
		auth = fmt.Sprintf("Authorization: Bearer %s\r\n", token)
	}
	return fmt.Sprintf("GET %s HTTP/1.1\r\nHost: test\r\n%s\r\n", path, auth)
}
