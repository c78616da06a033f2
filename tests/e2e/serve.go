package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	rediscache "github.com/nkiryanov/elbishomes/internal/cache/redis"
	"github.com/nkiryanov/elbishomes/internal/handlers"
	"github.com/nkiryanov/elbishomes/internal/logger"
	"github.com/nkiryanov/elbishomes/internal/notify"
	"github.com/nkiryanov/elbishomes/internal/repository/postgres"
	"github.com/nkiryanov/elbishomes/internal/service/auth"
	"github.com/nkiryanov/elbishomes/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/elbishomes/internal/service/enquiry"
	"github.com/nkiryanov/elbishomes/internal/service/favorite"
	"github.com/nkiryanov/elbishomes/internal/service/property"
	"github.com/nkiryanov/elbishomes/internal/service/reset"
	"github.com/nkiryanov/elbishomes/internal/service/user"
	"github.com/nkiryanov/elbishomes/internal/testutil"
)

const EnquiryEmail = "sales@elbishomes.com"

// Sender that records delivered messages
type MockSender struct {
	mock.Mock

	mu   sync.Mutex
	sent []notify.Message
}

func (m *MockSender) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.sent = append(m.sent, msg)
		m.mu.Unlock()
	}
	return args.Error(0)
}

// Wait until n messages delivered
func (m *MockSender) WaitSent(t *testing.T, n int) []notify.Message {
	t.Helper()

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.sent) >= n
	}, 5*time.Second, 10*time.Millisecond, "expected %d messages delivered", n)

	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.sent...)
}

type Env struct {
	URL    string
	Tx     pgx.Tx
	Clock  *testutil.Clock
	Sender *MockSender
}

// Run the whole stack: postgres in transaction, redis revocation cache, async notification dispatcher
// Redis is flushed before the test
func Serve(t *testing.T, pg testutil.PostgresContainer, rc testutil.RedisContainer, fn func(env Env)) {
	testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
		require.NoError(t, rc.Client.FlushDB(t.Context()).Err())

		l := logger.NewNoOpLogger()
		clock := testutil.NewClock(time.Now().Truncate(time.Second))
		storage := postgres.NewStorage(tx)
		revocations := rediscache.New(rc.Client, "e2e")
		hasher := auth.BcryptHasher{Cost: bcrypt.MinCost}

		sender := &MockSender{}
		sender.On("Send", mock.Anything, mock.Anything).Return(nil)
		dispatcher := notify.NewDispatcher(notify.DispatcherConfig{CountWorkers: 2}, sender, l)

		ctx, cancel := context.WithCancel(t.Context())
		stopped := dispatcher.Run(ctx)
		defer func() {
			cancel()
			<-stopped
		}()

		tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret", Now: clock.Now})
		require.NoError(t, err, "token manager should be created without errors")
		as, err := auth.NewService(auth.Config{Hasher: hasher, Now: clock.Now}, tm, storage.User(), revocations)
		require.NoError(t, err, "auth service starting error")
		rs, err := reset.NewService(reset.Config{Hasher: hasher, Now: clock.Now}, storage.User(), revocations, dispatcher, l)
		require.NoError(t, err)
		es, err := enquiry.NewService(EnquiryEmail, storage.Property(), dispatcher, l)
		require.NoError(t, err)

		router := handlers.NewRouter(handlers.Services{
			Auth:     as,
			Reset:    rs,
			User:     user.NewService(storage.User()),
			Property: property.NewService(storage.Property()),
			Favorite: favorite.NewService(storage),
			Enquiry:  es,
		}, l)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(Env{URL: srv.URL, Tx: tx, Clock: clock, Sender: sender})
	})
}

type Response struct {
	Code    int
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Fields  map[string]string `json:"fields"`
}

// Make JSON request to API, path is relative to /v1/api
func Do(t *testing.T, env Env, method string, path string, token string, body string) Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, env.URL+"/v1/api"+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var r Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	r.Code = resp.StatusCode
	return r
}

func SignUpAndLogIn(t *testing.T, env Env, email string, password string) string {
	t.Helper()

	r := Do(t, env, http.MethodPost, "/users/signup", "", `{"email": "`+email+`", "password": "`+password+`"}`)
	require.Equalf(t, http.StatusCreated, r.Code, "signup failed: %s", r.Message)

	return LogIn(t, env, email, password)
}

func LogIn(t *testing.T, env Env, email string, password string) string {
	t.Helper()

	r := Do(t, env, http.MethodPost, "/users/login", "", `{"email": "`+email+`", "password": "`+password+`"}`)
	require.Equalf(t, http.StatusOK, r.Code, "login failed: %s", r.Message)

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(r.Data, &data))
	return data.AccessToken
}
