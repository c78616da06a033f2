package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
	"github.com/nkiryanov/elbishomes/internal/cache/memory"
	"github.com/nkiryanov/elbishomes/internal/models"
	"github.com/nkiryanov/elbishomes/internal/repository/postgres"
	"github.com/nkiryanov/elbishomes/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/elbishomes/internal/testutil"
)

type env struct {
	s     *AuthService
	cache *memory.Cache
	clock *testutil.Clock
	users *postgres.UserRepo
}

func Test_Auth(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction and create new AuthService
	// Rollback transaction when test stops
	withTx := func(t *testing.T, accessTTL time.Duration, fn func(e env)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			clock := testutil.NewClock(time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))
			c := memory.New(memory.WithClock(clock.Now))
			userRepo := &postgres.UserRepo{DB: tx}

			tokenManager, err := tokenmanager.New(tokenmanager.Config{
				SecretKey: "test-secret-key",
				AccessTTL: accessTTL,
				Now:       clock.Now,
			})
			require.NoError(t, err, "token manager should be created without errors")

			s, err := NewService(Config{Now: clock.Now}, tokenManager, userRepo, c)
			require.NoError(t, err, "auth service could't be started", err)

			fn(env{s: s, cache: c, clock: clock, users: userRepo})
		})
	}

	t.Run("new auth service defaults", func(t *testing.T) {
		tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: "secret"})
		require.NoError(t, err)

		s, err := NewService(Config{}, tm, &postgres.UserRepo{}, memory.New())
		require.NoError(t, err, "auth service should be created without errors")

		require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be set to BcryptHasher")
		require.NotNil(t, s.now)
	})

	t.Run("new auth service requires collaborators", func(t *testing.T) {
		_, err := NewService(Config{}, nil, nil, nil)
		require.Error(t, err)
	})

	t.Run("SignUp", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				user, err := e.s.SignUp(t.Context(), "  A@X.com ", "secret1", models.Profile{FirstName: "Ada", LastName: "Obi"})

				require.NoError(t, err, "registering new user should be ok")
				require.Equal(t, "a@x.com", user.Email, "email must be normalized")
				require.Equal(t, "Ada", user.FirstName)
				require.NotEqual(t, "secret1", user.HashedPassword, "plain password must never be stored")
				require.NoError(t, BcryptHasher{}.Compare(user.HashedPassword, "secret1"))
			})
		})

		t.Run("fail if email taken", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				_, err := e.s.SignUp(t.Context(), "a@x.com", "secret1", models.Profile{})
				require.NoError(t, err, "no error has should happen if user not exists")

				_, err = e.s.SignUp(t.Context(), "A@x.com", "other-pwd", models.Profile{})

				require.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
			})
		})

		tests := []struct {
			name     string
			email    string
			password string
			fields   []string
		}{
			{name: "short password", email: "a@x.com", password: "12345", fields: []string{"password"}},
			{name: "malformed email", email: "not-an-email", password: "secret1", fields: []string{"email"}},
			{name: "empty email and password", email: "", password: "", fields: []string{"email", "password"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withTx(t, 3*time.Hour, func(e env) {
					_, err := e.s.SignUp(t.Context(), tt.email, tt.password, models.Profile{})

					require.ErrorIs(t, err, apperrors.ErrValidation)
					var vErr *apperrors.ValidationError
					require.ErrorAs(t, err, &vErr)
					for _, f := range tt.fields {
						require.Contains(t, vErr.Fields, f)
					}
					require.Len(t, vErr.Fields, len(tt.fields))
				})
			})
		}

		t.Run("six characters is enough", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				_, err := e.s.SignUp(t.Context(), "a@x.com", "123456", models.Profile{})
				require.NoError(t, err)
			})
		})
	})

	t.Run("LogIn", func(t *testing.T) {
		t.Run("existing user ok", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				_, err := e.s.SignUp(t.Context(), "a@x.com", "secret1", models.Profile{})
				require.NoError(t, err)

				token, err := e.s.LogIn(t.Context(), "A@X.COM", "secret1")

				require.NoError(t, err)
				require.NotEmpty(t, token.Value, "access token should not be empty")
				require.Equal(t, e.clock.Now().Add(3*time.Hour), token.ExpiresAt)
			})
		})

		tests := []struct {
			name     string
			email    string
			password string
		}{
			{name: "wrong password", email: "a@x.com", password: "wrong"},
			{name: "user not exists", email: "nobody@x.com", password: "secret1"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withTx(t, 3*time.Hour, func(e env) {
					_, err := e.s.SignUp(t.Context(), "a@x.com", "secret1", models.Profile{})
					require.NoError(t, err)

					_, err = e.s.LogIn(t.Context(), tt.email, tt.password)

					require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
					require.NotErrorIs(t, err, apperrors.ErrUserNotFound, "must not disclose which part was wrong")
				})
			})
		}
	})

	t.Run("Verify", func(t *testing.T) {
		t.Run("fresh token ok", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				created, err := e.s.SignUp(t.Context(), "a@x.com", "secret1", models.Profile{})
				require.NoError(t, err)
				token, err := e.s.LogIn(t.Context(), "a@x.com", "secret1")
				require.NoError(t, err)

				user, err := e.s.Verify(t.Context(), token.Value)

				require.NoError(t, err)
				require.Equal(t, created.ID, user.ID)
			})
		})

		t.Run("garbage token", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				_, err := e.s.Verify(t.Context(), "not-a-token")

				require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
			})
		})

		t.Run("expired token", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				_, err := e.s.SignUp(t.Context(), "a@x.com", "secret1", models.Profile{})
				require.NoError(t, err)
				token, err := e.s.LogIn(t.Context(), "a@x.com", "secret1")
				require.NoError(t, err)

				e.clock.Advance(3 * time.Hour)

				_, err = e.s.Verify(t.Context(), token.Value)
				require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
			})
		})
	})

	t.Run("LogOut", func(t *testing.T) {
		t.Run("no token", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				err := e.s.LogOut(t.Context(), "")

				require.ErrorIs(t, err, apperrors.ErrInvalidToken)
			})
		})

		t.Run("garbage token", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				err := e.s.LogOut(t.Context(), "garbage")

				require.ErrorIs(t, err, apperrors.ErrInvalidToken)
			})
		})

		t.Run("revocation entry keyed by token hash", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				_, err := e.s.SignUp(t.Context(), "a@x.com", "secret1", models.Profile{})
				require.NoError(t, err)
				token, err := e.s.LogIn(t.Context(), "a@x.com", "secret1")
				require.NoError(t, err)

				require.NoError(t, e.s.LogOut(t.Context(), token.Value))

				sum := sha256.Sum256([]byte(token.Value))
				got, err := e.cache.Get(t.Context(), "blacklist:"+hex.EncodeToString(sum[:]))
				require.NoError(t, err)
				require.Equal(t, "blacklisted", got)

				_, err = e.cache.Get(t.Context(), token.Value)
				require.ErrorIs(t, err, apperrors.ErrCacheMiss, "raw token must never be a key")
			})
		})

		t.Run("revocation entry expires with the token", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				_, err := e.s.SignUp(t.Context(), "a@x.com", "secret1", models.Profile{})
				require.NoError(t, err)
				token, err := e.s.LogIn(t.Context(), "a@x.com", "secret1")
				require.NoError(t, err)

				e.clock.Advance(time.Hour)
				require.NoError(t, e.s.LogOut(t.Context(), token.Value))

				e.clock.Advance(2*time.Hour - time.Second)
				_, err = e.cache.Get(t.Context(), RevocationKey(token.Value))
				require.NoError(t, err, "entry alive while token still valid")

				e.clock.Advance(time.Second)
				_, err = e.cache.Get(t.Context(), RevocationKey(token.Value))
				require.ErrorIs(t, err, apperrors.ErrCacheMiss, "entry must not outlive the token")
			})
		})

		t.Run("expired token is no-op", func(t *testing.T) {
			withTx(t, 5*time.Second, func(e env) {
				_, err := e.s.SignUp(t.Context(), "a@x.com", "secret1", models.Profile{})
				require.NoError(t, err)
				token, err := e.s.LogIn(t.Context(), "a@x.com", "secret1")
				require.NoError(t, err)

				e.clock.Advance(10 * time.Second)

				require.NoError(t, e.s.LogOut(t.Context(), token.Value))
				require.Equal(t, 0, e.cache.Len(), "nothing to revoke")
			})
		})

		t.Run("logout of token with 5 seconds left", func(t *testing.T) {
			withTx(t, 3*time.Hour, func(e env) {
				_, err := e.s.SignUp(t.Context(), "a@x.com", "secret1", models.Profile{})
				require.NoError(t, err)
				token, err := e.s.LogIn(t.Context(), "a@x.com", "secret1")
				require.NoError(t, err)

				e.clock.Advance(3*time.Hour - 5*time.Second)
				require.NoError(t, e.s.LogOut(t.Context(), token.Value))

				e.clock.Advance(10 * time.Second)

				_, err = e.s.Verify(t.Context(), token.Value)
				require.ErrorIs(t, err, apperrors.ErrUnauthenticated, "token is expired naturally")
				_, err = e.cache.Get(t.Context(), RevocationKey(token.Value))
				require.ErrorIs(t, err, apperrors.ErrCacheMiss, "no lingering blacklist state")
			})
		})
	})

	t.Run("scenario signup login verify logout verify", func(t *testing.T) {
		withTx(t, 3*time.Hour, func(e env) {
			_, err := e.s.SignUp(t.Context(), "a@x.com", "secret1", models.Profile{})
			require.NoError(t, err)

			_, err = e.s.LogIn(t.Context(), "a@x.com", "wrong")
			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

			token, err := e.s.LogIn(t.Context(), "a@x.com", "secret1")
			require.NoError(t, err)

			_, err = e.s.Verify(t.Context(), token.Value)
			require.NoError(t, err)

			require.NoError(t, e.s.LogOut(t.Context(), token.Value))

			_, err = e.s.Verify(t.Context(), token.Value)
			require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

			other, err := e.s.LogIn(t.Context(), "a@x.com", "secret1")
			require.NoError(t, err)
			_, err = e.s.Verify(t.Context(), other.Value)
			require.NoError(t, err, "other sessions are not affected by logout")
		})
	})
}
