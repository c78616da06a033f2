package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/elbishomes/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	newManager := func(t *testing.T, ttl time.Duration) (*TokenManager, *testutil.Clock) {
		clock := testutil.NewClock(mustParseTime("2025-07-01 12:00:00Z"))
		m, err := New(Config{SecretKey: "test-secret-key", AccessTTL: ttl, Now: clock.Now})
		require.NoError(t, err, "token manager should be created without errors")
		return m, clock
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{SecretKey: "secret"})
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, "secret", m.key, "secret key should be set")
		require.Equal(t, defaultAccessTokenTTL, m.accessTTL, "default access token TTL should be 3 hours")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new requires secret", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
	})

	t.Run("new rejects non hmac alg", func(t *testing.T) {
		_, err := New(Config{SecretKey: "secret", Alg: "none"})
		require.Error(t, err)

		_, err = New(Config{SecretKey: "secret", Alg: "RS256"})
		require.Error(t, err)
	})

	t.Run("Issue", func(t *testing.T) {
		t.Run("access claims", func(t *testing.T) {
			m, clock := newManager(t, 15*time.Minute)

			issued, err := m.Issue(userID)
			require.NoError(t, err)
			require.NotEmpty(t, issued.Value)
			require.Equal(t, clock.Now().Add(15*time.Minute), issued.ExpiresAt)

			token, err := jwt.ParseWithClaims(issued.Value, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
				return []byte("test-secret-key"), nil
			}, jwt.WithTimeFunc(clock.Now))
			require.NoError(t, err)
			require.True(t, token.Valid, "access token should be valid")

			claims, ok := token.Claims.(*AccessTokenClaims)
			require.True(t, ok, "claims should be of type AccessTokenClaims")
			assert.Equal(t, userID, claims.UserID, "user ID in token should match")
			assert.NotEmpty(t, claims.ID, "token has to has jti")
			assert.Equal(t, clock.Now(), claims.IssuedAt.Time.UTC())
			assert.Equal(t, issued.ExpiresAt, claims.ExpiresAt.Time.UTC())
		})

		t.Run("generate different tokens", func(t *testing.T) {
			m, _ := newManager(t, time.Hour)

			first, err := m.Issue(userID)
			require.NoError(t, err)
			second, err := m.Issue(userID)
			require.NoError(t, err)

			assert.NotEqual(t, first.Value, second.Value, "jti makes tokens unique even in the same second")
		})
	})

	t.Run("Parse", func(t *testing.T) {
		t.Run("valid token", func(t *testing.T) {
			m, clock := newManager(t, time.Hour)
			issued, err := m.Issue(userID)
			require.NoError(t, err)

			claims, err := m.Parse(issued.Value)

			require.NoError(t, err, "valid token should be parsed without errors")
			require.Equal(t, userID, claims.UserID)
			require.Equal(t, issued.ExpiresAt, claims.ExpiresAt.UTC())
			require.Equal(t, clock.Now(), claims.IssuedAt.UTC())
			require.NotEmpty(t, claims.ID)
		})

		t.Run("not a token", func(t *testing.T) {
			m, _ := newManager(t, time.Hour)

			_, err := m.Parse("invalid token")

			require.ErrorIs(t, err, ErrMalformed)
		})

		t.Run("valid right before expiry", func(t *testing.T) {
			m, clock := newManager(t, 5*time.Second)
			issued, err := m.Issue(userID)
			require.NoError(t, err)

			clock.Advance(4 * time.Second)

			_, err = m.Parse(issued.Value)
			require.NoError(t, err)
		})

		t.Run("expired exactly at expiry", func(t *testing.T) {
			m, clock := newManager(t, 5*time.Second)
			issued, err := m.Issue(userID)
			require.NoError(t, err)

			clock.Advance(5 * time.Second)

			_, err = m.Parse(issued.Value)
			require.ErrorIs(t, err, ErrExpired)
		})

		t.Run("signed with other key", func(t *testing.T) {
			m, clock := newManager(t, time.Hour)
			other, err := New(Config{SecretKey: "other-key", Now: clock.Now})
			require.NoError(t, err)
			issued, err := other.Issue(userID)
			require.NoError(t, err)

			_, err = m.Parse(issued.Value)

			require.ErrorIs(t, err, ErrInvalidSignature)
		})

		t.Run("not signed token", func(t *testing.T) {
			m, clock := newManager(t, time.Hour)
			token := jwt.NewWithClaims(
				jwt.SigningMethodNone,
				AccessTokenClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						ID:        uuid.NewString(),
						IssuedAt:  jwt.NewNumericDate(clock.Now()),
						ExpiresAt: jwt.NewNumericDate(clock.Now().Add(15 * time.Minute)),
					},
					UserID: userID,
				},
			)
			access, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)

			_, err = m.Parse(access)

			require.ErrorIs(t, err, ErrInvalidSignature, "Valid token with empty alg must fail")
		})

		t.Run("token without expiry", func(t *testing.T) {
			m, _ := newManager(t, time.Hour)
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{UserID: userID})
			access, err := token.SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			_, err = m.Parse(access)

			require.ErrorIs(t, err, ErrMalformed)
		})

		t.Run("token without user", func(t *testing.T) {
			m, clock := newManager(t, time.Hour)
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour))},
			})
			access, err := token.SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			_, err = m.Parse(access)

			require.ErrorIs(t, err, ErrMalformed)
		})
	})
}
