package enquiry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
	"github.com/nkiryanov/elbishomes/internal/logger"
	"github.com/nkiryanov/elbishomes/internal/models"
	"github.com/nkiryanov/elbishomes/internal/notify"
	"github.com/nkiryanov/elbishomes/internal/repository/postgres"
	"github.com/nkiryanov/elbishomes/internal/testutil"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(msg notify.Message) bool {
	args := m.Called(msg)
	return args.Bool(0)
}

func TestEnquiry(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	user := models.User{ID: uuid.New(), Email: "buyer@example.com", FirstName: "Ada", LastName: "Obi"}

	inTx := func(t *testing.T, fn func(s *EnquiryService, d *mockDispatcher, p models.Property)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := postgres.NewStorage(tx).Property()
			p, err := repo.CreateProperty(t.Context(), models.Property{
				PropertyType: models.PropertyTypeFlat,
				Price:        decimal.NewFromInt(1200000),
				Address:      "12 Awolowo Road",
				City:         "Ikoyi",
				State:        "Lagos",
				Status:       models.PropertyStatusAvailable,
				CoverImage:   "https://img.example.com/f.jpg",
			})
			require.NoError(t, err)

			d := &mockDispatcher{}
			s, err := NewService("sales@elbishomes.com", repo, d, logger.NewNoOpLogger())
			require.NoError(t, err)

			fn(s, d, p)
			d.AssertExpectations(t)
		})
	}

	t.Run("dispatched to recipient with reply-to", func(t *testing.T) {
		inTx(t, func(s *EnquiryService, d *mockDispatcher, p models.Property) {
			d.On("Dispatch", mock.MatchedBy(func(msg notify.Message) bool {
				return len(msg.To) == 1 &&
					msg.To[0] == "sales@elbishomes.com" &&
					msg.Headers["Reply-To"] == "buyer@example.com"
			})).Return(true).Once()

			err := s.Send(t.Context(), user, Input{PropertyID: p.ID, Message: "Is the flat still available?"})

			require.NoError(t, err)
			msg := d.Calls[0].Arguments.Get(0).(notify.Message)
			require.Contains(t, msg.Subject, "12 Awolowo Road")
			require.Contains(t, msg.Body, "Ada Obi <buyer@example.com>")
			require.Contains(t, msg.Body, "Is the flat still available?")
		})
	})

	t.Run("full queue does not fail request", func(t *testing.T) {
		inTx(t, func(s *EnquiryService, d *mockDispatcher, p models.Property) {
			d.On("Dispatch", mock.Anything).Return(false).Once()

			err := s.Send(t.Context(), user, Input{PropertyID: p.ID, Message: "Can I inspect on Saturday?"})

			require.NoError(t, err)
		})
	})

	t.Run("short message", func(t *testing.T) {
		inTx(t, func(s *EnquiryService, _ *mockDispatcher, p models.Property) {
			err := s.Send(t.Context(), user, Input{PropertyID: p.ID, Message: "  hello    "})

			var vErr *apperrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Contains(t, vErr.Fields, "message")
		})
	})

	t.Run("unknown property", func(t *testing.T) {
		inTx(t, func(s *EnquiryService, _ *mockDispatcher, _ models.Property) {
			err := s.Send(t.Context(), user, Input{PropertyID: uuid.New(), Message: "Is this still available?"})

			require.ErrorIs(t, err, apperrors.ErrPropertyNotFound)
		})
	})

	t.Run("recipient required", func(t *testing.T) {
		_, err := NewService("", nil, &mockDispatcher{}, logger.NewNoOpLogger())

		require.Error(t, err)
	})
}
