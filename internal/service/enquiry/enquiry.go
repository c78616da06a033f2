package enquiry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/elbishomes/internal/logger"
	"github.com/nkiryanov/elbishomes/internal/models"
	"github.com/nkiryanov/elbishomes/internal/notify"
	"github.com/nkiryanov/elbishomes/internal/repository"
	"github.com/nkiryanov/elbishomes/internal/service/validate"
)

type Dispatcher interface {
	Dispatch(msg notify.Message) bool
}

type Input struct {
	PropertyID uuid.UUID `json:"property_id" validate:"required"`
	Message    string    `json:"message" validate:"required,min=10,max=2000"`
}

type EnquiryService struct {
	recipient  string
	properties repository.PropertyRepo
	dispatcher Dispatcher
	logger     logger.Logger
}

// Enquiries are relayed to recipient by email
func NewService(recipient string, properties repository.PropertyRepo, dispatcher Dispatcher, logger logger.Logger) (*EnquiryService, error) {
	if recipient == "" {
		return nil, errors.New("enquiry recipient must be set")
	}

	return &EnquiryService{
		recipient:  recipient,
		properties: properties,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Send user enquiry about the property
// Delivery is asynchronous, the call never waits for it
func (s *EnquiryService) Send(ctx context.Context, user models.User, in Input) error {
	in.Message = strings.TrimSpace(in.Message)
	if err := validate.Struct(in); err != nil {
		return err
	}

	p, err := s.properties.GetProperty(ctx, in.PropertyID)
	if err != nil {
		return fmt.Errorf("send enquiry: %w", err)
	}

	queued := s.dispatcher.Dispatch(notify.Message{
		Subject: fmt.Sprintf("Enquiry: %s, %s, %s", p.PropertyType, p.Address, p.City),
		Body:    enquiryBody(user, p, in.Message),
		To:      []string{s.recipient},
		Headers: map[string]string{"Reply-To": user.Email},
	})
	if !queued {
		s.logger.Warn("enquiry not queued", "user_id", user.ID, "property_id", p.ID)
	}

	return nil
}

func enquiryBody(user models.User, p models.Property, message string) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Email
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\n", name, user.Email)
	fmt.Fprintf(&b, "Property: %s\n", p.ID)
	fmt.Fprintf(&b, "%s, %s, %s, %s\n", p.PropertyType, p.Address, p.City, p.State)
	fmt.Fprintf(&b, "Price: %s\n\n", p.Price.StringFixed(2))
	b.WriteString(message)
	b.WriteString("\n")
	return b.String()
}
