package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/elbishomes/internal/handlers/middleware"
	"github.com/nkiryanov/elbishomes/internal/logger"
	"github.com/nkiryanov/elbishomes/internal/models"
	"github.com/nkiryanov/elbishomes/internal/service/enquiry"
	"github.com/nkiryanov/elbishomes/internal/service/property"
	"github.com/nkiryanov/elbishomes/internal/service/user"
)

const apiPrefix = "/v1/api"

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Services struct {
	Auth     authService
	Reset    resetService
	User     userService
	Property propertyService
	Favorite favoriteService
	Enquiry  enquiryService
}

func NewRouter(s Services, logger logger.Logger) http.Handler {
	withAuth := middleware.AuthMiddleware(s.Auth)

	api := http.NewServeMux()

	api.Handle("POST /users/signup", handleSignUp(s.Auth, logger))
	api.Handle("POST /users/login", handleLogIn(s.Auth, logger))
	api.Handle("POST /users/logout", withAuth(handleLogOut(s.Auth, logger)))
	api.Handle("POST /users/password/reset", handleRequestReset(s.Reset, logger))
	api.Handle("POST /users/password/confirm", handleConfirmReset(s.Reset, logger))
	api.Handle("GET /users/me", withAuth(handleUserMe()))
	api.Handle("PATCH /users/me", withAuth(handleUpdateMe(s.User, logger)))

	api.Handle("GET /properties", handleListProperties(s.Property, logger))
	api.Handle("GET /properties/{id}", handleGetProperty(s.Property, logger))
	api.Handle("POST /properties", withAuth(handleCreateProperty(s.Property, logger)))
	api.Handle("PUT /properties/{id}", withAuth(handleUpdateProperty(s.Property, logger)))
	api.Handle("PATCH /properties/{id}", withAuth(handlePatchProperty(s.Property, logger)))
	api.Handle("DELETE /properties/{id}", withAuth(handleDeleteProperty(s.Property, logger)))

	api.Handle("GET /favorites", withAuth(handleListFavorites(s.Favorite, logger)))
	api.Handle("POST /favorites", withAuth(handleAddFavorite(s.Favorite, logger)))
	api.Handle("DELETE /favorites/{property_id}", withAuth(handleRemoveFavorite(s.Favorite, logger)))

	api.Handle("POST /enquiry", withAuth(handleEnquiry(s.Enquiry, logger)))

	root := http.NewServeMux()
	root.Handle(apiPrefix+"/", http.StripPrefix(apiPrefix, api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
		middleware.RecoverMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Has to return apperrors.ErrDuplicateEmail if email is taken
	SignUp(ctx context.Context, email string, password string, profile models.Profile) (models.User, error)

	// Has to return apperrors.ErrInvalidCredentials for unknown email or wrong password
	LogIn(ctx context.Context, email string, password string) (models.IssuedToken, error)

	// Has to return apperrors.ErrUnauthenticated if the token is not accepted
	Verify(ctx context.Context, token string) (models.User, error)

	LogOut(ctx context.Context, token string) error
}

type resetService interface {
	RequestReset(ctx context.Context, email string) error

	// Has to return apperrors.ErrInvalidToken for unknown code, apperrors.ErrExpired for expired one
	ConfirmReset(ctx context.Context, code string, newPassword string) error
}

type userService interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch user.ProfilePatch) (models.User, error)
}

type propertyService interface {
	List(ctx context.Context) ([]models.Property, error)
	Get(ctx context.Context, id uuid.UUID) (models.Property, error)
	Create(ctx context.Context, in property.Input) (models.Property, error)
	Update(ctx context.Context, id uuid.UUID, in property.Input) (models.Property, error)
	Patch(ctx context.Context, id uuid.UUID, patch models.PropertyPatch) (models.Property, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type favoriteService interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error)
	Add(ctx context.Context, userID uuid.UUID, propertyID uuid.UUID) (models.Favorite, error)
	Remove(ctx context.Context, userID uuid.UUID, propertyID uuid.UUID) error
}

type enquiryService interface {
	Send(ctx context.Context, user models.User, in enquiry.Input) error
}
