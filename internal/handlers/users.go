package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/elbishomes/internal/handlers/render"
	"github.com/nkiryanov/elbishomes/internal/handlers/userctx"
	"github.com/nkiryanov/elbishomes/internal/logger"
	"github.com/nkiryanov/elbishomes/internal/models"
	"github.com/nkiryanov/elbishomes/internal/service/user"
)

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsStaff:   u.IsStaff,
		CreatedAt: u.CreatedAt,
	}
}

func handleSignUp(as authService, logger logger.Logger) http.Handler {
	type request struct {
		Email     string `json:"email" validate:"required"`
		Password  string `json:"password" validate:"required"`
		FirstName string `json:"first_name" validate:"max=100"`
		LastName  string `json:"last_name" validate:"max=100"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		u, err := as.SignUp(r.Context(), data.Email, data.Password, models.Profile{FirstName: data.FirstName, LastName: data.LastName})
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusCreated, "User sign up successful", toUserResponse(u))
	})
}

func handleLogIn(as authService, logger logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		AccessToken string    `json:"access_token"`
		ExpiresAt   time.Time `json:"expires_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		token, err := as.LogIn(r.Context(), data.Email, data.Password)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusOK, "Login successful", response{AccessToken: token.Value, ExpiresAt: token.ExpiresAt})
	})
}

func handleLogOut(as authService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _ := userctx.TokenFromContext(r.Context())

		if err := as.LogOut(r.Context(), token); err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusResetContent, "Logout successful", nil)
	})
}

func handleRequestReset(rs resetService, logger logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if err := rs.RequestReset(r.Context(), data.Email); err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusOK, "OTP sent to your email", nil)
	})
}

func handleConfirmReset(rs resetService, logger logger.Logger) http.Handler {
	type request struct {
		Code     string `json:"otp" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if err := rs.ConfirmReset(r.Context(), data.Code, data.Password); err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusOK, "Password reset successful", nil)
	})
}

func handleUserMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())
		render.JSON(w, http.StatusOK, "Profile retrieved successfully", toUserResponse(u))
	})
}

func handleUpdateMe(us userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		patch, err := render.BindAndValidate[user.ProfilePatch](w, r)
		if err != nil {
			return
		}

		u, err = us.UpdateProfile(r.Context(), u.ID, patch)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusOK, "Profile updated successfully", toUserResponse(u))
	})
}
