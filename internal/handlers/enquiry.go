package handlers

import (
	"net/http"

	"github.com/nkiryanov/elbishomes/internal/handlers/render"
	"github.com/nkiryanov/elbishomes/internal/handlers/userctx"
	"github.com/nkiryanov/elbishomes/internal/logger"
	"github.com/nkiryanov/elbishomes/internal/service/enquiry"
)

func handleEnquiry(es enquiryService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		in, err := render.BindAndValidate[enquiry.Input](w, r)
		if err != nil {
			return
		}

		if err := es.Send(r.Context(), u, in); err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusOK, "Enquiry sent successfully", nil)
	})
}
