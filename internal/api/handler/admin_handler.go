package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/task-api/internal/core/domain"
)

// IdentityLister is the read side of the Identity Store used by admins.
type IdentityLister interface {
	List(ctx context.Context) ([]domain.Identity, error)
}

// AdminHandler serves /api/admin. The access policy limits it to ADMIN.
type AdminHandler struct {
	identities IdentityLister
}

func NewAdminHandler(identities IdentityLister) *AdminHandler {
	return &AdminHandler{identities: identities}
}

// ListUsers handles GET /api/admin/users.
//
// @Summary      List registered users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.identities.List(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID:        u.ID,
			Email:     u.Email,
			Role:      u.Role.String(),
			CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}
