// README: Account profile handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freightgo/internal/http/middleware"
	"freightgo/internal/modules/account"
	"freightgo/internal/types"
)

type AccountHandler struct {
	accounts account.Store
}

func NewAccountHandler(store account.Store) *AccountHandler {
	return &AccountHandler{accounts: store}
}

type saveProfileReq struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"license_number"`
	Company       string `json:"company"`
}

// SaveProfile upserts the caller's profile under their gateway identity.
func (h *AccountHandler) SaveProfile(c *gin.Context) {
	var req saveProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	role := account.Role(middleware.CallerRole(c))
	switch role {
	case account.RoleClient, account.RoleDriver, account.RoleOwner:
	default:
		writeError(c, http.StatusBadRequest, "unknown role")
		return
	}
	u := &account.User{
		ID:            middleware.CallerUID(c),
		Role:          role,
		Name:          req.Name,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		Company:       req.Company,
		CreatedAt:     time.Now(),
	}
	if err := h.accounts.Save(c.Request.Context(), u); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, u)
}

func (h *AccountHandler) Get(c *gin.Context) {
	u, err := h.accounts.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, u)
}
