package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdentityHeader names the header the fronting auth layer uses to assert the
// caller's identity. Identity provisioning itself lives outside this service.
const IdentityHeader = "X-User-ID"

// ErrNoIdentity is returned when a request carries no usable caller identity.
var ErrNoIdentity = errors.New("missing or malformed caller identity")

// GetUserID extracts the authenticated caller identity from the request.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader(IdentityHeader)
	if raw == "" {
		return uuid.Nil, ErrNoIdentity
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrNoIdentity
	}
	return id, nil
}
