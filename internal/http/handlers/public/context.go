package public

import (
	handlershared "github.com/affiliate-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAffiliateID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithMsgs(c, "affiliate_id", "affiliate id invalid", "affiliate id type invalid")
}
