package handlers

import (
	"net/http"

	"github.com/nambautroi00/ClinicBooking-sub002/utils"

	"github.com/gin-gonic/gin"
)

// Health returns the latest stored health snapshot.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetHealthStatus())
}
