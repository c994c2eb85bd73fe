package router

import "github.com/gin-gonic/gin"

// Module is a feature area (users, studies, participants, debug) that
// registers its routes on the /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
