package dto

import "github.com/gin-gonic/gin"

// ErrorDetail is the error envelope of every API error response. The
// frontend reads the detail field verbatim, so handlers put a human
// readable message there.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// AbortWithDetail writes an error envelope and stops handler processing.
func AbortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, ErrorDetail{Detail: detail})
}
