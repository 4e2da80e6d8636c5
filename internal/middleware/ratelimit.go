package middleware

import (
	"net/http"
	"strconv"

	"bakerypos/internal/logger"
	"bakerypos/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits requests per client IP with an in-memory store.
// formatted follows the limiter syntax, e.g. "10-M".
func RateLimit(formatted string) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(memory.NewStore(), rate)

	return func(c *gin.Context) {
		ctx, err := instance.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.LogError("middleware", "RateLimit", "limiter store", c.ClientIP(), err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))

		if ctx.Reached {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Error(http.StatusTooManyRequests, "Too many attempts, try again later"))
			return
		}
		c.Next()
	}, nil
}
