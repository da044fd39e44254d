package reconcile

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kmalyshev/pricetrack/internal/products"
)

// TriggerHandler is the endpoint the external scheduler hits. The bearer
// secret is the only gate; the sweep itself runs with service-level
// privilege across all owners.
func TriggerHandler(e *Engine, secret string, production bool, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" || c.GetHeader("Authorization") != "Bearer "+secret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		rep, err := e.RunSweep(c.Request.Context())
		if err != nil {
			log.WithError(err).Error("sweep: fatal")
			body := gin.H{"error": err.Error()}
			if !production {
				body["stack"] = string(debug.Stack())
			}
			c.JSON(http.StatusInternalServerError, body)
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

// IngestHandler accepts a user-submitted product URL.
func IngestHandler(e *Engine, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			URL string `json:"url"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		p, created, err := e.Ingest(c.Request.Context(), products.OwnerID(c), input.URL)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
			case errors.Is(err, ErrUnauthenticated):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			case errors.Is(err, ErrExtractionFailed):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not extract product data"})
			default:
				log.WithError(err).Error("ingest: failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add product"})
			}
			return
		}

		status := http.StatusOK
		message := "Product updated"
		if created {
			status = http.StatusCreated
			message = "Product added"
		}
		c.JSON(status, gin.H{"success": true, "product": p, "message": message})
	}
}
