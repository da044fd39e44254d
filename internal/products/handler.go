package products

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const ownerKey = "owner_id"

// AuthRequired expects the identity header set by the upstream auth proxy.
// Token verification itself is the proxy's job, not ours.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.GetHeader("X-User-ID")
		if owner == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

// OwnerID returns the authenticated owner for the request, or "".
func OwnerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}

type Handler struct {
	repo *Repository
	log  *logrus.Logger
}

func NewHandler(repo *Repository, log *logrus.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.repo.ListByOwner(ctx, OwnerID(c))
	if err != nil {
		h.log.WithError(err).Error("products: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch products"})
		return
	}
	if list == nil {
		list = []Product{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.repo.ByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.log.WithError(err).Error("products: get failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch product"})
		return
	}
	if p.OwnerID != OwnerID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPriceHistory(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.repo.ByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.log.WithError(err).Error("products: history lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}
	if p.OwnerID != OwnerID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	hist, err := h.repo.HistoryByProduct(ctx, p.ID)
	if err != nil {
		h.log.WithError(err).Error("products: history fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}
	if hist == nil {
		hist = []PriceHistoryEntry{}
	}
	c.JSON(http.StatusOK, hist)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	ctx := c.Request.Context()
	err := h.repo.Delete(ctx, OwnerID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.log.WithError(err).Error("products: delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
