package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storerating/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DashboardStats returns the admin platform overview counts.
func (h *HTTPHandler) DashboardStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	userCount, err := h.repo.CountUsers(ctx)
	if err != nil {
		h.dashboardError(c, err, "failed to count users")
		return
	}
	storeCount, err := h.repo.CountStores(ctx)
	if err != nil {
		h.dashboardError(c, err, "failed to count stores")
		return
	}
	ratingCount, err := h.repo.CountRatings(ctx)
	if err != nil {
		h.dashboardError(c, err, "failed to count ratings")
		return
	}

	c.JSON(http.StatusOK, entity.DashboardStats{
		UserCount:   userCount,
		StoreCount:  storeCount,
		RatingCount: ratingCount,
	})
}

// StoreOwnerStats returns the rating statistics for the current store
// owner's store.
func (h *HTTPHandler) StoreOwnerStats(c *gin.Context) {
	identity := CurrentIdentity(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	store, err := h.repo.GetStoreByOwner(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeStoreNotFound, "no store assigned to current user")
			return
		}
		h.dashboardError(c, err, "failed to load own store")
		return
	}

	stats, err := h.ratingService.OwnerStats(ctx, store.ID)
	if err != nil {
		h.dashboardError(c, err, "failed to load store statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *HTTPHandler) dashboardError(c *gin.Context, err error, message string) {
	if isTimeout(err) {
		ServiceUnavailable(c, "storage temporarily unavailable")
		return
	}
	logrus.WithError(err).Error(message)
	InternalError(c, message)
}
