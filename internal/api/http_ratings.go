package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storerating/internal/auth"
	"storerating/internal/entity"
	"storerating/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubmitRating creates or replaces the caller's rating for a store.
// Resubmitting the same pair overwrites the score rather than adding a
// second row.
func (h *HTTPHandler) SubmitRating(c *gin.Context) {
	identity := CurrentIdentity(c)

	var req entity.RatingSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	rating, status, err := h.ratingService.Submit(ctx, identity, req.StoreID, req.Score)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidScore):
			BadRequest(c, ErrCodeInvalidScore, err.Error())
		case errors.Is(err, auth.ErrForbidden):
			Forbidden(c, "only regular users can submit ratings")
		case errors.Is(err, auth.ErrUnauthenticated):
			Unauthorized(c, "authentication required")
		case errors.Is(err, service.ErrStoreNotFound):
			NotFound(c, ErrCodeStoreNotFound, "store not found")
		case isTimeout(err):
			ServiceUnavailable(c, "storage temporarily unavailable")
		default:
			logrus.WithError(err).Error("failed to submit rating")
			InternalError(c, "failed to submit rating")
		}
		return
	}

	httpStatus := http.StatusOK
	if status == entity.RatingStatusCreated {
		httpStatus = http.StatusCreated
	}
	c.JSON(httpStatus, entity.RatingSubmitResponse{
		ID:      rating.ID,
		UserID:  rating.UserID,
		StoreID: rating.StoreID,
		Score:   rating.Score,
		Status:  status,
	})
}

func (h *HTTPHandler) DeleteRating(c *gin.Context) {
	identity := CurrentIdentity(c)

	id, ok := parseIDParam(c)
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "invalid rating id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.ratingService.Delete(ctx, identity, id); err != nil {
		switch {
		case errors.Is(err, service.ErrRatingNotFound):
			NotFound(c, ErrCodeRatingNotFound, "rating not found")
		case errors.Is(err, auth.ErrForbidden):
			Forbidden(c, "not allowed to delete this rating")
		case isTimeout(err):
			ServiceUnavailable(c, "storage temporarily unavailable")
		default:
			logrus.WithError(err).Error("failed to delete rating")
			InternalError(c, "failed to delete rating")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ListRatings returns every rating on the platform, newest first.
func (h *HTTPHandler) ListRatings(c *gin.Context) {
	identity := CurrentIdentity(c)

	if err := auth.Authorize(identity, auth.ActionListAllRatings, auth.Resource{}); err != nil {
		Forbidden(c, "not allowed to list all ratings")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ratings, err := h.repo.ListRatings(ctx)
	if err != nil {
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to list ratings")
		InternalError(c, "failed to load ratings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}

func (h *HTTPHandler) ListOwnRatings(c *gin.Context) {
	identity := CurrentIdentity(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ratings, err := h.repo.ListRatingsByUser(ctx, identity.ID)
	if err != nil {
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to list own ratings")
		InternalError(c, "failed to load ratings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}

func (h *HTTPHandler) ListRatingsForStore(c *gin.Context) {
	identity := CurrentIdentity(c)

	id, ok := parseIDParam(c)
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "invalid store id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	store, err := h.repo.GetStoreByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeStoreNotFound, "store not found")
			return
		}
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to load store for ratings")
		InternalError(c, "failed to load ratings")
		return
	}

	if err := auth.Authorize(identity, auth.ActionListStoreRatings, auth.OwnedBy(store.OwnerID)); err != nil {
		Forbidden(c, "not allowed to list ratings for this store")
		return
	}

	ratings, err := h.repo.ListRatingsByStore(ctx, store.ID)
	if err != nil {
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to list store ratings")
		InternalError(c, "failed to load ratings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}
