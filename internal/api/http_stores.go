package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"storerating/internal/auth"
	"storerating/internal/entity"
	"storerating/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxPhotoSize 店铺照片大小上限
const maxPhotoSize = 5 << 20

var allowedPhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

func (h *HTTPHandler) ListStores(c *gin.Context) {
	identity := CurrentIdentity(c)

	var query entity.StoreQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}
	if query.PageSize > 100 {
		query.PageSize = 100
	}
	// 停用店铺仅管理员可见
	if query.IncludeInactive && (identity == nil || !identity.IsAdmin()) {
		query.IncludeInactive = false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	stores, meta, err := h.repo.ListStores(ctx, &query)
	if err != nil {
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to list stores")
		InternalError(c, "failed to load stores")
		return
	}

	response := entity.StoreListResponse{
		Stores: make([]entity.StoreSummary, 0, len(stores)),
		Meta:   meta,
	}
	for idx := range stores {
		response.Stores = append(response.Stores, h.makeStoreSummary(&stores[idx]))
	}

	c.JSON(http.StatusOK, response)
}

func (h *HTTPHandler) GetStore(c *gin.Context) {
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
		logrus.WithError(err).Error("failed to load store")
		InternalError(c, "failed to load store")
		return
	}

	c.JSON(http.StatusOK, h.makeStoreSummary(store))
}

// GetOwnStore returns the store owned by the current store owner.
func (h *HTTPHandler) GetOwnStore(c *gin.Context) {
	identity := CurrentIdentity(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	store, err := h.repo.GetStoreByOwner(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeStoreNotFound, "no store assigned to current user")
			return
		}
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to load own store")
		InternalError(c, "failed to load store")
		return
	}

	c.JSON(http.StatusOK, h.makeStoreSummary(store))
}

func (h *HTTPHandler) CreateStore(c *gin.Context) {
	var req entity.StoreCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	address := strings.TrimSpace(req.Address)

	if fieldErrors := entity.ValidateStoreInput(name, email, address); len(fieldErrors) > 0 {
		ValidationFailed(c, fieldErrors)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// 指定店主时确认账户存在
	if req.OwnerID != nil {
		if _, err := h.repo.GetUserByID(ctx, *req.OwnerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, ErrCodeUserNotFound, "owner user not found")
				return
			}
			logrus.WithError(err).Error("failed to load owner for store creation")
			InternalError(c, "failed to create store")
			return
		}
	}

	store := &entity.DbStore{
		Name:     name,
		Email:    email,
		Address:  address,
		OwnerID:  req.OwnerID,
		IsActive: true,
	}

	// 建店与店主晋升在同一事务内完成
	if err := h.repo.CreateStoreWithOwner(ctx, store); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeOwnerHasStore, "user already owns a store")
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "owner user not found")
			return
		}
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to create store")
		InternalError(c, "failed to create store")
		return
	}

	c.JSON(http.StatusCreated, h.makeStoreSummary(&entity.StoreWithRating{DbStore: *store}))
}

func (h *HTTPHandler) UpdateStore(c *gin.Context) {
	identity := CurrentIdentity(c)

	id, ok := parseIDParam(c)
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "invalid store id")
		return
	}

	var req entity.StoreUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
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
		logrus.WithError(err).Error("failed to load store for update")
		InternalError(c, "failed to update store")
		return
	}

	if err := auth.Authorize(identity, auth.ActionUpdateStore, auth.OwnedBy(store.OwnerID)); err != nil {
		Forbidden(c, "not allowed to update this store")
		return
	}

	var fieldErrors []entity.FieldError
	updates := make(map[string]interface{})

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		fieldErrors = append(fieldErrors, entity.ValidateName(name)...)
		updates["name"] = name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		fieldErrors = append(fieldErrors, entity.ValidateEmail(email)...)
		updates["email"] = email
	}
	if req.Address != nil {
		address := strings.TrimSpace(*req.Address)
		fieldErrors = append(fieldErrors, entity.ValidateAddress(address)...)
		updates["address"] = address
	}
	if len(fieldErrors) > 0 {
		ValidationFailed(c, fieldErrors)
		return
	}

	if len(updates) > 0 {
		if err := h.repo.UpdateStore(ctx, store.ID, updates); err != nil {
			logrus.WithError(err).Error("failed to update store")
			InternalError(c, "failed to update store")
			return
		}
	}

	updated, err := h.repo.GetStoreByID(ctx, store.ID)
	if err != nil {
		logrus.WithError(err).Error("failed to reload store after update")
		InternalError(c, "failed to load updated store")
		return
	}

	c.JSON(http.StatusOK, h.makeStoreSummary(updated))
}

func (h *HTTPHandler) DeleteStore(c *gin.Context) {
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
		logrus.WithError(err).Error("failed to load store for deletion")
		InternalError(c, "failed to delete store")
		return
	}

	if err := h.repo.DeleteStoreCascade(ctx, id); err != nil {
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to delete store")
		InternalError(c, "failed to delete store")
		return
	}

	h.removePhoto(ctx, store.PhotoPath)

	c.Status(http.StatusNoContent)
}

// UploadStorePhoto replaces the store photo. The previous object is
// removed from storage after the row points at the new one.
func (h *HTTPHandler) UploadStorePhoto(c *gin.Context) {
	identity := CurrentIdentity(c)

	id, ok := parseIDParam(c)
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "invalid store id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	store, err := h.repo.GetStoreByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeStoreNotFound, "store not found")
			return
		}
		logrus.WithError(err).Error("failed to load store for photo upload")
		InternalError(c, "failed to upload photo")
		return
	}

	if err := auth.Authorize(identity, auth.ActionUpdateStore, auth.OwnedBy(store.OwnerID)); err != nil {
		Forbidden(c, "not allowed to update this store")
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "photo file is required")
		return
	}
	if fileHeader.Size > maxPhotoSize {
		BadRequest(c, ErrCodeInvalidRequest, "photo exceeds the 5MB limit")
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedPhotoExtensions[ext] {
		BadRequest(c, ErrCodeInvalidRequest, "photo must be jpg, jpeg, png or webp")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logrus.WithError(err).Error("failed to open uploaded photo")
		InternalError(c, "failed to upload photo")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
	if err != nil {
		logrus.WithError(err).Error("failed to read uploaded photo")
		InternalError(c, "failed to upload photo")
		return
	}
	if len(data) > maxPhotoSize {
		BadRequest(c, ErrCodeInvalidRequest, "photo exceeds the 5MB limit")
		return
	}

	key := storage.PhotoKey(store.ID, ext)
	savedID, err := h.storage.Save(ctx, data, key)
	if err != nil {
		logrus.WithError(err).Error("failed to save photo")
		InternalError(c, "failed to upload photo")
		return
	}

	previous := store.PhotoPath
	if err := h.repo.UpdateStore(ctx, store.ID, map[string]interface{}{"photo_path": savedID}); err != nil {
		logrus.WithError(err).Error("failed to record photo path")
		h.removePhoto(ctx, savedID)
		InternalError(c, "failed to upload photo")
		return
	}

	if previous != "" && previous != savedID {
		h.removePhoto(ctx, previous)
	}

	c.JSON(http.StatusOK, gin.H{"photo_url": h.publicURL(savedID)})
}

// removePhoto 尽力清理存储对象，失败只记日志
func (h *HTTPHandler) removePhoto(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := h.storage.Delete(ctx, path); err != nil {
		logrus.WithError(err).WithField("photo_path", path).Warn("failed to remove photo object")
	}
}

func (h *HTTPHandler) makeStoreSummary(store *entity.StoreWithRating) entity.StoreSummary {
	return entity.StoreSummary{
		ID:        store.ID,
		Name:      store.Name,
		Email:     store.Email,
		Address:   store.Address,
		OwnerID:   store.OwnerID,
		IsActive:  store.IsActive,
		AvgRating: store.AvgRating,
		PhotoURL:  h.publicURL(store.PhotoPath),
		CreatedAt: store.CreatedAt,
		UpdatedAt: store.UpdatedAt,
	}
}
