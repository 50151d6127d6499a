package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storerating/internal/auth"
	"storerating/internal/entity"
	"storerating/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func (h *HTTPHandler) ListUsers(c *gin.Context) {
	var query entity.UserQuery
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

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, meta, err := h.repo.ListUsers(ctx, &query)
	if err != nil {
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to list users")
		InternalError(c, "failed to load users")
		return
	}

	// 店主账户附带其店铺的平均评分
	var ownerIDs []uint
	for idx := range users {
		if users[idx].Role == entity.UserRoleStoreOwner {
			ownerIDs = append(ownerIDs, users[idx].ID)
		}
	}
	ownerRatings := map[uint]float64{}
	if len(ownerIDs) > 0 {
		ownerRatings, err = h.repo.AverageRatingsByOwner(ctx, ownerIDs)
		if err != nil {
			logrus.WithError(err).Error("failed to load owner ratings")
			InternalError(c, "failed to load users")
			return
		}
	}

	response := entity.UserListResponse{
		Users: make([]entity.UserSummary, 0, len(users)),
		Meta:  meta,
	}
	for idx := range users {
		summary := makeUserSummary(&users[idx])
		if users[idx].Role == entity.UserRoleStoreOwner {
			if avg, ok := ownerRatings[users[idx].ID]; ok {
				value := avg
				summary.Rating = &value
			}
		}
		response.Users = append(response.Users, summary)
	}

	c.JSON(http.StatusOK, response)
}

func (h *HTTPHandler) GetUser(c *gin.Context) {
	identity := CurrentIdentity(c)

	id, ok := parseIDParam(c)
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	if err := auth.Authorize(identity, auth.ActionReadUser, auth.Resource{OwnerID: id}); err != nil {
		Forbidden(c, "not allowed to view this user")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return
		}
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to load user")
		InternalError(c, "failed to load user")
		return
	}

	summary := makeUserSummary(user)
	if user.Role == entity.UserRoleStoreOwner {
		if store, err := h.repo.GetStoreByOwner(ctx, user.ID); err == nil {
			summary.Rating = store.AvgRating
		}
	}

	c.JSON(http.StatusOK, summary)
}

// CreateUser is the admin path that may assign any role. Creating a
// store owner provisions the owned store in the same transaction.
func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req entity.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	address := strings.TrimSpace(req.Address)
	role := strings.TrimSpace(req.Role)

	fieldErrors := entity.ValidateUserInput(name, email, req.Password, address)
	if !entity.IsValidRole(role) {
		fieldErrors = append(fieldErrors, entity.FieldError{Field: "role", Message: "role must be one of user, admin, store_owner"})
	}
	if len(fieldErrors) > 0 {
		ValidationFailed(c, fieldErrors)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logrus.WithError(err).Error("failed to hash password for new user")
		InternalError(c, "failed to create user")
		return
	}

	user := &entity.DbUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Address:      address,
		Role:         role,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if role == entity.UserRoleStoreOwner {
		err = h.repo.CreateUserWithStore(ctx, user, service.ProvisionedStore(user))
	} else {
		err = h.repo.CreateUser(ctx, user)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeEmailExists, "email already registered")
			return
		}
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to create user")
		InternalError(c, "failed to create user")
		return
	}

	c.JSON(http.StatusCreated, makeUserSummary(user))
}

func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	identity := CurrentIdentity(c)

	id, ok := parseIDParam(c)
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	if err := auth.Authorize(identity, auth.ActionUpdateUser, auth.Resource{OwnerID: id}); err != nil {
		Forbidden(c, "not allowed to update this user")
		return
	}

	var req entity.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return
		}
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to load user for update")
		InternalError(c, "failed to update user")
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
	if req.Role != nil && !entity.IsValidRole(strings.TrimSpace(*req.Role)) {
		fieldErrors = append(fieldErrors, entity.FieldError{Field: "role", Message: "role must be one of user, admin, store_owner"})
	}
	if len(fieldErrors) > 0 {
		ValidationFailed(c, fieldErrors)
		return
	}

	if len(updates) > 0 {
		if err := h.repo.UpdateUser(ctx, user.ID, updates); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				Conflict(c, ErrCodeEmailExists, "email already in use")
				return
			}
			logrus.WithError(err).Error("failed to update user")
			InternalError(c, "failed to update user")
			return
		}
	}

	// 角色变更仅管理员生效，由角色服务处理店铺联动
	if req.Role != nil && identity.IsAdmin() {
		if err := h.roleService.ChangeRole(ctx, user, strings.TrimSpace(*req.Role)); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Error("failed to change role")
			InternalError(c, "failed to update user")
			return
		}
	}

	updated, err := h.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).Error("failed to reload user after update")
		InternalError(c, "failed to load updated user")
		return
	}

	c.JSON(http.StatusOK, makeUserSummary(updated))
}

func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	identity := CurrentIdentity(c)

	id, ok := parseIDParam(c)
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	if identity != nil && identity.ID == id {
		BadRequest(c, ErrCodeCannotDeleteSelf, "cannot delete current user")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return
		}
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to load user for deletion")
		InternalError(c, "failed to delete user")
		return
	}

	// 删除前记下店铺照片，用于级联后清理存储对象
	var photoPath string
	if user.Role == entity.UserRoleStoreOwner {
		if store, err := h.repo.GetStoreByOwner(ctx, user.ID); err == nil {
			photoPath = store.PhotoPath
		}
	}

	if err := h.repo.DeleteUserCascade(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return
		}
		if isTimeout(err) {
			ServiceUnavailable(c, "storage temporarily unavailable")
			return
		}
		logrus.WithError(err).Error("failed to delete user")
		InternalError(c, "failed to delete user")
		return
	}

	h.removePhoto(ctx, photoPath)

	c.Status(http.StatusNoContent)
}

func parseIDParam(c *gin.Context) (uint, bool) {
	idValue := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(idValue, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
