package service

import (
	"context"

	"iam-core-go/internal/model"
	"iam-core-go/internal/repository"
)

// UserService 接口定义了用户管理的业务操作。
// 用户由鉴权链路自动预置，这里只提供查询与下线。
type UserService interface {
	GetUser(ctx context.Context, id uint64) (*model.SysUser, error)
	ListUsers(ctx context.Context, tenantID uint64, page, pageSize int) ([]model.SysUser, error)
	DeleteUser(ctx context.Context, id uint64, operator string) error
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// GetUser 按 ID 查询用户。
func (s *userService) GetUser(ctx context.Context, id uint64) (*model.SysUser, error) {
	return s.userRepo.FindByID(id)
}

// ListUsers 分页查询租户下的用户。page 从 1 开始。
func (s *userService) ListUsers(ctx context.Context, tenantID uint64, page, pageSize int) ([]model.SysUser, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return s.userRepo.FindByTenant(tenantID, (page-1)*pageSize, pageSize)
}

// DeleteUser 软删除用户。用户下次接入会被重新预置。
func (s *userService) DeleteUser(ctx context.Context, id uint64, operator string) error {
	return s.userRepo.SoftDelete(id, operator)
}
