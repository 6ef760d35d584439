package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"iam-core-go/internal/model"
	"iam-core-go/internal/repository"
	"iam-core-go/pkg/cache"
	"iam-core-go/pkg/idgen"
	"iam-core-go/pkg/log"
)

// PermissionService 接口定义了权限定义管理的业务操作。
// 权限定义是全租户共享的，任何改动都会让全部角色缓存作废。
type PermissionService interface {
	CreatePermission(ctx context.Context, input CreatePermissionInput) (*model.SysPermission, error)
	GetPermission(ctx context.Context, id uint64) (*model.SysPermission, error)
	UpdatePermission(ctx context.Context, perm *model.SysPermission) error
	DeletePermission(ctx context.Context, id uint64, operator string) error
	// Tree 返回全部有效权限的树形结构。
	Tree(ctx context.Context) ([]*model.PermissionNode, error)
}

// CreatePermissionInput 是创建权限的输入。
type CreatePermissionInput struct {
	PermissionName string
	PermissionCode string
	PermissionType string
	ParentID       *uint64
	Path           string
	Method         string
	Component      string
	Icon           string
	SortOrder      int
	Remark         string
	Operator       string
}

type permissionService struct {
	permRepo  repository.PermissionRepository
	pathCache cache.PathCache
	idGen     *idgen.Generator
}

// NewPermissionService 创建一个新的 PermissionService 实例。
func NewPermissionService(permRepo repository.PermissionRepository, pathCache cache.PathCache, idGen *idgen.Generator) PermissionService {
	return &permissionService{permRepo: permRepo, pathCache: pathCache, idGen: idGen}
}

// CreatePermission 创建权限节点。button 类型必须携带路径与方法，
// 指定了父节点时父节点必须存在。
func (s *permissionService) CreatePermission(ctx context.Context, input CreatePermissionInput) (*model.SysPermission, error) {
	switch input.PermissionType {
	case model.PermissionTypeFolder, model.PermissionTypeMenu:
	case model.PermissionTypeButton:
		if input.Path == "" || input.Method == "" {
			return nil, ErrInvalidPermissionType
		}
	default:
		return nil, ErrInvalidPermissionType
	}

	if input.ParentID != nil {
		if _, err := s.permRepo.FindByID(*input.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidParent
			}
			return nil, fmt.Errorf("查询父权限失败: %w", err)
		}
	}

	id, err := s.idGen.NextID(0)
	if err != nil {
		return nil, err
	}
	perm := &model.SysPermission{
		ID:             id,
		PermissionName: input.PermissionName,
		PermissionCode: input.PermissionCode,
		PermissionType: input.PermissionType,
		ParentID:       input.ParentID,
		Path:           input.Path,
		Method:         input.Method,
		Component:      input.Component,
		Icon:           input.Icon,
		SortOrder:      input.SortOrder,
		Remark:         input.Remark,
		Visible:        true,
		Status:         model.StatusActive,
		CreateBy:       input.Operator,
		UpdateBy:       input.Operator,
	}
	if err := s.permRepo.Create(perm); err != nil {
		return nil, fmt.Errorf("创建权限失败: %w", err)
	}
	log.Infof("创建权限成功, permissionId: %d, code: %s, type: %s", id, input.PermissionCode, input.PermissionType)
	return perm, nil
}

// GetPermission 按 ID 查询权限。
func (s *permissionService) GetPermission(ctx context.Context, id uint64) (*model.SysPermission, error) {
	return s.permRepo.FindByID(id)
}

// UpdatePermission 更新权限定义。定义是共享的，没法按角色精确失效,
// 直接清空整个缓存。
func (s *permissionService) UpdatePermission(ctx context.Context, perm *model.SysPermission) error {
	if err := s.permRepo.Update(perm); err != nil {
		return err
	}
	s.pathCache.Clear()
	return nil
}

// DeletePermission 软删除权限并清空缓存。
func (s *permissionService) DeletePermission(ctx context.Context, id uint64, operator string) error {
	if err := s.permRepo.SoftDelete(id, operator); err != nil {
		return err
	}
	s.pathCache.Clear()
	return nil
}

// Tree 实现 PermissionService 接口。两趟 O(n) 构建。
func (s *permissionService) Tree(ctx context.Context) ([]*model.PermissionNode, error) {
	perms, err := s.permRepo.FindAllActive()
	if err != nil {
		return nil, fmt.Errorf("查询权限列表失败: %w", err)
	}

	nodeMap := make(map[uint64]*model.PermissionNode, len(perms))
	for _, perm := range perms {
		nodeMap[perm.ID] = &model.PermissionNode{
			ID:             perm.ID,
			PermissionName: perm.PermissionName,
			PermissionCode: perm.PermissionCode,
			PermissionType: perm.PermissionType,
			ParentID:       perm.ParentID,
			Path:           perm.Path,
			Method:         perm.Method,
			SortOrder:      perm.SortOrder,
			Children:       []*model.PermissionNode{},
		}
	}

	var roots []*model.PermissionNode
	for _, perm := range perms {
		node := nodeMap[perm.ID]
		if perm.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodeMap[*perm.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
	}
	return roots, nil
}
