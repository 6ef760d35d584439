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

// RoleService 接口定义了角色与授权关系管理的业务操作。
type RoleService interface {
	CreateRole(ctx context.Context, input CreateRoleInput) (*model.SysRole, error)
	GetRole(ctx context.Context, id uint64) (*model.SysRole, error)
	ListRoles(ctx context.Context, tenantID uint64) ([]model.SysRole, error)
	UpdateRole(ctx context.Context, role *model.SysRole) error
	DeleteRole(ctx context.Context, id uint64, operator string) error

	// AssignPermissions 增量给角色挂权限，已存在的关联跳过。
	AssignPermissions(ctx context.Context, roleID uint64, permissionIDs []uint64) error
	// RevokePermission 摘除角色上的一条权限关联。
	RevokePermission(ctx context.Context, roleID, permissionID uint64) error
	// ListRolePermissions 返回角色当前关联的有效权限。
	ListRolePermissions(ctx context.Context, roleID uint64) ([]model.SysPermission, error)

	AssignUserRole(ctx context.Context, userID, roleID uint64) error
	RevokeUserRole(ctx context.Context, userID, roleID uint64) error
}

// CreateRoleInput 是创建角色的输入。
type CreateRoleInput struct {
	TenantID  uint64
	RoleCode  string
	RoleName  string
	SortOrder int
	Remark    string
	Operator  string
}

type roleService struct {
	roleRepo     repository.RoleRepository
	permRepo     repository.PermissionRepository
	relationRepo repository.RelationRepository
	pathCache    cache.PathCache
	idGen        *idgen.Generator
}

// NewRoleService 创建一个新的 RoleService 实例。
func NewRoleService(
	roleRepo repository.RoleRepository,
	permRepo repository.PermissionRepository,
	relationRepo repository.RelationRepository,
	pathCache cache.PathCache,
	idGen *idgen.Generator,
) RoleService {
	return &roleService{
		roleRepo:     roleRepo,
		permRepo:     permRepo,
		relationRepo: relationRepo,
		pathCache:    pathCache,
		idGen:        idGen,
	}
}

// CreateRole 创建角色。ROLE_ALL 是保留编码，只允许出现在模板租户下。
func (s *roleService) CreateRole(ctx context.Context, input CreateRoleInput) (*model.SysRole, error) {
	if input.RoleCode == model.RoleAll && input.TenantID != model.TemplateTenantID {
		return nil, ErrRoleCodeReserved
	}
	id, err := s.idGen.NextID(input.TenantID)
	if err != nil {
		return nil, err
	}
	role := &model.SysRole{
		ID:        id,
		TenantID:  input.TenantID,
		RoleCode:  input.RoleCode,
		RoleName:  input.RoleName,
		SortOrder: input.SortOrder,
		Remark:    input.Remark,
		Status:    model.StatusActive,
		CreateBy:  input.Operator,
		UpdateBy:  input.Operator,
	}
	if err := s.roleRepo.Create(role); err != nil {
		return nil, fmt.Errorf("创建角色失败: %w", err)
	}
	log.Infof("创建角色成功, roleId: %d, roleCode: %s, tenantId: %d", id, input.RoleCode, input.TenantID)
	return role, nil
}

// GetRole 按 ID 查询角色。
func (s *roleService) GetRole(ctx context.Context, id uint64) (*model.SysRole, error) {
	role, err := s.roleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return role, nil
}

// ListRoles 查询租户下的全部角色。
func (s *roleService) ListRoles(ctx context.Context, tenantID uint64) ([]model.SysRole, error) {
	return s.roleRepo.FindByTenant(tenantID)
}

// UpdateRole 更新角色。状态或权限面变化后旧缓存立即作废。
func (s *roleService) UpdateRole(ctx context.Context, role *model.SysRole) error {
	if err := s.roleRepo.Update(role); err != nil {
		return err
	}
	s.pathCache.Invalidate(role.ID)
	return nil
}

// DeleteRole 软删除角色并清掉其缓存。
func (s *roleService) DeleteRole(ctx context.Context, id uint64, operator string) error {
	if err := s.roleRepo.SoftDelete(id, operator); err != nil {
		return err
	}
	s.pathCache.Invalidate(id)
	return nil
}

// AssignPermissions 实现 RoleService 接口。
func (s *roleService) AssignPermissions(ctx context.Context, roleID uint64, permissionIDs []uint64) error {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return err
	}

	existing, err := s.relationRepo.FindPermissionIDsByRoleID(roleID)
	if err != nil {
		return fmt.Errorf("查询角色权限关联失败: %w", err)
	}
	existingSet := make(map[uint64]struct{}, len(existing))
	for _, id := range existing {
		existingSet[id] = struct{}{}
	}

	var links []model.SysRolePermission
	for _, permID := range permissionIDs {
		if _, ok := existingSet[permID]; ok {
			continue
		}
		if _, err := s.permRepo.FindByID(permID); err != nil {
			return fmt.Errorf("权限不存在, permissionId: %d: %w", permID, err)
		}
		id, err := s.idGen.NextID(role.TenantID)
		if err != nil {
			return err
		}
		links = append(links, model.SysRolePermission{ID: id, RoleID: roleID, PermissionID: permID})
	}
	if len(links) == 0 {
		return nil
	}
	if err := s.relationRepo.BatchCreateRolePermissions(links); err != nil {
		return fmt.Errorf("挂载角色权限失败: %w", err)
	}
	s.pathCache.Invalidate(roleID)
	log.Infof("角色权限已更新, roleId: %d, added: %d", roleID, len(links))
	return nil
}

// RevokePermission 实现 RoleService 接口。
func (s *roleService) RevokePermission(ctx context.Context, roleID, permissionID uint64) error {
	if err := s.relationRepo.DeleteRolePermission(roleID, permissionID); err != nil {
		return fmt.Errorf("摘除角色权限失败: %w", err)
	}
	s.pathCache.Invalidate(roleID)
	return nil
}

// ListRolePermissions 实现 RoleService 接口。
func (s *roleService) ListRolePermissions(ctx context.Context, roleID uint64) ([]model.SysPermission, error) {
	return s.permRepo.FindByRoleID(roleID)
}

// AssignUserRole 给用户挂角色，重复挂载是空操作。
func (s *roleService) AssignUserRole(ctx context.Context, userID, roleID uint64) error {
	has, err := s.relationRepo.HasUserRole(userID, roleID)
	if err != nil {
		return fmt.Errorf("查询用户角色关联失败: %w", err)
	}
	if has {
		return nil
	}
	id, err := s.idGen.NextID(0)
	if err != nil {
		return err
	}
	return s.relationRepo.CreateUserRole(&model.SysUserRole{ID: id, UserID: userID, RoleID: roleID})
}

// RevokeUserRole 摘除用户的角色。
func (s *roleService) RevokeUserRole(ctx context.Context, userID, roleID uint64) error {
	return s.relationRepo.DeleteUserRole(userID, roleID)
}
