package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"iam-core-go/internal/model"
	"iam-core-go/internal/repository"
	"iam-core-go/pkg/audit"
	"iam-core-go/pkg/cache"
	"iam-core-go/pkg/idgen"
	"iam-core-go/pkg/log"
)

// TemplateService 接口定义了权限模板机制：模板租户（ID 0）下的
// ROLE_ACCESS 角色持有权限基线，新租户首次接入时整体复制基线，
// 之后按需做集合差额补齐。
type TemplateService interface {
	// GetTemplateRole 返回模板租户的 ROLE_ACCESS 角色，缺失时创建。
	GetTemplateRole(ctx context.Context) (*model.SysRole, error)
	// EnsureRoleHasPermissions 保证租户的 ROLE_ACCESS 角色存在且拥有
	// 权限基线。重复调用是幂等的：角色已有任何关联时不做复制。
	EnsureRoleHasPermissions(ctx context.Context, tenantID uint64, operator string) (*model.SysRole, error)
	// SyncPermissionsFromTemplate 把模板角色有而租户角色没有的关联
	// 补齐到租户角色上，返回补齐条数。只增不删。
	SyncPermissionsFromTemplate(ctx context.Context, tenantID uint64) (int, error)
	// ResolveRolePaths 返回角色当前有效的权限条目集合，缓存优先。
	ResolveRolePaths(ctx context.Context, roleID uint64) (map[string]struct{}, error)
}

type templateService struct {
	roleRepo     repository.RoleRepository
	permRepo     repository.PermissionRepository
	relationRepo repository.RelationRepository
	pathCache    cache.PathCache
	idGen        *idgen.Generator
	recorder     audit.Recorder
}

// NewTemplateService 创建一个新的 TemplateService 实例。
func NewTemplateService(
	roleRepo repository.RoleRepository,
	permRepo repository.PermissionRepository,
	relationRepo repository.RelationRepository,
	pathCache cache.PathCache,
	idGen *idgen.Generator,
	recorder audit.Recorder,
) TemplateService {
	return &templateService{
		roleRepo:     roleRepo,
		permRepo:     permRepo,
		relationRepo: relationRepo,
		pathCache:    pathCache,
		idGen:        idGen,
		recorder:     recorder,
	}
}

// GetTemplateRole 实现 TemplateService 接口。
func (s *templateService) GetTemplateRole(ctx context.Context) (*model.SysRole, error) {
	role, err := s.roleRepo.FindByCodeAndTenant(model.RoleAccess, model.TemplateTenantID)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询模板角色失败: %w", err)
	}

	// 模板角色使用固定 ID，保证多实例并发创建时命中唯一键冲突而非重复。
	role = &model.SysRole{
		ID:       model.TemplateAccessRoleID,
		TenantID: model.TemplateTenantID,
		RoleCode: model.RoleAccess,
		RoleName: "外部访问角色",
		Status:   model.StatusActive,
		CreateBy: "system",
		UpdateBy: "system",
	}
	if err := s.roleRepo.Create(role); err != nil {
		// 并发创建时回查一次。
		if existing, findErr := s.roleRepo.FindByCodeAndTenant(model.RoleAccess, model.TemplateTenantID); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("创建模板角色失败: %w", err)
	}
	log.Infof("模板角色不存在, 已创建, roleId: %d", role.ID)
	return role, nil
}

// EnsureRoleHasPermissions 实现 TemplateService 接口。
func (s *templateService) EnsureRoleHasPermissions(ctx context.Context, tenantID uint64, operator string) (*model.SysRole, error) {
	if tenantID == model.TemplateTenantID {
		return s.GetTemplateRole(ctx)
	}

	role, err := s.getOrCreateAccessRole(ctx, tenantID, operator)
	if err != nil {
		return nil, err
	}

	count, err := s.relationRepo.CountByRoleID(role.ID)
	if err != nil {
		return nil, fmt.Errorf("统计角色权限关联失败: %w", err)
	}
	// 已有任何关联就认为基线曾经复制过，不再覆盖租户侧的后续调整。
	if count > 0 {
		return role, nil
	}

	templateRole, err := s.GetTemplateRole(ctx)
	if err != nil {
		return nil, err
	}
	permIDs, err := s.relationRepo.FindPermissionIDsByRoleID(templateRole.ID)
	if err != nil {
		return nil, fmt.Errorf("查询模板权限关联失败: %w", err)
	}
	if len(permIDs) == 0 {
		log.Warnf("模板角色没有任何权限关联, tenantId: %d", tenantID)
		return role, nil
	}

	links := make([]model.SysRolePermission, 0, len(permIDs))
	for _, permID := range permIDs {
		id, err := s.idGen.NextID(tenantID)
		if err != nil {
			return nil, err
		}
		links = append(links, model.SysRolePermission{ID: id, RoleID: role.ID, PermissionID: permID})
	}
	if err := s.relationRepo.BatchCreateRolePermissions(links); err != nil {
		return nil, fmt.Errorf("复制模板权限失败: %w", err)
	}

	log.Infof("已为租户复制权限基线, tenantId: %d, roleId: %d, count: %d", tenantID, role.ID, len(links))
	s.recorder.Record(ctx, audit.Event{
		Action:   audit.ActionPermissionsCopy,
		TenantID: tenantID,
		Detail:   fmt.Sprintf("roleId=%d count=%d", role.ID, len(links)),
	})
	return role, nil
}

// SyncPermissionsFromTemplate 实现 TemplateService 接口。
func (s *templateService) SyncPermissionsFromTemplate(ctx context.Context, tenantID uint64) (int, error) {
	role, err := s.roleRepo.FindByCodeAndTenant(model.RoleAccess, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrRoleNotFound
		}
		return 0, fmt.Errorf("查询租户角色失败: %w", err)
	}
	templateRole, err := s.GetTemplateRole(ctx)
	if err != nil {
		return 0, err
	}

	templateIDs, err := s.relationRepo.FindPermissionIDsByRoleID(templateRole.ID)
	if err != nil {
		return 0, fmt.Errorf("查询模板权限关联失败: %w", err)
	}
	currentIDs, err := s.relationRepo.FindPermissionIDsByRoleID(role.ID)
	if err != nil {
		return 0, fmt.Errorf("查询租户权限关联失败: %w", err)
	}

	existing := make(map[uint64]struct{}, len(currentIDs))
	for _, id := range currentIDs {
		existing[id] = struct{}{}
	}
	var missing []uint64
	for _, id := range templateIDs {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	links := make([]model.SysRolePermission, 0, len(missing))
	for _, permID := range missing {
		id, err := s.idGen.NextID(tenantID)
		if err != nil {
			return 0, err
		}
		links = append(links, model.SysRolePermission{ID: id, RoleID: role.ID, PermissionID: permID})
	}
	if err := s.relationRepo.BatchCreateRolePermissions(links); err != nil {
		return 0, fmt.Errorf("补齐模板权限失败: %w", err)
	}

	// 关联变了，旧缓存立即作废。
	s.pathCache.Invalidate(role.ID)
	log.Infof("已从模板补齐权限, tenantId: %d, roleId: %d, added: %d", tenantID, role.ID, len(missing))
	s.recorder.Record(ctx, audit.Event{
		Action:   audit.ActionPermissionsSync,
		TenantID: tenantID,
		Detail:   fmt.Sprintf("roleId=%d added=%d", role.ID, len(missing)),
	})
	return len(missing), nil
}

// ResolveRolePaths 实现 TemplateService 接口。
// 缓存未命中时从数据库读有效权限并回填缓存，空集合同样缓存，
// 避免无权限角色反复打到数据库。
func (s *templateService) ResolveRolePaths(ctx context.Context, roleID uint64) (map[string]struct{}, error) {
	if entries, ok := s.pathCache.Get(roleID); ok {
		return entries, nil
	}

	perms, err := s.permRepo.FindByRoleID(roleID)
	if err != nil {
		return nil, fmt.Errorf("查询角色权限失败: %w", err)
	}
	entries := make(map[string]struct{}, len(perms))
	for _, perm := range perms {
		if perm.Path == "" {
			continue
		}
		if perm.PermissionType == model.PermissionTypeButton {
			entries[permissionEntry(perm.Method, perm.Path)] = struct{}{}
		} else {
			entries[perm.Path] = struct{}{}
		}
	}
	s.pathCache.Set(roleID, entries)
	return entries, nil
}

// getOrCreateAccessRole 返回租户的 ROLE_ACCESS 角色，缺失时创建。
func (s *templateService) getOrCreateAccessRole(ctx context.Context, tenantID uint64, operator string) (*model.SysRole, error) {
	role, err := s.roleRepo.FindByCodeAndTenant(model.RoleAccess, tenantID)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询租户角色失败: %w", err)
	}

	id, err := s.idGen.NextID(tenantID)
	if err != nil {
		return nil, err
	}
	role = &model.SysRole{
		ID:       id,
		TenantID: tenantID,
		RoleCode: model.RoleAccess,
		RoleName: "外部访问角色",
		Status:   model.StatusActive,
		CreateBy: operator,
		UpdateBy: operator,
	}
	if err := s.roleRepo.Create(role); err != nil {
		if existing, findErr := s.roleRepo.FindByCodeAndTenant(model.RoleAccess, tenantID); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("创建租户角色失败: %w", err)
	}
	log.Infof("已为租户创建访问角色, tenantId: %d, roleId: %d", tenantID, id)
	s.recorder.Record(ctx, audit.Event{
		Action:   audit.ActionRoleCreated,
		TenantID: tenantID,
		Detail:   fmt.Sprintf("roleId=%d roleCode=%s", id, model.RoleAccess),
	})
	return role, nil
}
