package service

import (
	"sort"

	"gorm.io/gorm"

	"iam-core-go/internal/model"
)

// 本文件提供各仓储接口的内存实现，供服务层测试使用。
// 每个 fake 带可选的 forcedErr 字段，用于模拟存储故障。

type fakeTenantRepo struct {
	tenants   map[uint64]*model.SysTenant
	forcedErr error
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: make(map[uint64]*model.SysTenant)}
}

func (f *fakeTenantRepo) Create(tenant *model.SysTenant) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	if _, ok := f.tenants[tenant.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	cp := *tenant
	f.tenants[tenant.ID] = &cp
	return nil
}

func (f *fakeTenantRepo) FindByID(id uint64) (*model.SysTenant, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	tenant, ok := f.tenants[id]
	if !ok || tenant.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *tenant
	return &cp, nil
}

func (f *fakeTenantRepo) FindAll(offset, limit int) ([]model.SysTenant, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var result []model.SysTenant
	for _, tenant := range f.tenants {
		if !tenant.IsDeleted {
			result = append(result, *tenant)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (f *fakeTenantRepo) Update(tenant *model.SysTenant) error {
	cp := *tenant
	f.tenants[tenant.ID] = &cp
	return nil
}

func (f *fakeTenantRepo) SoftDelete(id uint64, operator string) error {
	tenant, ok := f.tenants[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	tenant.IsDeleted = true
	tenant.UpdateBy = operator
	return nil
}

type fakeUserRepo struct {
	users     map[uint64]*model.SysUser
	forcedErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint64]*model.SysUser)}
}

func (f *fakeUserRepo) Create(user *model.SysUser) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	for _, u := range f.users {
		if u.UserName == user.UserName && u.TenantID == user.TenantID && !u.IsDeleted {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByID(id uint64) (*model.SysUser, error) {
	user, ok := f.users[id]
	if !ok || user.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) FindByUserNameAndTenant(userName string, tenantID uint64) (*model.SysUser, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	for _, user := range f.users {
		if user.UserName == userName && user.TenantID == tenantID && !user.IsDeleted {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByTenant(tenantID uint64, offset, limit int) ([]model.SysUser, error) {
	var result []model.SysUser
	for _, user := range f.users {
		if user.TenantID == tenantID && !user.IsDeleted {
			result = append(result, *user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (f *fakeUserRepo) Update(user *model.SysUser) error {
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) SoftDelete(id uint64, operator string) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsDeleted = true
	user.UpdateBy = operator
	return nil
}

type fakeRelationRepo struct {
	userRoles []model.SysUserRole
	rolePerms []model.SysRolePermission
	forcedErr error
	batchErr  error
}

func newFakeRelationRepo() *fakeRelationRepo {
	return &fakeRelationRepo{}
}

func (f *fakeRelationRepo) CreateUserRole(link *model.SysUserRole) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	for _, l := range f.userRoles {
		if l.UserID == link.UserID && l.RoleID == link.RoleID {
			return gorm.ErrDuplicatedKey
		}
	}
	f.userRoles = append(f.userRoles, *link)
	return nil
}

func (f *fakeRelationRepo) DeleteUserRole(userID, roleID uint64) error {
	for i, l := range f.userRoles {
		if l.UserID == userID && l.RoleID == roleID {
			f.userRoles = append(f.userRoles[:i], f.userRoles[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRelationRepo) HasUserRole(userID, roleID uint64) (bool, error) {
	for _, l := range f.userRoles {
		if l.UserID == userID && l.RoleID == roleID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRelationRepo) CreateRolePermission(link *model.SysRolePermission) error {
	for _, l := range f.rolePerms {
		if l.RoleID == link.RoleID && l.PermissionID == link.PermissionID {
			return gorm.ErrDuplicatedKey
		}
	}
	f.rolePerms = append(f.rolePerms, *link)
	return nil
}

func (f *fakeRelationRepo) BatchCreateRolePermissions(links []model.SysRolePermission) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	f.rolePerms = append(f.rolePerms, links...)
	return nil
}

func (f *fakeRelationRepo) DeleteRolePermission(roleID, permissionID uint64) error {
	for i, l := range f.rolePerms {
		if l.RoleID == roleID && l.PermissionID == permissionID {
			f.rolePerms = append(f.rolePerms[:i], f.rolePerms[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRelationRepo) CountByRoleID(roleID uint64) (int64, error) {
	if f.forcedErr != nil {
		return 0, f.forcedErr
	}
	var count int64
	for _, l := range f.rolePerms {
		if l.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRelationRepo) FindPermissionIDsByRoleID(roleID uint64) ([]uint64, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var ids []uint64
	for _, l := range f.rolePerms {
		if l.RoleID == roleID {
			ids = append(ids, l.PermissionID)
		}
	}
	return ids, nil
}

type fakeRoleRepo struct {
	roles     map[uint64]*model.SysRole
	relations *fakeRelationRepo
	forcedErr error
}

func newFakeRoleRepo(relations *fakeRelationRepo) *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[uint64]*model.SysRole), relations: relations}
}

func (f *fakeRoleRepo) Create(role *model.SysRole) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	for _, r := range f.roles {
		if r.RoleCode == role.RoleCode && r.TenantID == role.TenantID && !r.IsDeleted {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *role
	f.roles[role.ID] = &cp
	return nil
}

func (f *fakeRoleRepo) FindByID(id uint64) (*model.SysRole, error) {
	role, ok := f.roles[id]
	if !ok || role.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *role
	return &cp, nil
}

func (f *fakeRoleRepo) FindByCodeAndTenant(roleCode string, tenantID uint64) (*model.SysRole, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	for _, role := range f.roles {
		if role.RoleCode == roleCode && role.TenantID == tenantID && !role.IsDeleted {
			cp := *role
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoleRepo) FindByTenant(tenantID uint64) ([]model.SysRole, error) {
	var result []model.SysRole
	for _, role := range f.roles {
		if role.TenantID == tenantID && !role.IsDeleted {
			result = append(result, *role)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeRoleRepo) FindByUserID(userID uint64) ([]model.SysRole, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var result []model.SysRole
	for _, link := range f.relations.userRoles {
		if link.UserID != userID {
			continue
		}
		if role, ok := f.roles[link.RoleID]; ok && !role.IsDeleted && role.Status == model.StatusActive {
			result = append(result, *role)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeRoleRepo) Update(role *model.SysRole) error {
	cp := *role
	f.roles[role.ID] = &cp
	return nil
}

func (f *fakeRoleRepo) SoftDelete(id uint64, operator string) error {
	role, ok := f.roles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	role.IsDeleted = true
	role.UpdateBy = operator
	return nil
}

type fakePermRepo struct {
	perms     map[uint64]*model.SysPermission
	relations *fakeRelationRepo
	forcedErr error
}

func newFakePermRepo(relations *fakeRelationRepo) *fakePermRepo {
	return &fakePermRepo{perms: make(map[uint64]*model.SysPermission), relations: relations}
}

func (f *fakePermRepo) Create(perm *model.SysPermission) error {
	cp := *perm
	f.perms[perm.ID] = &cp
	return nil
}

func (f *fakePermRepo) FindByID(id uint64) (*model.SysPermission, error) {
	perm, ok := f.perms[id]
	if !ok || perm.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *perm
	return &cp, nil
}

func (f *fakePermRepo) FindAllActive() ([]model.SysPermission, error) {
	var result []model.SysPermission
	for _, perm := range f.perms {
		if !perm.IsDeleted && perm.Status == model.StatusActive {
			result = append(result, *perm)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakePermRepo) FindByRoleID(roleID uint64) ([]model.SysPermission, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var result []model.SysPermission
	for _, link := range f.relations.rolePerms {
		if link.RoleID != roleID {
			continue
		}
		if perm, ok := f.perms[link.PermissionID]; ok && !perm.IsDeleted && perm.Status == model.StatusActive {
			result = append(result, *perm)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakePermRepo) Update(perm *model.SysPermission) error {
	cp := *perm
	f.perms[perm.ID] = &cp
	return nil
}

func (f *fakePermRepo) SoftDelete(id uint64, operator string) error {
	perm, ok := f.perms[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	perm.IsDeleted = true
	perm.UpdateBy = operator
	return nil
}
