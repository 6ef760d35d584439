package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iam-core-go/internal/model"
	"iam-core-go/pkg/audit"
	"iam-core-go/pkg/cache"
	"iam-core-go/pkg/idgen"
)

// recordingRecorder 收集审计事件供断言。
type recordingRecorder struct {
	events []audit.Event
}

func (r *recordingRecorder) Record(ctx context.Context, event audit.Event) {
	r.events = append(r.events, event)
}

func (r *recordingRecorder) actions() []string {
	var actions []string
	for _, e := range r.events {
		actions = append(actions, e.Action)
	}
	return actions
}

type templateFixture struct {
	svc       TemplateService
	roleRepo  *fakeRoleRepo
	permRepo  *fakePermRepo
	relations *fakeRelationRepo
	pathCache *cache.MemoryCache
	recorder  *recordingRecorder
}

func newTemplateFixture() *templateFixture {
	relations := newFakeRelationRepo()
	roleRepo := newFakeRoleRepo(relations)
	permRepo := newFakePermRepo(relations)
	pathCache := cache.NewMemoryCache(0)
	recorder := &recordingRecorder{}
	svc := NewTemplateService(roleRepo, permRepo, relations, pathCache, idgen.NewGenerator(), recorder)
	return &templateFixture{
		svc:       svc,
		roleRepo:  roleRepo,
		permRepo:  permRepo,
		relations: relations,
		pathCache: pathCache,
		recorder:  recorder,
	}
}

// seedTemplate 建好模板角色并挂上给定权限。
func (fx *templateFixture) seedTemplate(t *testing.T, perms ...*model.SysPermission) *model.SysRole {
	t.Helper()
	role := &model.SysRole{
		ID:       model.TemplateAccessRoleID,
		TenantID: model.TemplateTenantID,
		RoleCode: model.RoleAccess,
		RoleName: "外部访问角色",
	}
	require.NoError(t, fx.roleRepo.Create(role))
	for i, perm := range perms {
		require.NoError(t, fx.permRepo.Create(perm))
		require.NoError(t, fx.relations.CreateRolePermission(&model.SysRolePermission{
			ID: uint64(1000 + i), RoleID: role.ID, PermissionID: perm.ID,
		}))
	}
	return role
}

func buttonPerm(id uint64, method, path string) *model.SysPermission {
	return &model.SysPermission{
		ID:             id,
		PermissionName: path,
		PermissionCode: path + ":" + method,
		PermissionType: model.PermissionTypeButton,
		Path:           path,
		Method:         method,
	}
}

func menuPerm(id uint64, path string) *model.SysPermission {
	return &model.SysPermission{
		ID:             id,
		PermissionName: path,
		PermissionCode: "menu:" + path,
		PermissionType: model.PermissionTypeMenu,
		Path:           path,
	}
}

func TestGetTemplateRole_CreatesWhenMissing(t *testing.T) {
	fx := newTemplateFixture()

	role, err := fx.svc.GetTemplateRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.TemplateAccessRoleID, role.ID)
	assert.Equal(t, model.TemplateTenantID, role.TenantID)
	assert.Equal(t, model.RoleAccess, role.RoleCode)

	// 再次调用返回已有角色。
	again, err := fx.svc.GetTemplateRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, role.ID, again.ID)
}

func TestEnsureRoleHasPermissions_CopiesBaseline(t *testing.T) {
	fx := newTemplateFixture()
	fx.seedTemplate(t,
		buttonPerm(10, "GET", "/api/v1/things"),
		buttonPerm(11, "POST", "/api/v1/things"),
		menuPerm(12, "/dashboard"),
	)

	role, err := fx.svc.EnsureRoleHasPermissions(context.Background(), 7, "authcenter")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), role.TenantID)
	assert.Equal(t, model.RoleAccess, role.RoleCode)

	ids, err := fx.relations.FindPermissionIDsByRoleID(role.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{10, 11, 12}, ids)
	assert.Contains(t, fx.recorder.actions(), audit.ActionRoleCreated)
	assert.Contains(t, fx.recorder.actions(), audit.ActionPermissionsCopy)

	// 幂等：重复调用不产生重复关联。
	again, err := fx.svc.EnsureRoleHasPermissions(context.Background(), 7, "authcenter")
	require.NoError(t, err)
	assert.Equal(t, role.ID, again.ID)
	ids, err = fx.relations.FindPermissionIDsByRoleID(role.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestEnsureRoleHasPermissions_SkipsWhenRoleHasAny(t *testing.T) {
	fx := newTemplateFixture()
	fx.seedTemplate(t,
		buttonPerm(10, "GET", "/api/v1/things"),
		buttonPerm(11, "POST", "/api/v1/things"),
	)

	// 租户角色已有一条关联：视为基线复制过，不再补全。
	role, err := fx.svc.EnsureRoleHasPermissions(context.Background(), 7, "authcenter")
	require.NoError(t, err)
	require.NoError(t, fx.relations.DeleteRolePermission(role.ID, 11))

	again, err := fx.svc.EnsureRoleHasPermissions(context.Background(), 7, "authcenter")
	require.NoError(t, err)
	ids, err := fx.relations.FindPermissionIDsByRoleID(again.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{10}, ids)
}

func TestEnsureRoleHasPermissions_TemplateTenant(t *testing.T) {
	fx := newTemplateFixture()

	// 模板租户自身只需返回模板角色，不做复制。
	role, err := fx.svc.EnsureRoleHasPermissions(context.Background(), model.TemplateTenantID, "authcenter")
	require.NoError(t, err)
	assert.Equal(t, model.TemplateAccessRoleID, role.ID)
}

func TestSyncPermissionsFromTemplate_AddsMissing(t *testing.T) {
	fx := newTemplateFixture()
	fx.seedTemplate(t,
		buttonPerm(10, "GET", "/api/v1/things"),
		buttonPerm(11, "POST", "/api/v1/things"),
		buttonPerm(12, "DELETE", "/api/v1/things/{id}"),
	)

	role, err := fx.svc.EnsureRoleHasPermissions(context.Background(), 7, "authcenter")
	require.NoError(t, err)

	// 模板后续新增权限，租户角色出现缺口。
	newPerm := buttonPerm(13, "PUT", "/api/v1/things/{id}")
	require.NoError(t, fx.permRepo.Create(newPerm))
	require.NoError(t, fx.relations.CreateRolePermission(&model.SysRolePermission{
		ID: 2000, RoleID: model.TemplateAccessRoleID, PermissionID: 13,
	}))

	// 预热缓存，补齐后必须失效。
	_, err = fx.svc.ResolveRolePaths(context.Background(), role.ID)
	require.NoError(t, err)

	added, err := fx.svc.SyncPermissionsFromTemplate(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	_, ok := fx.pathCache.Get(role.ID)
	assert.False(t, ok)

	ids, err := fx.relations.FindPermissionIDsByRoleID(role.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{10, 11, 12, 13}, ids)
	assert.Contains(t, fx.recorder.actions(), audit.ActionPermissionsSync)

	// 无缺口时是空操作。
	added, err = fx.svc.SyncPermissionsFromTemplate(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestSyncPermissionsFromTemplate_RoleMissing(t *testing.T) {
	fx := newTemplateFixture()
	fx.seedTemplate(t, buttonPerm(10, "GET", "/api/v1/things"))

	_, err := fx.svc.SyncPermissionsFromTemplate(context.Background(), 42)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestResolveRolePaths(t *testing.T) {
	fx := newTemplateFixture()
	fx.seedTemplate(t,
		buttonPerm(10, "get", "/api/v1/things"),
		menuPerm(12, "/dashboard"),
	)

	entries, err := fx.svc.ResolveRolePaths(context.Background(), model.TemplateAccessRoleID)
	require.NoError(t, err)
	// button 条目带大写方法前缀，导航条目只有路径。
	assert.Contains(t, entries, "GET /api/v1/things")
	assert.Contains(t, entries, "/dashboard")
	assert.Len(t, entries, 2)

	// 第二次走缓存：数据库侧的变化在 TTL 内不可见。
	require.NoError(t, fx.relations.CreateRolePermission(&model.SysRolePermission{
		ID: 3000, RoleID: model.TemplateAccessRoleID, PermissionID: 13,
	}))
	require.NoError(t, fx.permRepo.Create(buttonPerm(13, "PUT", "/api/v1/things/{id}")))

	cached, err := fx.svc.ResolveRolePaths(context.Background(), model.TemplateAccessRoleID)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}
