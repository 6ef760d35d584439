package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"iam-core-go/internal/model"
	"iam-core-go/pkg/audit"
	"iam-core-go/pkg/idgen"
)

type authzFixture struct {
	*templateFixture
	svc        AuthzService
	tenantRepo *fakeTenantRepo
	userRepo   *fakeUserRepo
	deptRepo   *fakeDeptRepo
}

func newAuthzFixture(cfg AuthzConfig) *authzFixture {
	tf := newTemplateFixture()
	tenantRepo := newFakeTenantRepo()
	userRepo := newFakeUserRepo()
	deptRepo := newFakeDeptRepo()
	svc := NewAuthzService(
		tenantRepo, userRepo, tf.roleRepo, deptRepo, tf.relations,
		tf.svc, tf.recorder, idgen.NewGenerator(), cfg,
	)
	return &authzFixture{
		templateFixture: tf,
		svc:             svc,
		tenantRepo:      tenantRepo,
		userRepo:        userRepo,
		deptRepo:        deptRepo,
	}
}

// encodeCred 构造 base64 JSON 形式的凭证。
func encodeCred(t *testing.T, payload map[string]interface{}) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func credFor(t *testing.T, tenantID, deptID uint64, userName string) string {
	return encodeCred(t, map[string]interface{}{
		"tenantId": tenantID,
		"deptId":   deptID,
		"userId":   900,
		"userName": userName,
		"deptName": "测试部门",
	})
}

func TestAuthorize_InvalidCredential(t *testing.T) {
	fx := newAuthzFixture(AuthzConfig{})

	for _, raw := range []string{"", "not-base64!!!", "a.b"} {
		decision := fx.svc.Authorize(context.Background(), AuthorizeRequest{
			Credential: raw, Method: "GET", Path: "/api/v1/things",
		})
		assert.False(t, decision.Allowed)
		assert.Equal(t, http.StatusUnauthorized, decision.Status)
	}
}

func TestAuthorize_ClientAllowlist(t *testing.T) {
	fx := newAuthzFixture(AuthzConfig{ClientAllowlist: []string{"web", "app"}})
	fx.seedTemplate(t, buttonPerm(10, "GET", "/api/v1/things"))
	cred := credFor(t, 7, 70, "alice")

	decision := fx.svc.Authorize(context.Background(), AuthorizeRequest{
		Credential: cred, ClientID: "crawler", Method: "GET", Path: "/api/v1/things",
	})
	assert.False(t, decision.Allowed)
	assert.Equal(t, http.StatusUnauthorized, decision.Status)

	decision = fx.svc.Authorize(context.Background(), AuthorizeRequest{
		Credential: cred, ClientID: "web", Method: "GET", Path: "/api/v1/things",
	})
	assert.True(t, decision.Allowed)
}

func TestAuthorize_AutoProvisioning(t *testing.T) {
	fx := newAuthzFixture(AuthzConfig{})
	fx.seedTemplate(t, buttonPerm(10, "GET", "/api/v1/things"))

	decision := fx.svc.Authorize(context.Background(), AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "GET", Path: "/api/v1/things",
	})
	require.True(t, decision.Allowed)
	require.NotNil(t, decision.Context)
	assert.Equal(t, uint64(7), decision.Context.TenantID)
	assert.Equal(t, "alice", decision.Context.UserName)
	assert.Equal(t, model.RoleAccess, decision.Context.RoleCode)
	assert.False(t, decision.Context.SuperAdmin)

	// 租户、组织单元、用户、角色与关联全部落库。
	_, err := fx.tenantRepo.FindByID(7)
	require.NoError(t, err)
	dept, err := fx.deptRepo.FindByID(70)
	require.NoError(t, err)
	assert.Equal(t, "/70/", dept.Path)
	user, err := fx.userRepo.FindByUserNameAndTenant("alice", 7)
	require.NoError(t, err)
	roles, err := fx.roleRepo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, model.RoleAccess, roles[0].RoleCode)

	actions := fx.recorder.actions()
	assert.Contains(t, actions, audit.ActionTenantCreated)
	assert.Contains(t, actions, audit.ActionDeptCreated)
	assert.Contains(t, actions, audit.ActionUserCreated)
	assert.Contains(t, actions, audit.ActionRoleCreated)
	assert.Contains(t, actions, audit.ActionPermissionsCopy)

	// 再次请求：不重复预置。
	before := len(fx.recorder.events)
	decision = fx.svc.Authorize(context.Background(), AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "GET", Path: "/api/v1/things",
	})
	assert.True(t, decision.Allowed)
	assert.Equal(t, before, len(fx.recorder.events))
}

func TestAuthorize_UserDeptRefreshedOnRepeatContact(t *testing.T) {
	fx := newAuthzFixture(AuthzConfig{})
	fx.seedTemplate(t, buttonPerm(10, "GET", "/api/v1/things"))
	ctx := context.Background()

	decision := fx.svc.Authorize(ctx, AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "GET", Path: "/api/v1/things",
	})
	require.True(t, decision.Allowed)

	// 同一用户换了组织单元再来，归属要刷新。
	decision = fx.svc.Authorize(ctx, AuthorizeRequest{
		Credential: credFor(t, 7, 71, "alice"), Method: "GET", Path: "/api/v1/things",
	})
	require.True(t, decision.Allowed)
	user, err := fx.userRepo.FindByUserNameAndTenant("alice", 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(71), user.DeptID)
}

func TestAuthorize_SuperAdminBypass(t *testing.T) {
	fx := newAuthzFixture(AuthzConfig{})
	fx.seedTemplate(t, buttonPerm(10, "GET", "/api/v1/things"))

	// 预置模板租户下的超管角色与用户。
	superRole := &model.SysRole{
		ID: 5, TenantID: model.TemplateTenantID, RoleCode: model.RoleAll, RoleName: "超级管理员",
	}
	require.NoError(t, fx.roleRepo.Create(superRole))
	admin := &model.SysUser{ID: 900, TenantID: model.TemplateTenantID, UserName: "admin"}
	require.NoError(t, fx.userRepo.Create(admin))
	require.NoError(t, fx.relations.CreateUserRole(&model.SysUserRole{ID: 1, UserID: 900, RoleID: 5}))

	// 超管可跨租户访问，且不做路径匹配。
	decision := fx.svc.Authorize(context.Background(), AuthorizeRequest{
		Credential: credFor(t, model.TemplateTenantID, 70, "admin"),
		Method:     "DELETE",
		Path:       "/api/v1/tenants/99/users/1",
	})
	require.True(t, decision.Allowed)
	assert.True(t, decision.Context.SuperAdmin)
	assert.Equal(t, model.RoleAll, decision.Context.RoleCode)
}

func TestAuthorize_TenantIsolation(t *testing.T) {
	fx := newAuthzFixture(AuthzConfig{})
	fx.seedTemplate(t, buttonPerm(10, "GET", "/api/v1/tenants/*"))

	decision := fx.svc.Authorize(context.Background(), AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "GET", Path: "/api/v1/tenants/8/users",
	})
	assert.False(t, decision.Allowed)
	assert.Equal(t, http.StatusForbidden, decision.Status)
	assert.Contains(t, fx.recorder.actions(), audit.ActionAccessDenied)

	// 自己租户的路径照常放行。
	decision = fx.svc.Authorize(context.Background(), AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "GET", Path: "/api/v1/tenants/7/users",
	})
	assert.True(t, decision.Allowed)
}

func TestAuthorize_TemplateTenantBypass(t *testing.T) {
	fx := newAuthzFixture(AuthzConfig{})
	fx.seedTemplate(t, buttonPerm(10, "GET", "/api/v1/things"))

	// 模板租户的普通用户不做路径匹配。
	decision := fx.svc.Authorize(context.Background(), AuthorizeRequest{
		Credential: credFor(t, model.TemplateTenantID, 70, "ops"),
		Method:     "POST",
		Path:       "/api/v1/anything",
	})
	assert.True(t, decision.Allowed)
	assert.False(t, decision.Context.SuperAdmin)

	// 模板租户是保留租户，不会被自动预置出 sys_tenant 行。
	_, err := fx.tenantRepo.FindByID(model.TemplateTenantID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAuthorize_PermissionDenied(t *testing.T) {
	fx := newAuthzFixture(AuthzConfig{})
	fx.seedTemplate(t, buttonPerm(10, "GET", "/api/v1/things"))

	decision := fx.svc.Authorize(context.Background(), AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "DELETE", Path: "/api/v1/things",
	})
	assert.False(t, decision.Allowed)
	assert.Equal(t, http.StatusForbidden, decision.Status)
	assert.Contains(t, fx.recorder.actions(), audit.ActionAccessDenied)
}

func TestAuthorize_TemplateFallbackTriggersSync(t *testing.T) {
	fx := newAuthzFixture(AuthzConfig{})
	fx.seedTemplate(t, buttonPerm(10, "GET", "/api/v1/things"))
	ctx := context.Background()

	// 先完成首次接入，复制基线。
	decision := fx.svc.Authorize(ctx, AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "GET", Path: "/api/v1/things",
	})
	require.True(t, decision.Allowed)

	// 模板后来新增了权限，租户还没同步。
	require.NoError(t, fx.permRepo.Create(buttonPerm(11, "POST", "/api/v1/things")))
	require.NoError(t, fx.relations.CreateRolePermission(&model.SysRolePermission{
		ID: 2000, RoleID: model.TemplateAccessRoleID, PermissionID: 11,
	}))
	fx.pathCache.Clear()

	decision = fx.svc.Authorize(ctx, AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "POST", Path: "/api/v1/things",
	})
	require.True(t, decision.Allowed)

	// 回退放行的同时缺口被补齐。
	role, err := fx.roleRepo.FindByCodeAndTenant(model.RoleAccess, 7)
	require.NoError(t, err)
	ids, err := fx.relations.FindPermissionIDsByRoleID(role.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{10, 11}, ids)
}

func TestAuthorize_TemplateFallbackAllowsEvenWhenSyncFails(t *testing.T) {
	fx := newAuthzFixture(AuthzConfig{})
	fx.seedTemplate(t, buttonPerm(10, "GET", "/api/v1/things"))
	ctx := context.Background()

	decision := fx.svc.Authorize(ctx, AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "GET", Path: "/api/v1/things",
	})
	require.True(t, decision.Allowed)

	require.NoError(t, fx.permRepo.Create(buttonPerm(11, "POST", "/api/v1/things")))
	require.NoError(t, fx.relations.CreateRolePermission(&model.SysRolePermission{
		ID: 2000, RoleID: model.TemplateAccessRoleID, PermissionID: 11,
	}))
	fx.pathCache.Clear()
	fx.relations.batchErr = errors.New("db down")

	// 模板基线允许即放行，补齐失败只记日志。
	decision = fx.svc.Authorize(ctx, AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "POST", Path: "/api/v1/things",
	})
	assert.True(t, decision.Allowed)
}

func TestAuthorize_FailClosedOnStorageError(t *testing.T) {
	fx := newAuthzFixture(AuthzConfig{})
	fx.seedTemplate(t, buttonPerm(10, "GET", "/api/v1/things"))
	ctx := context.Background()

	// 先正常接入一次，再让权限查询开始报错。
	decision := fx.svc.Authorize(ctx, AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "GET", Path: "/api/v1/things",
	})
	require.True(t, decision.Allowed)

	fx.pathCache.Clear()
	fx.permRepo.forcedErr = errors.New("db down")

	decision = fx.svc.Authorize(ctx, AuthorizeRequest{
		Credential: credFor(t, 7, 70, "alice"), Method: "GET", Path: "/api/v1/things",
	})
	assert.False(t, decision.Allowed)
	assert.Equal(t, http.StatusInternalServerError, decision.Status)
}

func TestExtractTenantIDFromPath(t *testing.T) {
	cases := []struct {
		path string
		id   uint64
		ok   bool
	}{
		{"/api/v1/tenants/7/users", 7, true},
		{"/api/v1/tenants/7", 7, true},
		{"/tenants/42/roles/1", 42, true},
		{"/api/v1/things", 0, false},
		{"/api/v1/tenants", 0, false},
		{"/api/v1/tenants/abc/users", 0, false},
	}
	for _, tc := range cases {
		id, ok := extractTenantIDFromPath(tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
		assert.Equal(t, tc.id, id, tc.path)
	}
}
