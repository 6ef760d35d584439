package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iam-core-go/internal/model"
	"iam-core-go/pkg/cache"
	"iam-core-go/pkg/idgen"
)

func newPermFixture() (PermissionService, *fakePermRepo, *cache.MemoryCache) {
	relations := newFakeRelationRepo()
	permRepo := newFakePermRepo(relations)
	pathCache := cache.NewMemoryCache(0)
	svc := NewPermissionService(permRepo, pathCache, idgen.NewGenerator())
	return svc, permRepo, pathCache
}

func TestCreatePermission_Validation(t *testing.T) {
	svc, _, _ := newPermFixture()
	ctx := context.Background()

	// button 必须有路径和方法。
	_, err := svc.CreatePermission(ctx, CreatePermissionInput{
		PermissionName: "查询", PermissionCode: "thing:list", PermissionType: model.PermissionTypeButton,
	})
	assert.ErrorIs(t, err, ErrInvalidPermissionType)

	_, err = svc.CreatePermission(ctx, CreatePermissionInput{
		PermissionName: "未知", PermissionCode: "x", PermissionType: "gadget",
	})
	assert.ErrorIs(t, err, ErrInvalidPermissionType)

	// 父节点必须存在。
	missing := uint64(999)
	_, err = svc.CreatePermission(ctx, CreatePermissionInput{
		PermissionName: "菜单", PermissionCode: "m", PermissionType: model.PermissionTypeMenu, ParentID: &missing,
	})
	assert.ErrorIs(t, err, ErrInvalidParent)
}

func TestPermissionTree(t *testing.T) {
	svc, _, _ := newPermFixture()
	ctx := context.Background()

	folder, err := svc.CreatePermission(ctx, CreatePermissionInput{
		PermissionName: "系统管理", PermissionCode: "system", PermissionType: model.PermissionTypeFolder,
	})
	require.NoError(t, err)
	menu, err := svc.CreatePermission(ctx, CreatePermissionInput{
		PermissionName: "用户管理", PermissionCode: "system:user",
		PermissionType: model.PermissionTypeMenu, ParentID: &folder.ID, Path: "/system/user",
	})
	require.NoError(t, err)
	_, err = svc.CreatePermission(ctx, CreatePermissionInput{
		PermissionName: "用户查询", PermissionCode: "system:user:list",
		PermissionType: model.PermissionTypeButton, ParentID: &menu.ID,
		Path: "/api/v1/users", Method: "GET",
	})
	require.NoError(t, err)

	roots, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "GET", roots[0].Children[0].Children[0].Method)
}

func TestUpdatePermission_ClearsCache(t *testing.T) {
	svc, permRepo, pathCache := newPermFixture()
	ctx := context.Background()

	perm, err := svc.CreatePermission(ctx, CreatePermissionInput{
		PermissionName: "查询", PermissionCode: "thing:list",
		PermissionType: model.PermissionTypeButton, Path: "/api/v1/things", Method: "GET",
	})
	require.NoError(t, err)

	pathCache.Set(1, map[string]struct{}{"GET /api/v1/things": {}})
	pathCache.Set(2, map[string]struct{}{"GET /api/v1/things": {}})

	perm.Path = "/api/v2/things"
	require.NoError(t, svc.UpdatePermission(ctx, perm))
	_, ok1 := pathCache.Get(1)
	_, ok2 := pathCache.Get(2)
	assert.False(t, ok1)
	assert.False(t, ok2)

	require.NoError(t, svc.DeletePermission(ctx, perm.ID, "tester"))
	_, err = permRepo.FindByID(perm.ID)
	assert.Error(t, err)
}
