package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"iam-core-go/internal/model"
	"iam-core-go/internal/repository"
	"iam-core-go/pkg/audit"
	"iam-core-go/pkg/log"
	"iam-core-go/pkg/token"
)

// AuthorizeRequest 是一次鉴权请求的输入。
type AuthorizeRequest struct {
	// Credential 是请求头中的原始凭证，JWT 或 base64 JSON。
	Credential string
	// ClientID 标识调用方渠道，为空时回退到凭证内的 clientId。
	ClientID string
	Method   string
	Path     string
}

// AccessContext 是鉴权通过后附加在请求上的访问上下文。
type AccessContext struct {
	UserID     uint64              `json:"userId"`
	UserName   string              `json:"userName"`
	TenantID   uint64              `json:"tenantId"`
	DeptID     uint64              `json:"deptId"`
	DeptName   string              `json:"deptName"`
	RoleCode   string              `json:"roleCode"`
	SuperAdmin bool                `json:"superAdmin"`
	Paths      map[string]struct{} `json:"-"`
}

// Decision 是鉴权结果。拒绝时 Status 为对应的 HTTP 状态码。
type Decision struct {
	Allowed bool
	Status  int
	Reason  string
	Context *AccessContext
}

// AuthzService 接口定义了外部请求的鉴权入口。
type AuthzService interface {
	// Authorize 对一次请求做完整鉴权。内部错误一律拒绝（fail closed），
	// 不向调用方透出错误细节。
	Authorize(ctx context.Context, req AuthorizeRequest) Decision
}

// AuthzConfig 是鉴权服务的静态配置。
type AuthzConfig struct {
	// ClientAllowlist 为空时不校验调用方渠道。
	ClientAllowlist []string
}

type authzService struct {
	tenantRepo   repository.TenantRepository
	userRepo     repository.UserRepository
	roleRepo     repository.RoleRepository
	deptRepo     repository.DeptRepository
	relationRepo repository.RelationRepository
	templateSvc  TemplateService
	recorder     audit.Recorder
	idGen        idGenerator
	allowlist    map[string]struct{}
}

// idGenerator 抽出 NextID 以便测试替换。
type idGenerator interface {
	NextID(tenantID uint64) (uint64, error)
}

// NewAuthzService 创建一个新的 AuthzService 实例。
func NewAuthzService(
	tenantRepo repository.TenantRepository,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	deptRepo repository.DeptRepository,
	relationRepo repository.RelationRepository,
	templateSvc TemplateService,
	recorder audit.Recorder,
	idGen idGenerator,
	cfg AuthzConfig,
) AuthzService {
	allowlist := make(map[string]struct{}, len(cfg.ClientAllowlist))
	for _, id := range cfg.ClientAllowlist {
		allowlist[id] = struct{}{}
	}
	return &authzService{
		tenantRepo:   tenantRepo,
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		deptRepo:     deptRepo,
		relationRepo: relationRepo,
		templateSvc:  templateSvc,
		recorder:     recorder,
		idGen:        idGen,
		allowlist:    allowlist,
	}
}

// Authorize 实现 AuthzService 接口。
//
// 决策顺序固定：凭证解码、渠道校验、自动预置、超管放行、租户隔离、
// 模板租户放行、直接匹配、模板回退，最后拒绝。任何存储错误都以 500
// 拒绝，绝不因为内部故障放行。
func (s *authzService) Authorize(ctx context.Context, req AuthorizeRequest) Decision {
	cred, err := token.Decode(req.Credential)
	if err != nil {
		log.Infof("凭证解码失败: %v", err)
		return deny(http.StatusUnauthorized, "invalid credential")
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = cred.ClientID
	}
	if len(s.allowlist) > 0 {
		if _, ok := s.allowlist[clientID]; !ok {
			log.Warnf("调用方渠道不在许可名单内, clientId: %s", clientID)
			return deny(http.StatusUnauthorized, "client not allowed")
		}
	}

	access, userRoles, err := s.provision(ctx, cred)
	if err != nil {
		log.Errorf("自动预置失败, tenantId: %d, user: %s, error: %v", cred.TenantID, cred.UserName, err)
		return deny(http.StatusInternalServerError, "internal error")
	}

	// 超管放行：ROLE_ALL 不受租户隔离与路径匹配约束。
	for _, role := range userRoles {
		if role.RoleCode == model.RoleAll {
			access.RoleCode = model.RoleAll
			access.SuperAdmin = true
			return allow(access)
		}
	}

	if pathTenantID, ok := extractTenantIDFromPath(req.Path); ok && pathTenantID != cred.TenantID {
		s.auditDenied(ctx, access, req, "cross-tenant access")
		return deny(http.StatusForbidden, "tenant mismatch")
	}

	// 模板租户自身的请求直接放行。
	if cred.TenantID == model.TemplateTenantID {
		return allow(access)
	}

	entries, err := s.collectRolePaths(ctx, userRoles)
	if err != nil {
		log.Errorf("解析角色权限失败, tenantId: %d, error: %v", cred.TenantID, err)
		return deny(http.StatusInternalServerError, "internal error")
	}
	access.Paths = entries
	if matchAny(entries, req.Method, req.Path) {
		return allow(access)
	}

	// 模板回退：模板基线里有这条路径说明租户只是还没同步到,
	// 放行并尽力补齐，补齐失败不影响本次决策。
	templateRole, err := s.templateSvc.GetTemplateRole(ctx)
	if err != nil {
		log.Errorf("查询模板角色失败: %v", err)
		return deny(http.StatusInternalServerError, "internal error")
	}
	templateEntries, err := s.templateSvc.ResolveRolePaths(ctx, templateRole.ID)
	if err != nil {
		log.Errorf("解析模板权限失败: %v", err)
		return deny(http.StatusInternalServerError, "internal error")
	}
	if matchAny(templateEntries, req.Method, req.Path) {
		if _, syncErr := s.templateSvc.SyncPermissionsFromTemplate(ctx, cred.TenantID); syncErr != nil {
			log.Warnf("模板权限补齐失败, tenantId: %d, error: %v", cred.TenantID, syncErr)
		}
		return allow(access)
	}

	s.auditDenied(ctx, access, req, "no matching permission")
	return deny(http.StatusForbidden, "permission denied")
}

func allow(access *AccessContext) Decision {
	return Decision{Allowed: true, Status: http.StatusOK, Context: access}
}

func deny(status int, reason string) Decision {
	return Decision{Allowed: false, Status: status, Reason: reason}
}

// provision 保证凭证指向的租户、组织单元、用户、角色及其关联都存在,
// 返回访问上下文与用户当前的有效角色列表。
func (s *authzService) provision(ctx context.Context, cred *token.Credential) (*AccessContext, []model.SysRole, error) {
	if err := s.ensureTenant(ctx, cred); err != nil {
		return nil, nil, err
	}
	if err := s.ensureDept(ctx, cred); err != nil {
		return nil, nil, err
	}

	role, err := s.templateSvc.EnsureRoleHasPermissions(ctx, cred.TenantID, cred.UserName)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.ensureUser(ctx, cred)
	if err != nil {
		return nil, nil, err
	}
	if err := s.ensureUserRole(user.ID, role.ID); err != nil {
		return nil, nil, err
	}

	userRoles, err := s.roleRepo.FindByUserID(user.ID)
	if err != nil {
		return nil, nil, err
	}

	return &AccessContext{
		UserID:   user.ID,
		UserName: user.UserName,
		TenantID: cred.TenantID,
		DeptID:   cred.DeptID,
		DeptName: cred.DeptName,
		RoleCode: role.RoleCode,
	}, userRoles, nil
}

func (s *authzService) ensureTenant(ctx context.Context, cred *token.Credential) error {
	// 模板租户是保留租户，不走自动预置。
	if cred.TenantID == model.TemplateTenantID {
		return nil
	}
	_, err := s.tenantRepo.FindByID(cred.TenantID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("查询租户失败: %w", err)
	}

	tenant := &model.SysTenant{
		ID:         cred.TenantID,
		TenantName: fmt.Sprintf("tenant_%d", cred.TenantID),
		Status:     model.StatusActive,
		CreateBy:   cred.UserName,
		UpdateBy:   cred.UserName,
	}
	if err := s.tenantRepo.Create(tenant); err != nil {
		// 并发预置时另一请求已建好。
		if _, findErr := s.tenantRepo.FindByID(cred.TenantID); findErr == nil {
			return nil
		}
		return fmt.Errorf("创建租户失败: %w", err)
	}
	log.Infof("自动预置租户, tenantId: %d", cred.TenantID)
	s.recorder.Record(ctx, audit.Event{
		Action:   audit.ActionTenantCreated,
		TenantID: cred.TenantID,
		UserName: cred.UserName,
	})
	return nil
}

// ensureDept 以凭证携带的 ID 预置组织单元根节点。
// 组织单元 ID 由上游身份系统分配，这里必须原样落库。
func (s *authzService) ensureDept(ctx context.Context, cred *token.Credential) error {
	if cred.DeptID == 0 {
		return nil
	}
	_, err := s.deptRepo.FindByID(cred.DeptID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("查询组织单元失败: %w", err)
	}

	deptName := cred.DeptName
	if deptName == "" {
		deptName = fmt.Sprintf("dept_%d", cred.DeptID)
	}
	dept := &model.SysDept{
		ID:       cred.DeptID,
		TenantID: cred.TenantID,
		DeptName: deptName,
		Path:     fmt.Sprintf("/%d/", cred.DeptID),
		Depth:    0,
		Status:   model.StatusActive,
		CreateBy: cred.UserName,
		UpdateBy: cred.UserName,
	}
	if err := s.deptRepo.Create(dept); err != nil {
		if _, findErr := s.deptRepo.FindByID(cred.DeptID); findErr == nil {
			return nil
		}
		return fmt.Errorf("创建组织单元失败: %w", err)
	}
	log.Infof("自动预置组织单元, deptId: %d, tenantId: %d", cred.DeptID, cred.TenantID)
	s.recorder.Record(ctx, audit.Event{
		Action:   audit.ActionDeptCreated,
		TenantID: cred.TenantID,
		UserName: cred.UserName,
		Detail:   fmt.Sprintf("deptId=%d", cred.DeptID),
	})
	return nil
}

// ensureUser 预置用户；用户已存在但组织归属变化时刷新归属。
func (s *authzService) ensureUser(ctx context.Context, cred *token.Credential) (*model.SysUser, error) {
	user, err := s.userRepo.FindByUserNameAndTenant(cred.UserName, cred.TenantID)
	if err == nil {
		if user.DeptID != cred.DeptID && cred.DeptID != 0 {
			user.DeptID = cred.DeptID
			user.UpdateBy = cred.UserName
			if err := s.userRepo.Update(user); err != nil {
				return nil, fmt.Errorf("更新用户归属失败: %w", err)
			}
			log.Infof("用户组织归属已刷新, userId: %d, deptId: %d", user.ID, cred.DeptID)
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	id := cred.UserID
	if id == 0 {
		if id, err = s.idGen.NextID(cred.TenantID); err != nil {
			return nil, err
		}
	}
	user = &model.SysUser{
		ID:       id,
		TenantID: cred.TenantID,
		DeptID:   cred.DeptID,
		UserName: cred.UserName,
		NickName: cred.UserName,
		Status:   model.StatusActive,
		CreateBy: cred.UserName,
		UpdateBy: cred.UserName,
	}
	if err := s.userRepo.Create(user); err != nil {
		if existing, findErr := s.userRepo.FindByUserNameAndTenant(cred.UserName, cred.TenantID); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	log.Infof("自动预置用户, userId: %d, tenantId: %d, userName: %s", user.ID, cred.TenantID, cred.UserName)
	s.recorder.Record(ctx, audit.Event{
		Action:   audit.ActionUserCreated,
		TenantID: cred.TenantID,
		UserID:   user.ID,
		UserName: cred.UserName,
	})
	return user, nil
}

func (s *authzService) ensureUserRole(userID, roleID uint64) error {
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
	if err := s.relationRepo.CreateUserRole(&model.SysUserRole{ID: id, UserID: userID, RoleID: roleID}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("创建用户角色关联失败: %w", err)
	}
	return nil
}

// collectRolePaths 汇总用户全部有效角色的权限条目。
func (s *authzService) collectRolePaths(ctx context.Context, roles []model.SysRole) (map[string]struct{}, error) {
	merged := make(map[string]struct{})
	for _, role := range roles {
		entries, err := s.templateSvc.ResolveRolePaths(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		for entry := range entries {
			merged[entry] = struct{}{}
		}
	}
	return merged, nil
}

func (s *authzService) auditDenied(ctx context.Context, access *AccessContext, req AuthorizeRequest, reason string) {
	log.Infow("请求被拒绝",
		"tenantId", access.TenantID, "user", access.UserName,
		"method", req.Method, "path", req.Path, "reason", reason)
	s.recorder.Record(ctx, audit.Event{
		Action:   audit.ActionAccessDenied,
		TenantID: access.TenantID,
		UserID:   access.UserID,
		UserName: access.UserName,
		Detail:   fmt.Sprintf("%s %s: %s", req.Method, req.Path, reason),
	})
}

// extractTenantIDFromPath 从形如 /api/v1/tenants/{id}/... 的路径中
// 提取租户 ID。路径不含 tenants 段或其后不是数字时返回 false。
func extractTenantIDFromPath(path string) (uint64, bool) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segs {
		if seg != "tenants" || i+1 >= len(segs) {
			continue
		}
		id, err := strconv.ParseUint(segs[i+1], 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}
