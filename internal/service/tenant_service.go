package service

import (
	"context"
	"fmt"

	"iam-core-go/internal/model"
	"iam-core-go/internal/repository"
	"iam-core-go/pkg/audit"
	"iam-core-go/pkg/idgen"
	"iam-core-go/pkg/log"
)

// TenantService 接口定义了租户管理的业务操作。
type TenantService interface {
	CreateTenant(ctx context.Context, input CreateTenantInput) (*model.SysTenant, error)
	GetTenant(ctx context.Context, id uint64) (*model.SysTenant, error)
	ListTenants(ctx context.Context, page, pageSize int) ([]model.SysTenant, error)
	UpdateTenant(ctx context.Context, tenant *model.SysTenant) error
	DeleteTenant(ctx context.Context, id uint64, operator string) error
}

// CreateTenantInput 是创建租户的输入。
type CreateTenantInput struct {
	TenantName    string
	CompanyName   string
	CompanyCode   string
	ContactPerson string
	ContactPhone  string
	Remark        string
	Operator      string
}

type tenantService struct {
	tenantRepo repository.TenantRepository
	idGen      *idgen.Generator
	recorder   audit.Recorder
}

// NewTenantService 创建一个新的 TenantService 实例。
func NewTenantService(tenantRepo repository.TenantRepository, idGen *idgen.Generator, recorder audit.Recorder) TenantService {
	return &tenantService{tenantRepo: tenantRepo, idGen: idGen, recorder: recorder}
}

// CreateTenant 创建一个租户并分配 ID。
func (s *tenantService) CreateTenant(ctx context.Context, input CreateTenantInput) (*model.SysTenant, error) {
	id, err := s.idGen.NextID(0)
	if err != nil {
		return nil, err
	}
	tenant := &model.SysTenant{
		ID:            id,
		TenantName:    input.TenantName,
		CompanyName:   input.CompanyName,
		CompanyCode:   input.CompanyCode,
		ContactPerson: input.ContactPerson,
		ContactPhone:  input.ContactPhone,
		Remark:        input.Remark,
		Status:        model.StatusActive,
		CreateBy:      input.Operator,
		UpdateBy:      input.Operator,
	}
	if err := s.tenantRepo.Create(tenant); err != nil {
		return nil, fmt.Errorf("创建租户失败: %w", err)
	}
	log.Infof("创建租户成功, tenantId: %d, name: %s", id, input.TenantName)
	s.recorder.Record(ctx, audit.Event{
		Action:   audit.ActionTenantCreated,
		TenantID: id,
		UserName: input.Operator,
		Detail:   input.TenantName,
	})
	return tenant, nil
}

// GetTenant 按 ID 查询租户。
func (s *tenantService) GetTenant(ctx context.Context, id uint64) (*model.SysTenant, error) {
	return s.tenantRepo.FindByID(id)
}

// ListTenants 分页查询租户列表。page 从 1 开始。
func (s *tenantService) ListTenants(ctx context.Context, page, pageSize int) ([]model.SysTenant, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return s.tenantRepo.FindAll((page-1)*pageSize, pageSize)
}

// UpdateTenant 更新租户信息。模板租户不允许禁用。
func (s *tenantService) UpdateTenant(ctx context.Context, tenant *model.SysTenant) error {
	if tenant.ID == model.TemplateTenantID && tenant.Status != model.StatusActive {
		return ErrTemplateTenantProtected
	}
	return s.tenantRepo.Update(tenant)
}

// DeleteTenant 软删除租户。模板租户永不删除。
func (s *tenantService) DeleteTenant(ctx context.Context, id uint64, operator string) error {
	if id == model.TemplateTenantID {
		return ErrTemplateTenantProtected
	}
	return s.tenantRepo.SoftDelete(id, operator)
}
