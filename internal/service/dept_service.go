package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"iam-core-go/internal/model"
	"iam-core-go/internal/repository"
	"iam-core-go/pkg/idgen"
	"iam-core-go/pkg/log"
)

// DeptService 接口定义了组织单元树的全部业务操作。
//
// 树采用 Materialized Path 编码：子树查询与环检测只依赖路径前缀
// 匹配，代价是每次搬移都要改写全部后代的路径。这是读优化、写摊销
// 的取舍。
type DeptService interface {
	CreateNode(ctx context.Context, input CreateDeptInput) (*model.SysDept, error)
	MoveNode(ctx context.Context, nodeID uint64, newParentID *uint64, operator string) (*model.SysDept, error)
	Subtree(ctx context.Context, nodeID uint64) ([]model.SysDept, error)
	DeleteNode(ctx context.Context, nodeID uint64, operator string) error
	Tree(ctx context.Context, tenantID *uint64) ([]*model.DeptNode, error)
}

// CreateDeptInput 是创建组织单元的输入。
type CreateDeptInput struct {
	TenantID  uint64
	ParentID  *uint64
	DeptName  string
	SortOrder int
	Leader    string
	Phone     string
	Email     string
	Operator  string
}

type deptService struct {
	deptRepo repository.DeptRepository
	idGen    *idgen.Generator
}

// NewDeptService 创建一个新的 DeptService 实例。
func NewDeptService(deptRepo repository.DeptRepository, idGen *idgen.Generator) DeptService {
	return &deptService{deptRepo: deptRepo, idGen: idGen}
}

// CreateNode 创建一个组织单元节点。
// 路径由父节点路径追加自身 ID 得到，根节点为 "/{id}/"；
// 深度为父节点深度加一，根节点为 0。
func (s *deptService) CreateNode(ctx context.Context, input CreateDeptInput) (*model.SysDept, error) {
	var parent *model.SysDept
	if input.ParentID != nil {
		var err error
		parent, err = s.deptRepo.FindByID(*input.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidParent
			}
			return nil, fmt.Errorf("查询父组织单元失败: %w", err)
		}
	}

	id, err := s.idGen.NextID(input.TenantID)
	if err != nil {
		return nil, err
	}

	dept := &model.SysDept{
		ID:        id,
		TenantID:  input.TenantID,
		ParentID:  input.ParentID,
		DeptName:  input.DeptName,
		SortOrder: input.SortOrder,
		Leader:    input.Leader,
		Phone:     input.Phone,
		Email:     input.Email,
		Status:    model.StatusActive,
		CreateBy:  input.Operator,
		UpdateBy:  input.Operator,
	}
	if parent == nil {
		dept.Path = fmt.Sprintf("/%d/", id)
		dept.Depth = 0
	} else {
		dept.Path = fmt.Sprintf("%s%d/", parent.Path, id)
		dept.Depth = parent.Depth + 1
	}

	if err := s.deptRepo.Create(dept); err != nil {
		return nil, fmt.Errorf("创建组织单元失败: %w", err)
	}
	log.Infof("创建组织单元成功, id: %d, path: %s, tenantId: %d", dept.ID, dept.Path, dept.TenantID)
	return dept, nil
}

// MoveNode 把节点挂到新的父节点下（nil 表示变为根节点）。
// 节点自身与全部后代的路径、深度在单个存储事务内改写：并发读者
// 不会观察到父节点已改而后代未改的半更新状态。
func (s *deptService) MoveNode(ctx context.Context, nodeID uint64, newParentID *uint64, operator string) (*model.SysDept, error) {
	node, err := s.deptRepo.FindByID(nodeID)
	if err != nil {
		return nil, fmt.Errorf("查询组织单元失败: %w", err)
	}

	var parent *model.SysDept
	if newParentID != nil {
		if *newParentID == nodeID {
			return nil, ErrCircularReference
		}
		parent, err = s.deptRepo.FindByID(*newParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidParent
			}
			return nil, fmt.Errorf("查询新父组织单元失败: %w", err)
		}
		// 新父节点落在当前节点子树内说明会成环。
		if strings.HasPrefix(parent.Path, node.Path) {
			return nil, ErrCircularReference
		}
	}

	// 先按旧路径取出整棵子树（含自身）。改写必须覆盖禁用节点，
	// 否则它们的路径会留在旧位置。
	subtree, err := s.deptRepo.FindAllByPathPrefix(node.Path)
	if err != nil {
		return nil, fmt.Errorf("查询子树失败: %w", err)
	}

	oldPath := node.Path
	var newPath string
	var newDepth int
	if parent == nil {
		newPath = fmt.Sprintf("/%d/", nodeID)
		newDepth = 0
	} else {
		newPath = fmt.Sprintf("%s%d/", parent.Path, nodeID)
		newDepth = parent.Depth + 1
	}

	err = s.deptRepo.Transaction(func(tx repository.DeptRepository) error {
		node.ParentID = newParentID
		node.Path = newPath
		node.Depth = newDepth
		node.UpdateBy = operator
		if err := tx.Update(node); err != nil {
			return err
		}

		for i := range subtree {
			desc := &subtree[i]
			if desc.ID == nodeID {
				continue
			}
			relative := strings.TrimPrefix(desc.Path, oldPath)
			desc.Path = newPath + relative
			// relative 形如 "a/" 或 "a/b/"，段数即相对深度。
			desc.Depth = newDepth + strings.Count(relative, "/")
			desc.UpdateBy = operator
			if err := tx.Update(desc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("搬移组织单元失败: %w", err)
	}

	log.Infow("组织单元搬移成功",
		"nodeId", nodeID, "oldPath", oldPath, "newPath", newPath, "descendants", len(subtree)-1)
	return node, nil
}

// Subtree 返回节点自身及其全部后代，按路径与排序号排序。
// 只包含未删除且启用的节点。
func (s *deptService) Subtree(ctx context.Context, nodeID uint64) ([]model.SysDept, error) {
	node, err := s.deptRepo.FindByID(nodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询组织单元失败: %w", err)
	}
	return s.deptRepo.FindByPathPrefix(node.Path)
}

// DeleteNode 软删除一个组织单元。
// 仍有未删除子节点时拒绝删除，绝不级联。
func (s *deptService) DeleteNode(ctx context.Context, nodeID uint64, operator string) error {
	if _, err := s.deptRepo.FindByID(nodeID); err != nil {
		return fmt.Errorf("查询组织单元失败: %w", err)
	}

	hasChildren, err := s.deptRepo.HasChildren(nodeID)
	if err != nil {
		return fmt.Errorf("查询子节点失败: %w", err)
	}
	if hasChildren {
		return ErrHasChildren
	}
	return s.deptRepo.SoftDelete(nodeID, operator)
}

// Tree 构建组织单元的树形结构（森林）。
// 两趟 O(n)：先建 id 到节点的映射，再按 parent_id 挂接。
func (s *deptService) Tree(ctx context.Context, tenantID *uint64) ([]*model.DeptNode, error) {
	depts, err := s.deptRepo.FindAll(tenantID)
	if err != nil {
		return nil, fmt.Errorf("查询组织单元列表失败: %w", err)
	}

	nodeMap := make(map[uint64]*model.DeptNode, len(depts))
	for _, dept := range depts {
		nodeMap[dept.ID] = &model.DeptNode{
			ID:        dept.ID,
			TenantID:  dept.TenantID,
			ParentID:  dept.ParentID,
			DeptName:  dept.DeptName,
			Path:      dept.Path,
			Depth:     dept.Depth,
			SortOrder: dept.SortOrder,
			Status:    dept.Status,
			Children:  []*model.DeptNode{},
		}
	}

	var roots []*model.DeptNode
	for _, dept := range depts {
		node := nodeMap[dept.ID]
		if dept.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodeMap[*dept.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		} else {
			// 父节点被删除或不在当前租户过滤范围内时，提升为根展示。
			roots = append(roots, node)
		}
	}
	return roots, nil
}
