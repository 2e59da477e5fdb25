package service

import (
	"context"
	"errors"
	"fmt"

	"nimbus-backend/internal/apperr"
	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateStatusRequest struct {
	DocumentType string `json:"document_type" binding:"required"`
	Name         string `json:"name" binding:"required"`
	IsInitial    bool   `json:"is_initial"`
	IsFinal      bool   `json:"is_final"`
}

type UpdateStatusRequest struct {
	Name      string `json:"name" binding:"required"`
	IsInitial bool   `json:"is_initial"`
	IsFinal   bool   `json:"is_final"`
}

type CreateTransitionRequest struct {
	DocumentType string   `json:"document_type" binding:"required"`
	FromStatus   string   `json:"from_status" binding:"required"`
	ToStatus     string   `json:"to_status" binding:"required"`
	RoleIDs      []string `json:"role_ids" binding:"required"`
}

type UpdateTransitionRequest struct {
	FromStatus string   `json:"from_status" binding:"required"`
	ToStatus   string   `json:"to_status" binding:"required"`
	RoleIDs    []string `json:"role_ids" binding:"required"`
}

// --- Interface ---

// WorkflowService maintains the status registry and the role-gated
// transition graph per document type, and answers reachability questions
// for documents moving through it.
type WorkflowService interface {
	CreateStatus(ctx context.Context, req CreateStatusRequest) (*model.DocumentStatus, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*model.DocumentStatus, error)
	DeleteStatus(ctx context.Context, id uuid.UUID) error
	ListStatuses(ctx context.Context, documentType string) ([]model.DocumentStatus, error)
	FindStatus(ctx context.Context, documentType string, name model.StatusName) (*model.DocumentStatus, error)
	// AllInitialStatuses returns the statuses a new document may start in,
	// in registry order.
	AllInitialStatuses(ctx context.Context, documentType string) ([]model.DocumentStatus, error)
	// IsFinal reports whether the named status is flagged final. An
	// unconfigured name is not final.
	IsFinal(ctx context.Context, documentType string, name model.StatusName) (bool, error)

	CreateTransition(ctx context.Context, req CreateTransitionRequest) (*model.WorkflowTransition, error)
	UpdateTransition(ctx context.Context, id uuid.UUID, req UpdateTransitionRequest) (*model.WorkflowTransition, error)
	DeleteTransition(ctx context.Context, id uuid.UUID) error
	ListTransitions(ctx context.Context, documentType string) ([]model.WorkflowTransition, error)

	// AvailableTransitions returns the outgoing edges from the given status
	// that at least one of the caller's roles unlocks.
	AvailableTransitions(ctx context.Context, documentType string, from model.StatusName, roleIDs []uuid.UUID) ([]model.WorkflowTransition, error)
	// FindEdge locates the configured edge between two statuses, or nil.
	FindEdge(ctx context.Context, documentType string, from, to model.StatusName) (*model.WorkflowTransition, error)
}

type workflowService struct {
	statuses    repository.StatusRepository
	transitions repository.TransitionRepository
	roles       repository.RoleRepository
	orders      repository.PurchaseOrderRepository
}

func NewWorkflowService(
	statuses repository.StatusRepository,
	transitions repository.TransitionRepository,
	roles repository.RoleRepository,
	orders repository.PurchaseOrderRepository,
) WorkflowService {
	return &workflowService{
		statuses:    statuses,
		transitions: transitions,
		roles:       roles,
		orders:      orders,
	}
}

// knownDocumentTypes is the closed set of workflow-governed document types.
var knownDocumentTypes = map[string]bool{
	model.DocTypePurchaseOrder: true,
}

// --- Statuses ---

func (s *workflowService) CreateStatus(ctx context.Context, req CreateStatusRequest) (*model.DocumentStatus, error) {
	name := model.StatusName(req.Name)

	var violations []string
	if !knownDocumentTypes[req.DocumentType] {
		violations = append(violations, fmt.Sprintf("unknown document type %q", req.DocumentType))
	}
	if name.IsEmpty() {
		violations = append(violations, "status name cannot be empty")
	}
	if req.IsInitial && req.IsFinal {
		violations = append(violations, "a status cannot be both initial and final")
	}
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	if existing, err := s.statuses.FindByName(ctx, req.DocumentType, name); err == nil && existing != nil {
		return nil, apperr.NewValidation(fmt.Sprintf("status %q already exists for %s", existing.Name, req.DocumentType))
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check status name: %w", err)
	}

	status := model.DocumentStatus{
		DocumentType: req.DocumentType,
		Name:         name,
		IsInitial:    req.IsInitial,
		IsFinal:      req.IsFinal,
	}
	if err := s.statuses.Create(ctx, &status); err != nil {
		return nil, fmt.Errorf("failed to create status: %w", err)
	}
	return &status, nil
}

func (s *workflowService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*model.DocumentStatus, error) {
	status, err := s.statuses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("status not found")
		}
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}

	name := model.StatusName(req.Name)

	var violations []string
	if name.IsEmpty() {
		violations = append(violations, "status name cannot be empty")
	}
	if req.IsInitial && req.IsFinal {
		violations = append(violations, "a status cannot be both initial and final")
	}
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	if req.IsFinal && !status.IsFinal {
		// A final status has no outgoing transitions, so the flag cannot
		// be set while any edge still leaves this status.
		outgoing, err := s.hasOutgoingTransitions(ctx, status)
		if err != nil {
			return nil, err
		}
		if outgoing {
			return nil, apperr.NewReferential(fmt.Sprintf("status %q has outgoing transitions and cannot be flagged final", status.Name))
		}
	}

	if !status.Name.Equal(name) {
		// Renaming would orphan transitions and documents pointing at the
		// old name, so a referenced status keeps its name.
		referenced, err := s.statusReferenced(ctx, status)
		if err != nil {
			return nil, err
		}
		if referenced {
			return nil, apperr.NewReferential(fmt.Sprintf("status %q is referenced by transitions or documents and cannot be renamed", status.Name))
		}
		if existing, err := s.statuses.FindByName(ctx, status.DocumentType, name); err == nil && existing != nil && existing.ID != status.ID {
			return nil, apperr.NewValidation(fmt.Sprintf("status %q already exists for %s", existing.Name, status.DocumentType))
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check status name: %w", err)
		}
	}

	status.Name = name
	status.IsInitial = req.IsInitial
	status.IsFinal = req.IsFinal
	if err := s.statuses.Update(ctx, status); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	return status, nil
}

func (s *workflowService) DeleteStatus(ctx context.Context, id uuid.UUID) error {
	status, err := s.statuses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NewNotFound("status not found")
		}
		return fmt.Errorf("failed to fetch status: %w", err)
	}

	referenced, err := s.statusReferenced(ctx, status)
	if err != nil {
		return err
	}
	if referenced {
		return apperr.NewReferential(fmt.Sprintf("status %q is referenced by transitions or documents and cannot be deleted", status.Name))
	}

	if err := s.statuses.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}
	return nil
}

func (s *workflowService) hasOutgoingTransitions(ctx context.Context, status *model.DocumentStatus) (bool, error) {
	transitions, err := s.transitions.ListByDocumentType(ctx, status.DocumentType)
	if err != nil {
		return false, fmt.Errorf("failed to list transitions: %w", err)
	}
	for _, transition := range transitions {
		if transition.FromStatus.Equal(status.Name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *workflowService) statusReferenced(ctx context.Context, status *model.DocumentStatus) (bool, error) {
	transitions, err := s.transitions.ListByDocumentType(ctx, status.DocumentType)
	if err != nil {
		return false, fmt.Errorf("failed to list transitions: %w", err)
	}
	for _, transition := range transitions {
		if transition.References(status.Name) {
			return true, nil
		}
	}

	count, err := s.orders.CountByStatus(ctx, status.Name)
	if err != nil {
		return false, fmt.Errorf("failed to count documents in status: %w", err)
	}
	return count > 0, nil
}

func (s *workflowService) ListStatuses(ctx context.Context, documentType string) ([]model.DocumentStatus, error) {
	statuses, err := s.statuses.ListByDocumentType(ctx, documentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}

func (s *workflowService) FindStatus(ctx context.Context, documentType string, name model.StatusName) (*model.DocumentStatus, error) {
	status, err := s.statuses.FindByName(ctx, documentType, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound(fmt.Sprintf("status %q is not configured for %s", name, documentType))
		}
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}
	return status, nil
}

func (s *workflowService) AllInitialStatuses(ctx context.Context, documentType string) ([]model.DocumentStatus, error) {
	statuses, err := s.statuses.ListByDocumentType(ctx, documentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	var initial []model.DocumentStatus
	for _, status := range statuses {
		if status.IsInitial {
			initial = append(initial, status)
		}
	}
	return initial, nil
}

func (s *workflowService) IsFinal(ctx context.Context, documentType string, name model.StatusName) (bool, error) {
	status, err := s.statuses.FindByName(ctx, documentType, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to fetch status: %w", err)
	}
	return status.IsFinal, nil
}

// --- Transitions ---

func (s *workflowService) CreateTransition(ctx context.Context, req CreateTransitionRequest) (*model.WorkflowTransition, error) {
	from := model.StatusName(req.FromStatus)
	to := model.StatusName(req.ToStatus)

	violations, roles, err := s.validateTransition(ctx, req.DocumentType, from, to, req.RoleIDs)
	if err != nil {
		return nil, err
	}

	// Duplicate edge check on the folded pair.
	existing, err := s.transitions.ListByDocumentType(ctx, req.DocumentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	for _, transition := range existing {
		if transition.FromStatus.Equal(from) && transition.ToStatus.Equal(to) {
			violations = append(violations, fmt.Sprintf("transition %s -> %s already exists", from, to))
			break
		}
	}

	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	transition := model.WorkflowTransition{
		DocumentType: req.DocumentType,
		FromStatus:   from,
		ToStatus:     to,
		AllowedRoles: roles,
	}
	if err := s.transitions.Create(ctx, &transition); err != nil {
		return nil, fmt.Errorf("failed to create transition: %w", err)
	}
	return &transition, nil
}

func (s *workflowService) UpdateTransition(ctx context.Context, id uuid.UUID, req UpdateTransitionRequest) (*model.WorkflowTransition, error) {
	transition, err := s.transitions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("transition not found")
		}
		return nil, fmt.Errorf("failed to fetch transition: %w", err)
	}

	from := model.StatusName(req.FromStatus)
	to := model.StatusName(req.ToStatus)

	violations, roles, err := s.validateTransition(ctx, transition.DocumentType, from, to, req.RoleIDs)
	if err != nil {
		return nil, err
	}

	existing, err := s.transitions.ListByDocumentType(ctx, transition.DocumentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	for _, other := range existing {
		if other.ID != transition.ID && other.FromStatus.Equal(from) && other.ToStatus.Equal(to) {
			violations = append(violations, fmt.Sprintf("transition %s -> %s already exists", from, to))
			break
		}
	}

	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	transition.FromStatus = from
	transition.ToStatus = to
	transition.AllowedRoles = roles
	if err := s.transitions.Update(ctx, transition); err != nil {
		return nil, fmt.Errorf("failed to update transition: %w", err)
	}
	return transition, nil
}

// validateTransition collects edge violations and resolves the role ids.
func (s *workflowService) validateTransition(ctx context.Context, documentType string, from, to model.StatusName, roleIDs []string) ([]string, []model.FunctionalRole, error) {
	var violations []string

	if !knownDocumentTypes[documentType] {
		violations = append(violations, fmt.Sprintf("unknown document type %q", documentType))
	}
	if from.IsEmpty() {
		violations = append(violations, "from status cannot be empty")
	}
	if to.IsEmpty() {
		violations = append(violations, "to status cannot be empty")
	}
	if !from.IsEmpty() && from.Equal(to) {
		violations = append(violations, "a transition cannot loop back to its own status")
	}

	if !from.IsEmpty() {
		fromStatus, err := s.statuses.FindByName(ctx, documentType, from)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			violations = append(violations, fmt.Sprintf("from status %q is not configured", from))
		case err != nil:
			return nil, nil, fmt.Errorf("failed to fetch from status: %w", err)
		case fromStatus.IsFinal:
			violations = append(violations, fmt.Sprintf("status %q is final and cannot have outgoing transitions", fromStatus.Name))
		}
	}
	if !to.IsEmpty() && !to.Equal(from) {
		if _, err := s.statuses.FindByName(ctx, documentType, to); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				violations = append(violations, fmt.Sprintf("to status %q is not configured", to))
			} else {
				return nil, nil, fmt.Errorf("failed to fetch to status: %w", err)
			}
		}
	}

	if len(roleIDs) == 0 {
		violations = append(violations, "at least one role must be allowed to execute the transition")
	}
	var roles []model.FunctionalRole
	for _, raw := range roleIDs {
		roleID, err := uuid.Parse(raw)
		if err != nil {
			violations = append(violations, fmt.Sprintf("invalid role id %q", raw))
			continue
		}
		role, err := s.roles.FindByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				violations = append(violations, fmt.Sprintf("role %s does not exist", roleID))
				continue
			}
			return nil, nil, fmt.Errorf("failed to fetch role: %w", err)
		}
		roles = append(roles, *role)
	}

	return violations, roles, nil
}

func (s *workflowService) DeleteTransition(ctx context.Context, id uuid.UUID) error {
	if _, err := s.transitions.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NewNotFound("transition not found")
		}
		return fmt.Errorf("failed to fetch transition: %w", err)
	}
	if err := s.transitions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete transition: %w", err)
	}
	return nil
}

func (s *workflowService) ListTransitions(ctx context.Context, documentType string) ([]model.WorkflowTransition, error) {
	transitions, err := s.transitions.ListByDocumentType(ctx, documentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	return transitions, nil
}

func (s *workflowService) AvailableTransitions(ctx context.Context, documentType string, from model.StatusName, roleIDs []uuid.UUID) ([]model.WorkflowTransition, error) {
	transitions, err := s.transitions.ListByDocumentType(ctx, documentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}

	available := make([]model.WorkflowTransition, 0)
	for _, transition := range transitions {
		if transition.FromStatus.Equal(from) && transition.AllowsAny(roleIDs) {
			available = append(available, transition)
		}
	}
	return available, nil
}

func (s *workflowService) FindEdge(ctx context.Context, documentType string, from, to model.StatusName) (*model.WorkflowTransition, error) {
	transitions, err := s.transitions.ListByDocumentType(ctx, documentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	for _, transition := range transitions {
		if transition.FromStatus.Equal(from) && transition.ToStatus.Equal(to) {
			found := transition
			return &found, nil
		}
	}
	return nil, nil
}
