package memory

import (
	"context"
	"sort"

	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository"

	"github.com/google/uuid"
)

type statusRepo struct{ store *Store }

func NewStatusRepository(store *Store) repository.StatusRepository {
	return &statusRepo{store: store}
}

func (r *statusRepo) Create(_ context.Context, status *model.DocumentStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ensureID(&status.ID)
	r.store.statuses[status.ID] = *status
	r.store.track(status.ID)
	return nil
}

func (r *statusRepo) Update(_ context.Context, status *model.DocumentStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.statuses[status.ID]; !ok {
		return errNotFound
	}
	r.store.statuses[status.ID] = *status
	return nil
}

func (r *statusRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.statuses, id)
	return nil
}

func (r *statusRepo) FindByID(_ context.Context, id uuid.UUID) (*model.DocumentStatus, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	status, ok := r.store.statuses[id]
	if !ok {
		return nil, errNotFound
	}
	return &status, nil
}

func (r *statusRepo) FindByName(_ context.Context, documentType string, name model.StatusName) (*model.DocumentStatus, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, status := range r.store.statuses {
		if status.DocumentType == documentType && status.Name.Equal(name) {
			s := status
			return &s, nil
		}
	}
	return nil, errNotFound
}

func (r *statusRepo) ListByDocumentType(_ context.Context, documentType string) ([]model.DocumentStatus, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var statuses []model.DocumentStatus
	for _, status := range r.store.statuses {
		if status.DocumentType == documentType {
			statuses = append(statuses, status)
		}
	}
	sort.Slice(statuses, func(i, j int) bool {
		return r.store.position(statuses[i].ID) < r.store.position(statuses[j].ID)
	})
	return statuses, nil
}

type transitionRepo struct{ store *Store }

func NewTransitionRepository(store *Store) repository.TransitionRepository {
	return &transitionRepo{store: store}
}

func (r *transitionRepo) Create(_ context.Context, transition *model.WorkflowTransition) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ensureID(&transition.ID)
	r.store.transitions[transition.ID] = *transition
	r.store.track(transition.ID)
	return nil
}

func (r *transitionRepo) Update(_ context.Context, transition *model.WorkflowTransition) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.transitions[transition.ID]; !ok {
		return errNotFound
	}
	r.store.transitions[transition.ID] = *transition
	return nil
}

func (r *transitionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.transitions, id)
	return nil
}

func (r *transitionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.WorkflowTransition, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	transition, ok := r.store.transitions[id]
	if !ok {
		return nil, errNotFound
	}
	return &transition, nil
}

func (r *transitionRepo) ListByDocumentType(_ context.Context, documentType string) ([]model.WorkflowTransition, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var transitions []model.WorkflowTransition
	for _, transition := range r.store.transitions {
		if transition.DocumentType == documentType {
			transitions = append(transitions, transition)
		}
	}
	sort.Slice(transitions, func(i, j int) bool {
		return r.store.position(transitions[i].ID) < r.store.position(transitions[j].ID)
	})
	return transitions, nil
}

func (r *transitionRepo) ReplaceRoles(_ context.Context, transitionID uuid.UUID, roleIDs []uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	transition, ok := r.store.transitions[transitionID]
	if !ok {
		return errNotFound
	}
	var roles []model.FunctionalRole
	for _, roleID := range roleIDs {
		if role, ok := r.store.roles[roleID]; ok {
			roles = append(roles, role)
		}
	}
	transition.AllowedRoles = roles
	r.store.transitions[transitionID] = transition
	return nil
}
