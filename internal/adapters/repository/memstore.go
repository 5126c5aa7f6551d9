package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/timelines/internal/domain/institution"
	"github.com/okian/timelines/internal/domain/model"
	"github.com/okian/timelines/internal/domain/term"
)

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	mu            sync.RWMutex
	sessions      []model.Session
	admissions    []model.AdmissionRow
	evaluations   []model.EvaluationRow
	registrations []model.RegistrationRow
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore { return &MemStore{} }

// AddSessions appends session calendars.
func (m *MemStore) AddSessions(s ...model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, s...)
}

// AddAdmissions appends admission rows.
func (m *MemStore) AddAdmissions(rows ...model.AdmissionRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admissions = append(m.admissions, rows...)
}

// AddEvaluations appends evaluation rows.
func (m *MemStore) AddEvaluations(rows ...model.EvaluationRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations = append(m.evaluations, rows...)
}

// AddRegistrations appends registration rows.
func (m *MemStore) AddRegistrations(rows ...model.RegistrationRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations = append(m.registrations, rows...)
}

// Session implements cohort.Source.
func (m *MemStore) Session(ctx context.Context, inst string, t term.Code) (model.Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Session{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst = institution.Normalize(inst)
	for _, s := range m.sessions {
		if institution.Normalize(s.Institution) == inst && s.Term == t && s.Number == model.RegularSession {
			return s, true, nil
		}
	}
	return model.Session{}, false, nil
}

// Admissions implements cohort.Source.
func (m *MemStore) Admissions(ctx context.Context, inst string, window []term.Code) ([]model.AdmissionRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst = institution.Normalize(inst)
	var out []model.AdmissionRow
	for _, r := range m.admissions {
		if institution.Normalize(r.Institution) == inst && contains(window, r.AdmitTerm) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Evaluations implements cohort.Source.
func (m *MemStore) Evaluations(ctx context.Context, inst string, window []term.Code) ([]model.EvaluationRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst = institution.Normalize(inst)
	var out []model.EvaluationRow
	for _, r := range m.evaluations {
		if institution.Normalize(r.DstInstitution) == inst && contains(window, r.ArticulationTerm) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Registrations implements cohort.Source.
func (m *MemStore) Registrations(ctx context.Context, inst string, window []term.Code) ([]model.RegistrationRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst = institution.Normalize(inst)
	var out []model.RegistrationRow
	for _, r := range m.registrations {
		if institution.Normalize(r.Institution) == inst && contains(window, r.Term) {
			out = append(out, r)
		}
	}
	return out, nil
}

// AdmitTerms implements Store.
func (m *MemStore) AdmitTerms(ctx context.Context) ([]term.Code, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[term.Code]bool)
	var out []term.Code
	for _, s := range m.sessions {
		if s.Number == model.RegularSession && s.Term.Admittable() && !seen[s.Term] {
			seen[s.Term] = true
			out = append(out, s.Term)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func contains(window []term.Code, t term.Code) bool {
	for _, w := range window {
		if w == t {
			return true
		}
	}
	return false
}
