package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/melalfey/schoolos-admin-portal/internal/models"
)

var ErrSchoolNotFound = errors.New("school not found")

type SchoolRepository struct {
	mu      sync.RWMutex
	schools map[string]models.School
	now     func() time.Time
}

func NewSchoolRepository() *SchoolRepository {
	return &SchoolRepository{
		schools: make(map[string]models.School),
		now:     time.Now,
	}
}

func (r *SchoolRepository) Create(_ context.Context, in models.SchoolInput) models.School {
	r.mu.Lock()
	defer r.mu.Unlock()

	school := models.School{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Domain:    in.Domain,
		Address:   in.Address,
		IsActive:  in.IsActive == nil || *in.IsActive,
		CreatedAt: r.now().UTC(),
	}
	r.schools[school.ID] = school
	return school
}

func (r *SchoolRepository) GetByID(_ context.Context, id string) (models.School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	school, ok := r.schools[id]
	if !ok {
		return models.School{}, ErrSchoolNotFound
	}
	return school, nil
}

func (r *SchoolRepository) List(_ context.Context) []models.School {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.School, 0, len(r.schools))
	for _, s := range r.schools {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *SchoolRepository) Update(_ context.Context, id string, in models.SchoolInput) (models.School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	school, ok := r.schools[id]
	if !ok {
		return models.School{}, ErrSchoolNotFound
	}
	if in.Name != "" {
		school.Name = in.Name
	}
	if in.Domain != "" {
		school.Domain = in.Domain
	}
	if in.Address != "" {
		school.Address = in.Address
	}
	if in.IsActive != nil {
		school.IsActive = *in.IsActive
	}
	r.schools[id] = school
	return school, nil
}

func (r *SchoolRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schools[id]; !ok {
		return ErrSchoolNotFound
	}
	delete(r.schools, id)
	return nil
}
