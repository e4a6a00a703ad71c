package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/labms/report-service/internal/domain/patient"
	"github.com/labms/report-service/internal/platform/cache"
	"github.com/labms/report-service/internal/platform/storage"
	"github.com/labms/report-service/pkg/pagination"
)

// Service implements the report lifecycle. Creation is gated by a prior
// TR identity validation: ValidateTRID stores the verified number under the
// technician's validation key, and Create consumes that entry as the source
// of the new report's patient identifier.
type Service struct {
	repo     Repository
	patients patient.Client
	cache    cache.Store
	files    storage.FileStore
	ttl      time.Duration

	now func() time.Time
}

func NewService(repo Repository, patients patient.Client, store cache.Store, files storage.FileStore, ttl time.Duration) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		cache:    store,
		files:    files,
		ttl:      ttl,
		now:      time.Now,
	}
}

// ValidateTRID checks the TR identity number against the patient directory.
// On success the number replaces any previous validation entry for the
// caller. A well-formed number for an unknown patient yields false with no
// cache write.
func (s *Service) ValidateTRID(ctx context.Context, token, actor, trid string) (bool, error) {
	exists, err := s.patients.Check(ctx, token, trid)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	key := cache.ValidationKey(actor)
	if err := s.cache.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("reset validation entry: %w", err)
	}
	if err := s.cache.Put(ctx, key, trid, s.ttl); err != nil {
		return false, fmt.Errorf("store validation entry: %w", err)
	}
	return true, nil
}

// Create consumes the caller's validation entry and persists a new report.
// The patient identifier always comes from the entry, never from the draft.
func (s *Service) Create(ctx context.Context, actor string, d Draft) (*Report, error) {
	key := cache.ValidationKey(actor)
	trid, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrNotValidated
	}
	if err != nil {
		return nil, fmt.Errorf("read validation entry: %w", err)
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("consume validation entry: %w", err)
	}

	rep := &Report{
		FileNumber:       d.FileNumber,
		PatientTRID:      trid,
		Technician:       actor,
		DiagnosisTitle:   d.DiagnosisTitle,
		DiagnosisDetails: d.DiagnosisDetails,
		Date:             s.now(),
	}
	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// Get returns an active report.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep.Deleted {
		return nil, ErrNotFound
	}
	return rep, nil
}

// ownedActive fetches an active report and verifies the caller owns it.
func (s *Service) ownedActive(ctx context.Context, actor string, id uuid.UUID) (*Report, error) {
	rep, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep.Technician != actor {
		return nil, ErrUnauthorized
	}
	return rep, nil
}

// Update applies the patch to an owned active report. Empty patch fields
// keep their stored values; the report date always refreshes.
func (s *Service) Update(ctx context.Context, actor string, id uuid.UUID, p Patch) (*Report, error) {
	rep, err := s.ownedActive(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if p.FileNumber != "" {
		rep.FileNumber = p.FileNumber
	}
	if p.DiagnosisTitle != "" {
		rep.DiagnosisTitle = p.DiagnosisTitle
	}
	if p.DiagnosisDetails != "" {
		rep.DiagnosisDetails = p.DiagnosisDetails
	}
	rep.Date = s.now()

	if err := s.repo.Update(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// SoftDelete marks an owned active report as deleted.
func (s *Service) SoftDelete(ctx context.Context, actor string, id uuid.UUID) error {
	rep, err := s.ownedActive(ctx, actor, id)
	if err != nil {
		return err
	}
	rep.Deleted = true
	return s.repo.Update(ctx, rep)
}

// Restore brings a soft-deleted owned report back. An active report is not
// restorable and reads as not found.
func (s *Service) Restore(ctx context.Context, actor string, id uuid.UUID) (*Report, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rep.Deleted {
		return nil, ErrNotFound
	}
	if rep.Technician != actor {
		return nil, ErrUnauthorized
	}
	rep.Deleted = false
	if err := s.repo.Update(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// Search lists reports matching the filter.
func (s *Service) Search(ctx context.Context, f Filter, pg pagination.Params) ([]*Report, int, error) {
	return s.repo.Search(ctx, f, pg)
}

// AttachPhoto stores the photo and links it to an owned active report,
// replacing any previous photo.
func (s *Service) AttachPhoto(ctx context.Context, actor string, id uuid.UUID, filename string, content []byte) (*Report, error) {
	rep, err := s.ownedActive(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if rep.PhotoPath != nil {
		if err := s.files.Remove(ctx, *rep.PhotoPath); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			return nil, err
		}
	}

	path, err := s.files.Save(ctx, filename, content)
	if err != nil {
		return nil, err
	}
	rep.PhotoPath = &path
	if err := s.repo.Update(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// Photo returns the photo bytes of an owned active report.
func (s *Service) Photo(ctx context.Context, actor string, id uuid.UUID) ([]byte, error) {
	rep, err := s.ownedActive(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if rep.PhotoPath == nil {
		return nil, ErrNoPhoto
	}
	data, err := s.files.Read(ctx, *rep.PhotoPath)
	if errors.Is(err, storage.ErrFileNotFound) {
		return nil, ErrNoPhoto
	}
	return data, err
}

// RemovePhoto detaches and deletes the photo of an owned active report.
func (s *Service) RemovePhoto(ctx context.Context, actor string, id uuid.UUID) error {
	rep, err := s.ownedActive(ctx, actor, id)
	if err != nil {
		return err
	}
	if rep.PhotoPath == nil {
		return ErrNoPhoto
	}
	if err := s.files.Remove(ctx, *rep.PhotoPath); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
		return err
	}
	rep.PhotoPath = nil
	return s.repo.Update(ctx, rep)
}
