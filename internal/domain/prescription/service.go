// Package prescription renders report PDFs and handles the two-step
// prescription flow: Generate caches the rendered document against the
// technician, Send later mails the cached document to the patient.
package prescription

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/labms/report-service/internal/domain/patient"
	"github.com/labms/report-service/internal/domain/report"
	"github.com/labms/report-service/internal/platform/cache"
	"github.com/labms/report-service/internal/platform/mail"
	"github.com/labms/report-service/internal/platform/pdf"
)

var (
	// ErrNoCachedPrescription means the caller has not generated a
	// prescription, or the cached one expired.
	ErrNoCachedPrescription = errors.New("no prescription to send")

	ErrCorruptArtifact = errors.New("cached prescription is corrupt")
)

type Service struct {
	reports  *report.Service
	patients patient.Client
	cache    cache.Store
	renderer pdf.Renderer
	mailer   mail.Sender
	ttl      time.Duration
}

func NewService(reports *report.Service, patients patient.Client, store cache.Store, renderer pdf.Renderer, mailer mail.Sender, ttl time.Duration) *Service {
	return &Service{
		reports:  reports,
		patients: patients,
		cache:    store,
		renderer: renderer,
		mailer:   mailer,
		ttl:      ttl,
	}
}

// Generate renders the prescription for an active report and caches it
// against the caller, replacing any previously cached one. Any technician
// may generate from any active report; ownership gates mutation, not
// reading.
func (s *Service) Generate(ctx context.Context, actor string, reportID uuid.UUID) ([]byte, error) {
	rep, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	doc, err := s.renderer.RenderPrescription(pdf.PrescriptionDocument{
		FileNumber:       rep.FileNumber,
		PatientTRID:      rep.PatientTRID,
		DiagnosisTitle:   rep.DiagnosisTitle,
		DiagnosisDetails: rep.DiagnosisDetails,
		Technician:       rep.Technician,
		Date:             rep.Date,
	})
	if err != nil {
		return nil, err
	}

	artifactKey := cache.PrescriptionArtifactKey(actor)
	subjectKey := cache.PrescriptionSubjectKey(actor)
	for _, key := range []string{artifactKey, subjectKey} {
		if err := s.cache.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("reset prescription entry: %w", err)
		}
	}
	if err := s.cache.Put(ctx, artifactKey, base64.StdEncoding.EncodeToString(doc), s.ttl); err != nil {
		return nil, fmt.Errorf("store prescription artifact: %w", err)
	}
	if err := s.cache.Put(ctx, subjectKey, rep.PatientTRID, s.ttl); err != nil {
		return nil, fmt.Errorf("store prescription subject: %w", err)
	}

	return doc, nil
}

// Send mails the caller's cached prescription to the patient it was
// generated for, then drops the cache entries. A failed delivery keeps
// the entries so the caller can retry.
func (s *Service) Send(ctx context.Context, token, actor string) error {
	artifactKey := cache.PrescriptionArtifactKey(actor)
	subjectKey := cache.PrescriptionSubjectKey(actor)

	artifact, err := s.cache.Get(ctx, artifactKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		return ErrNoCachedPrescription
	}
	if err != nil {
		return fmt.Errorf("read prescription artifact: %w", err)
	}
	trid, err := s.cache.Get(ctx, subjectKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		return ErrNoCachedPrescription
	}
	if err != nil {
		return fmt.Errorf("read prescription subject: %w", err)
	}

	doc, err := base64.StdEncoding.DecodeString(artifact)
	if err != nil || len(doc) == 0 {
		return ErrCorruptArtifact
	}

	email, err := s.patients.Email(ctx, token, trid)
	if err != nil {
		return err
	}

	err = s.mailer.Send(mail.Message{
		To:             email,
		Subject:        "Your prescription",
		Body:           "Your prescription is attached.",
		Attachment:     doc,
		AttachmentName: "prescription.pdf",
	})
	if err != nil {
		return fmt.Errorf("deliver prescription: %w", err)
	}

	for _, key := range []string{artifactKey, subjectKey} {
		if err := s.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("drop prescription entry: %w", err)
		}
	}
	return nil
}

// ReportPDF renders the full report document, including the patient
// identity block resolved from the directory.
func (s *Service) ReportPDF(ctx context.Context, token string, reportID uuid.UUID) ([]byte, error) {
	rep, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	p, err := s.patients.Get(ctx, token, rep.PatientTRID)
	if err != nil {
		return nil, err
	}

	return s.renderer.RenderReport(pdf.ReportDocument{
		FileNumber:       rep.FileNumber,
		DiagnosisTitle:   rep.DiagnosisTitle,
		DiagnosisDetails: rep.DiagnosisDetails,
		Technician:       rep.Technician,
		Date:             rep.Date,
		PatientFirstName: p.FirstName,
		PatientLastName:  p.LastName,
		PatientTRID:      p.TRID,
		PatientBirthDate: p.BirthDate,
		PatientGender:    p.Gender,
	})
}
