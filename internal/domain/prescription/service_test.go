package prescription

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/labms/report-service/internal/domain/patient"
	"github.com/labms/report-service/internal/domain/report"
	"github.com/labms/report-service/internal/platform/cache"
	"github.com/labms/report-service/internal/platform/mail"
	"github.com/labms/report-service/internal/platform/pdf"
	"github.com/labms/report-service/internal/platform/storage"
	"github.com/labms/report-service/pkg/pagination"
)

const testTRID = "12345678910"

type mockRepo struct {
	reports map[uuid.UUID]*report.Report
}

func (m *mockRepo) Create(_ context.Context, r *report.Report) error {
	r.ID = uuid.New()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*report.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, report.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, r *report.Report) error {
	if _, ok := m.reports[r.ID]; !ok {
		return report.ErrNotFound
	}
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockRepo) Search(_ context.Context, _ report.Filter, _ pagination.Params) ([]*report.Report, int, error) {
	return nil, 0, nil
}

type fakePatients struct {
	emails map[string]string
}

func (f *fakePatients) Check(_ context.Context, _, trid string) (bool, error) {
	_, ok := f.emails[trid]
	return ok, nil
}

func (f *fakePatients) Get(_ context.Context, _, trid string) (*patient.Patient, error) {
	if _, ok := f.emails[trid]; !ok {
		return nil, patient.ErrPatientNotFound
	}
	return &patient.Patient{
		TRID: trid, FirstName: "Ada", LastName: "Yilmaz",
		BirthDate: "1990-03-01", Gender: "female", Email: f.emails[trid],
	}, nil
}

func (f *fakePatients) Email(_ context.Context, _, trid string) (string, error) {
	email, ok := f.emails[trid]
	if !ok {
		return "", patient.ErrPatientNotFound
	}
	if email == "" {
		return "", patient.ErrEmailEmpty
	}
	return email, nil
}

type fakeMailer struct {
	sent []mail.Message
	fail error
}

func (m *fakeMailer) Send(msg mail.Message) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	svc    *Service
	cache  *cache.MemoryStore
	mailer *fakeMailer
}

func newFixture(t *testing.T, email string) *fixture {
	t.Helper()
	store := cache.NewMemoryStore()
	patients := &fakePatients{emails: map[string]string{testTRID: email}}
	reports := report.NewService(
		&mockRepo{reports: make(map[uuid.UUID]*report.Report)},
		patients, store, storage.NewMemoryStore(), time.Hour)
	mailer := &fakeMailer{}
	svc := NewService(reports, patients, store, pdf.NewRenderer(), mailer, time.Hour)
	return &fixture{svc: svc, cache: store, mailer: mailer}
}

// createReport runs the validation-gated creation flow for the given
// technician and returns the new report.
func (f *fixture) createReport(t *testing.T, actor string) *report.Report {
	t.Helper()
	ctx := context.Background()
	if _, err := f.svc.reports.ValidateTRID(ctx, "tok", actor, testTRID); err != nil {
		t.Fatalf("ValidateTRID: %v", err)
	}
	rep, err := f.svc.reports.Create(ctx, actor, report.Draft{
		FileNumber: "FN-1", DiagnosisTitle: "anemia", DiagnosisDetails: "ferrous sulfate daily",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return rep
}

func TestGenerate_CachesArtifactAndSubject(t *testing.T) {
	f := newFixture(t, "ada@example.com")
	ctx := context.Background()
	rep := f.createReport(t, "tech1")

	doc, err := f.svc.Generate(ctx, "tech1", rep.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Error("expected a PDF document")
	}

	artifact, err := f.cache.Get(ctx, cache.PrescriptionArtifactKey("tech1"))
	if err != nil {
		t.Fatalf("expected cached artifact: %v", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(artifact)
	if err != nil || !bytes.Equal(decoded, doc) {
		t.Error("expected artifact to round-trip through base64")
	}

	subject, err := f.cache.Get(ctx, cache.PrescriptionSubjectKey("tech1"))
	if err != nil || subject != testTRID {
		t.Errorf("expected cached subject %s, got %q err=%v", testTRID, subject, err)
	}
}

func TestGenerate_AnyTechnicianMayGenerate(t *testing.T) {
	f := newFixture(t, "ada@example.com")
	rep := f.createReport(t, "tech1")

	// reading a report for a prescription is not gated by ownership
	if _, err := f.svc.Generate(context.Background(), "tech2", rep.ID); err != nil {
		t.Errorf("expected non-owner generate to succeed, got %v", err)
	}
}

func TestGenerate_MissingReport(t *testing.T) {
	f := newFixture(t, "ada@example.com")

	_, err := f.svc.Generate(context.Background(), "tech1", uuid.New())
	if !errors.Is(err, report.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSend_WithoutGenerate(t *testing.T) {
	f := newFixture(t, "ada@example.com")

	if err := f.svc.Send(context.Background(), "tok", "tech1"); !errors.Is(err, ErrNoCachedPrescription) {
		t.Errorf("expected ErrNoCachedPrescription, got %v", err)
	}
}

func TestSend_DeliversAndDropsEntries(t *testing.T) {
	f := newFixture(t, "ada@example.com")
	ctx := context.Background()
	rep := f.createReport(t, "tech1")

	doc, err := f.svc.Generate(ctx, "tech1", rep.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Send(ctx, "tok", "tech1"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(f.mailer.sent))
	}
	msg := f.mailer.sent[0]
	if msg.To != "ada@example.com" {
		t.Errorf("expected delivery to the patient, got %s", msg.To)
	}
	if !bytes.Equal(msg.Attachment, doc) {
		t.Error("expected the generated document as attachment")
	}
	if msg.AttachmentName != "prescription.pdf" {
		t.Errorf("unexpected attachment name %s", msg.AttachmentName)
	}

	// the cached prescription is single use
	if _, err := f.cache.Get(ctx, cache.PrescriptionArtifactKey("tech1")); !errors.Is(err, cache.ErrCacheMiss) {
		t.Error("expected artifact entry to be dropped after send")
	}
	if _, err := f.cache.Get(ctx, cache.PrescriptionSubjectKey("tech1")); !errors.Is(err, cache.ErrCacheMiss) {
		t.Error("expected subject entry to be dropped after send")
	}
	if err := f.svc.Send(ctx, "tok", "tech1"); !errors.Is(err, ErrNoCachedPrescription) {
		t.Errorf("expected second send to fail, got %v", err)
	}
}

func TestSend_MailFailureKeepsEntries(t *testing.T) {
	f := newFixture(t, "ada@example.com")
	ctx := context.Background()
	rep := f.createReport(t, "tech1")

	if _, err := f.svc.Generate(ctx, "tech1", rep.ID); err != nil {
		t.Fatal(err)
	}
	f.mailer.fail = errors.New("smtp down")

	if err := f.svc.Send(ctx, "tok", "tech1"); err == nil {
		t.Fatal("expected delivery failure")
	}

	// a failed delivery must stay retryable
	if _, err := f.cache.Get(ctx, cache.PrescriptionArtifactKey("tech1")); err != nil {
		t.Error("expected artifact entry to survive a failed delivery")
	}

	f.mailer.fail = nil
	if err := f.svc.Send(ctx, "tok", "tech1"); err != nil {
		t.Errorf("expected retry to succeed, got %v", err)
	}
}

func TestSend_PatientWithoutEmail(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	rep := f.createReport(t, "tech1")

	if _, err := f.svc.Generate(ctx, "tech1", rep.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Send(ctx, "tok", "tech1"); !errors.Is(err, patient.ErrEmailEmpty) {
		t.Errorf("expected ErrEmailEmpty, got %v", err)
	}
	if _, err := f.cache.Get(ctx, cache.PrescriptionArtifactKey("tech1")); err != nil {
		t.Error("expected entries to survive an address failure")
	}
}

func TestSend_CorruptArtifact(t *testing.T) {
	f := newFixture(t, "ada@example.com")
	ctx := context.Background()

	f.cache.Put(ctx, cache.PrescriptionArtifactKey("tech1"), "not base64 !!", time.Hour)
	f.cache.Put(ctx, cache.PrescriptionSubjectKey("tech1"), testTRID, time.Hour)

	if err := f.svc.Send(ctx, "tok", "tech1"); !errors.Is(err, ErrCorruptArtifact) {
		t.Errorf("expected ErrCorruptArtifact, got %v", err)
	}
}

func TestSend_EmptyArtifact(t *testing.T) {
	f := newFixture(t, "ada@example.com")
	ctx := context.Background()

	f.cache.Put(ctx, cache.PrescriptionArtifactKey("tech1"), "", time.Hour)
	f.cache.Put(ctx, cache.PrescriptionSubjectKey("tech1"), testTRID, time.Hour)

	if err := f.svc.Send(ctx, "tok", "tech1"); !errors.Is(err, ErrCorruptArtifact) {
		t.Errorf("expected ErrCorruptArtifact, got %v", err)
	}
}

func TestReportPDF(t *testing.T) {
	f := newFixture(t, "ada@example.com")
	rep := f.createReport(t, "tech1")

	doc, err := f.svc.ReportPDF(context.Background(), "tok", rep.ID)
	if err != nil {
		t.Fatalf("ReportPDF: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Error("expected a PDF document")
	}
}

func TestReportPDF_DeletedReport(t *testing.T) {
	f := newFixture(t, "ada@example.com")
	ctx := context.Background()
	rep := f.createReport(t, "tech1")

	if err := f.svc.reports.SoftDelete(ctx, "tech1", rep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.ReportPDF(ctx, "tok", rep.ID); !errors.Is(err, report.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
