package pdf

import (
	"bytes"
	"testing"
	"time"
)

var testDate = time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)

func TestRenderReport(t *testing.T) {
	r := NewRenderer()

	data, err := r.RenderReport(ReportDocument{
		FileNumber:       "FN-1042",
		DiagnosisTitle:   "Iron deficiency",
		DiagnosisDetails: "Ferritin below reference range.",
		Technician:       "jane.doe",
		Date:             testDate,
		PatientFirstName: "Ada",
		PatientLastName:  "Yilmaz",
		PatientTRID:      "12345678910",
		PatientBirthDate: "1990-03-01",
		PatientGender:    "female",
	})
	if err != nil {
		t.Fatalf("RenderReport: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty document")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("expected %%PDF header, got %q", data[:8])
	}
}

func TestRenderPrescription(t *testing.T) {
	r := NewRenderer()

	data, err := r.RenderPrescription(PrescriptionDocument{
		FileNumber:       "FN-1042",
		PatientTRID:      "12345678910",
		DiagnosisTitle:   "Iron deficiency",
		DiagnosisDetails: "Ferrous sulfate 200mg daily for 12 weeks.",
		Technician:       "jane.doe",
		Date:             testDate,
	})
	if err != nil {
		t.Fatalf("RenderPrescription: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("expected %PDF header")
	}
}

func TestRenderReport_OmitsEmptyOptionalFields(t *testing.T) {
	r := NewRenderer()

	data, err := r.RenderReport(ReportDocument{
		FileNumber:     "FN-1",
		DiagnosisTitle: "t",
		Technician:     "tech",
		Date:           testDate,
		PatientTRID:    "12345678910",
	})
	if err != nil {
		t.Fatalf("RenderReport: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty document")
	}
}
