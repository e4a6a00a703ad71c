// Package pdf renders report and prescription documents.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// ReportDocument carries everything needed to render a full report PDF,
// including the identity block of the patient the report belongs to.
type ReportDocument struct {
	FileNumber       string
	DiagnosisTitle   string
	DiagnosisDetails string
	Technician       string
	Date             time.Time

	PatientFirstName string
	PatientLastName  string
	PatientTRID      string
	PatientBirthDate string
	PatientGender    string
}

// PrescriptionDocument carries the fields rendered onto a prescription PDF.
type PrescriptionDocument struct {
	FileNumber       string
	PatientTRID      string
	DiagnosisTitle   string
	DiagnosisDetails string
	Technician       string
	Date             time.Time
}

// Renderer produces PDF documents as raw bytes.
type Renderer interface {
	RenderReport(doc ReportDocument) ([]byte, error)
	RenderPrescription(doc PrescriptionDocument) ([]byte, error)
}

// FPDFRenderer renders documents with the fpdf library.
type FPDFRenderer struct{}

// NewRenderer returns a Renderer backed by fpdf.
func NewRenderer() *FPDFRenderer {
	return &FPDFRenderer{}
}

func newPage(title string) *fpdf.Fpdf {
	p := fpdf.New("P", "mm", "A4", "")
	p.AddPage()
	p.SetFont("Helvetica", "B", 16)
	p.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	p.Ln(4)
	return p
}

func writeField(p *fpdf.Fpdf, label, value string) {
	p.SetFont("Helvetica", "B", 11)
	p.CellFormat(45, 8, label, "", 0, "L", false, 0, "")
	p.SetFont("Helvetica", "", 11)
	p.MultiCell(0, 8, value, "", "L", false)
}

func writeSection(p *fpdf.Fpdf, heading string) {
	p.Ln(2)
	p.SetFont("Helvetica", "B", 13)
	p.CellFormat(0, 9, heading, "B", 1, "L", false, 0, "")
	p.Ln(1)
}

func (r *FPDFRenderer) RenderReport(doc ReportDocument) ([]byte, error) {
	p := newPage("Laboratory Report")

	writeSection(p, "Patient")
	writeField(p, "Name", doc.PatientFirstName+" "+doc.PatientLastName)
	writeField(p, "TR identity no", doc.PatientTRID)
	if doc.PatientBirthDate != "" {
		writeField(p, "Birth date", doc.PatientBirthDate)
	}
	if doc.PatientGender != "" {
		writeField(p, "Gender", doc.PatientGender)
	}

	writeSection(p, "Report")
	writeField(p, "File number", doc.FileNumber)
	writeField(p, "Date", doc.Date.Format("2006-01-02"))
	writeField(p, "Technician", doc.Technician)
	writeField(p, "Diagnosis", doc.DiagnosisTitle)
	writeField(p, "Details", doc.DiagnosisDetails)

	return output(p)
}

func (r *FPDFRenderer) RenderPrescription(doc PrescriptionDocument) ([]byte, error) {
	p := newPage("Prescription")

	writeField(p, "File number", doc.FileNumber)
	writeField(p, "TR identity no", doc.PatientTRID)
	writeField(p, "Date", doc.Date.Format("2006-01-02"))
	writeField(p, "Issued by", doc.Technician)

	writeSection(p, "Medication")
	writeField(p, "Diagnosis", doc.DiagnosisTitle)
	writeField(p, "Instructions", doc.DiagnosisDetails)

	return output(p)
}

func output(p *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
