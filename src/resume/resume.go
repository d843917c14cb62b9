// Package resume renders a user's profile as a one page PDF resume.
package resume

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/models"
)

const (
	marginLeft   = 18.0
	contentWidth = 174.0
	pictureSize  = 28.0
	footerText   = "Generated via Professional Resume Builder"
)

type rgb struct{ r, g, b int }

var (
	colorHeading = rgb{0x2c, 0x3e, 0x50}
	colorBody    = rgb{0x34, 0x49, 0x5e}
	colorAccent  = rgb{0x27, 0xae, 0x60}
	colorTitle   = rgb{0x29, 0x80, 0xb9}
	colorMuted   = rgb{0x7f, 0x8c, 0x8d}
	colorRule    = rgb{0xbd, 0xc3, 0xc7}
)

// Renderer writes resumes into the uploads directory so they can be fetched
// through the static file route
type Renderer struct {
	uploads *lib.Uploads
}

func NewRenderer(uploads *lib.Uploads) *Renderer {
	return &Renderer{uploads: uploads}
}

// Render writes the resume of owner to a new file and returns its name
func (r *Renderer) Render(owner models.PublicUser, profile *models.Profile) (string, error) {
	filename := strings.ReplaceAll(uuid.NewString(), "-", "") + ".pdf"
	path := r.uploads.Path(filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create resume file: %w", err)
	}

	if err := r.Write(f, owner, profile); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close resume file: %w", err)
	}
	return filename, nil
}

// Write renders the resume to w
func (r *Renderer) Write(w io.Writer, owner models.PublicUser, profile *models.Profile) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, 18, marginLeft)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		setColor(pdf, colorRule)
		pdf.CellFormat(0, 6, footerText, "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	r.header(pdf, tr, owner)

	if profile.Bio != "" {
		section(pdf, "Professional Summary")
		pdf.SetFont("Helvetica", "", 11)
		setColor(pdf, colorHeading)
		pdf.MultiCell(contentWidth, 5.5, tr(profile.Bio), "", "J", false)
		pdf.Ln(5)
	}

	if profile.CurrentPosition != "" {
		section(pdf, "Current Position")
		pdf.SetFont("Helvetica", "B", 12)
		setColor(pdf, colorAccent)
		pdf.CellFormat(contentWidth, 6, tr(profile.CurrentPosition), "", 1, "L", false, 0, "")
		pdf.Ln(5)
	}

	if len(profile.PastWork) > 0 {
		section(pdf, "Work Experience")
		for i, work := range profile.PastWork {
			entry(pdf, tr(work.Position), tr("at "+work.Company), tr(work.Years))
			if i < len(profile.PastWork)-1 {
				rule(pdf, marginLeft, marginLeft+50)
			}
		}
		pdf.Ln(3)
	}

	if len(profile.Education) > 0 {
		section(pdf, "Education")
		for i, edu := range profile.Education {
			detail := edu.Degree
			if edu.FieldOfStudy != "" {
				detail = strings.TrimSpace(detail + ", " + edu.FieldOfStudy)
			}
			entry(pdf, tr(edu.School), tr(detail), "")
			if i < len(profile.Education)-1 {
				rule(pdf, marginLeft, marginLeft+50)
			}
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render resume: %w", err)
	}
	return nil
}

func (r *Renderer) header(pdf *fpdf.Fpdf, tr func(string) string, owner models.PublicUser) {
	top := pdf.GetY()
	textX := marginLeft

	if r.uploads != nil && r.uploads.Exists(owner.ProfilePicture) && pictureSupported(owner.ProfilePicture) {
		opts := fpdf.ImageOptions{ReadDpi: true}
		pdf.ImageOptions(r.uploads.Path(owner.ProfilePicture), marginLeft, top, pictureSize, pictureSize, false, opts, 0, "")
		if pdf.Ok() {
			textX = marginLeft + pictureSize + 8
		} else {
			// undecodable picture, render without it
			pdf.ClearError()
		}
	}

	pdf.SetXY(textX, top+3)
	pdf.SetFont("Helvetica", "B", 24)
	setColor(pdf, colorHeading)
	pdf.CellFormat(0, 10, tr(owner.Name), "", 2, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	setColor(pdf, colorBody)
	pdf.CellFormat(0, 6, tr("Email: "+owner.Email), "", 2, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Username: @"+owner.Username), "", 2, "L", false, 0, "")

	pdf.SetY(top + pictureSize + 6)
	rule(pdf, marginLeft, marginLeft+contentWidth)
	pdf.Ln(4)
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 16)
	setColor(pdf, colorHeading)
	pdf.CellFormat(contentWidth, 9, title, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func entry(pdf *fpdf.Fpdf, title, subtitle, note string) {
	pdf.SetFont("Helvetica", "B", 13)
	setColor(pdf, colorTitle)
	pdf.CellFormat(contentWidth, 6, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	setColor(pdf, colorMuted)
	pdf.CellFormat(contentWidth, 6, subtitle, "", 1, "L", false, 0, "")

	if note != "" {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.CellFormat(contentWidth, 5, note, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}

func rule(pdf *fpdf.Fpdf, from, to float64) {
	y := pdf.GetY()
	pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	pdf.SetLineWidth(0.3)
	pdf.Line(from, y, to, y)
	pdf.Ln(3)
}

func setColor(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

func pictureSupported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}
