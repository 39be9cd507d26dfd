package dto

import (
	"strings"

	"github.com/serc-portal/recruitment-api/internal/models"
)

// SubmissionForm binds the text fields of the multipart application form.
type SubmissionForm struct {
	PostCode string `form:"postcode"`

	Name        string `form:"name"`
	Father      string `form:"father"`
	Mother      string `form:"mother"`
	DateOfBirth string `form:"dob"`
	Gender      string `form:"gender"`
	Nationality string `form:"nationality"`
	Category    string `form:"category"`
	PwBD        string `form:"pwbd"`
	ExSM        string `form:"exsm"`
	Addr1       string `form:"addr1"`
	Addr2       string `form:"addr2"`
	City        string `form:"city"`
	State       string `form:"state"`
	PIN         string `form:"pin"`

	BachelorDiscipline string `form:"bdisc"`
	BachelorInstitute  string `form:"buni"`
	BachelorYear       string `form:"byear"`
	BachelorMarks      string `form:"bmarks"`
	MasterDiscipline   string `form:"mdisc"`
	MasterInstitute    string `form:"muni"`
	MasterYear         string `form:"myear"`
	MasterMarks        string `form:"mmarks"`

	PhDArea   string `form:"phd_area"`
	PhDStatus string `form:"phd_status"`
	PhDDate   string `form:"phd_date"`

	EmploymentOrganization []string `form:"emp_org"`
	EmploymentDesignation  []string `form:"emp_designation"`
	EmploymentFrom         []string `form:"emp_from"`
	EmploymentTo           []string `form:"emp_to"`

	FeeApplicable string `form:"fee_applicable"`
	UTR           string `form:"utr"`
	UTRDate       string `form:"utr_date"`
}

// ToInput maps the form onto the submission input. Files are attached by the caller.
func (f SubmissionForm) ToInput() models.SubmissionInput {
	in := models.SubmissionInput{
		PostCode: f.PostCode,
		Profile: models.ProfileFields{
			Name: f.Name, FatherName: f.Father, MotherName: f.Mother, DateOfBirth: f.DateOfBirth,
			Gender: f.Gender, Nationality: f.Nationality, Category: f.Category, PwBD: f.PwBD,
			ExServiceman: f.ExSM, Address1: f.Addr1, Address2: f.Addr2, City: f.City, State: f.State, PIN: f.PIN,
		},
		Degrees: []models.DegreeEntry{
			{Level: models.LevelBachelor, Discipline: f.BachelorDiscipline, Institute: f.BachelorInstitute, Year: f.BachelorYear, Marks: f.BachelorMarks},
			{Level: models.LevelMaster, Discipline: f.MasterDiscipline, Institute: f.MasterInstitute, Year: f.MasterYear, Marks: f.MasterMarks},
		},
		PhD: models.PhDEntry{Area: f.PhDArea, Status: f.PhDStatus, Date: f.PhDDate},
		Payment: models.PaymentFields{
			FeeApplicable: strings.EqualFold(strings.TrimSpace(f.FeeApplicable), "yes"),
			UTR:           f.UTR,
			UTRDate:       f.UTRDate,
		},
	}
	for i, org := range f.EmploymentOrganization {
		in.Employment = append(in.Employment, models.EmploymentEntry{
			Organization: org,
			Designation:  at(f.EmploymentDesignation, i),
			DateFrom:     at(f.EmploymentFrom, i),
			DateTo:       at(f.EmploymentTo, i),
		})
	}
	return in
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
