package booking

import (
	"strings"
	"time"
)

// LocalLayout is what a datetime-local input submits.
const LocalLayout = "2006-01-02T15:04"

// Form is a patient's booking request, validated when built.
type Form struct {
	PatientID         string
	PatientName       string
	InsuranceProvider string
	MemberNumber      string
	ScheduledAt       time.Time
}

// NewForm trims and checks the raw inputs. The moment is read in loc unless
// it carries its own offset.
func NewForm(patientID, name, insurance, member, moment string, loc *time.Location) (*Form, error) {
	f := &Form{
		PatientID:         strings.TrimSpace(patientID),
		PatientName:       strings.TrimSpace(name),
		InsuranceProvider: strings.TrimSpace(insurance),
		MemberNumber:      strings.TrimSpace(member),
	}
	problems := f.check()

	moment = strings.TrimSpace(moment)
	if moment == "" {
		problems["horario"] = "requerido"
	} else if t, err := ParseMoment(moment, loc); err != nil {
		problems["horario"] = "fecha y hora inválidas"
	} else {
		f.ScheduledAt = t
	}

	if len(problems) > 0 {
		return f, &FormError{Fields: problems}
	}
	return f, nil
}

// ParseMoment accepts a datetime-local value or an RFC3339 timestamp.
func ParseMoment(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(LocalLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Validate rechecks a form that may have been cleared or built by hand.
func (f *Form) Validate() error {
	problems := f.check()
	if f.ScheduledAt.IsZero() {
		problems["horario"] = "requerido"
	}
	if len(problems) > 0 {
		return &FormError{Fields: problems}
	}
	return nil
}

func (f *Form) check() map[string]string {
	problems := map[string]string{}
	if f.PatientID == "" {
		problems["dni"] = "requerido"
	} else if !isDigits(f.PatientID) {
		problems["dni"] = "debe ser numérico"
	}
	if f.PatientName == "" {
		problems["nombre"] = "requerido"
	}
	if f.InsuranceProvider == "" {
		problems["obra_social"] = "requerido"
	}
	if f.MemberNumber == "" {
		problems["numero_asociado"] = "requerido"
	} else if !isDigits(f.MemberNumber) {
		problems["numero_asociado"] = "debe ser numérico"
	}
	return problems
}

// Slot builds the record to insert. The store assigns the ID.
func (f *Form) Slot() Slot {
	return Slot{
		PatientID:         f.PatientID,
		PatientName:       f.PatientName,
		InsuranceProvider: f.InsuranceProvider,
		MemberNumber:      f.MemberNumber,
		ScheduledAt:       f.ScheduledAt,
	}
}

// Clear resets every field, as after a successful booking.
func (f *Form) Clear() { *f = Form{} }

func (f *Form) IsEmpty() bool { return *f == Form{} }

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
