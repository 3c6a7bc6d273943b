// Package form models the operator's entry fields independently of any UI.
package form

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/utils"
)

// Kind selects how a field normalizes what it holds.
type Kind int

const (
	DateField Kind = iota
	SingleLineField
	MultiLineField
)

func (k Kind) String() string {
	switch k {
	case DateField:
		return "date"
	case SingleLineField:
		return "single_line"
	case MultiLineField:
		return "multi_line"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Field is one named input.
type Field struct {
	Name  string
	Kind  Kind
	value string
}

// Read returns the normalized value.
//   - date fields: YYYY-MM-DD, or the raw text when it is not a date
//   - multi-line fields: trailing newlines stripped
//   - single-line fields: trimmed
func (f *Field) Read() string {
	switch f.Kind {
	case DateField:
		if d, err := utils.NormalizeDate(f.value); err == nil {
			return d
		}
		return strings.TrimSpace(f.value)
	case MultiLineField:
		return strings.TrimRight(f.value, "\r\n")
	default:
		return strings.TrimSpace(f.value)
	}
}

// Set replaces the raw value.
func (f *Field) Set(v string) { f.value = v }

// Clear empties the field.
func (f *Field) Clear() { f.value = "" }

// Form names.
const (
	JobDate           = "job_date"
	FieldworkDate     = "fieldwork_date"
	JobNumber         = "job_number"
	ParcelID          = "parcel_id"
	EntryBy           = "entry_by"
	RequestedServices = "requested_services"
	ContactInfo       = "contact_info"
	AdditionalInfo    = "additional_info"
)

// Form is the job entry screen.
type Form struct {
	fields []*Field
	byName map[string]*Field
}

// New returns the job entry form with every field empty.
func New() *Form {
	f := &Form{byName: make(map[string]*Field)}
	for _, fd := range []Field{
		{Name: JobDate, Kind: DateField},
		{Name: FieldworkDate, Kind: DateField},
		{Name: JobNumber, Kind: SingleLineField},
		{Name: ParcelID, Kind: SingleLineField},
		{Name: EntryBy, Kind: SingleLineField},
		{Name: RequestedServices, Kind: MultiLineField},
		{Name: ContactInfo, Kind: MultiLineField},
		{Name: AdditionalInfo, Kind: MultiLineField},
	} {
		f.fields = append(f.fields, &fd)
		f.byName[fd.Name] = &fd
	}
	return f
}

// Field returns the named field, or nil.
func (f *Form) Field(name string) *Field { return f.byName[name] }

// Names returns the field names in screen order.
func (f *Form) Names() []string {
	out := make([]string, len(f.fields))
	for i, fd := range f.fields {
		out[i] = fd.Name
	}
	return out
}

// Set assigns a raw value to the named field.
func (f *Form) Set(name, value string) error {
	fd := f.byName[name]
	if fd == nil {
		return common.ValidationError{Field: name, Value: value, Message: "unknown form field"}
	}
	fd.Set(value)
	return nil
}

// Values returns every field's normalized value keyed by name.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, fd := range f.fields {
		out[fd.Name] = fd.Read()
	}
	return out
}

// Clear empties every field.
func (f *Form) Clear() { f.ClearExcept() }

// ClearExcept empties every field not named in keep.
func (f *Form) ClearExcept(keep ...string) {
	skip := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		skip[k] = struct{}{}
	}
	for _, fd := range f.fields {
		if _, ok := skip[fd.Name]; !ok {
			fd.Clear()
		}
	}
}

// Populate sets each known field with a non-empty value in values. Unknown
// names and empty values are ignored.
func (f *Form) Populate(values map[string]string) {
	for name, v := range values {
		if v == "" {
			continue
		}
		if fd := f.byName[name]; fd != nil {
			fd.Set(v)
		}
	}
}

// Validate checks the fields a submission cannot do without.
func (f *Form) Validate() error {
	v := common.NewValidator()
	v.Field(JobNumber, f.Field(JobNumber).Read(), common.Required)
	v.Field(ParcelID, f.Field(ParcelID).Read(), common.Required)
	v.Field(JobDate, f.Field(JobDate).Read(), common.DateYMD)
	v.Field(FieldworkDate, f.Field(FieldworkDate).Read(), common.DateYMD)
	return v.Error()
}
