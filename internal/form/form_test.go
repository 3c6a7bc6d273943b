package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
)

func TestFieldKinds(t *testing.T) {
	date := &Field{Name: JobDate, Kind: DateField}
	date.Set("3/14/2023")
	assert.Equal(t, "2023-03-14", date.Read())

	single := &Field{Name: EntryBy, Kind: SingleLineField}
	single.Set("  JD \n")
	assert.Equal(t, "JD", single.Read())

	multi := &Field{Name: ContactInfo, Kind: MultiLineField}
	multi.Set("  Jane Doe\n555-0100\n")
	assert.Equal(t, "  Jane Doe\n555-0100", multi.Read())

	multi.Clear()
	assert.Equal(t, "", multi.Read())
}

func TestFormValuesCoverEveryField(t *testing.T) {
	f := New()
	vals := f.Values()
	assert.Len(t, vals, 8)
	for _, name := range f.Names() {
		assert.Contains(t, vals, name)
	}
}

func TestClearExceptKeepsDatesAndNumber(t *testing.T) {
	f := New()
	for _, name := range f.Names() {
		require.NoError(t, f.Set(name, "x"))
	}
	require.NoError(t, f.Set(JobDate, "2023-03-14"))

	f.ClearExcept(JobDate, FieldworkDate, JobNumber)
	vals := f.Values()
	assert.Equal(t, "2023-03-14", vals[JobDate])
	assert.Equal(t, "x", vals[JobNumber])
	assert.Equal(t, "", vals[ParcelID])
	assert.Equal(t, "", vals[AdditionalInfo])

	f.Clear()
	assert.Equal(t, "", f.Values()[JobNumber])
}

func TestPopulateSkipsEmptyAndUnknown(t *testing.T) {
	f := New()
	require.NoError(t, f.Set(EntryBy, "JD"))

	f.Populate(map[string]string{
		ParcelID: "05-29-16-12345",
		EntryBy:  "",
		"street": "Main St",
	})
	assert.Equal(t, "05-29-16-12345", f.Values()[ParcelID])
	assert.Equal(t, "JD", f.Values()[EntryBy])
}

func TestSetUnknownField(t *testing.T) {
	err := New().Set("street", "Main St")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestValidate(t *testing.T) {
	f := New()
	err := f.Validate()
	require.ErrorIs(t, err, common.ErrValidation)
	var ve common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, JobNumber, ve.Field)

	require.NoError(t, f.Set(JobNumber, "23030100"))
	require.NoError(t, f.Set(ParcelID, "05-29-16-12345"))
	require.NoError(t, f.Set(JobDate, "not a date"))
	assert.Error(t, f.Validate())

	require.NoError(t, f.Set(JobDate, "03/14/2023"))
	assert.NoError(t, f.Validate())
}
