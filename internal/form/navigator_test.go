package form_test

import (
	"testing"

	"github.com/Thaththathirian/lifeboat-college/internal/form"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionValues(section int) form.Values {
	all := validValues()
	out := form.Values{}
	for _, f := range form.SectionFields(section) {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return out
}

func TestNavigator_NextBlockedByInvalidRequiredField(t *testing.T) {
	state := form.NewState()
	nav := form.NewNavigator(state, form.NewEngine())

	values := sectionValues(form.SectionCollegeInfo)
	values[form.Email] = "nope"
	fill(t, state, values)

	moved, first := nav.Next()
	assert.False(t, moved)
	assert.Equal(t, form.Email, first)
	assert.Equal(t, 0, nav.Current())
	assert.Equal(t, form.LocalError, state.FieldState(form.Email))
	assert.Equal(t, form.Valid, state.FieldState(form.CollegeName))
}

func TestNavigator_FirstFailingFieldFollowsDeclarationOrder(t *testing.T) {
	state := form.NewState()
	nav := form.NewNavigator(state, form.NewEngine())

	moved, first := nav.Next()
	assert.False(t, moved)
	assert.Equal(t, form.CollegeName, first)
	assert.Len(t, state.Errors(), len(form.RequiredFields(form.SectionCollegeInfo)))
}

func TestNavigator_OptionalFieldsDoNotGate(t *testing.T) {
	state := form.NewState()
	nav := form.NewNavigator(state, form.NewEngine())

	values := sectionValues(form.SectionCollegeInfo)
	values[form.TotalStudents] = "lots"
	fill(t, state, values)

	moved, _ := nav.Next()
	assert.True(t, moved)
	assert.Equal(t, 1, nav.Current())
}

func TestNavigator_NextAdvancesExactlyOne(t *testing.T) {
	state := form.NewState()
	nav := form.NewNavigator(state, form.NewEngine())
	fill(t, state, validValues())

	assert.Equal(t, 0.5, nav.Progress())
	moved, first := nav.Next()
	require.True(t, moved)
	assert.Empty(t, first)
	assert.Equal(t, 1, nav.Current())
	assert.True(t, nav.IsTerminal())
	assert.Equal(t, "Academic & Financial Details", nav.Section().Title)
	assert.Equal(t, 1.0, nav.Progress())

	moved, _ = nav.Next()
	assert.False(t, moved, "terminal section does not advance")
	assert.Equal(t, 1, nav.Current())
}

func TestNavigator_PreviousClearsErrors(t *testing.T) {
	state := form.NewState()
	nav := form.NewNavigator(state, form.NewEngine())
	fill(t, state, sectionValues(form.SectionCollegeInfo))

	moved, _ := nav.Next()
	require.True(t, moved)

	// section 1 is empty; a forward attempt is a no-op on the terminal
	// section, so drive errors through the state directly
	state.ApplyValidation(form.RequiredFields(form.SectionAcademicFinancial), map[form.Field]string{
		form.BankName: "Bank name is required",
	})
	require.True(t, state.HasErrors())

	assert.True(t, nav.Previous())
	assert.Equal(t, 0, nav.Current())
	assert.False(t, state.HasErrors())

	assert.False(t, nav.Previous(), "already at the first section")
	assert.Equal(t, 0, nav.Current())
}

func TestNavigator_Resume(t *testing.T) {
	t.Run("stops at invalid section", func(t *testing.T) {
		state := form.NewState()
		nav := form.NewNavigator(state, form.NewEngine())
		reached, first := nav.Resume(1)
		assert.Equal(t, 0, reached)
		assert.Equal(t, form.CollegeName, first)
	})

	t.Run("reaches target when earlier sections validate", func(t *testing.T) {
		state := form.NewState()
		nav := form.NewNavigator(state, form.NewEngine())
		fill(t, state, sectionValues(form.SectionCollegeInfo))
		reached, first := nav.Resume(5)
		assert.Equal(t, 1, reached)
		assert.Empty(t, first)
	})
}

func TestNavigator_NextOnTerminalSectionLeavesStateAlone(t *testing.T) {
	state := form.NewState()
	nav := form.NewNavigator(state, form.NewEngine())
	fill(t, state, sectionValues(form.SectionCollegeInfo))
	moved, _ := nav.Next()
	require.True(t, moved)
	require.True(t, nav.IsTerminal())

	moved, first := nav.Next()
	assert.False(t, moved)
	assert.Empty(t, first)
	assert.Equal(t, 1, nav.Current())
	assert.Equal(t, form.Untouched, state.FieldState(form.CoordinatorName), "terminal fields are left for Submit")
	assert.False(t, state.HasErrors())
}
