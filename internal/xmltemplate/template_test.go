package xmltemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGroupParsesCompositeAndSnippet(t *testing.T) {
	doc := `<group id="test_group" type="example_type">
		<composite name="test_composite" type="example_type">
			<substitute name="test_substitute1">test_value1</substitute>
		</composite>
	</group>`

	l := NewLoader(map[string]string{}, "1.0.0")
	g, err := l.LoadGroup(doc)
	require.NoError(t, err)
	assert.Equal(t, "test_group", g.ID)
	assert.Equal(t, "example_type", g.Type)
	require.Len(t, g.Children, 1)

	comp, ok := g.Children[0].(*Composite)
	require.True(t, ok)
	assert.Equal(t, "test_composite", comp.Name)
	require.Len(t, comp.Substitutions, 1)
	assert.Equal(t, "test_value1", comp.Substitutions[0].Value)
}

func TestLoadGroupParsesSnippetConditions(t *testing.T) {
	doc := `<group id="test_group" type="example_type">
		<composite>
			<snippet>
				<condition name="CONDITION_1" op="equals">VALUE_1</condition>
				sample code for snippet - 1
			</snippet>
		</composite>
	</group>`

	l := NewLoader(map[string]string{}, "1.0.0")
	g, err := l.LoadGroup(doc)
	require.NoError(t, err)
	comp := g.Children[0].(*Composite)
	require.Len(t, comp.Children, 1)
	snip := comp.Children[0].(*Snippet)
	assert.Contains(t, snip.Code, "sample code for snippet - 1")
	require.Len(t, snip.Conditions, 1)
	assert.Equal(t, "CONDITION_1", snip.Conditions[0].Name)
	assert.Equal(t, "VALUE_1", snip.Conditions[0].Value)
}

func TestConditionSatisfiedNotSwapped(t *testing.T) {
	cond := Condition{Name: "MODE", Op: "equals", Value: "SWEEP"}
	assert.True(t, cond.Satisfied(map[string]string{"MODE": "SWEEP"}))
	assert.False(t, cond.Satisfied(map[string]string{"MODE": "STEP"}))

	notEq := Condition{Name: "MODE", Op: "not-equals", Value: "SWEEP"}
	assert.True(t, notEq.Satisfied(map[string]string{"MODE": "STEP"}))
}

func TestIncludeResolvesEmbeddedResource(t *testing.T) {
	doc := `<group id="g" type="t"><include path="LEAF_XML"/></group>`
	l := NewLoader(map[string]string{
		"LEAF_XML": `<composite name="leaf"></composite>`,
	}, "1.0.0")
	g, err := l.LoadGroup(doc)
	require.NoError(t, err)
	require.Len(t, g.Children, 1)
	assert.Equal(t, "leaf", g.Children[0].(*Composite).Name)
}

func TestIncludeUnknownResourceErrors(t *testing.T) {
	doc := `<group id="g" type="t"><include path="MISSING_XML"/></group>`
	l := NewLoader(map[string]string{}, "1.0.0")
	_, err := l.LoadGroup(doc)
	require.Error(t, err)
	var unknown *UnknownResource
	assert.ErrorAs(t, err, &unknown)
}

func TestVersionTokenSubstitutedAtLoad(t *testing.T) {
	l := NewLoader(map[string]string{
		"VERSIONED": `<group id="g" type="t"><composite><snippet>v=!<!<VERSION>!>!</snippet></composite></group>`,
	}, "9.9.9")
	g, err := l.LoadResource("VERSIONED")
	require.NoError(t, err)
	snip := g.Children[0].(*Composite).Children[0].(*Snippet)
	assert.Contains(t, snip.Code, "v=9.9.9")
}

func TestDefaultResourcesLoadAndParse(t *testing.T) {
	l := NewLoader(DefaultResources(), "2.1.0")
	for _, id := range []string{InitializeXML, FinalizeXML, SweepXML, DataReportXML} {
		g, err := l.LoadResource(id)
		require.NoError(t, err, id)
		assert.NotEmpty(t, g.Children, id)
	}
}
