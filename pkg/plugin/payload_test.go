package plugin_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carpool-dev/carpool-grafana-backend/pkg/plugin"
)

func TestApplicableFields(t *testing.T) {
	for _, d := range plugin.QueryTypes() {
		fields, err := plugin.ApplicableFields(d.Value)
		require.NoError(t, err)
		assert.NotEmpty(t, fields)
		assert.True(t, fields[plugin.FieldProgramID], d.Value)
	}

	fields, err := plugin.ApplicableFields(plugin.ProgramDeployments)
	require.NoError(t, err)
	assert.Equal(t, map[plugin.FieldName]bool{plugin.FieldProgramID: true}, fields)

	_, err = plugin.ApplicableFields("bogus")
	assert.ErrorIs(t, err, plugin.ErrUnknownQueryType)
}

func TestDefaultPayload(t *testing.T) {
	p := plugin.DefaultPayload()
	assert.Equal(t, p, plugin.DefaultPayload())
	assert.Equal(t, plugin.QueryTypes()[0].Value, p.QueryType)
	assert.Equal(t, plugin.ProgramInvocations, p.QueryType)
	assert.Empty(t, p.ProgramID)
	assert.Nil(t, p.InstructionName)
	assert.Equal(t, plugin.Empty, plugin.StateOf(p))

	_, err := plugin.BuildPayload(p.QueryType, p.Fields())
	assert.ErrorIs(t, err, plugin.ErrMissingRequiredField)
}

func TestBuildPayload(t *testing.T) {
	t.Run("drops fields the type does not take", func(t *testing.T) {
		p, err := plugin.BuildPayload(plugin.ProgramDeployments, plugin.RawFields{
			plugin.FieldProgramID:       "abc",
			plugin.FieldInstructionName: "x",
		})
		require.NoError(t, err)
		assert.Equal(t, plugin.Payload{ProgramID: "abc", QueryType: plugin.ProgramDeployments}, p)
	})

	t.Run("keeps instruction name", func(t *testing.T) {
		p, err := plugin.BuildPayload(plugin.ProgramSigners, plugin.RawFields{
			plugin.FieldProgramID:       "abc",
			plugin.FieldInstructionName: "transfer",
		})
		require.NoError(t, err)
		require.NotNil(t, p.InstructionName)
		assert.Equal(t, "transfer", *p.InstructionName)
	})

	t.Run("empty optional field is absent", func(t *testing.T) {
		p, err := plugin.BuildPayload(plugin.ProgramInvocations, plugin.RawFields{
			plugin.FieldProgramID:       "abc",
			plugin.FieldInstructionName: "",
		})
		require.NoError(t, err)
		assert.Nil(t, p.InstructionName)

		b, err := json.Marshal(p)
		require.NoError(t, err)
		assert.JSONEq(t, `{"programId":"abc","queryType":"invocations"}`, string(b))
	})

	t.Run("missing program id", func(t *testing.T) {
		_, err := plugin.BuildPayload(plugin.ProgramInvocations, plugin.RawFields{
			plugin.FieldProgramID:       "",
			plugin.FieldInstructionName: "y",
		})
		assert.ErrorIs(t, err, plugin.ErrMissingRequiredField)

		_, err = plugin.BuildPayload(plugin.FailedProgramDeployments, nil)
		assert.ErrorIs(t, err, plugin.ErrMissingRequiredField)
	})

	t.Run("unknown query type", func(t *testing.T) {
		_, err := plugin.BuildPayload("topInstructions", plugin.RawFields{plugin.FieldProgramID: "abc"})
		assert.ErrorIs(t, err, plugin.ErrUnknownQueryType)
	})
}

func TestSwitchQueryType(t *testing.T) {
	p, err := plugin.BuildPayload(plugin.ProgramInvocations, plugin.RawFields{
		plugin.FieldProgramID:       "abc",
		plugin.FieldInstructionName: "transfer",
	})
	require.NoError(t, err)

	switched, err := plugin.SwitchQueryType(p, plugin.ProgramDeployments)
	require.NoError(t, err)
	assert.Equal(t, plugin.Payload{ProgramID: "abc", QueryType: plugin.ProgramDeployments}, switched)

	rebuilt, err := plugin.BuildPayload(switched.QueryType, switched.Fields())
	require.NoError(t, err)
	assert.Nil(t, rebuilt.InstructionName)

	// switching back does not bring the dropped field back
	back, err := plugin.SwitchQueryType(switched, plugin.ProgramInvocations)
	require.NoError(t, err)
	assert.Nil(t, back.InstructionName)

	// the original payload is untouched
	require.NotNil(t, p.InstructionName)
	assert.Equal(t, "transfer", *p.InstructionName)

	_, err = plugin.SwitchQueryType(p, "bogus")
	assert.ErrorIs(t, err, plugin.ErrUnknownQueryType)
}

func TestSetField(t *testing.T) {
	p := plugin.DefaultPayload()

	p2, err := plugin.SetField(p, plugin.FieldInstructionName, "transfer")
	require.NoError(t, err)
	assert.Nil(t, p.InstructionName)
	require.NotNil(t, p2.InstructionName)
	assert.Equal(t, "transfer", *p2.InstructionName)

	p3, err := plugin.SetField(p2, plugin.FieldInstructionName, "")
	require.NoError(t, err)
	assert.Nil(t, p3.InstructionName)

	dep := plugin.Payload{ProgramID: "abc", QueryType: plugin.ProgramDeployments}
	same, err := plugin.SetField(dep, plugin.FieldInstructionName, "transfer")
	assert.ErrorIs(t, err, plugin.ErrFieldNotApplicable)
	assert.Equal(t, dep, same)
}

func TestEditStates(t *testing.T) {
	p := plugin.DefaultPayload()
	assert.Equal(t, plugin.Empty, plugin.StateOf(p))

	p, err := plugin.SetField(p, plugin.FieldInstructionName, "transfer")
	require.NoError(t, err)
	assert.Equal(t, plugin.PartiallyFilled, plugin.StateOf(p))

	p, err = plugin.SetField(p, plugin.FieldProgramID, "abc")
	require.NoError(t, err)
	assert.Equal(t, plugin.Valid, plugin.StateOf(p))

	p, err = plugin.SetField(p, plugin.FieldProgramID, "")
	require.NoError(t, err)
	assert.Equal(t, plugin.PartiallyFilled, plugin.StateOf(p))

	// switching drops the only populated field
	p, err = plugin.SwitchQueryType(p, plugin.ProgramDeployments)
	require.NoError(t, err)
	assert.Equal(t, plugin.Empty, plugin.StateOf(p))

	assert.Equal(t, "partially filled", plugin.PartiallyFilled.String())
}
