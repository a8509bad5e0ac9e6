package plugin

import (
	"errors"
	"fmt"

	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

// QueryType identifies one of the analytics queries the Carpool API can answer.
// The string values are embedded in saved dashboards and must not be renamed.
type QueryType string

const (
	ProgramInvocations       QueryType = "invocations"
	ProgramSigners           QueryType = "uniqueSigners"
	ProgramFailureRate       QueryType = "failureRate"
	ProgramFailures          QueryType = "failures"
	ProgramDeployments       QueryType = "programDeployments"
	FailedProgramDeployments QueryType = "failedProgramDeployments"
)

// FieldName is the name of a query input as used by the query editor.
type FieldName string

const (
	FieldProgramID       FieldName = "programId"
	FieldInstructionName FieldName = "instructionName"
)

var ErrUnknownQueryType = errors.New("unknown query type")

// QueryTypeDescriptor describes a query type and the fields it accepts.
type QueryTypeDescriptor struct {
	Label  string      `json:"label"`
	Value  QueryType   `json:"value"`
	Fields []FieldName `json:"fields"`
}

// registry is in display order; the first entry is the default query type.
var registry = []QueryTypeDescriptor{
	{Label: "Program Invocations", Value: ProgramInvocations, Fields: []FieldName{FieldProgramID, FieldInstructionName}},
	{Label: "Program Signers", Value: ProgramSigners, Fields: []FieldName{FieldProgramID, FieldInstructionName}},
	{Label: "Program Failure Rate", Value: ProgramFailureRate, Fields: []FieldName{FieldProgramID, FieldInstructionName}},
	{Label: "Program Failures", Value: ProgramFailures, Fields: []FieldName{FieldProgramID, FieldInstructionName}},
	{Label: "Program Deployments", Value: ProgramDeployments, Fields: []FieldName{FieldProgramID}},
	{Label: "Failed Program Deployments", Value: FailedProgramDeployments, Fields: []FieldName{FieldProgramID}},
}

var registryIndex = func() map[QueryType]int {
	idx := make(map[QueryType]int, len(registry))
	for i, d := range registry {
		if _, dup := idx[d.Value]; dup {
			panic(fmt.Sprintf("duplicate query type %q", d.Value))
		}
		idx[d.Value] = i
	}
	return idx
}()

// Valid reports whether qt is one of the known query types.
func (qt QueryType) Valid() bool {
	_, ok := registryIndex[qt]
	return ok
}

// QueryTypes returns all descriptors in display order.
func QueryTypes() []QueryTypeDescriptor {
	out := make([]QueryTypeDescriptor, len(registry))
	for i, d := range registry {
		out[i] = d.clone()
	}
	return out
}

// LookupQueryType returns the descriptor for id.
func LookupQueryType(id QueryType) (QueryTypeDescriptor, error) {
	i, ok := registryIndex[id]
	if !ok {
		return QueryTypeDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownQueryType, id)
	}
	return registry[i].clone(), nil
}

// LookupQueryTypeOrDefault is used for values delivered by Grafana, which
// should always be known. Anything else falls back to the first query type.
func LookupQueryTypeOrDefault(id QueryType) QueryTypeDescriptor {
	d, err := LookupQueryType(id)
	if err != nil {
		log.DefaultLogger.Warn("falling back to default query type", "queryType", string(id), "default", string(registry[0].Value))
		return registry[0].clone()
	}
	return d
}

func (d QueryTypeDescriptor) clone() QueryTypeDescriptor {
	fields := make([]FieldName, len(d.Fields))
	copy(fields, d.Fields)
	d.Fields = fields
	return d
}

func (d QueryTypeDescriptor) accepts(f FieldName) bool {
	for _, field := range d.Fields {
		if field == f {
			return true
		}
	}
	return false
}
