package plugin

import (
	"errors"
	"fmt"
)

var (
	ErrMissingRequiredField = errors.New("missing required field")
	ErrFieldNotApplicable   = errors.New("field not applicable to query type")
)

// Payload is the query sent to the Carpool API. It is the "payload" object of
// the panel query JSON.
type Payload struct {
	ProgramID       string    `json:"programId"`
	InstructionName *string   `json:"instructionName,omitempty"`
	QueryType       QueryType `json:"queryType"`
}

// RawFields holds the editor input keyed by field name.
type RawFields map[FieldName]string

// EditState is where a payload stands while the user edits it.
type EditState int

const (
	Empty EditState = iota
	PartiallyFilled
	Valid
)

func (s EditState) String() string {
	switch s {
	case Empty:
		return "empty"
	case PartiallyFilled:
		return "partially filled"
	case Valid:
		return "valid"
	default:
		return fmt.Sprintf("EditState(%d)", int(s))
	}
}

// DefaultPayload is the payload of a newly added panel query. It has the
// right shape but is not runnable until a program id is entered.
func DefaultPayload() Payload {
	return Payload{
		ProgramID: "",
		QueryType: registry[0].Value,
	}
}

// ApplicableFields returns the fields accepted by qt.
func ApplicableFields(qt QueryType) (map[FieldName]bool, error) {
	d, err := LookupQueryType(qt)
	if err != nil {
		return nil, err
	}
	fields := make(map[FieldName]bool, len(d.Fields))
	for _, f := range d.Fields {
		fields[f] = true
	}
	return fields, nil
}

// BuildPayload copies the fields accepted by qt out of raw. Every query type
// needs a program id.
func BuildPayload(qt QueryType, raw RawFields) (Payload, error) {
	p, err := project(qt, raw)
	if err != nil {
		return Payload{}, err
	}
	if p.ProgramID == "" {
		return Payload{}, fmt.Errorf("%w: %s", ErrMissingRequiredField, FieldProgramID)
	}
	return p, nil
}

// SwitchQueryType moves p to qt, dropping fields qt does not accept. Unlike
// BuildPayload it succeeds without a program id.
func SwitchQueryType(p Payload, qt QueryType) (Payload, error) {
	return project(qt, p.Fields())
}

// SetField returns a copy of p with field set to value. An empty value clears
// the field.
func SetField(p Payload, field FieldName, value string) (Payload, error) {
	d, err := LookupQueryType(p.QueryType)
	if err != nil {
		return p, err
	}
	if !d.accepts(field) {
		return p, fmt.Errorf("%w: %s does not take %s", ErrFieldNotApplicable, p.QueryType, field)
	}
	raw := p.Fields()
	raw[field] = value
	return project(p.QueryType, raw)
}

// Fields returns the populated fields of p.
func (p Payload) Fields() RawFields {
	raw := RawFields{}
	if p.ProgramID != "" {
		raw[FieldProgramID] = p.ProgramID
	}
	if p.InstructionName != nil && *p.InstructionName != "" {
		raw[FieldInstructionName] = *p.InstructionName
	}
	return raw
}

// StateOf reports the editing state of p.
func StateOf(p Payload) EditState {
	if len(p.Fields()) == 0 {
		return Empty
	}
	if _, err := BuildPayload(p.QueryType, p.Fields()); err != nil {
		return PartiallyFilled
	}
	return Valid
}

func project(qt QueryType, raw RawFields) (Payload, error) {
	d, err := LookupQueryType(qt)
	if err != nil {
		return Payload{}, err
	}
	p := Payload{QueryType: qt}
	for _, f := range d.Fields {
		v := raw[f]
		switch f {
		case FieldProgramID:
			p.ProgramID = v
		case FieldInstructionName:
			if v != "" {
				name := v
				p.InstructionName = &name
			}
		}
	}
	return p, nil
}
