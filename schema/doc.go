// Package schema provides JSON Schema generation from Go types and
// validation of tool arguments against those schemas.
//
// # Generation
//
// Tool input structs describe their parameters with json and jsonschema tags:
//
//	type ForecastInput struct {
//	    Latitude  float64 `json:"latitude" jsonschema:"required,minimum=-90,maximum=90"`
//	    Longitude float64 `json:"longitude" jsonschema:"required,minimum=-180,maximum=180"`
//	}
//
//	s, err := schema.Generate(ForecastInput{})
//
// Supported jsonschema keys: required, description=, minimum=, maximum=,
// pattern= and enum= (values separated by '|').
//
// # Validation
//
// Coerce decodes raw arguments, converts numeric strings to numbers and
// "true"/"false" to booleans where the schema asks for them, then validates:
//
//	args, err := s.Coerce(raw)
//	var verrs schema.ValidationErrors
//	if errors.As(err, &verrs) && verrs.Has(schema.KindMissing) {
//	    // a required parameter was not supplied
//	}
//
// Each ValidationError carries a Kind so callers can tell a missing
// parameter (KindMissing) from a malformed one (KindType, KindConstraint).
package schema
