package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const maxBodyBytes = 1 << 20

var createHubSchema = jsonschema.MustCompileString("create_hub.json", `{
	"type": "object",
	"properties": {
		"hubId": {"type": "string", "minLength": 1, "maxLength": 128, "pattern": "\\S"},
		"name":  {"type": "string", "minLength": 1, "maxLength": 256, "pattern": "\\S"}
	},
	"required": ["hubId", "name"],
	"additionalProperties": false
}`)

// The edge body accepts either {a, b} or {sourceHubId, targetHubId}.
var edgeSchema = jsonschema.MustCompileString("edge.json", `{
	"definitions": {
		"id": {"type": "string", "minLength": 1, "maxLength": 128, "pattern": "\\S"}
	},
	"type": "object",
	"oneOf": [
		{
			"properties": {"a": {"$ref": "#/definitions/id"}, "b": {"$ref": "#/definitions/id"}},
			"required": ["a", "b"],
			"additionalProperties": false
		},
		{
			"properties": {
				"sourceHubId": {"$ref": "#/definitions/id"},
				"targetHubId": {"$ref": "#/definitions/id"}
			},
			"required": ["sourceHubId", "targetHubId"],
			"additionalProperties": false
		}
	]
}`)

// requestError is a client error raised while reading a request body.
type requestError struct {
	msg     string
	details []string
}

func (e *requestError) Error() string {
	if len(e.details) == 0 {
		return e.msg
	}
	return e.msg + ": " + strings.Join(e.details, "; ")
}

// decodeValidated reads the body, validates it against sch and decodes it into dst.
func decodeValidated(w http.ResponseWriter, r *http.Request, sch *jsonschema.Schema, dst any) error {
	if r.Body == nil {
		return &requestError{msg: "request body is required"}
	}
	defer r.Body.Close()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &requestError{msg: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)}
		}
		return &requestError{msg: "could not read request body"}
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return &requestError{msg: "request body is required"}
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return &requestError{msg: "request body is not valid JSON"}
	}
	if err := sch.Validate(v); err != nil {
		return &requestError{msg: "request body failed validation", details: validationDetails(err)}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &requestError{msg: "request body has the wrong shape"}
	}
	return nil
}

// validationDetails flattens a schema error to its leaf causes.
func validationDetails(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}
