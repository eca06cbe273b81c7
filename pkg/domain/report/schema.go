package report

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const projectMapSchema = `{
  "type": "object",
  "additionalProperties": { "type": "number", "minimum": 0 }
}`

// fullDatasetSchemaJSON describes the answer of the full-dataset endpoint.
// project_counts is mandatory: the client never approximates issue counts.
var fullDatasetSchemaJSON = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": { "type": "boolean" },
    "error": { "type": "string" }
  },
  "if": { "properties": { "success": { "const": true } } },
  "then": {
    "required": ["project_estimates", "project_time_spent", "project_counts"],
    "properties": {
      "project_estimates": ` + projectMapSchema + `,
      "project_time_spent": ` + projectMapSchema + `,
      "project_clm_estimates": ` + projectMapSchema + `,
      "project_counts": {
        "type": "object",
        "additionalProperties": { "type": "integer", "minimum": 0 }
      },
      "implementation_count": { "type": "integer", "minimum": 0 },
      "filtered_count": { "type": "integer", "minimum": 0 }
    }
  }
}`

// pageDataSchemaJSON describes the data embedded in an analysis page.
var pageDataSchemaJSON = `{
  "type": "object",
  "required": ["timestamp", "project_estimates", "project_time_spent", "project_counts"],
  "properties": {
    "timestamp": { "type": "string", "minLength": 1 },
    "data_source": { "enum": ["clm", "jira"] },
    "project_estimates": ` + projectMapSchema + `,
    "project_time_spent": ` + projectMapSchema + `,
    "project_clm_estimates": ` + projectMapSchema + `,
    "project_counts": {
      "type": "object",
      "additionalProperties": { "type": "integer", "minimum": 0 }
    }
  }
}`

var (
	fullDatasetSchemaLoader = gojsonschema.NewStringLoader(fullDatasetSchemaJSON)
	pageDataSchemaLoader    = gojsonschema.NewStringLoader(pageDataSchemaJSON)
)

// ValidateFullDatasetJSON checks a full-dataset response body. Violations
// are reported as ErrMalformedResponse.
func ValidateFullDatasetJSON(body []byte) error {
	return validate(fullDatasetSchemaLoader, body, ErrMalformedResponse)
}

// ValidatePageDataJSON checks an embedded page data blob. Violations are
// reported as ErrInvalidDataset.
func ValidatePageDataJSON(body []byte) error {
	return validate(pageDataSchemaLoader, body, ErrInvalidDataset)
}

func validate(schema gojsonschema.JSONLoader, body []byte, kind error) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", kind, err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("%w: %s", kind, strings.Join(issues, "; "))
}
