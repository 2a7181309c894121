package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrToolInvocation    = errors.New("tool invocation error")
	ErrParse             = errors.New("parse error")
	ErrStructural        = errors.New("structural error")
	ErrDanglingReference = errors.New("dangling reference")
	ErrExtraction        = errors.New("extraction error")
	ErrPathResolution    = errors.New("path resolution error")
	ErrConfiguration     = errors.New("configuration error")
	ErrUnsupported       = errors.New("unsupported input")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrToolInvocation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Class labels reported in logs and the batch summary.
const (
	ClassToolInvocation    = "tool_invocation"
	ClassParse             = "parse"
	ClassStructural        = "structural"
	ClassDanglingReference = "dangling_reference"
	ClassExtraction        = "extraction"
	ClassPathResolution    = "path_resolution"
	ClassConfiguration     = "configuration"
	ClassUnsupported       = "unsupported"
	ClassCanceled          = "canceled"
	ClassUnknown           = "unknown"
)

// Classify maps an error to the label of the marker it carries. Extraction
// is checked first because extractor errors also wrap the tool failure that
// caused them, and the file is reported under the stage that failed.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExtraction):
		return ClassExtraction
	case errors.Is(err, ErrToolInvocation):
		return ClassToolInvocation
	case errors.Is(err, ErrParse):
		return ClassParse
	case errors.Is(err, ErrStructural):
		return ClassStructural
	case errors.Is(err, ErrDanglingReference):
		return ClassDanglingReference
	case errors.Is(err, ErrPathResolution):
		return ClassPathResolution
	case errors.Is(err, ErrConfiguration):
		return ClassConfiguration
	case errors.Is(err, ErrUnsupported):
		return ClassUnsupported
	case errors.Is(err, context.Canceled):
		return ClassCanceled
	default:
		return ClassUnknown
	}
}

// EventType returns the structured logging event_type for an error class.
func EventType(err error) string {
	switch Classify(err) {
	case ClassToolInvocation:
		return "tool_invocation_failed"
	case ClassParse:
		return "probe_parse_failed"
	case ClassStructural:
		return "chapter_structure_invalid"
	case ClassDanglingReference:
		return "chapter_reference_dangling"
	case ClassExtraction:
		return "extraction_failed"
	case ClassPathResolution:
		return "path_resolution_fallback"
	case ClassConfiguration:
		return "configuration_invalid"
	case ClassUnsupported:
		return "input_unsupported"
	case ClassCanceled:
		return "batch_canceled"
	default:
		return "pipeline_failed"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
