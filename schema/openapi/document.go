package openapi

import (
	"errors"
	"fmt"
	"strings"
)

const componentRefPrefix = "#/components/schemas/"

// assemble wraps component in a document exposing one snapshot operation
// whose request body references it.
func assemble(s settings, component map[string]any) (map[string]any, error) {
	if component == nil {
		return nil, errors.New("openapi: component schema cannot be nil")
	}
	info := map[string]any{"title": s.title, "version": s.version}
	if s.description != "" {
		info["description"] = s.description
	}
	document := map[string]any{
		"openapi": s.openAPIVersion,
		"info":    info,
		"paths": map[string]any{
			s.path: map[string]any{s.method: snapshotOperation(s)},
		},
		"components": map[string]any{
			"schemas": map[string]any{s.component: component},
		},
	}
	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

func snapshotOperation(s settings) map[string]any {
	responses := make(map[string]any, len(s.responses))
	for status, description := range s.responses {
		responses[status] = map[string]any{"description": description}
	}
	id := s.operationID
	if id == "" {
		id = s.method + ":" + s.path
	}
	operation := map[string]any{
		"operationId": id,
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				s.contentType: map[string]any{
					"schema": map[string]any{"$ref": componentRefPrefix + s.component},
				},
			},
		},
		"responses": responses,
	}
	if s.summary != "" {
		operation["summary"] = s.summary
	}
	return operation
}

// validateDocument reports every structural problem found, joined. It also
// checks that each request body $ref names a declared component.
func validateDocument(document map[string]any) error {
	if document == nil {
		return errors.New("openapi: document cannot be nil")
	}
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("openapi: "+format, args...))
	}

	if version, _ := document["openapi"].(string); version == "" {
		fail("document missing version string")
	}
	if info, ok := document["info"].(map[string]any); !ok {
		fail("document missing info section")
	} else {
		for _, field := range []string{"title", "version"} {
			if value, _ := info[field].(string); value == "" {
				fail("info.%s must be set", field)
			}
		}
	}

	components, _ := document["components"].(map[string]any)
	schemas, _ := components["schemas"].(map[string]any)

	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		fail("document must define at least one path")
	}
	for path, item := range paths {
		operations, _ := item.(map[string]any)
		if len(operations) == 0 {
			fail("path %q has no operations", path)
			continue
		}
		for method, raw := range operations {
			operation, ok := raw.(map[string]any)
			if !ok {
				fail("operation %s %s is not an object", method, path)
				continue
			}
			if id, _ := operation["operationId"].(string); id == "" {
				fail("operation %s %s missing operationId", method, path)
			}
			if _, ok := operation["responses"].(map[string]any); !ok {
				fail("operation %s %s missing responses", method, path)
			}
			for _, ref := range requestRefs(operation) {
				name, isLocal := strings.CutPrefix(ref, componentRefPrefix)
				if _, declared := schemas[name]; !isLocal || !declared {
					fail("operation %s %s references undeclared schema %q", method, path, ref)
				}
			}
		}
	}
	return errors.Join(problems...)
}

func requestRefs(operation map[string]any) []string {
	body, _ := operation["requestBody"].(map[string]any)
	content, _ := body["content"].(map[string]any)
	var refs []string
	for _, media := range content {
		entry, _ := media.(map[string]any)
		schema, _ := entry["schema"].(map[string]any)
		if ref, ok := schema["$ref"].(string); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}
