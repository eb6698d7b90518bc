package openapi

import "strings"

// settings holds everything Generate needs beyond the descriptor set.
// Responses map a status code to its description.
type settings struct {
	openAPIVersion string
	title          string
	version        string
	description    string
	path           string
	method         string
	operationID    string
	summary        string
	contentType    string
	responses      map[string]string
	component      string
	namespace      string
}

func defaultSettings() settings {
	return settings{
		openAPIVersion: "3.0.3",
		title:          "Parameters",
		version:        "1.0.0",
		path:           "/params",
		method:         "put",
		contentType:    "application/json",
		responses:      map[string]string{"204": "Snapshot applied"},
		component:      "Parameters",
	}
}

// Option configures the generated document. Empty arguments leave the
// default in place.
type Option func(*settings)

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

// WithOpenAPIVersion overrides the document version (default 3.0.3).
func WithOpenAPIVersion(version string) Option {
	return func(s *settings) { setString(&s.openAPIVersion, version) }
}

// WithTitle sets info.title.
func WithTitle(title string) Option {
	return func(s *settings) { setString(&s.title, title) }
}

// WithVersion sets info.version, the version of the parameter set itself.
func WithVersion(version string) Option {
	return func(s *settings) { setString(&s.version, version) }
}

// WithDescription sets info.description.
func WithDescription(description string) Option {
	return func(s *settings) { setString(&s.description, description) }
}

// WithPath moves the snapshot operation (default /params).
func WithPath(path string) Option {
	return func(s *settings) { setString(&s.path, path) }
}

// WithMethod sets the HTTP method of the snapshot operation (default put).
func WithMethod(method string) Option {
	return func(s *settings) { setString(&s.method, strings.ToLower(method)) }
}

// WithOperationID overrides the derived "method:path" operation id.
func WithOperationID(id string) Option {
	return func(s *settings) { setString(&s.operationID, id) }
}

// WithSummary attaches a summary to the snapshot operation.
func WithSummary(summary string) Option {
	return func(s *settings) { setString(&s.summary, summary) }
}

// WithContentType sets the request body media type.
func WithContentType(contentType string) Option {
	return func(s *settings) { setString(&s.contentType, contentType) }
}

// WithResponse adds or replaces the response for status.
func WithResponse(status, description string) Option {
	return func(s *settings) {
		status = strings.TrimSpace(status)
		if status == "" {
			return
		}
		responses := make(map[string]string, len(s.responses)+1)
		for code, text := range s.responses {
			responses[code] = text
		}
		responses[status] = description
		s.responses = responses
	}
}

// WithComponentName names the schema under components (default Parameters).
func WithComponentName(name string) Option {
	return func(s *settings) { setString(&s.component, name) }
}

// WithNamespace records each parameter's store key under namespace as
// x-param-key.
func WithNamespace(namespace string) Option {
	return func(s *settings) { s.namespace = namespace }
}
