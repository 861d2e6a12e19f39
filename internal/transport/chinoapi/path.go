package chinoapi

import (
	"fmt"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/chino/internal/domain"
)

// Path fills the {name} placeholders of an endpoint template in order,
// styling each value as a simple path parameter.
func Path(template string, params ...string) (string, error) {
	var sb strings.Builder
	rest := template
	for _, value := range params {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return "", fmt.Errorf("path %s: too many parameters", template)
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("path %s: unterminated parameter", template)
		}
		name := rest[open+1 : open+end]
		if strings.TrimSpace(value) == "" {
			return "", domain.NewInvalidID(name, value)
		}
		styled, err := runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, value)
		if err != nil {
			return "", fmt.Errorf("path %s: parameter %s: %w", template, name, err)
		}
		sb.WriteString(rest[:open])
		sb.WriteString(styled)
		rest = rest[open+end+1:]
	}
	if strings.IndexByte(rest, '{') >= 0 {
		return "", fmt.Errorf("path %s: missing parameters", template)
	}
	sb.WriteString(rest)
	return sb.String(), nil
}
