package pipeline

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// Method selects which strategies a run may use.
type Method string

const (
	MethodAuto      Method = "auto"
	MethodTemplate  Method = "template"
	MethodHeuristic Method = "heuristic"
	MethodLLM       Method = "llm"
)

// ParseMethod accepts the method names case-insensitively; "" means auto.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodAuto, nil
	case MethodAuto, MethodTemplate, MethodHeuristic, MethodLLM:
		return m, nil
	}
	return "", common.NewAppError("INVALID_METHOD", fmt.Sprintf("unknown method %q", s), common.ErrInvalidInput)
}
