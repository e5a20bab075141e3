package toggle

import (
	"fmt"
	"strings"

	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
)

// Kind names the remote element type being toggled.
type Kind string

const (
	KindFilter     Kind = "filter"
	KindVisibility Kind = "visibility"
)

// ParseKind accepts the toggle_type values of the config record.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFilter, KindVisibility:
		return k, nil
	}
	return "", apperrors.Newf(apperrors.CodeConfiguration, "unknown toggle_type %q (want filter or visibility)", s)
}

// Target identifies the remote element. It is either a FilterTarget or a VisibilityTarget.
type Target interface {
	Kind() Kind
	Validate() error
	String() string
	isTarget()
}

// FilterTarget is a named filter on a source.
type FilterTarget struct {
	Scene  string `json:"scene"`
	Source string `json:"source"`
	Filter string `json:"filter"`
}

func (FilterTarget) Kind() Kind { return KindFilter }
func (FilterTarget) isTarget()  {}

func (t FilterTarget) String() string {
	return fmt.Sprintf("filter %q on %q (scene %q)", t.Filter, t.Source, t.Scene)
}

// Validate reports every missing field at once.
func (t FilterTarget) Validate() error {
	return missing(map[string]string{"scene": t.Scene, "source": t.Source, "filter": t.Filter})
}

// VisibilityTarget is a source's scene item within a scene.
type VisibilityTarget struct {
	Scene  string `json:"scene"`
	Source string `json:"source"`
}

func (VisibilityTarget) Kind() Kind { return KindVisibility }
func (VisibilityTarget) isTarget()  {}

func (t VisibilityTarget) String() string {
	return fmt.Sprintf("visibility of %q (scene %q)", t.Source, t.Scene)
}

func (t VisibilityTarget) Validate() error {
	return missing(map[string]string{"scene": t.Scene, "source": t.Source})
}

// NewTarget builds the variant for kind. Unused fields are ignored.
func NewTarget(kind Kind, scene, source, filter string) (Target, error) {
	switch kind {
	case KindFilter:
		return FilterTarget{Scene: scene, Source: source, Filter: filter}, nil
	case KindVisibility:
		return VisibilityTarget{Scene: scene, Source: source}, nil
	}
	return nil, apperrors.Newf(apperrors.CodeConfiguration, "unknown toggle kind %q", kind)
}

func missing(fields map[string]string) error {
	var names []string
	for _, k := range []string{"scene", "source", "filter"} {
		if v, ok := fields[k]; ok && strings.TrimSpace(v) == "" {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return apperrors.Newf(apperrors.CodeConfiguration, "toggle target missing %s", strings.Join(names, ", "))
}
