package routeconfig

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pthm/hal"
)

// LinkValue is a link declared as a string, a link object or a list of
// either.
type LinkValue struct {
	link *hal.Link
	list []LinkValue
	set  bool
}

type linkObject struct {
	Href        string `yaml:"href"`
	Templated   bool   `yaml:"templated"`
	Title       string `yaml:"title"`
	Type        string `yaml:"type"`
	Deprecation string `yaml:"deprecation"`
	Name        string `yaml:"name"`
	Profile     string `yaml:"profile"`
	Hreflang    string `yaml:"hreflang"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *LinkValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v.link = &hal.Link{Href: node.Value}
	case yaml.MappingNode:
		var o linkObject
		if err := node.Decode(&o); err != nil {
			return err
		}
		v.link = &hal.Link{
			Href:        o.Href,
			Templated:   o.Templated,
			Title:       o.Title,
			Type:        o.Type,
			Deprecation: o.Deprecation,
			Name:        o.Name,
			Profile:     o.Profile,
			Hreflang:    o.Hreflang,
		}
	case yaml.SequenceNode:
		v.list = make([]LinkValue, 0, len(node.Content))
		for _, item := range node.Content {
			var lv LinkValue
			if err := item.Decode(&lv); err != nil {
				return err
			}
			if lv.list != nil {
				return fmt.Errorf("line %d: link lists cannot be nested", item.Line)
			}
			v.list = append(v.list, lv)
		}
	default:
		return fmt.Errorf("line %d: a link must be a string, a mapping or a sequence", node.Line)
	}
	v.set = true
	return nil
}

// Descriptor converts the value to a hal.LinkDescriptor. An unset value
// yields nil, which hal.Configure rejects.
func (v LinkValue) Descriptor() hal.LinkDescriptor {
	switch {
	case !v.set:
		return nil
	case v.list != nil:
		out := make(hal.Links, 0, len(v.list))
		for _, item := range v.list {
			out = append(out, item.Descriptor())
		}
		return out
	case v.link.Templated || v.link.Title != "" || v.link.Type != "" || v.link.Deprecation != "" ||
		v.link.Name != "" || v.link.Profile != "" || v.link.Hreflang != "":
		return *v.link
	default:
		return hal.Href(v.link.Href)
	}
}

// StringList is a string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = StringList{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*s = list
	return nil
}
