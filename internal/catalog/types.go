package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Artwork is one entry of the catalog. Immutable after load.
type Artwork struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Year        Year    `json:"year" yaml:"year"`
	Technique   string  `json:"technique" yaml:"technique"`
	Dimensions  string  `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Description string  `json:"description" yaml:"description"`
	Image       string  `json:"image" yaml:"image"`
	Alt         string  `json:"alt,omitempty" yaml:"alt,omitempty"`
	Tags        TagList `json:"tags" yaml:"tags"`
}

// HasTag reports whether the artwork carries exactly tag (case-sensitive).
func (a Artwork) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Year holds the creation year as written in the catalog. Authoring tools
// emit it either as a number or as a string ("c. 1890").
type Year string

func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*y = Year(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*y = Year(n.String())
	return nil
}

func (y *Year) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		*y = ""
		return nil
	}
	*y = Year(node.Value)
	return nil
}

func (y Year) String() string { return string(y) }

// Int returns the numeric year when the value is a plain integer.
func (y Year) Int() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(y)))
	return n, err == nil
}

// TagList tolerates a missing, null, or non-array tags field by decoding it
// as no tags. Non-string elements of an array are dropped.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*t = nil
		return nil
	}
	tags := make(TagList, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			continue
		}
		tags = append(tags, s)
	}
	*t = tags
	return nil
}

func (t *TagList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		*t = nil
		return nil
	}
	tags := make(TagList, 0, len(node.Content))
	for _, n := range node.Content {
		if n.Kind != yaml.ScalarNode || n.Tag != "!!str" {
			continue
		}
		tags = append(tags, n.Value)
	}
	*t = tags
	return nil
}

// document is the on-disk catalog shape.
type document struct {
	Artworks []Artwork `json:"artworks" yaml:"artworks"`
}
