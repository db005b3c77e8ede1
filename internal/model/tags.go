package model

// Tags describes what the examples, features and values of a dataset are.
type Tags struct {
	Example string `json:"example"`
	Feature string `json:"feature"`
	Type    string `json:"type"`
	Value   string `json:"value"`
	Item    string `json:"item"`
}

// DefaultTags are the tags of a dataset that does not specify any.
var DefaultTags = Tags{
	Example: "example",
	Feature: "feature",
	Type:    "value",
	Value:   "value",
	Item:    "item",
}

// Kind is the role of a dataset in relation to its split.
type Kind string

const (
	Full Kind = "full"
)

func (k Kind) String() string {
	return string(k)
}
