// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for mardi-search.
// Raw bindings come from the knowledge graph collaborator; result records
// are what the ranker hands back to the agent layer.
package types

// RawBinding is one row of a MaRDI SPARQL result before cleaning.
// Every field is optional; nil means the variable was unbound.
type RawBinding struct {
	// Label is the formula entity's display name (?formulaLabel).
	Label *string `json:"label,omitempty" yaml:"label,omitempty"`

	// MathExpression is the MathML string with an embedded TeX annotation (?mathExpression).
	MathExpression *string `json:"math_expression,omitempty" yaml:"math_expression,omitempty"`

	// Description is the English schema:description, if any.
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`

	// Formula is the entity URL of the formula (?formula).
	Formula *string `json:"formula,omitempty" yaml:"formula,omitempty"`
}

// ValueOr returns *p, or fallback when p is nil.
func ValueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

// FormulaType classifies a cleaned TeX snippet.
type FormulaType string

const (
	TypeDefinition FormulaType = "definition/identity"
	TypeCondition  FormulaType = "condition/bound"
)

// ResultRecord is a cleaned, classified formula ready for the agent.
// Field order matters: it is the JSON field order of the search output.
type ResultRecord struct {
	ID          string      `json:"id" yaml:"id"`
	TeX         string      `json:"tex" yaml:"tex"`
	Description string      `json:"description" yaml:"description"`
	Link        string      `json:"link" yaml:"link"`
	Type        FormulaType `json:"type" yaml:"type"`
}

// Entity is the result of resolving a free-text concept to a MaRDI item.
type Entity struct {
	// ID is the item identifier, e.g. "Q56103".
	ID string `json:"id" yaml:"id"`

	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// ConceptURI is the full entity URL returned by wbsearchentities.
	ConceptURI string `json:"concept_uri,omitempty" yaml:"concept_uri,omitempty"`
}
