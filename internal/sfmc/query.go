package sfmc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Pagination bounds enforced on simple searches.
const (
	defaultPageSize = 50
	maxPageSize     = 50
)

// Query is one node of an asset query tree: either a leaf comparison
// (Property/SimpleOperator/Value) or a branch combining two subtrees with a
// logical operator. Exactly one shape is active per node.
type Query struct {
	Property       string `json:"property,omitempty"`
	SimpleOperator string `json:"simpleOperator,omitempty"`
	Value          any    `json:"value,omitempty"`

	LeftOperand     *Query `json:"leftOperand,omitempty"`
	LogicalOperator string `json:"logicalOperator,omitempty"`
	RightOperand    *Query `json:"rightOperand,omitempty"`
}

// Page carries pagination parameters, passed through verbatim to SFMC.
type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Sort is one ordering directive in a query body.
type Sort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

// QueryRequest is the JSON body of the asset query endpoint. The query tree
// is kept as raw JSON so caller-supplied trees round-trip unchanged.
type QueryRequest struct {
	Page   Page            `json:"page"`
	Query  json.RawMessage `json:"query"`
	Sort   []Sort          `json:"sort,omitempty"`
	Fields []string        `json:"fields,omitempty"`
}

// SimpleSearch is the flat search request shape: any subset of name, type
// and category, plus pagination.
type SimpleSearch struct {
	Name       string
	Type       string
	CategoryID int
	Page       int
	PageSize   int
}

// defaultSort orders results newest first, matching the search tools'
// display expectations.
func defaultSort() []Sort {
	return []Sort{{Property: "modifiedDate", Direction: "DESC"}}
}

// clampPage normalizes pagination: page at least 1, pageSize within 1..50.
func clampPage(p Page) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > maxPageSize {
		p.PageSize = defaultPageSize
	}
	return p
}

// leaf builds a single comparison node.
func leaf(property, operator string, value any) *Query {
	return &Query{Property: property, SimpleOperator: operator, Value: value}
}

// and joins two subtrees; either side may be nil.
func and(left, right *Query) *Query {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}
	return &Query{LeftOperand: left, LogicalOperator: "AND", RightOperand: right}
}

// BuildQuery translates a simple search into the query body SFMC expects:
// a contains leaf for the name, eq leaves for type and category, joined
// with AND. With no criteria at all it matches everything via an empty
// contains, which is how SFMC expresses an unfiltered listing.
func (s SimpleSearch) BuildQuery() (*QueryRequest, error) {
	var q *Query
	if s.Name != "" {
		q = and(q, leaf("name", "contains", s.Name))
	}
	if s.Type != "" {
		q = and(q, leaf("assetType.name", "eq", s.Type))
	}
	if s.CategoryID != 0 {
		q = and(q, leaf("category.id", "eq", s.CategoryID))
	}
	if q == nil {
		q = leaf("name", "contains", "")
	}

	raw, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	return &QueryRequest{
		Page:  clampPage(Page{Page: s.Page, PageSize: s.PageSize}),
		Query: raw,
		Sort:  defaultSort(),
	}, nil
}

// ParseQueryBody parses an advanced search request. The input may be a full
// query body ({page, query, sort, ...}) or a bare query tree; either way the
// tree is structurally validated before any HTTP call is made, and passed
// through verbatim on success. Pagination defaults to page 1 / size 50 when
// absent; supplied values round-trip unchanged.
func ParseQueryBody(raw []byte) (*QueryRequest, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("request must be a JSON object: %v", err)}
	}

	req := &QueryRequest{
		Page: Page{Page: 1, PageSize: defaultPageSize},
		Sort: defaultSort(),
	}

	queryRaw, hasQuery := top["query"]
	if !hasQuery {
		// Bare tree: the object itself is the query.
		if err := validateQueryTree(raw, "query"); err != nil {
			return nil, err
		}
		req.Query = json.RawMessage(raw)
		return req, nil
	}

	if err := validateQueryTree(queryRaw, "query"); err != nil {
		return nil, err
	}
	req.Query = queryRaw

	if pageRaw, ok := top["page"]; ok {
		if err := json.Unmarshal(pageRaw, &req.Page); err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("page: %v", err)}
		}
	}
	if sortRaw, ok := top["sort"]; ok {
		if err := json.Unmarshal(sortRaw, &req.Sort); err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("sort: %v", err)}
		}
	}
	if fieldsRaw, ok := top["fields"]; ok {
		if err := json.Unmarshal(fieldsRaw, &req.Fields); err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("fields: %v", err)}
		}
	}

	return req, nil
}

// validateQueryTree walks a query tree and checks each node is a well-formed
// leaf or branch. path names the failing node in error messages, e.g.
// "query.leftOperand.rightOperand".
func validateQueryTree(raw json.RawMessage, path string) error {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(raw, &node); err != nil {
		return &ValidationError{Msg: fmt.Sprintf("%s must be a JSON object: %v", path, err)}
	}

	_, hasProperty := node["property"]
	_, hasLeft := node["leftOperand"]

	switch {
	case hasProperty && hasLeft:
		return &ValidationError{Msg: fmt.Sprintf("%s mixes leaf and branch fields", path)}
	case hasProperty:
		return validateLeaf(node, path)
	case hasLeft:
		return validateBranch(node, path)
	default:
		return &ValidationError{Msg: fmt.Sprintf("%s needs either property/simpleOperator/value or leftOperand/logicalOperator/rightOperand", path)}
	}
}

func validateLeaf(node map[string]json.RawMessage, path string) error {
	if err := requireString(node, "property", path); err != nil {
		return err
	}
	if err := requireString(node, "simpleOperator", path); err != nil {
		return err
	}
	if _, ok := node["value"]; !ok {
		return &ValidationError{Msg: fmt.Sprintf("%s is missing required key %q", path, "value")}
	}
	return nil
}

func validateBranch(node map[string]json.RawMessage, path string) error {
	right, ok := node["rightOperand"]
	if !ok {
		return &ValidationError{Msg: fmt.Sprintf("%s is missing required key %q", path, "rightOperand")}
	}
	if err := requireString(node, "logicalOperator", path); err != nil {
		return err
	}

	var op string
	_ = json.Unmarshal(node["logicalOperator"], &op)
	if op != "AND" && op != "OR" {
		return &ValidationError{Msg: fmt.Sprintf("%s.logicalOperator must be AND or OR, got %s", path, strconv.Quote(op))}
	}

	if err := validateQueryTree(node["leftOperand"], path+".leftOperand"); err != nil {
		return err
	}
	return validateQueryTree(right, path+".rightOperand")
}

func requireString(node map[string]json.RawMessage, key, path string) error {
	raw, ok := node[key]
	if !ok {
		return &ValidationError{Msg: fmt.Sprintf("%s is missing required key %q", path, key)}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return &ValidationError{Msg: fmt.Sprintf("%s.%s must be a non-empty string", path, key)}
	}
	return nil
}
