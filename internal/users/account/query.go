// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/url"
	"strings"

	"github.com/taibuivan/userdir/internal/platform/validate"
	"github.com/taibuivan/userdir/pkg/convert"
	"github.com/taibuivan/userdir/pkg/pagination"
)

// # Query Descriptor

// SortOrder is the direction of the listing sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DefaultSortField is used when the request names no sort field.
const DefaultSortField = FieldCreatedAt

// sortableFields is the allow-list of API field names accepted by sortBy.
var sortableFields = []string{
	FieldUsername, FieldEmail, FieldDateOfBirth, FieldCity,
	FieldOccupation, FieldCreatedAt, FieldUpdatedAt,
}

// Criteria is the typed filter applied to user records. Empty fields match everything.
type Criteria struct {
	// UsernameContains is a case-insensitive substring match on username.
	UsernameContains string
	// Occupation is an exact match.
	Occupation string
	// City is an exact match.
	City string
}

// Query is the descriptor handed to [Repository.Paginate].
type Query struct {
	Criteria Criteria
	Page     pagination.Params
	SortBy   string
	Order    SortOrder
}

// ListParams are the raw listing inputs after query-string validation.
type ListParams struct {
	Page       int
	Limit      int
	SortBy     string
	Order      string
	Search     string
	Occupation string
	City       string
}

// FilterParams are the inputs of the average-age calculator.
type FilterParams struct {
	Occupation string
	City       string
}

// # Query Builder

// BuildQuery translates listing inputs into a [Query].
//
// # Defaults
//   - page/limit: non-positive values become 1/10, limit is capped at 100
//   - sortBy: unknown or empty becomes createdAt
//   - order: anything but "desc" sorts ascending
func BuildQuery(params ListParams) Query {
	sortBy := params.SortBy
	if !isSortable(sortBy) {
		sortBy = DefaultSortField
	}

	order := SortAsc
	if strings.EqualFold(params.Order, string(SortDesc)) {
		order = SortDesc
	}

	return Query{
		Criteria: Criteria{
			UsernameContains: strings.TrimSpace(params.Search),
			Occupation:       strings.TrimSpace(params.Occupation),
			City:             strings.TrimSpace(params.City),
		},
		Page:   pagination.NewParams(params.Page, params.Limit),
		SortBy: sortBy,
		Order:  order,
	}
}

// BuildCriteria translates average-age filters into [Criteria].
func BuildCriteria(params FilterParams) Criteria {
	return Criteria{
		Occupation: strings.TrimSpace(params.Occupation),
		City:       strings.TrimSpace(params.City),
	}
}

// ParseListParams validates the listing query string. Malformed values are a
// BadRequest; absent values are left for [BuildQuery] to default.
func ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		SortBy:     values.Get("sortBy"),
		Order:      strings.ToLower(values.Get("order")),
		Search:     values.Get("search"),
		Occupation: values.Get(FieldOccupation),
		City:       values.Get(FieldCity),
	}

	validator := validate.ForQuery()
	validator.
		Int("page", values.Get("page")).
		Int("limit", values.Get("limit")).
		OneOf("sortBy", params.SortBy, sortableFields...).
		OneOf("order", params.Order, string(SortAsc), string(SortDesc))

	if err := validator.Err(); err != nil {
		return ListParams{}, err
	}

	params.Page = convert.ToIntD(values.Get("page"), pagination.DefaultPage)
	params.Limit = convert.ToIntD(values.Get("limit"), pagination.DefaultLimit)
	return params, nil
}

func isSortable(field string) bool {
	for _, candidate := range sortableFields {
		if candidate == field {
			return true
		}
	}
	return false
}
