// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package tap

import (
	"fmt"
	"regexp"
	"strings"
)

// Only identifiers matching these patterns ever reach a query string, so
// the generated ADQL cannot be escaped by crafted parameters.
var (
	compoundTableRegex = regexp.MustCompile(`^([a-zA-Z0-9_]+\.)?[a-zA-Z0-9_.]+$`)
	identifierRegex    = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	foreignColumnRegex = regexp.MustCompile(`^([a-zA-Z0-9_]+\.){1,2}[a-zA-Z0-9_]+$`)
)

// Band is an abstract filter band restricting the scope of a query.
type Band string

const BandAll Band = "all"

var validBands = map[Band]bool{
	BandAll: true,
	"u":     true,
	"g":     true,
	"r":     true,
	"i":     true,
	"z":     true,
	"y":     true,
}

// Detail selects how many of a table's columns a query returns.
type Detail string

const (
	DetailMinimal   Detail = "minimal"
	DetailPrincipal Detail = "principal"
	DetailFull      Detail = "full"
)

var validDetails = map[Detail]bool{
	DetailMinimal:   true,
	DetailPrincipal: true,
	DetailFull:      true,
}

type coneSearchRequest struct {
	table  string
	raCol  string
	decCol string
	raVal  float64
	decVal float64
	radius float64
}

type timeseriesRequest struct {
	id             int64
	table          string
	idColumn       string
	bandColumn     string
	band           Band
	detail         Detail
	joinTimeColumn string
}

func buildConeSearchQuery(request *coneSearchRequest) string {
	return fmt.Sprintf(
		"SELECT * FROM %s WHERE CONTAINS(POINT('ICRS',%s,%s),CIRCLE('ICRS',%v,%v,%v))=1",
		request.table, request.raCol, request.decCol,
		request.raVal, request.decVal, request.radius)
}

func buildTimeseriesQuery(request *timeseriesRequest, metadata Metadata) string {
	columns := columnsFor(request.table, request.detail, metadata)

	var adql string
	if request.joinTimeColumn != "" {
		// Normalized time series tables don't carry their own time
		// column and need a join on ccdVisitId.
		joinTable, timeColumn := splitForeignColumn(request.joinTimeColumn)
		adql = fmt.Sprintf(
			"SELECT t.%s,%s FROM %s AS s JOIN %s AS t ON s.ccdVisitId = t.ccdVisitId",
			timeColumn, columns, request.table, joinTable)
	} else {
		adql = fmt.Sprintf("SELECT %s FROM %s AS s", columns, request.table)
	}

	adql += fmt.Sprintf(" WHERE s.%s = %d", request.idColumn, request.id)
	if request.band != BandAll {
		adql += fmt.Sprintf(" AND s.%s = '%s'", request.bandColumn, request.band)
	}
	return adql
}

// columnsFor resolves the SQL column expression for a detail level. Tables
// without a matching column set fall back to all columns.
func columnsFor(table string, detail Detail, metadata Metadata) string {
	tag := ""
	switch detail {
	case DetailMinimal:
		tag = minimalTag
	case DetailPrincipal:
		tag = principalTag
	default:
		return "s.*"
	}

	columns := metadata[table][tag]
	if len(columns) == 0 {
		return "s.*"
	}
	qualified := make([]string, 0, len(columns))
	for _, column := range columns {
		qualified = append(qualified, "s."+column)
	}
	return strings.Join(qualified, ",")
}

func splitForeignColumn(foreignColumn string) (table, column string) {
	i := strings.LastIndex(foreignColumn, ".")
	return foreignColumn[:i], foreignColumn[i+1:]
}
