// Package merge joins the base audit universe with up to eight optional
// enrichment tables on the entity key, producing entities with explicit
// nullable metric fields. Absence is represented, never inferred.
package merge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/auditops/planner/internal/plan"
)

// Canonical enrichment source keys. Each optional source contributes exactly
// one metric; a missing source leaves its metric nil on every entity.
const (
	SourceNonStaff      = "avg_nonstaff"
	SourceTotalExp      = "avg_total"
	SourceParas         = "part_2a_paras"
	SourceArrears       = "arrears_audit"
	SourceSpecialPoints = "special_point_press"
	SourceDCBills       = "dc_bills"
	SourceUCBills       = "uc_bills"
	SourceCSS           = "css"
)

// SourceUsage reports how one enrichment source matched against the base
// table.
type SourceUsage struct {
	Key     string `json:"key"`
	Rows    int    `json:"rows"`
	Matched int    `json:"matched"`
}

type aggMode int

const (
	aggMean aggMode = iota // average of the resolved columns, skipping blanks
	aggSum                 // sum of the resolved columns, blanks as zero
	aggFlag                // yes/no flag mapped to 1/0
)

type sourceSpec struct {
	key string
	// columns holds candidate-name groups; each group resolves to at most
	// one concrete column in the source table.
	columns [][]string
	agg     aggMode
	set     func(e *plan.Entity, v float64)
}

var sourceSpecs = []sourceSpec{
	{
		key: SourceNonStaff,
		columns: [][]string{
			{"Non Staff Expenditure 2022-23"},
			{"Non Staff Expenditure 2023-24"},
			{"Non Staff Expenditure 2024-25"},
		},
		agg: aggMean,
		set: func(e *plan.Entity, v float64) { e.NonStaffExpenditure = &v },
	},
	{
		key: SourceTotalExp,
		columns: [][]string{
			{"Total Expenditure 2022-23"},
			{"Total Expenditure 2023-24"},
			{"Total Expenditure 2024-25"},
		},
		agg: aggMean,
		set: func(e *plan.Entity, v float64) { e.TotalExpenditure = &v },
	},
	{
		key: SourceParas,
		columns: [][]string{
			{"Part IIA Para 2022-23"},
			{"Part IIA Para 2023-24"},
			{"Part IIA Para 2024-25"},
		},
		agg: aggSum,
		set: func(e *plan.Entity, v float64) { e.ParaCount = &v },
	},
	{
		key:     SourceArrears,
		columns: [][]string{{"Arrear of Audit", "Arrears of Audit"}},
		agg:     aggMean,
		set:     func(e *plan.Entity, v float64) { e.ArrearYears = &v },
	},
	{
		key: SourceSpecialPoints,
		columns: [][]string{
			{"SP", "Special Points"},
			{"PC", "Press Clippings", "Press Clippings/ Special Points"},
		},
		agg: aggSum,
		set: func(e *plan.Entity, v float64) { e.SpecialPoints = &v },
	},
	{
		key:     SourceDCBills,
		columns: [][]string{{"DC Bill Value", "DC Bills", "Money Value"}},
		agg:     aggMean,
		set:     func(e *plan.Entity, v float64) { e.DCBillValue = &v },
	},
	{
		key:     SourceUCBills,
		columns: [][]string{{"UC Bill Value", "UC Bills", "Money Value"}},
		agg:     aggMean,
		set:     func(e *plan.Entity, v float64) { e.UCBillValue = &v },
	},
	{
		key:     SourceCSS,
		columns: [][]string{{"Centrally sponsored scheme", "CSS"}},
		agg:     aggFlag,
		set:     func(e *plan.Entity, v float64) { e.CSSFlag = &v },
	},
}

var (
	baseCodeCols    = []string{"OIOS Code", "Audit entity ID"}
	baseNameCols    = []string{"Name of Auditable Audit", "Name of Audit Entity", "Name of audit entity"}
	baseSlNoCols    = []string{"Sl No.", "Sl No", "S No", "sNo"}
	baseClassCols   = []string{"Default classification", "Classification"}
	baseAuditedCols = []string{"Last Audited", "Last Audited upto"}

	sourceIDCols   = []string{"Audit entity ID", "OIOS Code"}
	sourceNameCols = []string{"Name of audit entity", "Name of Audit Entity", "Name of Auditable Audit"}
)

// Merge builds the wide entity table from the base rows and whichever
// optional sources are present. Enrichment rows join on the entity id first
// and fall back to the entity name. Base rows without an entity key are
// dropped.
func Merge(base []plan.Row, sources map[string][]plan.Row) ([]*plan.Entity, []SourceUsage, []plan.Warning) {
	var warnings []plan.Warning

	entities := make([]*plan.Entity, 0, len(base))
	byCode := make(map[string]*plan.Entity, len(base))
	byName := make(map[string]*plan.Entity, len(base))

	baseCols := collectColumns(base)
	codeCol := resolveColumn(baseCols, baseCodeCols)
	nameCol := resolveColumn(baseCols, baseNameCols)

	for _, row := range base {
		code := cleanKey(lookup(row, codeCol))
		if code == "" {
			continue
		}
		e := &plan.Entity{
			Code:           code,
			SlNo:           asString(lookup(row, resolveColumn(baseCols, baseSlNoCols))),
			Name:           asString(lookup(row, nameCol)),
			Department:     asString(lookup(row, resolveColumn(baseCols, []string{"Department"}))),
			Section:        asString(lookup(row, resolveColumn(baseCols, []string{"Section"}))),
			Classification: asString(lookup(row, resolveColumn(baseCols, baseClassCols))),
			LastAudited:    asString(lookup(row, resolveColumn(baseCols, baseAuditedCols))),
		}
		entities = append(entities, e)
		byCode[code] = e
		if name := cleanKey(e.Name); name != "" {
			byName[name] = e
		}
	}

	var usages []SourceUsage
	for _, spec := range sourceSpecs {
		rows, ok := sources[spec.key]
		if !ok {
			continue
		}
		usage, warn := applySource(spec, rows, byCode, byName)
		usages = append(usages, usage)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
	}

	return entities, usages, warnings
}

func applySource(spec sourceSpec, rows []plan.Row, byCode, byName map[string]*plan.Entity) (SourceUsage, *plan.Warning) {
	usage := SourceUsage{Key: spec.key, Rows: len(rows)}

	cols := collectColumns(rows)
	idCol := resolveColumn(cols, sourceIDCols)
	nameCol := resolveColumn(cols, sourceNameCols)

	var valueCols []string
	for _, group := range spec.columns {
		if c := resolveColumn(cols, group); c != "" {
			valueCols = append(valueCols, c)
		}
	}
	if len(valueCols) == 0 {
		return usage, &plan.Warning{
			Code:    plan.WarnSourceColumn,
			Message: fmt.Sprintf("source %s: no value column found", spec.key),
		}
	}

	for _, row := range rows {
		e := byCode[cleanKey(lookup(row, idCol))]
		if e == nil {
			e = byName[cleanKey(lookup(row, nameCol))]
		}
		if e == nil {
			continue
		}
		if v, ok := aggregate(spec.agg, row, valueCols); ok {
			spec.set(e, v)
			usage.Matched++
		}
	}
	return usage, nil
}

func aggregate(mode aggMode, row plan.Row, cols []string) (float64, bool) {
	switch mode {
	case aggFlag:
		s := strings.ToLower(strings.TrimSpace(asString(lookup(row, cols[0]))))
		switch s {
		case "yes", "y", "true", "1":
			return 1, true
		case "no", "n", "false", "0":
			return 0, true
		}
		return 0, false
	case aggSum:
		var sum float64
		var any bool
		for _, c := range cols {
			if v, ok := toNum(lookup(row, c)); ok {
				sum += v
				any = true
			}
		}
		return sum, any
	default: // aggMean
		var sum float64
		var n int
		for _, c := range cols {
			if v, ok := toNum(lookup(row, c)); ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			return 0, false
		}
		return sum / float64(n), true
	}
}

// collectColumns unions the keys of every row: rows parsed from ragged
// tables may not all carry the same columns.
func collectColumns(rows []plan.Row) map[string]string {
	cols := make(map[string]string)
	for _, row := range rows {
		for k := range row {
			cols[normColumn(k)] = k
		}
	}
	return cols
}

// resolveColumn picks the first candidate present in the table, matching
// case- and spacing-insensitively.
func resolveColumn(cols map[string]string, candidates []string) string {
	for _, cand := range candidates {
		if real, ok := cols[normColumn(cand)]; ok {
			return real
		}
	}
	return ""
}

func normColumn(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func lookup(row plan.Row, col string) any {
	if col == "" {
		return nil
	}
	return row[col]
}

// cleanKey normalizes a join key: trimmed, uppercased, with empty-ish
// placeholder strings treated as absent.
func cleanKey(v any) string {
	s := strings.TrimSpace(asString(v))
	switch strings.ToLower(s) {
	case "", "nan", "none", "null":
		return ""
	}
	return strings.ToUpper(s)
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// toNum coerces a cell to a number. Blanks and "Not Available" markers are
// absent, not zero.
func toNum(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		switch strings.ToLower(s) {
		case "", "not available", "na", "n/a", "nan", "none":
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
