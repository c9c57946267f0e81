// submit_plan.go — standalone script to read the audit universe from CSV
// files and submit an optimizer run via the planner API.
//
// The data directory holds entities.csv plus parameters.csv, and optionally
// one CSV per enrichment source named by its source key, e.g.
// part_2a_paras.csv or arrears_audit.csv. Column headers are passed through
// untouched; the service resolves them.
//
// Usage:
//
//	go run scripts/submit_plan.go -data ./data -api http://localhost:8700 -mandays 1000
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var sourceKeys = []string{
	"avg_nonstaff", "avg_total", "part_2a_paras", "arrears_audit",
	"special_point_press", "dc_bills", "uc_bills", "css",
}

type planRequest struct {
	BaseRows      []map[string]any            `json:"base_rows"`
	Sources       map[string][]map[string]any `json:"sources,omitempty"`
	Parameters    []map[string]any            `json:"parameters"`
	GlobalMandays float64                     `json:"global_mandays"`
	TierPolicy    string                      `json:"tier_policy,omitempty"`
}

func main() {
	dataDir := flag.String("data", "", "directory with entities.csv, parameters.csv and optional source CSVs")
	apiURL := flag.String("api", "http://localhost:8700", "planner API base URL")
	mandays := flag.Float64("mandays", 0, "global manday budget")
	policy := flag.String("policy", "", "tier policy (fixed or quantile, empty for server default)")
	scoreOnly := flag.Bool("score-only", false, "score and classify without selecting")
	flag.Parse()

	if *dataDir == "" {
		log.Fatal("-data is required")
	}

	base, err := readCSV(filepath.Join(*dataDir, "entities.csv"))
	if err != nil {
		log.Fatalf("read entities: %v", err)
	}

	req := planRequest{
		BaseRows:      base,
		Sources:       map[string][]map[string]any{},
		GlobalMandays: *mandays,
		TierPolicy:    *policy,
	}

	params, err := readCSV(filepath.Join(*dataDir, "parameters.csv"))
	if err == nil {
		req.Parameters = convertParameters(params)
	} else if !os.IsNotExist(err) {
		log.Fatalf("read parameters: %v", err)
	}

	for _, key := range sourceKeys {
		rows, err := readCSV(filepath.Join(*dataDir, key+".csv"))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			log.Fatalf("read source %s: %v", key, err)
		}
		req.Sources[key] = rows
		fmt.Printf("source %s: %d rows\n", key, len(rows))
	}

	endpoint := *apiURL + "/api/v1/plan"
	if *scoreOnly {
		endpoint = *apiURL + "/api/v1/score"
	}

	body, _ := json.Marshal(req)
	resp, err := http.Post(endpoint, "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Fatalf("submit: %v", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("submit: %s: %s", resp.Status, out)
	}

	var res struct {
		RunID    string `json:"run_id"`
		Warnings []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"warnings"`
		Report struct {
			TotalEntities      int     `json:"total_entities"`
			SelectedCount      int     `json:"selected_count"`
			MandaysAllocated   float64 `json:"mandays_allocated"`
			MandaysUsed        float64 `json:"mandays_used"`
			OverallUtilization float64 `json:"overall_utilization_pct"`
		} `json:"report"`
	}
	if err := json.Unmarshal(out, &res); err != nil {
		log.Fatalf("decode response: %v", err)
	}

	fmt.Printf("run %s: %d entities, %d selected, %.0f/%.0f mandays (%.2f%%)\n",
		res.RunID, res.Report.TotalEntities, res.Report.SelectedCount,
		res.Report.MandaysUsed, res.Report.MandaysAllocated, res.Report.OverallUtilization)
	for _, w := range res.Warnings {
		fmt.Printf("warning [%s]: %s\n", w.Code, w.Message)
	}
}

// readCSV loads a CSV file as row maps keyed by the header line. Cells are
// kept as strings; the service coerces numbers itself.
func readCSV(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(header))
		for i, cell := range record {
			if i < len(header) {
				row[header[i]] = cell
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// convertParameters maps the parameter CSV's human headers onto the API's
// field names, parsing numerics along the way.
func convertParameters(rows []map[string]any) []map[string]any {
	fields := map[string]string{
		"department":  "department",
		"percentage":  "percentage",
		"high days":   "high_days",
		"medium days": "medium_days",
		"low days":    "low_days",
		"high pct":    "high_pct",
		"med pct":     "med_pct",
		"low pct":     "low_pct",
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		p := map[string]any{}
		for col, v := range row {
			field, ok := fields[strings.ToLower(strings.TrimSpace(col))]
			if !ok {
				continue
			}
			s := fmt.Sprint(v)
			if field == "department" {
				p[field] = s
				continue
			}
			if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				p[field] = n
			}
		}
		out = append(out, p)
	}
	return out
}
