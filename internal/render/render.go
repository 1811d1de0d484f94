// internal/render/render.go
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"nutriscan/internal/models"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, yaml or text)", s)
	}
}

func structured(w io.Writer, v interface{}, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q is not structured", f)
}

// Scored writes a scored product. The text form mirrors the detail view: the
// category, then one row per nutrient reading.
func Scored(w io.Writer, sp *models.ScoredProduct, f Format) error {
	if f != FormatText {
		return structured(w, sp, f)
	}

	fmt.Fprintf(w, "%s (%s)\n", sp.ProductName, sp.ProductID)
	fmt.Fprintf(w, "Category: %s  Score: %d  Additive penalty: %d\n\n", sp.Category, sp.Score, sp.AdditivePenalty)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NUTRIENT\tPER 100G\tSERVING\tLEVEL\t")
	for _, r := range sp.Readings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", r.Key, r.Per100g, r.Serving, r.Level)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nPositives: %s\n", joinKeys(sp.Positives))
	fmt.Fprintf(w, "Negatives: %s\n", joinKeys(sp.Negatives))
	return nil
}

// Favorites writes the favorite ids in list order.
func Favorites(w io.Writer, ids []string, f Format) error {
	if f != FormatText {
		return structured(w, map[string][]string{"favorites": ids}, f)
	}
	if len(ids) == 0 {
		_, err := fmt.Fprintln(w, "No favorites yet.")
		return err
	}
	for _, id := range ids {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return err
		}
	}
	return nil
}

func Scans(w io.Writer, scans []*models.ScanEntry, f Format) error {
	if f != FormatText {
		return structured(w, scans, f)
	}
	if len(scans) == 0 {
		_, err := fmt.Fprintln(w, "No scans recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "SCANNED AT\tPRODUCT\tNAME\tSCORE\tCATEGORY\t")
	for _, s := range scans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t\n", s.ScannedAt.Local().Format(time.DateTime), s.ProductID, s.ProductName, s.Score, s.Category)
	}
	return tw.Flush()
}

func joinKeys(keys []models.NutrientKey) string {
	if len(keys) == 0 {
		return "-"
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
