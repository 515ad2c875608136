package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cheese-market/internal/api/dto"
	apperrors "github.com/spec-kit/cheese-market/pkg/util"
)

// Canonical column order for tabular formats. Views carry unordered maps, so
// CSV and HTML output follows this order for whichever fields are present.
var listingFieldOrder = []string{
	"id", "title", "shortDescription", "description", "price",
	"createdAtAgo", "owner", "isPublished",
}

var listingTableTemplate = template.Must(template.New("listings").Parse(`<!DOCTYPE html>
<html>
<body>
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

// renderListings writes the views in the negotiated format. JSON is the
// default; CSV and HTML are selected via the Accept header. The meta block is
// emitted for collections only (nil for single resources).
func renderListings(c *fiber.Ctx, status int, views []map[string]any, meta *dto.CollectionMeta) error {
	// Offer CSV as a full MIME type: Fiber resolves the bare "csv" extension
	// through the OS mime table, which may include parameters (e.g.
	// "text/csv; charset=utf-8") that break its exact-match negotiation.
	switch c.Accepts("json", "text/csv", "html") {
	case "text/csv":
		body, err := listingsToCSV(views)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		c.Type("csv")
		return c.Status(status).SendString(body)
	case "html":
		body, err := listingsToHTML(views)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		c.Type("html")
		return c.Status(status).SendString(body)
	default:
		if meta != nil {
			return c.Status(status).JSON(fiber.Map{"data": views, "meta": meta})
		}
		if len(views) == 1 {
			return c.Status(status).JSON(fiber.Map{"data": views[0]})
		}
		return c.Status(status).JSON(fiber.Map{"data": views})
	}
}

func presentColumns(views []map[string]any) []string {
	columns := make([]string, 0, len(listingFieldOrder))
	for _, field := range listingFieldOrder {
		for _, view := range views {
			if _, ok := view[field]; ok {
				columns = append(columns, field)
				break
			}
		}
	}
	return columns
}

func listingsToCSV(views []map[string]any) (string, error) {
	columns := presentColumns(views)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return "", err
	}
	for _, view := range views {
		record := make([]string, len(columns))
		for i, col := range columns {
			if val, ok := view[col]; ok {
				record[i] = fmt.Sprint(val)
			}
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func listingsToHTML(views []map[string]any) (string, error) {
	columns := presentColumns(views)
	rows := make([][]string, 0, len(views))
	for _, view := range views {
		row := make([]string, len(columns))
		for i, col := range columns {
			if val, ok := view[col]; ok {
				row[i] = fmt.Sprint(val)
			}
		}
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	err := listingTableTemplate.Execute(&buf, struct {
		Columns []string
		Rows    [][]string
	}{Columns: columns, Rows: rows})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
