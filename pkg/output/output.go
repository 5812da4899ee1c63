package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/chronically/chronically/pkg/config"
	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Writer receives everything this package prints.
var Writer io.Writer = color.Output

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatText  OutputFormat = "text"
)

// GetOutputFormat returns the configured output format
func GetOutputFormat() OutputFormat {
	switch config.GetString("output.format") {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatTable
	}
}

// ValidateOutputFormat checks if format is valid
func ValidateOutputFormat(format string) bool {
	return format == "json" || format == "table" || format == "text"
}

// Table is a list rendered as rows in table and text formats.
type Table struct {
	Headers []string
	Rows    [][]string
}

// PrintList outputs raw as JSON, or t as a table or text blocks.
func PrintList(raw interface{}, t Table) error {
	switch GetOutputFormat() {
	case FormatJSON:
		return printJSON(raw)
	case FormatText:
		printBlocks(t)
		return nil
	default:
		printTable(t)
		return nil
	}
}

// Print outputs any value: JSON for json, pretty JSON under a title otherwise.
func Print(title string, data interface{}) error {
	if GetOutputFormat() == FormatJSON {
		return printJSON(data)
	}
	if title != "" {
		color.New(color.Bold).Fprintf(Writer, "%s:\n", title)
	}
	return printJSON(data)
}

// PrintRecord outputs a single record with keys in sorted order
func PrintRecord(title string, record map[string]interface{}) error {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	switch GetOutputFormat() {
	case FormatJSON:
		return printJSON(record)
	case FormatTable:
		t := Table{Headers: []string{"Field", "Value"}}
		for _, k := range keys {
			t.Rows = append(t.Rows, []string{k, fmt.Sprintf("%v", record[k])})
		}
		printTable(t)
		return nil
	default:
		if title != "" {
			fmt.Fprintf(Writer, "%s:\n", title)
		}
		bold := color.New(color.Bold)
		for _, k := range keys {
			bold.Fprint(Writer, k+": ")
			fmt.Fprintf(Writer, "%v\n", record[k])
		}
		return nil
	}
}

// PrintSuccess prints a success message
func PrintSuccess(msg string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(Writer, msg+"\n", args...)
}

// PrintError prints an error message
func PrintError(msg string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(Writer, "Error: "+msg+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(msg string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(Writer, msg+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(Writer, "Warning: "+msg+"\n", args...)
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max <= 1 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

func printJSON(data interface{}) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(Writer, string(b))
	return err
}

func printBlocks(t Table) {
	bold := color.New(color.Bold)
	for i, row := range t.Rows {
		if i > 0 {
			fmt.Fprintln(Writer)
		}
		for j, cell := range row {
			if j < len(t.Headers) {
				bold.Fprint(Writer, t.Headers[j]+": ")
			}
			fmt.Fprintln(Writer, cell)
		}
	}
}

func printTable(t Table) {
	w := tabwriter.NewWriter(Writer, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)

	for i, h := range t.Headers {
		bold.Fprint(w, h)
		if i < len(t.Headers)-1 {
			fmt.Fprint(w, "\t")
		}
	}
	fmt.Fprintln(w)

	for _, row := range t.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
}

// FormatAsJSON converts data to a compact JSON string
func FormatAsJSON(data interface{}) (string, error) {
	return json.MarshalToString(data)
}
