package commands

import (
	"fmt"
	"strings"
)

// CLI 출력 포맷 (모든 커맨드 공통)

const separatorWidth = 59

// JobMetadata is the header of a manual CLI run
type JobMetadata struct {
	JobType   string
	Tag       string
	Timestamp string
	Symbols   string // optional
}

// PrintJobHeader prints the banner of a manual run
func PrintJobHeader(meta JobMetadata) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", meta.JobType)
	PrintSeparator()
	if meta.Symbols != "" {
		fmt.Printf("  Symbols   : %s\n", meta.Symbols)
		PrintSeparator()
	}
	fmt.Printf("[%s] Manual run triggered at %s\n", meta.Tag, meta.Timestamp)
}

// PrintProgress prints one step, e.g. "[Refresh] 2330.TW: 12 metrics [1/8]"
func PrintProgress(tag, message string, current, total int) {
	fmt.Printf("[%s] %s [%d/%d]\n", tag, message, current, total)
}

// PrintJobCompletion prints the success count and elapsed seconds
func PrintJobCompletion(succeeded, total int, seconds float64) {
	fmt.Printf("\n✅ %d/%d completed in %.2fs\n", succeeded, total, seconds)
}

func PrintSeparator()       { fmt.Println(strings.Repeat("─", separatorWidth)) }
func PrintDoubleSeparator() { fmt.Println(strings.Repeat("═", separatorWidth)) }

func printStatus(icon, message string) { fmt.Printf("%s %s\n", icon, message) }

func PrintSuccess(message string) { printStatus("✅", message) }
func PrintError(message string)   { printStatus("❌", message) }
func PrintWarning(message string) { printStatus("⚠️ ", message) }
func PrintInfo(message string)    { printStatus("ℹ️ ", message) }

// PrintTableHeader prints the column titles and an underline of the table width
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)
	fmt.Println(strings.Repeat("─", tableWidth(widths)))
}

// PrintTableRow prints values left-aligned to widths, two spaces apart
func PrintTableRow(values []string, widths []int) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = fmt.Sprintf("%-*s", widths[i], v)
	}
	fmt.Println(strings.TrimRight(strings.Join(cells, "  "), " "))
}

func tableWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w
	}
	if len(widths) > 1 {
		total += 2 * (len(widths) - 1)
	}
	return total
}

// PrintKeyValue prints an indented "key : value" line
func PrintKeyValue(key, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}
