// Package console provides terminal formatting helpers and JSON export for
// the example programs and the DCA bot report.
package console

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
	"github.com/logrusorgru/aurora"
)

// FormatPrice renders a price with a precision suited to its magnitude.
// Large prices get two decimals, sub-unit prices keep more digits.
func FormatPrice(price float64) string {
	switch {
	case price >= 1000:
		return fmt.Sprintf("$%.2f", price)
	case price >= 1:
		return fmt.Sprintf("$%.4f", price)
	default:
		return fmt.Sprintf("$%.8f", price)
	}
}

// FormatVolume renders a volume with a K/M/B suffix.
func FormatVolume(volume float64) string {
	switch {
	case volume >= 1e9:
		return fmt.Sprintf("%.2fB", volume/1e9)
	case volume >= 1e6:
		return fmt.Sprintf("%.2fM", volume/1e6)
	case volume >= 1e3:
		return fmt.Sprintf("%.2fK", volume/1e3)
	default:
		return fmt.Sprintf("%.2f", volume)
	}
}

// FormatPercent renders a signed percentage, green for gains and red for
// losses.
func FormatPercent(pct float64) string {
	s := fmt.Sprintf("%+.2f%%", pct)
	if pct >= 0 {
		return aurora.Green(s).String()
	}
	return aurora.Red(s).String()
}

// FormatDecimal renders an apd.Decimal for display.
func FormatDecimal(d *apd.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.Text('f')
}

// Header prints a bold section header with an underline.
func Header(title string) {
	fmt.Println(aurora.Bold(title))
	for i := 0; i < len(title); i++ {
		fmt.Print("-")
	}
	fmt.Println()
}

// WriteJSON marshals v with indentation and writes it to path.
func WriteJSON(path string, v any) error {
	data, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
