package commands

import "fmt"

func fmtRatio(n, total int) string {
	return fmt.Sprintf("%d / %d", n, total)
}

func fmtPercent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
