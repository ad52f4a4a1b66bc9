package schedule

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// ParseCronExpr parses a 5-field cron expression or an @macro (@hourly,
// @every 4h, ...) and returns its schedule.
func ParseCronExpr(expr string) (cron.Schedule, error) {
	e := strings.TrimSpace(expr)
	if e == "" {
		return nil, fmt.Errorf("empty cron expression")
	}

	if strings.HasPrefix(e, "@") {
		return cron.ParseStandard(e)
	}

	parser5 := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser5.Parse(e)
}
