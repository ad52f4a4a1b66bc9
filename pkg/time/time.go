package time

import (
	"time"
)

func AddMinutes(minute uint, utc bool) time.Time {
	now := time.Now()
	if utc {
		now = now.UTC()
	}
	return now.Add(time.Minute * time.Duration(minute))
}
