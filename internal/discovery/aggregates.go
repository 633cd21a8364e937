package discovery

import (
	"strconv"

	"github.com/nerrad567/jellyfin-mqtt/internal/entity"
)

// Aggregates computes the category-level counts for one kind from a
// successful snapshot. Values are keyed by field under <base>/<category>/.
func Aggregates(kind entity.Kind, items []entity.Item) map[string]string {
	out := map[string]string{"count": itoa(len(items))}

	switch kind {
	case entity.KindSession:
		var playing, paused, idle, transcoding int
		for _, item := range items {
			switch item.State["state"] {
			case "playing":
				playing++
				if item.State["is_transcoding"] == "true" {
					transcoding++
				}
			case "paused":
				paused++
			default:
				idle++
			}
		}
		out["playing_count"] = itoa(playing)
		out["paused_count"] = itoa(paused)
		out["idle_count"] = itoa(idle)
		out["transcoding_count"] = itoa(transcoding)
		out["any_playing"] = strconv.FormatBool(playing > 0)
		out["any_transcoding"] = strconv.FormatBool(transcoding > 0)

	case entity.KindUser:
		out["online_count"] = itoa(countTrue(items, "online"))

	case entity.KindTask:
		out["running_count"] = itoa(countTrue(items, "running"))

	case entity.KindPlugin:
		out["enabled_count"] = itoa(countTrue(items, "enabled"))
	}

	return out
}

func countTrue(items []entity.Item, field string) int {
	n := 0
	for _, item := range items {
		if item.State[field] == "true" {
			n++
		}
	}
	return n
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
