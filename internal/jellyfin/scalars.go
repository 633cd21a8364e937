package jellyfin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Scalar categories served by FetchCategory.
const (
	CategorySystem = "system"
	CategoryItems  = "items"
	CategoryLiveTV = "livetv"
	CategoryMedia  = "media"
	CategoryMisc   = "misc"
)

// ScalarCategories lists the categories FetchCategory accepts, in the order
// the scheduler polls them after the entity kinds (system is polled first).
var ScalarCategories = []string{CategoryItems, CategoryLiveTV, CategoryMedia, CategoryMisc}

// resumeListSize is how many resume items are named in items/resume/list.
const resumeListSize = 5

// named decodes only the Name of a list entry.
type named struct {
	Name string `json:"Name"`
}

// scalarFetch fills values from one endpoint.
type scalarFetch func(ctx context.Context, values map[string]string) error

// FetchCategory returns the scalar values of one category keyed by field
// path (e.g. "channels/count").
//
// Each endpoint of a category is queried independently. Values from the
// endpoints that succeeded are returned together with the joined errors of
// the ones that failed; a nil map is returned only when every endpoint
// failed.
func (c *Client) FetchCategory(ctx context.Context, category string) (map[string]string, error) {
	fetches, ok := c.scalarFetches(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	values := make(map[string]string)
	var errs []error
	for _, fetch := range fetches {
		if err := fetch(ctx, values); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == len(fetches) {
		return nil, errors.Join(errs...)
	}
	return values, errors.Join(errs...)
}

func (c *Client) scalarFetches(category string) ([]scalarFetch, bool) {
	switch category {
	case CategorySystem:
		return []scalarFetch{c.fetchSystemInfo, c.fetchActivityLog, c.fetchLogFiles}, true
	case CategoryItems:
		return []scalarFetch{c.fetchResume}, true
	case CategoryLiveTV:
		return []scalarFetch{
			c.fetchLiveTVInfo,
			c.countFetch("/LiveTv/Channels", "channels/count"),
			c.countFetch("/LiveTv/Recordings", "recordings/count"),
			c.countFetch("/LiveTv/Timers", "timers/count"),
			c.countFetch("/LiveTv/SeriesTimers", "series_timers/count"),
			c.countFetch("/LiveTv/Programs", "programs/count"),
		}, true
	case CategoryMedia:
		return []scalarFetch{
			c.countFetch("/Artists", "artists/count"),
			c.countFetch("/Artists/AlbumArtists", "album_artists/count"),
			c.countFetch("/Genres", "genres/count"),
			c.countFetch("/MusicGenres", "music_genres/count"),
			c.countFetch("/Studios", "studios/count"),
			c.countFetch("/Persons", "persons/count"),
			c.countFetch("/Shows/NextUp", "nextup/count"),
		}, true
	case CategoryMisc:
		return []scalarFetch{c.fetchDrives, c.fetchQuickConnect, c.fetchAPIKeys, c.fetchBranding}, true
	default:
		return nil, false
	}
}

// countFetch reads TotalRecordCount from a paged endpoint, asking for a
// single item.
func (c *Client) countFetch(path, field string) scalarFetch {
	return func(ctx context.Context, values map[string]string) error {
		var result queryResult[struct{}]
		if err := c.get(ctx, path, url.Values{"limit": {"1"}}, &result); err != nil {
			return err
		}
		values[field] = formatInt(int64(result.total()))
		return nil
	}
}

func (c *Client) fetchSystemInfo(ctx context.Context, values map[string]string) error {
	info, err := c.SystemInfo(ctx)
	if err != nil {
		return err
	}
	values["server_name"] = info.ServerName
	values["server_id"] = info.ID
	values["version"] = info.Version
	values["operating_system"] = info.OperatingSystem
	values["architecture"] = info.SystemArchitecture
	values["has_pending_restart"] = FormatBool(info.HasPendingRestart)
	values["has_update_available"] = FormatBool(info.HasUpdateAvailable)
	return nil
}

func (c *Client) fetchActivityLog(ctx context.Context, values map[string]string) error {
	var result queryResult[named]
	if err := c.get(ctx, "/System/ActivityLog/Entries", url.Values{"limit": {"10"}}, &result); err != nil {
		return err
	}
	values["activity_log/count"] = formatInt(int64(result.total()))
	if len(result.Items) > 0 {
		values["activity_log/latest"] = result.Items[0].Name
	}
	return nil
}

func (c *Client) fetchLogFiles(ctx context.Context, values map[string]string) error {
	var files []named
	if err := c.get(ctx, "/System/Logs", nil, &files); err != nil {
		return err
	}
	values["logs/count"] = formatInt(int64(len(files)))
	return nil
}

func (c *Client) fetchResume(ctx context.Context, values map[string]string) error {
	var result queryResult[named]
	if err := c.get(ctx, "/UserItems/Resume", url.Values{"limit": {"10"}}, &result); err != nil {
		return err
	}
	names := make([]string, 0, resumeListSize)
	for i := range result.Items {
		if i == resumeListSize {
			break
		}
		names = append(names, result.Items[i].Name)
	}
	values["resume/count"] = formatInt(int64(result.total()))
	values["resume/list"] = strings.Join(names, ", ")
	return nil
}

func (c *Client) fetchLiveTVInfo(ctx context.Context, values map[string]string) error {
	var info struct {
		IsEnabled bool       `json:"IsEnabled"`
		Services  []struct{} `json:"Services"`
	}
	if err := c.get(ctx, "/LiveTv/Info", nil, &info); err != nil {
		return err
	}
	values["enabled"] = FormatBool(info.IsEnabled)
	values["tuners/count"] = formatInt(int64(len(info.Services)))
	return nil
}

func (c *Client) fetchDrives(ctx context.Context, values map[string]string) error {
	var drives []named
	if err := c.get(ctx, "/Environment/Drives", nil, &drives); err != nil {
		return err
	}
	values["drives/count"] = formatInt(int64(len(drives)))
	return nil
}

func (c *Client) fetchQuickConnect(ctx context.Context, values map[string]string) error {
	var enabled bool
	if err := c.get(ctx, "/QuickConnect/Enabled", nil, &enabled); err != nil {
		return err
	}
	values["quick_connect/enabled"] = FormatBool(enabled)
	return nil
}

func (c *Client) fetchAPIKeys(ctx context.Context, values map[string]string) error {
	var result queryResult[struct{}]
	if err := c.get(ctx, "/Auth/Keys", nil, &result); err != nil {
		return err
	}
	values["api_keys/count"] = formatInt(int64(result.total()))
	return nil
}

func (c *Client) fetchBranding(ctx context.Context, values map[string]string) error {
	var branding struct {
		CustomCSS string `json:"CustomCss"`
	}
	if err := c.get(ctx, "/Branding/Configuration", nil, &branding); err != nil {
		return err
	}
	values["branding/css_length"] = formatInt(int64(len(branding.CustomCSS)))
	return nil
}
