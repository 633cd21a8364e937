package jellyfin

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nerrad567/jellyfin-mqtt/internal/entity"
)

// List fetches the current snapshot of one entity kind.
//
// A call either returns every item or an error; partial results are never
// returned. A successful Session list also records which users are online,
// which the following User list uses.
func (c *Client) List(ctx context.Context, kind entity.Kind) ([]entity.Item, error) {
	switch kind {
	case entity.KindSession:
		return c.listSessions(ctx)
	case entity.KindUser:
		return c.listUsers(ctx)
	case entity.KindLibrary:
		return c.listLibraries(ctx)
	case entity.KindTask:
		return c.listTasks(ctx)
	case entity.KindDevice:
		return c.listDevices(ctx)
	case entity.KindPlugin:
		return c.listPlugins(ctx)
	case entity.KindPlaylist:
		return c.listPlaylists(ctx)
	case entity.KindSyncGroup:
		return c.listSyncGroups(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (c *Client) listSessions(ctx context.Context) ([]entity.Item, error) {
	var sessions []session
	if err := c.get(ctx, "/Sessions", nil, &sessions); err != nil {
		return nil, err
	}

	users := make(map[string]struct{})
	items := make([]entity.Item, 0, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		s.normalize()
		if s.UserID != "" {
			users[s.UserID] = struct{}{}
		}
		items = append(items, s.item())
	}
	c.rememberSessionUsers(users)
	return items, nil
}

func (c *Client) listUsers(ctx context.Context) ([]entity.Item, error) {
	var users []user
	if err := c.get(ctx, "/Users", nil, &users); err != nil {
		return nil, err
	}

	items := make([]entity.Item, 0, len(users))
	for i := range users {
		u := &users[i]
		u.normalize()
		items = append(items, u.item(c.userOnline(u.ID)))
	}
	return items, nil
}

func (c *Client) listLibraries(ctx context.Context) ([]entity.Item, error) {
	var folders []virtualFolder
	if err := c.get(ctx, "/Library/VirtualFolders", nil, &folders); err != nil {
		return nil, err
	}

	items := make([]entity.Item, 0, len(folders))
	for i := range folders {
		folders[i].normalize()
		items = append(items, folders[i].item())
	}
	return items, nil
}

func (c *Client) listTasks(ctx context.Context) ([]entity.Item, error) {
	tasks, err := c.scheduledTasks(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]entity.Item, 0, len(tasks))
	for i := range tasks {
		items = append(items, tasks[i].item())
	}
	return items, nil
}

// scheduledTasks returns the normalized, visible scheduled tasks.
func (c *Client) scheduledTasks(ctx context.Context) ([]scheduledTask, error) {
	var tasks []scheduledTask
	query := url.Values{"isHidden": {"false"}}
	if err := c.get(ctx, "/ScheduledTasks", query, &tasks); err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].normalize()
	}
	return tasks, nil
}

func (c *Client) listDevices(ctx context.Context) ([]entity.Item, error) {
	var result queryResult[device]
	if err := c.get(ctx, "/Devices", nil, &result); err != nil {
		return nil, err
	}

	items := make([]entity.Item, 0, len(result.Items))
	for i := range result.Items {
		result.Items[i].normalize()
		items = append(items, result.Items[i].item())
	}
	return items, nil
}

func (c *Client) listPlugins(ctx context.Context) ([]entity.Item, error) {
	plugins, err := c.plugins(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]entity.Item, 0, len(plugins))
	for i := range plugins {
		items = append(items, plugins[i].item())
	}
	return items, nil
}

func (c *Client) plugins(ctx context.Context) ([]plugin, error) {
	var plugins []plugin
	if err := c.get(ctx, "/Plugins", nil, &plugins); err != nil {
		return nil, err
	}
	for i := range plugins {
		plugins[i].normalize()
	}
	return plugins, nil
}

func (c *Client) listPlaylists(ctx context.Context) ([]entity.Item, error) {
	var result queryResult[playlist]
	query := url.Values{
		"IncludeItemTypes": {"Playlist"},
		"Recursive":        {"true"},
		"Fields":           {"ChildCount"},
	}
	if err := c.get(ctx, "/Items", query, &result); err != nil {
		return nil, err
	}

	items := make([]entity.Item, 0, len(result.Items))
	for i := range result.Items {
		result.Items[i].normalize()
		items = append(items, result.Items[i].item())
	}
	return items, nil
}

func (c *Client) listSyncGroups(ctx context.Context) ([]entity.Item, error) {
	var groups []syncGroup
	if err := c.get(ctx, "/SyncPlay/List", nil, &groups); err != nil {
		return nil, err
	}

	items := make([]entity.Item, 0, len(groups))
	for i := range groups {
		groups[i].normalize()
		items = append(items, groups[i].item())
	}
	return items, nil
}
