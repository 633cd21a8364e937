package jellyfin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Operation names a remote control action.
type Operation string

// Supported operations.
const (
	// OpPlaystate sends a playstate command (Name) to a session.
	// Args["seek_ticks"] is passed as seekPositionTicks when present.
	OpPlaystate Operation = "playstate"

	// OpGeneralCommand sends a general command (Name) to a session with
	// Args as its arguments.
	OpGeneralCommand Operation = "general_command"

	// OpMessage displays Args["text"] on a session.
	OpMessage Operation = "message"

	OpTaskStart      Operation = "task_start"
	OpTaskStop       Operation = "task_stop"
	OpTaskStartByKey Operation = "task_start_by_key"

	OpLibraryRefresh Operation = "library_refresh"
	OpItemRefresh    Operation = "item_refresh"

	OpPluginEnable  Operation = "plugin_enable"
	OpPluginDisable Operation = "plugin_disable"

	OpSyncPlayJoin    Operation = "syncplay_join"
	OpSyncPlayLeave   Operation = "syncplay_leave"
	OpSyncPlayPause   Operation = "syncplay_pause"
	OpSyncPlayUnpause Operation = "syncplay_unpause"
	OpSyncPlayStop    Operation = "syncplay_stop"

	OpSystemRestart  Operation = "system_restart"
	OpSystemShutdown Operation = "system_shutdown"
)

// Argument keys used in Action.Args.
const (
	ArgSeekTicks = "seek_ticks"
	ArgText      = "text"
	ArgVolume    = "Volume"
)

// messageHeader and messageTimeout are used for DisplayMessage.
const (
	messageHeader  = "Home Assistant"
	messageTimeout = 5000
)

// Action is one remote control call.
//
// TargetID is the full id of the session, task, item, plugin or group the
// action applies to; it is empty for server-wide operations. Name carries
// the playstate or general command name, or the task key for
// OpTaskStartByKey.
type Action struct {
	Op       Operation
	TargetID string
	Name     string
	Args     map[string]string
}

// String renders the action for logs.
func (a Action) String() string {
	s := string(a.Op)
	if a.Name != "" {
		s += ":" + a.Name
	}
	if a.TargetID != "" {
		s += "@" + a.TargetID
	}
	return s
}

// targeted lists the operations that require TargetID.
var targeted = map[Operation]bool{
	OpPlaystate:      true,
	OpGeneralCommand: true,
	OpMessage:        true,
	OpTaskStart:      true,
	OpTaskStop:       true,
	OpItemRefresh:    true,
	OpPluginEnable:   true,
	OpPluginDisable:  true,
	OpSyncPlayJoin:   true,
}

// Act performs a single control action. It never retries.
func (c *Client) Act(ctx context.Context, a Action) error {
	if targeted[a.Op] && a.TargetID == "" {
		return fmt.Errorf("%w: %s requires a target id", ErrInvalidAction, a.Op)
	}
	target := url.PathEscape(a.TargetID)

	switch a.Op {
	case OpPlaystate:
		if a.Name == "" {
			return fmt.Errorf("%w: playstate command name missing", ErrInvalidAction)
		}
		var query url.Values
		if ticks, ok := a.Args[ArgSeekTicks]; ok {
			query = url.Values{"seekPositionTicks": {ticks}}
		}
		return c.post(ctx, "/Sessions/"+target+"/Playing/"+url.PathEscape(a.Name), query, nil)

	case OpGeneralCommand:
		if a.Name == "" {
			return fmt.Errorf("%w: general command name missing", ErrInvalidAction)
		}
		body := generalCommand{Name: a.Name, Arguments: a.Args}
		return c.post(ctx, "/Sessions/"+target+"/Command", nil, body)

	case OpMessage:
		body := messageCommand{Header: messageHeader, Text: a.Args[ArgText], TimeoutMs: messageTimeout}
		return c.post(ctx, "/Sessions/"+target+"/Message", nil, body)

	case OpTaskStart:
		return c.post(ctx, "/ScheduledTasks/Running/"+target, nil, nil)

	case OpTaskStop:
		return c.do(ctx, http.MethodDelete, "/ScheduledTasks/Running/"+target, nil, nil, nil)

	case OpTaskStartByKey:
		return c.startTaskByKey(ctx, a.Name)

	case OpLibraryRefresh:
		return c.post(ctx, "/Library/Refresh", nil, nil)

	case OpItemRefresh:
		query := url.Values{"Recursive": {"true"}}
		return c.post(ctx, "/Items/"+target+"/Refresh", query, nil)

	case OpPluginEnable, OpPluginDisable:
		return c.setPluginEnabled(ctx, a.TargetID, a.Op == OpPluginEnable)

	case OpSyncPlayJoin:
		return c.post(ctx, "/SyncPlay/Join", nil, syncPlayJoin{GroupID: a.TargetID})

	case OpSyncPlayLeave:
		return c.post(ctx, "/SyncPlay/Leave", nil, nil)
	case OpSyncPlayPause:
		return c.post(ctx, "/SyncPlay/Pause", nil, nil)
	case OpSyncPlayUnpause:
		return c.post(ctx, "/SyncPlay/Unpause", nil, nil)
	case OpSyncPlayStop:
		return c.post(ctx, "/SyncPlay/Stop", nil, nil)

	case OpSystemRestart:
		return c.post(ctx, "/System/Restart", nil, nil)
	case OpSystemShutdown:
		return c.post(ctx, "/System/Shutdown", nil, nil)

	default:
		return fmt.Errorf("%w: unsupported operation %q", ErrInvalidAction, a.Op)
	}
}

type generalCommand struct {
	Name      string            `json:"Name"`
	Arguments map[string]string `json:"Arguments,omitempty"`
}

type messageCommand struct {
	Header    string `json:"Header"`
	Text      string `json:"Text"`
	TimeoutMs int    `json:"TimeoutMs"`
}

type syncPlayJoin struct {
	GroupID string `json:"GroupId"`
}

// startTaskByKey starts the scheduled task whose Key matches key.
func (c *Client) startTaskByKey(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: task key missing", ErrInvalidAction)
	}
	tasks, err := c.scheduledTasks(ctx)
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].Key == key {
			return c.post(ctx, "/ScheduledTasks/Running/"+url.PathEscape(tasks[i].ID), nil, nil)
		}
	}
	return fmt.Errorf("%w: task key %q", ErrNotFound, key)
}

// setPluginEnabled looks up the installed version of the plugin, which the
// enable and disable endpoints require.
func (c *Client) setPluginEnabled(ctx context.Context, id string, enable bool) error {
	plugins, err := c.plugins(ctx)
	if err != nil {
		return err
	}
	for i := range plugins {
		if plugins[i].ID != id {
			continue
		}
		verb := "Disable"
		if enable {
			verb = "Enable"
		}
		path := "/Plugins/" + url.PathEscape(id) + "/" + url.PathEscape(plugins[i].Version) + "/" + verb
		return c.post(ctx, path, nil, nil)
	}
	return fmt.Errorf("%w: plugin %q", ErrNotFound, id)
}

// SeekTicks converts whole seconds to a seek_ticks argument value.
func SeekTicks(seconds int64) string {
	return strconv.FormatInt(seconds*TicksPerSecond, 10)
}
