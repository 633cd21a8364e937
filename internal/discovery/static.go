package discovery

import "strings"

// staticEntity is a discovery object that exists independently of any
// remote entity. Its state lives at <base>/<category>/<field>; buttons send
// Command to <base>/<category>/command.
type staticEntity struct {
	component   string
	objectID    string
	name        string
	category    string
	field       string
	command     string
	unit        string
	icon        string
	deviceClass string
}

func scalarSensor(category, field, name, icon string) staticEntity {
	return staticEntity{
		component: ComponentSensor,
		objectID:  category + "_" + slug(field),
		name:      name,
		category:  category,
		field:     field,
		icon:      icon,
	}
}

func scalarUnit(category, field, name, icon, unit string) staticEntity {
	e := scalarSensor(category, field, name, icon)
	e.unit = unit
	return e
}

func scalarBinary(category, field, name, icon string) staticEntity {
	e := scalarSensor(category, field, name, icon)
	e.component = ComponentBinarySensor
	return e
}

func categoryButton(category, command, name, icon string) staticEntity {
	return staticEntity{
		component: ComponentButton,
		objectID:  category + "_" + command,
		name:      name,
		category:  category,
		command:   command,
		icon:      icon,
	}
}

// aggregateEntities are the per-kind counts published after each reconcile.
var aggregateEntities = []staticEntity{
	scalarSensor("sessions", "count", "Sessions Total", "mdi:account-multiple"),
	scalarSensor("sessions", "playing_count", "Sessions Playing", "mdi:play-circle"),
	scalarSensor("sessions", "paused_count", "Sessions Paused", "mdi:pause-circle"),
	scalarSensor("sessions", "idle_count", "Sessions Idle", "mdi:account-clock"),
	scalarSensor("sessions", "transcoding_count", "Sessions Transcoding", "mdi:cog-sync"),
	scalarBinary("sessions", "any_playing", "Any Playing", "mdi:play-circle"),
	scalarBinary("sessions", "any_transcoding", "Any Transcoding", "mdi:cog-sync"),
	scalarSensor("users", "count", "Users Total", "mdi:account-group"),
	scalarSensor("users", "online_count", "Users Online", "mdi:account-check"),
	scalarSensor("tasks", "count", "Tasks Total", "mdi:calendar-check"),
	scalarSensor("tasks", "running_count", "Tasks Running", "mdi:run"),
	scalarSensor("plugins", "count", "Plugins Total", "mdi:puzzle"),
	scalarSensor("plugins", "enabled_count", "Plugins Enabled", "mdi:puzzle-check"),
	scalarSensor("library", "count", "Libraries", "mdi:bookshelf"),
	scalarSensor("devices", "count", "Devices", "mdi:devices"),
	scalarSensor("playlists", "count", "Playlists", "mdi:playlist-music"),
	scalarSensor("syncplay", "count", "SyncPlay Groups", "mdi:account-group"),
}

// scalarEntities are the values of the scalar content categories.
var scalarEntities = []staticEntity{
	scalarSensor("system", "server_name", "Server Name", "mdi:server"),
	scalarSensor("system", "server_id", "Server ID", "mdi:identifier"),
	scalarSensor("system", "version", "Version", "mdi:tag"),
	scalarSensor("system", "operating_system", "Operating System", "mdi:linux"),
	scalarSensor("system", "architecture", "Architecture", "mdi:chip"),
	scalarBinary("system", "has_pending_restart", "Pending Restart", "mdi:restart-alert"),
	scalarBinary("system", "has_update_available", "Update Available", "mdi:update"),
	scalarSensor("system", "activity_log/count", "Activity Log Count", "mdi:history"),
	scalarSensor("system", "activity_log/latest", "Latest Activity", "mdi:history"),
	scalarSensor("system", "logs/count", "Log Files", "mdi:file-document"),

	scalarSensor("items", "resume/count", "Resume Count", "mdi:play-pause"),
	scalarSensor("items", "resume/list", "Resume List", "mdi:format-list-bulleted"),

	scalarBinary("livetv", "enabled", "Live TV Enabled", "mdi:television"),
	scalarSensor("livetv", "tuners/count", "Tuners", "mdi:antenna"),
	scalarSensor("livetv", "channels/count", "Channels", "mdi:television-guide"),
	scalarSensor("livetv", "recordings/count", "Recordings", "mdi:record-rec"),
	scalarSensor("livetv", "timers/count", "Timers", "mdi:timer"),
	scalarSensor("livetv", "series_timers/count", "Series Timers", "mdi:timer-sync"),
	scalarSensor("livetv", "programs/count", "Programs", "mdi:calendar"),

	scalarSensor("media", "artists/count", "Artists", "mdi:account-music"),
	scalarSensor("media", "album_artists/count", "Album Artists", "mdi:account-music"),
	scalarSensor("media", "genres/count", "Genres", "mdi:tag-multiple"),
	scalarSensor("media", "music_genres/count", "Music Genres", "mdi:music"),
	scalarSensor("media", "studios/count", "Studios", "mdi:domain"),
	scalarSensor("media", "persons/count", "Persons", "mdi:account-box-multiple"),
	scalarSensor("media", "nextup/count", "Next Up", "mdi:skip-next-circle"),

	scalarSensor("misc", "drives/count", "Drives", "mdi:harddisk"),
	scalarBinary("misc", "quick_connect/enabled", "Quick Connect", "mdi:qrcode"),
	scalarSensor("misc", "api_keys/count", "API Keys", "mdi:key"),
	scalarSensor("misc", "branding/css_length", "Custom CSS Length", "mdi:language-css3"),
}

// hardwareEntities are the always-on GPU and container values.
var hardwareEntities = []staticEntity{
	scalarSensor("gpu", "name", "GPU Name", "mdi:expansion-card"),
	scalarSensor("gpu", "driver", "GPU Driver", "mdi:tag"),
	scalarUnit("gpu", "temperature", "GPU Temperature", "mdi:thermometer", "°C"),
	scalarUnit("gpu", "utilization", "GPU Utilization", "mdi:gauge", "%"),
	scalarUnit("gpu", "memory_total", "GPU Memory Total", "mdi:memory", "MB"),
	scalarUnit("gpu", "memory_used", "GPU Memory Used", "mdi:memory", "MB"),
	scalarUnit("gpu", "memory_free", "GPU Memory Free", "mdi:memory", "MB"),
	scalarUnit("gpu", "memory_percent", "GPU Memory", "mdi:memory", "%"),
	scalarUnit("gpu", "encoder", "GPU Encoder", "mdi:video-input-component", "%"),
	scalarUnit("gpu", "decoder", "GPU Decoder", "mdi:video-input-component", "%"),
	scalarUnit("gpu", "power", "GPU Power", "mdi:flash", "W"),
	scalarUnit("gpu", "fan", "GPU Fan", "mdi:fan", "%"),

	scalarUnit("container", "memory_used", "Container Memory Used", "mdi:memory", "MB"),
	scalarUnit("container", "memory_limit", "Container Memory Limit", "mdi:memory", "MB"),
	scalarUnit("container", "memory_percent", "Container Memory", "mdi:memory", "%"),
	scalarUnit("container", "cpu_seconds", "Container CPU Time", "mdi:cpu-64-bit", "s"),
	scalarUnit("container", "network_rx", "Container Network RX", "mdi:download-network", "MB"),
	scalarUnit("container", "network_tx", "Container Network TX", "mdi:upload-network", "MB"),
}

// bridgeEntities describe the bridge itself.
var bridgeEntities = []staticEntity{
	scalarSensor("bridge", "registered_entities", "Registered Entities", "mdi:counter"),
	scalarSensor("bridge", "last_poll", "Last Poll", "mdi:clock-check"),
	scalarUnit("bridge", "poll_duration", "Poll Duration", "mdi:timer", "ms"),
	scalarSensor("bridge", "dropped_commands", "Dropped Commands", "mdi:message-alert"),
}

// buttonEntities are the category-global buttons.
var buttonEntities = []staticEntity{
	categoryButton("system", "restart", "Restart Server", "mdi:restart"),
	categoryButton("system", "shutdown", "Shutdown Server", "mdi:power"),
	categoryButton("library", "scan", "Scan Library", "mdi:magnify-scan"),
	categoryButton("tasks", "RefreshLibrary", "Run Library Scan Task", "mdi:refresh"),
	categoryButton("tasks", "DeleteCache", "Run Clean Cache Task", "mdi:delete-sweep"),
	categoryButton("syncplay", "leave", "SyncPlay Leave", "mdi:account-minus"),
	categoryButton("syncplay", "pause", "SyncPlay Pause", "mdi:pause"),
	categoryButton("syncplay", "unpause", "SyncPlay Unpause", "mdi:play"),
	categoryButton("syncplay", "stop", "SyncPlay Stop", "mdi:stop"),
}

func slug(field string) string {
	return strings.ReplaceAll(field, "/", "_")
}
