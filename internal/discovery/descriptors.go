package discovery

import (
	"strings"

	"github.com/nerrad567/jellyfin-mqtt/internal/entity"
)

// Descriptor defines one discovery object of an entity.
//
// Field names the state value the object reads, relative to the entity's
// topic. Command is the payload a button sends to the entity command
// topic. SetField names the settable value a number or text writes to.
type Descriptor struct {
	Component string
	Suffix    string
	Name      string
	Field     string
	Command   string
	SetField  string
	Min       float64
	Max       float64
	Step      float64
	Unit      string
	Icon      string
}

// ObjectSuffix returns the suffix used in the object id.
func (d Descriptor) ObjectSuffix() string {
	if d.Suffix != "" {
		return d.Suffix
	}
	if d.Field != "" {
		return strings.ReplaceAll(d.Field, "/", "_")
	}
	return d.Command
}

func sensor(field, name, icon string) Descriptor {
	return Descriptor{Component: ComponentSensor, Field: field, Name: name, Icon: icon}
}

func sensorUnit(field, name, icon, unit string) Descriptor {
	d := sensor(field, name, icon)
	d.Unit = unit
	return d
}

func binary(field, name, icon string) Descriptor {
	return Descriptor{Component: ComponentBinarySensor, Field: field, Name: name, Icon: icon}
}

func button(command, name, icon string) Descriptor {
	return Descriptor{Component: ComponentButton, Command: command, Name: name, Icon: icon}
}

// Descriptors lists the discovery objects announced for each kind.
var Descriptors = map[entity.Kind][]Descriptor{
	entity.KindSession: {
		sensor("state", "State", "mdi:play-circle"),
		sensor("user", "User", "mdi:account"),
		sensor("client", "Client", "mdi:application"),
		sensor("device", "Device", "mdi:devices"),
		sensor("media/title", "Now Playing", "mdi:filmstrip"),
		sensor("media/type", "Media Type", "mdi:tag"),
		sensor("media/series", "Series", "mdi:television-classic"),
		sensorUnit("progress", "Progress", "mdi:percent", "%"),
		sensor("position", "Position", "mdi:timer-outline"),
		sensor("duration", "Duration", "mdi:timer"),
		sensorUnit("volume", "Volume Level", "mdi:volume-high", "%"),
		sensor("play_method", "Play Method", "mdi:play-network"),
		sensor("transcode/video_codec", "Transcode Video Codec", "mdi:video"),
		sensor("transcode/hw_type", "HW Accel Type", "mdi:expansion-card"),
		binary("is_paused", "Is Paused", "mdi:pause"),
		binary("is_muted", "Is Muted", "mdi:volume-mute"),
		binary("is_active", "Is Active", "mdi:account-check"),
		binary("is_transcoding", "Is Transcoding", "mdi:cog-sync"),
		button("play", "Play", "mdi:play"),
		button("pause", "Pause", "mdi:pause"),
		button("playpause", "Play/Pause", "mdi:play-pause"),
		button("stop", "Stop", "mdi:stop"),
		button("next", "Next Track", "mdi:skip-next"),
		button("previous", "Previous Track", "mdi:skip-previous"),
		button("seek_forward", "Seek Forward", "mdi:fast-forward"),
		button("seek_backward", "Seek Backward", "mdi:rewind"),
		button("mute", "Mute", "mdi:volume-mute"),
		button("unmute", "Unmute", "mdi:volume-high"),
		button("toggle_mute", "Toggle Mute", "mdi:volume-off"),
		button("volume_up", "Volume Up", "mdi:volume-plus"),
		button("volume_down", "Volume Down", "mdi:volume-minus"),
		{
			Component: ComponentNumber, Suffix: "volume_set", Name: "Volume",
			Field: "volume", SetField: "volume", Min: 0, Max: 100, Step: 1,
			Unit: "%", Icon: "mdi:volume-high",
		},
		{
			Component: ComponentNumber, Suffix: "seek_position", Name: "Seek Position",
			Field: "position_seconds", SetField: "seek", Min: 0, Max: 86400, Step: 1,
			Unit: "s", Icon: "mdi:timer",
		},
		{
			Component: ComponentText, Suffix: "message", Name: "Send Message",
			SetField: "message", Icon: "mdi:message-text",
		},
	},
	entity.KindUser: {
		sensor("name", "Name", "mdi:account"),
		binary("online", "Online", "mdi:account-check"),
		binary("is_admin", "Is Admin", "mdi:shield-account"),
		binary("is_disabled", "Is Disabled", "mdi:account-off"),
		sensor("last_activity", "Last Activity", "mdi:clock"),
	},
	entity.KindLibrary: {
		sensor("name", "Name", "mdi:folder"),
		sensor("type", "Type", "mdi:tag"),
		sensor("location_count", "Locations", "mdi:folder-multiple"),
		button("refresh", "Refresh", "mdi:refresh"),
	},
	entity.KindTask: {
		sensor("name", "Name", "mdi:calendar-check"),
		sensor("state", "State", "mdi:state-machine"),
		binary("running", "Running", "mdi:run"),
		sensorUnit("progress", "Progress", "mdi:percent", "%"),
		sensor("last_status", "Last Result", "mdi:check-circle"),
		sensor("last_run", "Last Run", "mdi:clock"),
		button("start", "Start", "mdi:play"),
		button("stop", "Stop", "mdi:stop"),
	},
	entity.KindDevice: {
		sensor("name", "Name", "mdi:devices"),
		sensor("app", "App", "mdi:application"),
		sensor("app_version", "App Version", "mdi:tag"),
		sensor("last_user", "Last User", "mdi:account"),
		sensor("last_activity", "Last Activity", "mdi:clock"),
	},
	entity.KindPlugin: {
		sensor("name", "Name", "mdi:puzzle"),
		sensor("version", "Version", "mdi:tag"),
		sensor("status", "Status", "mdi:information"),
		binary("enabled", "Enabled", "mdi:puzzle-check"),
		button("enable", "Enable", "mdi:toggle-switch"),
		button("disable", "Disable", "mdi:toggle-switch-off"),
	},
	entity.KindPlaylist: {
		sensor("name", "Name", "mdi:playlist-music"),
		sensor("child_count", "Items", "mdi:counter"),
		sensor("media_type", "Media Type", "mdi:tag"),
		button("refresh", "Refresh", "mdi:refresh"),
	},
	entity.KindSyncGroup: {
		sensor("name", "Name", "mdi:account-group"),
		sensor("state", "State", "mdi:sync"),
		sensor("participant_count", "Participants", "mdi:account-multiple"),
		sensor("participants", "Participant Names", "mdi:format-list-bulleted"),
		button("join", "Join", "mdi:account-plus"),
	},
}

// ObjectID returns the discovery object id of one descriptor of an entity.
func ObjectID(kind entity.Kind, id string, d Descriptor) string {
	return string(kind) + "_" + entity.ShortID(id) + "_" + d.ObjectSuffix()
}
