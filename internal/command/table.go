package command

import (
	"github.com/nerrad567/jellyfin-mqtt/internal/jellyfin"
)

// scope is the topic shape a command arrived on.
type scope int

const (
	scopeGlobal scope = iota
	scopeEntity
	scopeField
)

func (s scope) String() string {
	switch s {
	case scopeGlobal:
		return "global"
	case scopeEntity:
		return "entity"
	case scopeField:
		return "field"
	default:
		return "unknown"
	}
}

// argKind is how a command's argument is taken and validated.
type argKind int

const (
	argNone argKind = iota
	argSeconds
	argVolume
	argText
	argTaskKey
)

// binding is one command table entry.
type binding struct {
	op   jellyfin.Operation
	name string
	arg  argKind
}

type tableKey struct {
	category string
	scope    scope
	keyword  string
}

// anyKeyword matches every keyword of a (category, scope) pair.
const anyKeyword = "*"

// An entity command "seek:<seconds>" carries its argument after the colon.
const (
	seekKeyword = "seek"
	seekPrefix  = seekKeyword + ":"
)

var table = map[tableKey]binding{
	// Session playstate.
	{"sessions", scopeEntity, "play"}:          {op: jellyfin.OpPlaystate, name: "Unpause"},
	{"sessions", scopeEntity, "pause"}:         {op: jellyfin.OpPlaystate, name: "Pause"},
	{"sessions", scopeEntity, "stop"}:          {op: jellyfin.OpPlaystate, name: "Stop"},
	{"sessions", scopeEntity, "playpause"}:     {op: jellyfin.OpPlaystate, name: "PlayPause"},
	{"sessions", scopeEntity, "next"}:          {op: jellyfin.OpPlaystate, name: "NextTrack"},
	{"sessions", scopeEntity, "previous"}:      {op: jellyfin.OpPlaystate, name: "PreviousTrack"},
	{"sessions", scopeEntity, "seek_forward"}:  {op: jellyfin.OpPlaystate, name: "FastForward"},
	{"sessions", scopeEntity, "seek_backward"}: {op: jellyfin.OpPlaystate, name: "Rewind"},
	{"sessions", scopeEntity, seekKeyword}:     {op: jellyfin.OpPlaystate, name: "Seek", arg: argSeconds},

	// Session general commands.
	{"sessions", scopeEntity, "mute"}:        {op: jellyfin.OpGeneralCommand, name: "Mute"},
	{"sessions", scopeEntity, "unmute"}:      {op: jellyfin.OpGeneralCommand, name: "Unmute"},
	{"sessions", scopeEntity, "toggle_mute"}: {op: jellyfin.OpGeneralCommand, name: "ToggleMute"},
	{"sessions", scopeEntity, "volume_up"}:   {op: jellyfin.OpGeneralCommand, name: "VolumeUp"},
	{"sessions", scopeEntity, "volume_down"}: {op: jellyfin.OpGeneralCommand, name: "VolumeDown"},

	// Session settable values.
	{"sessions", scopeField, "volume"}:  {op: jellyfin.OpGeneralCommand, name: "SetVolume", arg: argVolume},
	{"sessions", scopeField, "seek"}:    {op: jellyfin.OpPlaystate, name: "Seek", arg: argSeconds},
	{"sessions", scopeField, "message"}: {op: jellyfin.OpMessage, arg: argText},

	{"tasks", scopeEntity, "start"}:     {op: jellyfin.OpTaskStart},
	{"tasks", scopeEntity, "stop"}:      {op: jellyfin.OpTaskStop},
	{"tasks", scopeGlobal, anyKeyword}:  {op: jellyfin.OpTaskStartByKey, arg: argTaskKey},
	{"library", scopeGlobal, "scan"}:    {op: jellyfin.OpLibraryRefresh},
	{"library", scopeGlobal, "refresh"}: {op: jellyfin.OpLibraryRefresh},
	{"library", scopeEntity, "refresh"}: {op: jellyfin.OpItemRefresh},

	{"playlists", scopeEntity, "refresh"}: {op: jellyfin.OpItemRefresh},

	{"plugins", scopeEntity, "enable"}:  {op: jellyfin.OpPluginEnable},
	{"plugins", scopeEntity, "disable"}: {op: jellyfin.OpPluginDisable},

	{"syncplay", scopeEntity, "join"}:    {op: jellyfin.OpSyncPlayJoin},
	{"syncplay", scopeGlobal, "leave"}:   {op: jellyfin.OpSyncPlayLeave},
	{"syncplay", scopeGlobal, "pause"}:   {op: jellyfin.OpSyncPlayPause},
	{"syncplay", scopeGlobal, "unpause"}: {op: jellyfin.OpSyncPlayUnpause},
	{"syncplay", scopeGlobal, "stop"}:    {op: jellyfin.OpSyncPlayStop},

	{"system", scopeGlobal, "restart"}:  {op: jellyfin.OpSystemRestart},
	{"system", scopeGlobal, "shutdown"}: {op: jellyfin.OpSystemShutdown},
}

// lookup finds the binding for a keyword, falling back to the category's
// wildcard entry.
func lookup(category string, s scope, keyword string) (binding, bool) {
	if b, ok := table[tableKey{category, s, keyword}]; ok {
		return b, true
	}
	b, ok := table[tableKey{category, s, anyKeyword}]
	return b, ok
}
