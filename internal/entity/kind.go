package entity

// Kind identifies a class of remote entity.
type Kind string

// Entity kinds.
const (
	KindSession   Kind = "session"
	KindUser      Kind = "user"
	KindDevice    Kind = "device"
	KindTask      Kind = "task"
	KindPlugin    Kind = "plugin"
	KindLibrary   Kind = "library"
	KindPlaylist  Kind = "playlist"
	KindSyncGroup Kind = "syncgroup"
)

// ReconcileOrder is the fixed order in which kinds are reconciled within a
// tick. User online status depends on the Session snapshot, so Session must
// come first.
var ReconcileOrder = []Kind{
	KindSession,
	KindUser,
	KindLibrary,
	KindTask,
	KindDevice,
	KindPlugin,
	KindPlaylist,
	KindSyncGroup,
}

var kindCategories = map[Kind]string{
	KindSession:   "sessions",
	KindUser:      "users",
	KindDevice:    "devices",
	KindTask:      "tasks",
	KindPlugin:    "plugins",
	KindLibrary:   "library",
	KindPlaylist:  "playlists",
	KindSyncGroup: "syncplay",
}

// Category returns the topic segment and gate key for k, or "" for an
// unknown kind.
func (k Kind) Category() string {
	return kindCategories[k]
}

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	_, ok := kindCategories[k]
	return ok
}

// String returns the kind slug.
func (k Kind) String() string {
	return string(k)
}

// KindForCategory returns the kind published under category.
// The zero Kind is returned for categories that carry no entities.
func KindForCategory(category string) Kind {
	for k, c := range kindCategories {
		if c == category {
			return k
		}
	}
	return ""
}
