package jellyfin

import (
	"strings"

	"github.com/nerrad567/jellyfin-mqtt/internal/entity"
)

// Defaults applied when the server omits a field.
const (
	unknownName       = "Unknown"
	defaultCollection = "mixed"
	defaultTaskState  = "Idle"
)

// SystemInfo is the subset of /System/Info the bridge uses.
type SystemInfo struct {
	ServerName         string `json:"ServerName"`
	ID                 string `json:"Id"`
	Version            string `json:"Version"`
	OperatingSystem    string `json:"OperatingSystem"`
	SystemArchitecture string `json:"SystemArchitecture"`
	HasPendingRestart  bool   `json:"HasPendingRestart"`
	HasUpdateAvailable bool   `json:"HasUpdateAvailable"`
}

func (s *SystemInfo) normalize() {
	if s.ServerName == "" {
		s.ServerName = "Jellyfin"
	}
}

// queryResult is the paged envelope used by most list endpoints.
type queryResult[T any] struct {
	Items            []T `json:"Items"`
	TotalRecordCount int `json:"TotalRecordCount"`
}

// total prefers the server's record count and falls back to the page size.
func (q queryResult[T]) total() int {
	if q.TotalRecordCount > 0 {
		return q.TotalRecordCount
	}
	return len(q.Items)
}

// =============================================================================
// Sessions
// =============================================================================

type session struct {
	ID                    string          `json:"Id"`
	UserID                string          `json:"UserId"`
	UserName              string          `json:"UserName"`
	Client                string          `json:"Client"`
	DeviceName            string          `json:"DeviceName"`
	DeviceID              string          `json:"DeviceId"`
	DeviceType            string          `json:"DeviceType"`
	ApplicationVersion    string          `json:"ApplicationVersion"`
	IsActive              bool            `json:"IsActive"`
	SupportsRemoteControl bool            `json:"SupportsRemoteControl"`
	NowPlayingItem        *nowPlaying     `json:"NowPlayingItem"`
	PlayState             playState       `json:"PlayState"`
	TranscodingInfo       *transcodeState `json:"TranscodingInfo"`
}

type nowPlaying struct {
	Name         string `json:"Name"`
	Type         string `json:"Type"`
	SeriesName   string `json:"SeriesName"`
	RunTimeTicks int64  `json:"RunTimeTicks"`
}

type playState struct {
	PositionTicks int64  `json:"PositionTicks"`
	IsPaused      bool   `json:"IsPaused"`
	IsMuted       bool   `json:"IsMuted"`
	VolumeLevel   *int   `json:"VolumeLevel"`
	PlayMethod    string `json:"PlayMethod"`
}

type transcodeState struct {
	VideoCodec               string  `json:"VideoCodec"`
	AudioCodec               string  `json:"AudioCodec"`
	Bitrate                  int64   `json:"Bitrate"`
	CompletionPercentage     float64 `json:"CompletionPercentage"`
	HardwareAccelerationType string  `json:"HardwareAccelerationType"`
}

// Session states published on <session>/state.
const (
	SessionPlaying = "playing"
	SessionPaused  = "paused"
	SessionIdle    = "idle"
)

func (s *session) normalize() {
	if s.DeviceName == "" {
		s.DeviceName = unknownName
	}
	if s.UserName == "" {
		s.UserName = unknownName
	}
	if s.PlayState.VolumeLevel == nil {
		zero := 0
		s.PlayState.VolumeLevel = &zero
	}
}

func (s *session) state() string {
	switch {
	case s.NowPlayingItem == nil:
		return SessionIdle
	case s.PlayState.IsPaused:
		return SessionPaused
	default:
		return SessionPlaying
	}
}

func (s *session) item() entity.Item {
	state := s.state()
	var title, mediaType, series string
	var duration int64
	if s.NowPlayingItem != nil {
		title = s.NowPlayingItem.Name
		mediaType = s.NowPlayingItem.Type
		series = s.NowPlayingItem.SeriesName
		duration = s.NowPlayingItem.RunTimeTicks
	}
	position := s.PlayState.PositionTicks

	var progress float64
	if duration > 0 {
		progress = float64(position) / float64(duration) * 100
	}

	transcoding := s.TranscodingInfo != nil
	var videoCodec, audioCodec, hwAccel string
	if transcoding {
		videoCodec = s.TranscodingInfo.VideoCodec
		audioCodec = s.TranscodingInfo.AudioCodec
		hwAccel = s.TranscodingInfo.HardwareAccelerationType
	}

	return entity.Item{
		ID:   s.ID,
		Name: s.DeviceName,
		Attributes: map[string]string{
			"device_name": s.DeviceName,
			"user_name":   s.UserName,
			"user_id":     s.UserID,
			"client":      s.Client,
			"device_id":   s.DeviceID,
			"device_type": s.DeviceType,
			"app_version": s.ApplicationVersion,
		},
		State: map[string]string{
			"state":                 state,
			"user":                  s.UserName,
			"client":                s.Client,
			"device":                s.DeviceName,
			"media/title":           title,
			"media/type":            mediaType,
			"media/series":          series,
			"progress":              formatPercent(progress),
			"position":              FormatTicks(position),
			"position_seconds":      formatInt(position / TicksPerSecond),
			"duration":              FormatTicks(duration),
			"volume":                formatInt(int64(*s.PlayState.VolumeLevel)),
			"is_paused":             FormatBool(s.PlayState.IsPaused),
			"is_muted":              FormatBool(s.PlayState.IsMuted),
			"is_active":             FormatBool(s.IsActive),
			"play_method":           s.PlayState.PlayMethod,
			"is_transcoding":        FormatBool(transcoding),
			"transcode/video_codec": videoCodec,
			"transcode/audio_codec": audioCodec,
			"transcode/hw_type":     hwAccel,
		},
	}
}

// =============================================================================
// Users
// =============================================================================

type user struct {
	ID               string     `json:"Id"`
	Name             string     `json:"Name"`
	LastActivityDate string     `json:"LastActivityDate"`
	Policy           userPolicy `json:"Policy"`
}

type userPolicy struct {
	IsAdministrator bool `json:"IsAdministrator"`
	IsDisabled      bool `json:"IsDisabled"`
}

func (u *user) normalize() {
	if u.Name == "" {
		u.Name = unknownName
	}
}

func (u *user) item(online bool) entity.Item {
	return entity.Item{
		ID:   u.ID,
		Name: u.Name,
		Attributes: map[string]string{
			"name":     u.Name,
			"is_admin": FormatBool(u.Policy.IsAdministrator),
		},
		State: map[string]string{
			"name":          u.Name,
			"online":        FormatBool(online),
			"is_admin":      FormatBool(u.Policy.IsAdministrator),
			"is_disabled":   FormatBool(u.Policy.IsDisabled),
			"last_activity": u.LastActivityDate,
		},
	}
}

// =============================================================================
// Libraries
// =============================================================================

type virtualFolder struct {
	ItemID         string   `json:"ItemId"`
	Name           string   `json:"Name"`
	CollectionType string   `json:"CollectionType"`
	Locations      []string `json:"Locations"`
}

func (f *virtualFolder) normalize() {
	if f.CollectionType == "" {
		f.CollectionType = defaultCollection
	}
	if f.Name == "" {
		f.Name = unknownName
	}
}

func (f *virtualFolder) item() entity.Item {
	return entity.Item{
		ID:   f.ItemID,
		Name: f.Name,
		Attributes: map[string]string{
			"name": f.Name,
			"type": f.CollectionType,
		},
		State: map[string]string{
			"name":           f.Name,
			"type":           f.CollectionType,
			"location_count": formatInt(int64(len(f.Locations))),
		},
	}
}

// =============================================================================
// Scheduled tasks
// =============================================================================

// TaskRunning is the task state reported while a task executes.
const TaskRunning = "Running"

type scheduledTask struct {
	ID                        string      `json:"Id"`
	Name                      string      `json:"Name"`
	Key                       string      `json:"Key"`
	Category                  string      `json:"Category"`
	State                     string      `json:"State"`
	CurrentProgressPercentage *float64    `json:"CurrentProgressPercentage"`
	LastExecutionResult       *taskResult `json:"LastExecutionResult"`
}

type taskResult struct {
	Status     string `json:"Status"`
	EndTimeUtc string `json:"EndTimeUtc"`
}

func (t *scheduledTask) normalize() {
	if t.State == "" {
		t.State = defaultTaskState
	}
	if t.CurrentProgressPercentage == nil {
		zero := 0.0
		t.CurrentProgressPercentage = &zero
	}
	if t.LastExecutionResult == nil {
		t.LastExecutionResult = &taskResult{}
	}
}

func (t *scheduledTask) item() entity.Item {
	return entity.Item{
		ID:   t.ID,
		Name: t.Name,
		Attributes: map[string]string{
			"name":     t.Name,
			"key":      t.Key,
			"category": t.Category,
		},
		State: map[string]string{
			"name":        t.Name,
			"state":       t.State,
			"running":     FormatBool(t.State == TaskRunning),
			"progress":    formatPercent(*t.CurrentProgressPercentage),
			"last_status": t.LastExecutionResult.Status,
			"last_run":    t.LastExecutionResult.EndTimeUtc,
		},
	}
}

// =============================================================================
// Devices
// =============================================================================

type device struct {
	ID               string `json:"Id"`
	Name             string `json:"Name"`
	AppName          string `json:"AppName"`
	AppVersion       string `json:"AppVersion"`
	LastUserName     string `json:"LastUserName"`
	DateLastActivity string `json:"DateLastActivity"`
}

func (d *device) normalize() {
	if d.Name == "" {
		d.Name = unknownName
	}
}

func (d *device) item() entity.Item {
	return entity.Item{
		ID:   d.ID,
		Name: d.Name,
		Attributes: map[string]string{
			"name": d.Name,
			"app":  d.AppName,
		},
		State: map[string]string{
			"name":          d.Name,
			"app":           d.AppName,
			"app_version":   d.AppVersion,
			"last_user":     d.LastUserName,
			"last_activity": d.DateLastActivity,
		},
	}
}

// =============================================================================
// Plugins
// =============================================================================

// PluginActive is the status of an enabled plugin.
const PluginActive = "Active"

type plugin struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Version string `json:"Version"`
	Status  string `json:"Status"`
}

func (p *plugin) normalize() {
	if p.Name == "" {
		p.Name = unknownName
	}
}

func (p *plugin) item() entity.Item {
	return entity.Item{
		ID:   p.ID,
		Name: p.Name,
		Attributes: map[string]string{
			"name":    p.Name,
			"version": p.Version,
		},
		State: map[string]string{
			"name":    p.Name,
			"version": p.Version,
			"status":  p.Status,
			"enabled": FormatBool(p.Status == PluginActive),
		},
	}
}

// =============================================================================
// Playlists
// =============================================================================

type playlist struct {
	ID         string `json:"Id"`
	Name       string `json:"Name"`
	ChildCount int    `json:"ChildCount"`
	MediaType  string `json:"MediaType"`
}

func (p *playlist) normalize() {
	if p.Name == "" {
		p.Name = unknownName
	}
}

func (p *playlist) item() entity.Item {
	return entity.Item{
		ID:   p.ID,
		Name: p.Name,
		Attributes: map[string]string{
			"name": p.Name,
		},
		State: map[string]string{
			"name":        p.Name,
			"child_count": formatInt(int64(p.ChildCount)),
			"media_type":  p.MediaType,
		},
	}
}

// =============================================================================
// SyncPlay groups
// =============================================================================

type syncGroup struct {
	GroupID      string   `json:"GroupId"`
	GroupName    string   `json:"GroupName"`
	State        string   `json:"State"`
	Participants []string `json:"Participants"`
}

func (g *syncGroup) normalize() {
	if g.GroupName == "" {
		g.GroupName = unknownName
	}
	if g.State == "" {
		g.State = defaultTaskState
	}
}

func (g *syncGroup) item() entity.Item {
	return entity.Item{
		ID:   g.GroupID,
		Name: g.GroupName,
		Attributes: map[string]string{
			"name": g.GroupName,
		},
		State: map[string]string{
			"name":              g.GroupName,
			"state":             g.State,
			"participant_count": formatInt(int64(len(g.Participants))),
			"participants":      strings.Join(g.Participants, ", "),
		},
	}
}
