// Package campus holds the static campus directory: security drop-off
// hubs and the class timetable used for likely-owner hints.
package campus

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/campusfind/campusfind/pkg/models"
)

// Hub is a staffed drop-off point for found items.
type Hub struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	MapLink     string `yaml:"map_link" json:"map_link,omitempty"`
}

// ClassSession is one timetable slot.
type ClassSession struct {
	Room      string `yaml:"room" json:"room"`
	StartTime string `yaml:"start_time" json:"start_time"`
	EndTime   string `yaml:"end_time" json:"end_time"`
	Subject   string `yaml:"subject" json:"subject"`
}

// Directory bundles the hub list and the timetable.
type Directory struct {
	Hubs     []Hub          `yaml:"hubs"`
	Schedule []ClassSession `yaml:"schedule"`
}

// Load reads a Directory from a YAML file. An empty path returns the
// built-in defaults.
func Load(path string) (*Directory, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read campus file: %w", err)
	}
	var d Directory
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse campus file: %w", err)
	}
	if len(d.Hubs) == 0 {
		d.Hubs = Defaults().Hubs
	}
	return &d, nil
}

// Defaults returns the built-in campus directory, used when no YAML
// file is configured.
func Defaults() *Directory {
	return &Directory{
		Hubs: []Hub{
			{ID: "1", Name: "Main Library Desk", Description: "Central check-in desk"},
			{ID: "2", Name: "Student Union Admin", Description: "Room 202"},
			{ID: "3", Name: "Security Office", Description: "Building C, Ground Floor"},
			{ID: "4", Name: "Engineering Block Reception", Description: "North Entrance"},
		},
		Schedule: []ClassSession{
			{Room: "Lab B", StartTime: "10:00", EndTime: "12:00", Subject: "Physics 101"},
			{Room: "Main Library", StartTime: "09:00", EndTime: "18:00", Subject: "Study Hall"},
			{Room: "Auditorium 1", StartTime: "09:00", EndTime: "10:30", Subject: "Intro to Engineering"},
			{Room: "Gym", StartTime: "14:00", EndTime: "16:00", Subject: "Basketball Practice"},
		},
	}
}

// HubByID returns a hub by ID, or nil.
func (d *Directory) HubByID(id string) *Hub {
	for i := range d.Hubs {
		if d.Hubs[i].ID == id {
			return &d.Hubs[i]
		}
	}
	return nil
}

// OwnerContext is a likely-owner hint derived from the timetable.
type OwnerContext struct {
	Subject   string `json:"subject"`
	Room      string `json:"room"`
	StartTime string `json:"start_time"`
}

// LikelyOwnerContext matches an item's loss location and time against
// the timetable. A session matches when the loss location mentions its
// room, or the loss hour falls within an hour of the session start. The
// loss time defaults to midday when the reporter left it blank.
func (d *Directory) LikelyOwnerContext(item *models.Item) *OwnerContext {
	timeLost := item.TimeLost
	if timeLost == "" {
		timeLost = "12:00"
	}
	itemHour, ok := parseHour(timeLost)
	location := strings.ToLower(item.Location)

	for _, session := range d.Schedule {
		if strings.Contains(location, strings.ToLower(session.Room)) {
			return &OwnerContext{Subject: session.Subject, Room: session.Room, StartTime: session.StartTime}
		}
		if !ok {
			continue
		}
		if startHour, sok := parseHour(session.StartTime); sok {
			if abs(itemHour-startHour) <= 1 {
				return &OwnerContext{Subject: session.Subject, Room: session.Room, StartTime: session.StartTime}
			}
		}
	}
	return nil
}

func parseHour(hhmm string) (int, bool) {
	h, _, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, false
	}
	return n, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
