package profile

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	"github.com/verdantlabs/farmpilot-backend/pkg/geometry"
)

// Document is the persistence-ready shape of a FarmProfile. The backing
// document store cannot reliably hold arrays of scalars, so set-like
// collections travel as order-preserving keyed maps ("item_0", "item_1", ...)
// and the boundary polygon travels as a single GeoJSON Feature string.
type Document map[string]any

// Document field keys. These are the wire contract with the document store;
// renaming one is a data migration.
const (
	FieldName                = "name"
	FieldFarmName            = "farm_name"
	FieldLatitude            = "latitude"
	FieldLongitude           = "longitude"
	FieldLocationText        = "location_text"
	FieldLocationPreference  = "location_preference"
	FieldBoundary            = "boundary"
	FieldAreaValue           = "area_value"
	FieldAreaUnit            = "area_unit"
	FieldSoilTexture         = "soil_texture"
	FieldOnboardingCompleted = "onboarding_completed"
	FieldTrack               = "track"
	FieldTasks               = "tasks"
	FieldCompletedDates      = "completed_dates"
	FieldCreatedAt           = "created_at"
	FieldUpdatedAt           = "updated_at"
)

const itemKeyPrefix = "item_"

// FieldWarning reports a document field that failed to parse and was
// degraded to its empty value instead of aborting the load.
type FieldWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type taskDoc struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DueDate   string `json:"due_date"`
	Priority  string `json:"priority"`
	Completed bool   `json:"completed"`
	Source    string `json:"source"`
}

// ToSerializable produces the persistence document. Empty collections are
// omitted entirely rather than stored as empty containers, and the boundary
// is flattened to its transport string. The output is the exact inverse of
// FromSerializable for any profile producible through Store mutations.
func ToSerializable(p *FarmProfile) (Document, error) {
	doc := Document{}

	if p.Name != "" {
		doc[FieldName] = p.Name
	}
	if p.FarmName != "" {
		doc[FieldFarmName] = p.FarmName
	}

	if p.Location.Coords != nil {
		doc[FieldLatitude] = p.Location.Coords.Lat
		doc[FieldLongitude] = p.Location.Coords.Lon
	}
	if p.Location.Text != "" {
		doc[FieldLocationText] = p.Location.Text
	}
	if p.Location.Preference != "" {
		doc[FieldLocationPreference] = string(p.Location.Preference)
	}

	if p.Boundary != nil {
		encoded, err := geometry.EncodeFeature(p.Boundary)
		if err != nil {
			return nil, fmt.Errorf("encoding boundary: %w", err)
		}
		doc[FieldBoundary] = encoded
	}

	if p.Area != nil {
		doc[FieldAreaValue] = p.Area.Value
		doc[FieldAreaUnit] = string(p.Area.Unit)
	}
	if p.SoilTexture != "" {
		doc[FieldSoilTexture] = string(p.SoilTexture)
	}

	for _, name := range enums.Collections() {
		values := p.Collections[name]
		if len(values) == 0 {
			continue
		}
		keyed := make(map[string]any, len(values))
		for i, v := range values {
			keyed[itemKeyPrefix+strconv.Itoa(i)] = v
		}
		doc[string(name)] = keyed
	}

	doc[FieldOnboardingCompleted] = p.OnboardingCompleted
	if p.Track != "" {
		doc[FieldTrack] = string(p.Track)
	}

	if len(p.Tasks) > 0 {
		tasks := make([]any, 0, len(p.Tasks))
		for _, t := range p.Tasks {
			tasks = append(tasks, map[string]any{
				"id":        t.ID.String(),
				"title":     t.Title,
				"due_date":  t.DueDate,
				"priority":  string(t.Priority),
				"completed": t.Completed,
				"source":    string(t.Source),
			})
		}
		doc[FieldTasks] = tasks
	}

	if len(p.CompletedDates) > 0 {
		dates := make(map[string]any, len(p.CompletedDates))
		for day, done := range p.CompletedDates {
			dates[day] = done
		}
		doc[FieldCompletedDates] = dates
	}

	doc[FieldCreatedAt] = p.CreatedAt.UTC().Format(time.RFC3339Nano)
	doc[FieldUpdatedAt] = p.UpdatedAt.UTC().Format(time.RFC3339Nano)

	return doc, nil
}

// FromSerializable rebuilds a FarmProfile from its persistence document. A
// corrupt field never aborts the load: the offending field degrades to its
// empty value and a warning is reported so the caller can log it. The profile
// is always returned.
func FromSerializable(accountID string, raw Document) (*FarmProfile, []FieldWarning) {
	var warnings []FieldWarning
	warn := func(field, format string, args ...any) {
		warnings = append(warnings, FieldWarning{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	p := NewFarmProfile(accountID, time.Time{})
	p.CreatedAt = time.Time{}
	p.UpdatedAt = time.Time{}

	p.Name, _ = raw[FieldName].(string)
	p.FarmName, _ = raw[FieldFarmName].(string)

	lat, latOK := asFloat(raw[FieldLatitude])
	lon, lonOK := asFloat(raw[FieldLongitude])
	if latOK && lonOK {
		p.Location.Coords = &Coords{Lat: lat, Lon: lon}
	} else if raw[FieldLatitude] != nil || raw[FieldLongitude] != nil {
		warn(FieldLatitude, "coordinate pair incomplete or non-numeric")
	}
	p.Location.Text, _ = raw[FieldLocationText].(string)
	if pref, ok := raw[FieldLocationPreference].(string); ok {
		switch LocationPreference(pref) {
		case PreferCoordinates, PreferText:
			p.Location.Preference = LocationPreference(pref)
		default:
			warn(FieldLocationPreference, "unknown preference %q", pref)
		}
	}
	if p.Location.Preference == "" && p.Location.Coords != nil {
		p.Location.Preference = PreferCoordinates
	}

	if rawBoundary, present := raw[FieldBoundary]; present {
		encoded, ok := rawBoundary.(string)
		if !ok {
			warn(FieldBoundary, "boundary is not a string")
		} else if encoded != "" {
			polygon, err := geometry.ParseFeature(encoded)
			if err != nil {
				// A corrupt boundary must never abort loading the rest of
				// the profile.
				warn(FieldBoundary, "unparseable boundary: %v", err)
			} else {
				p.Boundary = polygon
			}
		}
	}

	if rawValue, present := raw[FieldAreaValue]; present {
		value, ok := asFloat(rawValue)
		unit, unitErr := enums.ParseAreaUnit(stringOr(raw[FieldAreaUnit]))
		if !ok || unitErr != nil {
			warn(FieldAreaValue, "area measurement malformed")
		} else {
			p.Area = &AreaMeasurement{Value: value, Unit: unit}
		}
	}

	if rawTexture := stringOr(raw[FieldSoilTexture]); rawTexture != "" {
		texture, err := enums.ParseSoilTexture(rawTexture)
		if err != nil {
			warn(FieldSoilTexture, "unknown soil texture %q", rawTexture)
		} else {
			p.SoilTexture = texture
		}
	}

	for _, name := range enums.Collections() {
		rawCollection, present := raw[string(name)]
		if !present {
			continue
		}
		values, err := collectionFromKeyed(rawCollection)
		if err != nil {
			warn(string(name), "%v", err)
			continue
		}
		if len(values) > 0 {
			p.Collections[name] = values
		}
	}

	if completed, ok := raw[FieldOnboardingCompleted].(bool); ok {
		p.OnboardingCompleted = completed
	}
	if rawTrack := stringOr(raw[FieldTrack]); rawTrack != "" {
		track, err := enums.ParseTrack(rawTrack)
		if err != nil {
			warn(FieldTrack, "unknown track %q", rawTrack)
		} else {
			p.Track = track
		}
	}

	if rawTasks, present := raw[FieldTasks]; present {
		tasks, err := tasksFromRaw(rawTasks)
		if err != nil {
			warn(FieldTasks, "%v", err)
		} else {
			p.Tasks = tasks
		}
	}

	if rawDates, present := raw[FieldCompletedDates]; present {
		dates, err := completedDatesFromRaw(rawDates)
		if err != nil {
			warn(FieldCompletedDates, "%v", err)
		} else {
			p.CompletedDates = dates
		}
	}

	p.CreatedAt = timeFromRaw(raw[FieldCreatedAt])
	p.UpdatedAt = timeFromRaw(raw[FieldUpdatedAt])

	return p, warnings
}

// collectionFromKeyed converts an item_N keyed map back into an ordered
// slice, sorting by the numeric suffix. The iteration order of the underlying
// store is unspecified, so the suffix is the only ordering signal.
func collectionFromKeyed(raw any) ([]string, error) {
	keyed, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("collection is not a keyed map")
	}

	type entry struct {
		index int
		value string
	}
	entries := make([]entry, 0, len(keyed))
	for key, rawValue := range keyed {
		if !strings.HasPrefix(key, itemKeyPrefix) {
			continue
		}
		index, err := strconv.Atoi(key[len(itemKeyPrefix):])
		if err != nil {
			continue
		}
		value, ok := rawValue.(string)
		if !ok {
			continue
		}
		entries = append(entries, entry{index: index, value: value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })

	seen := map[string]struct{}{}
	values := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.value]; dup {
			continue
		}
		seen[e.value] = struct{}{}
		values = append(values, e.value)
	}
	return values, nil
}

func tasksFromRaw(raw any) ([]Task, error) {
	blob, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("tasks not re-encodable: %v", err)
	}
	var docs []taskDoc
	if err := json.Unmarshal(blob, &docs); err != nil {
		return nil, fmt.Errorf("tasks malformed: %v", err)
	}
	tasks := make([]Task, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			continue
		}
		priority, err := enums.ParseTaskPriority(d.Priority)
		if err != nil {
			priority = enums.TaskPriorityMedium
		}
		source := enums.TaskSource(d.Source)
		if !source.IsValid() {
			source = enums.TaskSourceUser
		}
		tasks = append(tasks, Task{
			ID:        id,
			Title:     d.Title,
			DueDate:   d.DueDate,
			Priority:  priority,
			Completed: d.Completed,
			Source:    source,
		})
	}
	return tasks, nil
}

func completedDatesFromRaw(raw any) (map[string]bool, error) {
	keyed, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("completed dates is not a map")
	}
	dates := make(map[string]bool, len(keyed))
	for day, rawDone := range keyed {
		done, ok := rawDone.(bool)
		if !ok || !done {
			// Absence, not false, is the negative state.
			continue
		}
		dates[day] = done
	}
	return dates, nil
}

func timeFromRaw(raw any) time.Time {
	value, ok := raw.(string)
	if !ok {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func stringOr(raw any) string {
	s, _ := raw.(string)
	return s
}
