package feed

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ActionType tells downstream services whether a vector was new.
type ActionType string

const (
	ActionCreate ActionType = "CREATE"
	ActionUpdate ActionType = "UPDATE"
)

// excludedCharacterFields never reach the embedding text or the vector payload.
var excludedCharacterFields = []string{"imageUrl", "memorialCommitId", "deathOfDay"}

// MemorialEvent is the payload of vectorizing and delete requests.
type MemorialEvent struct {
	MemorialID  int64
	WriterID    string
	Content     string
	CharacterID int64
}

// ParseMemorialEvent converts a decoded Avro record. Only memorialId is required.
func ParseMemorialEvent(record map[string]any) (MemorialEvent, error) {
	id, ok := int64Field(record, "memorialId")
	if !ok || id == 0 {
		return MemorialEvent{}, ErrMissingMemorialID
	}
	characterID, _ := int64Field(record, "characterId")
	return MemorialEvent{
		MemorialID:  id,
		WriterID:    stringField(record, "writerId"),
		Content:     stringField(record, "content"),
		CharacterID: characterID,
	}, nil
}

// VectorID is the logical vector identifier of a memorial.
func VectorID(memorialID int64) string {
	return "memorial-" + strconv.FormatInt(memorialID, 10)
}

// PointID maps a vector id onto the UUID space required by the vector store.
// The mapping is stable across processes.
func PointID(vectorID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(vectorID)).String()
}

// VectorizingResponse is published after a memorial vector is stored.
type VectorizingResponse struct {
	ActionType  ActionType
	MemorialID  int64
	WriterID    string
	Content     string
	CharacterID int64
	Timestamp   int64 // unix millis
}

// Record renders r against FeedAvroSchema.
func (r VectorizingResponse) Record() map[string]any {
	return map[string]any{
		"actionType":  string(r.ActionType),
		"memorialId":  r.MemorialID,
		"writerId":    r.WriterID,
		"content":     r.Content,
		"characterId": r.CharacterID,
		"timestamp":   r.Timestamp,
		"metadata":    nil,
	}
}

// DeleteResponse is published after a memorial vector is removed.
type DeleteResponse struct {
	MemorialID  int64
	WriterID    string
	Content     string
	CharacterID int64
}

// Record renders r against MemorialAvroSchema.
func (r DeleteResponse) Record() map[string]any {
	return map[string]any{
		"memorialId":  r.MemorialID,
		"writerId":    r.WriterID,
		"content":     r.Content,
		"characterId": r.CharacterID,
	}
}

// Character is the raw character document returned by the anime API.
type Character map[string]any

// Filtered drops fields that carry no meaning for similarity.
func (c Character) Filtered() Character {
	out := maps.Clone(c)
	for _, key := range excludedCharacterFields {
		delete(out, key)
	}
	return out
}

// Describe renders non-nil fields as "k: v" pairs sorted by key.
func (c Character) Describe() string {
	keys := slices.Sorted(maps.Keys(c))
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if c[key] == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", key, c[key]))
	}
	return strings.Join(parts, ", ")
}

// EmbeddingText combines memorial content with character details.
func EmbeddingText(content string, character Character) string {
	return "Memorial: " + content + "\nCharacter: " + character.Describe()
}

// VectorMetadata is the payload stored next to a memorial vector. Nil values are dropped.
func VectorMetadata(event MemorialEvent, character Character) map[string]any {
	metadata := map[string]any{
		"memorialId":          event.MemorialID,
		"writerId":            event.WriterID,
		"content":             event.Content,
		"characterId":         event.CharacterID,
		"characterName":       character["name"],
		"characterAge":        character["age"],
		"animeId":             character["animeId"],
		"deathReason":         character["deathReason"],
		"causeOfDeathDetails": character["causeOfDeathDetails"],
		"saying":              character["saying"],
	}
	maps.DeleteFunc(metadata, func(_ string, v any) bool { return v == nil })
	return metadata
}

// Memorial is a memorial document as returned by the memorial API.
type Memorial struct {
	MemorialID  int64    `json:"memorialId"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// SearchText renders the non-empty fields as "Label: value" joined by " | ".
// It returns "" when the memorial has nothing to embed.
func (m Memorial) SearchText() string {
	var parts []string
	if m.Name != "" {
		parts = append(parts, "Name: "+m.Name)
	}
	if m.Description != "" {
		parts = append(parts, "Description: "+m.Description)
	}
	if m.Content != "" {
		parts = append(parts, "Content: "+m.Content)
	}
	if len(m.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(m.Tags, ", "))
	}
	return strings.Join(parts, " | ")
}

// Match is one similarity search hit.
type Match struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchResult is the personalized feed for a user.
type SearchResult struct {
	UserID          string     `json:"user-id"`
	RecentMemorials []Memorial `json:"recent-memorials"`
	Matches         []Match    `json:"matches"`
}

func stringField(record map[string]any, key string) string {
	switch v := unwrapUnion(record[key]).(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func int64Field(record map[string]any, key string) (int64, bool) {
	switch v := unwrapUnion(record[key]).(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// unwrapUnion returns the branch value of a generically decoded Avro union
// ({"long": 1}); other values pass through.
func unwrapUnion(v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return v
	}
	for _, inner := range m {
		return inner
	}
	return v
}
