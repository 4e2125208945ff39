package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidID is returned for identifiers that are not 24-character hex strings.
var ErrInvalidID = errors.New("invalid identifier: expected a 24-character hex string")

// NormalizeID unwraps an object-shaped reference (anything carrying an "_id" or "id"
// field) to its underlying string id. Unknown shapes normalize to "".
func NormalizeID(ref any) string {
	switch v := ref.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case primitive.ObjectID:
		if v.IsZero() {
			return ""
		}
		return v.Hex()
	case *primitive.ObjectID:
		if v == nil {
			return ""
		}
		return NormalizeID(*v)
	case map[string]any:
		for _, key := range []string{"_id", "id"} {
			if inner, ok := v[key]; ok {
				return NormalizeID(inner)
			}
		}
		return ""
	case map[string]string:
		for _, key := range []string{"_id", "id"} {
			if inner, ok := v[key]; ok {
				return NormalizeID(inner)
			}
		}
		return ""
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return ""
		}
		return NormalizeID(decoded)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	}
	return ""
}

// IsValidID reports whether id is a 24-character hex ObjectID.
func IsValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// FormatID normalizes ref and reports whether the result is a valid ObjectID.
func FormatID(ref any) (string, bool) {
	id := NormalizeID(ref)
	return id, IsValidID(id)
}

// ValidateID is FormatID with an error for invalid ids.
func ValidateID(ref any) (string, error) {
	id, ok := FormatID(ref)
	if !ok {
		return id, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return id, nil
}
