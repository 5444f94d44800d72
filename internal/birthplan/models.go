package birthplan

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/humanizapp/humanizapp/backend/go-services/pkg/validator"
)

// Document is the persisted birth plan of one owner. There is at most one
// document per owner; ID is empty until the backend has stored it.
type Document struct {
	ID        string    `json:"id" bson:"_id"`
	OwnerID   string    `json:"userId" bson:"userId"`
	OwnerName string    `json:"userName,omitempty" bson:"userName,omitempty"`
	Fields    `bson:",inline"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Fields is the editable field set. Updates replace the whole set.
type Fields struct {
	CompanionName         string        `json:"companionName" bson:"companionName" validate:"max=120,required_with=CompanionRelationship"`
	CompanionRelationship string        `json:"companionRelationship" bson:"companionRelationship" validate:"max=60"`
	PainReliefMethods     PainReliefSet `json:"painReliefMethods" bson:"painReliefMethods" validate:"dive,vocab"`
	BirthPosition         BirthPosition `json:"birthPosition" bson:"birthPosition" validate:"vocab"`
	CordClamping          CordClamping  `json:"cordClamping" bson:"cordClamping" validate:"vocab"`
	SkinToSkin            SkinToSkin    `json:"skinToSkin" bson:"skinToSkin" validate:"vocab"`
	Breastfeeding         Breastfeeding `json:"breastfeeding" bson:"breastfeeding" validate:"vocab"`
	AdditionalNotes       string        `json:"additionalNotes" bson:"additionalNotes" validate:"max=4000"`
}

// Clone returns a copy that shares no slice storage with f.
func (f Fields) Clone() Fields {
	out := f
	out.PainReliefMethods = append(PainReliefSet(nil), f.PainReliefMethods...)
	return out
}

// Equal compares two field sets; pain relief methods compare as sets.
func (f Fields) Equal(o Fields) bool {
	return f.CompanionName == o.CompanionName &&
		f.CompanionRelationship == o.CompanionRelationship &&
		f.BirthPosition == o.BirthPosition &&
		f.CordClamping == o.CordClamping &&
		f.SkinToSkin == o.SkinToSkin &&
		f.Breastfeeding == o.Breastfeeding &&
		f.AdditionalNotes == o.AdditionalNotes &&
		f.PainReliefMethods.Equal(o.PainReliefMethods)
}

// IsZero reports whether every field holds its empty default.
func (f Fields) IsZero() bool {
	return f.Equal(Fields{})
}

// ValidationError lists field problems keyed by wire field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return "invalid birth plan: " + strings.Join(msgs, "; ")
}

var fieldValidator = validator.NewValidator()

// Validate checks lengths, dependent required fields and vocabularies.
func (f Fields) Validate() error {
	if err := fieldValidator.Validate(f); err != nil {
		msgs := fieldValidator.FormatValidationErrors(err)
		if len(msgs) == 0 {
			return fmt.Errorf("invalid birth plan: %w", err)
		}
		return &ValidationError{Fields: msgs}
	}
	return nil
}

// PainReliefSet is an insertion-ordered set of pain relief methods.
// Order is kept for presentation only; equality ignores it.
type PainReliefSet []PainReliefMethod

func (s PainReliefSet) Contains(m PainReliefMethod) bool {
	for _, v := range s {
		if v == m {
			return true
		}
	}
	return false
}

// With returns the set including m. Adding a present method is a no-op.
func (s PainReliefSet) With(m PainReliefMethod) PainReliefSet {
	if s.Contains(m) {
		return s
	}
	out := make(PainReliefSet, 0, len(s)+1)
	out = append(out, s...)
	return append(out, m)
}

// Without returns the set excluding m. Removing an absent method is a no-op.
func (s PainReliefSet) Without(m PainReliefMethod) PainReliefSet {
	if !s.Contains(m) {
		return s
	}
	out := make(PainReliefSet, 0, len(s))
	for _, v := range s {
		if v != m {
			out = append(out, v)
		}
	}
	return out
}

func (s PainReliefSet) Equal(o PainReliefSet) bool {
	if len(s) != len(o) {
		return false
	}
	for _, v := range s {
		if !o.Contains(v) {
			return false
		}
	}
	return true
}

// MarshalJSON always emits an array, never null.
func (s PainReliefSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]PainReliefMethod(s))
}

// UnmarshalJSON drops duplicate entries, keeping the first occurrence.
func (s *PainReliefSet) UnmarshalJSON(b []byte) error {
	var raw []PainReliefMethod
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(PainReliefSet, 0, len(raw))
	for _, m := range raw {
		out = out.With(m)
	}
	*s = out
	return nil
}
