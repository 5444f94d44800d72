package birthplan

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPainReliefSet_ToggleRoundTrip(t *testing.T) {
	orig := PainReliefSet{PainReliefMassage}

	added := orig.With(PainReliefSwissBall)
	require.Equal(t, PainReliefSet{PainReliefMassage, PainReliefSwissBall}, added)

	back := added.Without(PainReliefSwissBall)
	assert.True(t, back.Equal(orig))
	// original slice is untouched
	assert.Equal(t, PainReliefSet{PainReliefMassage}, orig)
}

func TestPainReliefSet_Idempotent(t *testing.T) {
	s := PainReliefSet{PainReliefMassage}
	assert.Equal(t, s, s.With(PainReliefMassage), "adding a present tag is a no-op")
	assert.Equal(t, s, s.Without(PainReliefWarmShower), "removing an absent tag is a no-op")
	assert.Len(t, s.With(PainReliefMassage).With(PainReliefMassage), 1)
}

func TestPainReliefSet_EqualIgnoresOrder(t *testing.T) {
	a := PainReliefSet{PainReliefMassage, PainReliefSwissBall}
	b := PainReliefSet{PainReliefSwissBall, PainReliefMassage}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(PainReliefSet{PainReliefMassage}))
}

func TestPainReliefSet_JSON(t *testing.T) {
	var empty PainReliefSet
	b, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	var s PainReliefSet
	require.NoError(t, json.Unmarshal([]byte(`["Massagem","Bola suíça","Massagem"]`), &s))
	assert.Equal(t, PainReliefSet{PainReliefMassage, PainReliefSwissBall}, s)

	err = json.Unmarshal([]byte(`["Acupuntura"]`), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Acupuntura")
}

func TestVocabulary_UnmarshalRejectsUnknown(t *testing.T) {
	var f Fields
	err := json.Unmarshal([]byte(`{"birthPosition":"De lado"}`), &f)
	require.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"birthPosition":"","cordClamping":"Imediatamente"}`), &f))
	assert.Equal(t, BirthPosition(""), f.BirthPosition)
	assert.Equal(t, CordClampingImmediate, f.CordClamping)
}

func TestParseVocabulary(t *testing.T) {
	p, err := ParseBirthPosition("Horizontal (deitada)")
	require.NoError(t, err)
	assert.Equal(t, BirthPositionHorizontal, p)

	_, err = ParseSkinToSkin("Talvez")
	require.Error(t, err)

	b, err := ParseBreastfeeding("")
	require.NoError(t, err)
	assert.Equal(t, Breastfeeding(""), b)

	_, err = ParsePainReliefMethod("")
	require.Error(t, err, "an empty tag is never a pain relief method")
}

func TestFields_Validate(t *testing.T) {
	valid := Fields{
		CompanionName:         "João",
		CompanionRelationship: "Parceiro",
		PainReliefMethods:     PainReliefSet{PainReliefMassage},
		BirthPosition:         BirthPositionFree,
		CordClamping:          CordClampingDelayed,
		SkinToSkin:            SkinToSkinImmediate,
		Breastfeeding:         BreastfeedingFirstHour,
		AdditionalNotes:       "Luz baixa",
	}
	require.NoError(t, valid.Validate())
	require.NoError(t, Fields{}.Validate(), "an empty draft is valid")

	missingName := valid
	missingName.CompanionName = ""
	err := missingName.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "companionName")

	tooLong := valid
	tooLong.AdditionalNotes = strings.Repeat("a", 4001)
	err = tooLong.Validate()
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "additionalNotes")

	badVocab := valid
	badVocab.SkinToSkin = "Talvez"
	badVocab.PainReliefMethods = PainReliefSet{"Acupuntura"}
	err = badVocab.Validate()
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "skinToSkin")
	assert.Contains(t, verr.Fields, "painReliefMethods[0]")
}

func TestFields_EqualAndClone(t *testing.T) {
	f := Fields{CompanionName: "Ana", PainReliefMethods: PainReliefSet{PainReliefMassage}}
	c := f.Clone()
	c.PainReliefMethods[0] = PainReliefSwissBall
	assert.Equal(t, PainReliefMassage, f.PainReliefMethods[0], "clone must not share storage")
	assert.False(t, f.Equal(c))
	assert.True(t, Fields{}.IsZero())
	assert.True(t, Fields{PainReliefMethods: PainReliefSet{}}.IsZero())
}

func TestDocument_JSONShape(t *testing.T) {
	d := Document{ID: "p1", OwnerID: "u1", Fields: Fields{CompanionName: "Ana"}}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "p1", m["id"])
	assert.Equal(t, "u1", m["userId"])
	assert.Equal(t, "Ana", m["companionName"])
	assert.Equal(t, []interface{}{}, m["painReliefMethods"])
}
