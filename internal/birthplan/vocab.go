package birthplan

import (
	"encoding/json"
	"fmt"
)

// Closed vocabularies of the birth plan form. The empty string of every
// enumerated field means "not specified".

type PainReliefMethod string

const (
	PainReliefMassage     PainReliefMethod = "Massagem"
	PainReliefWarmShower  PainReliefMethod = "Banho morno/chuveiro"
	PainReliefSwissBall   PainReliefMethod = "Bola suíça"
	PainReliefMusicAromas PainReliefMethod = "Música/Aromaterapia"
)

// PainReliefMethods lists the selectable methods in form order.
var PainReliefMethods = []PainReliefMethod{
	PainReliefMassage,
	PainReliefWarmShower,
	PainReliefSwissBall,
	PainReliefMusicAromas,
}

func (m PainReliefMethod) Valid() bool {
	for _, v := range PainReliefMethods {
		if m == v {
			return true
		}
	}
	return false
}

func (m *PainReliefMethod) UnmarshalJSON(b []byte) error {
	return unmarshalVocab(b, (*string)(m), func(s string) bool { return PainReliefMethod(s).Valid() }, "pain relief method")
}

type BirthPosition string

const (
	BirthPositionFree       BirthPosition = "Livre (escolhida na hora)"
	BirthPositionUpright    BirthPosition = "Verticalizada (cócoras, em pé)"
	BirthPositionHorizontal BirthPosition = "Horizontal (deitada)"
)

var BirthPositions = []BirthPosition{BirthPositionFree, BirthPositionUpright, BirthPositionHorizontal}

func (p BirthPosition) Valid() bool {
	if p == "" {
		return true
	}
	for _, v := range BirthPositions {
		if p == v {
			return true
		}
	}
	return false
}

func (p *BirthPosition) UnmarshalJSON(b []byte) error {
	return unmarshalVocab(b, (*string)(p), func(s string) bool { return BirthPosition(s).Valid() }, "birth position")
}

type CordClamping string

const (
	CordClampingImmediate CordClamping = "Imediatamente"
	CordClampingDelayed   CordClamping = "Clampeamento tardio (após cessar pulsação)"
)

var CordClampings = []CordClamping{CordClampingImmediate, CordClampingDelayed}

func (c CordClamping) Valid() bool {
	if c == "" {
		return true
	}
	for _, v := range CordClampings {
		if c == v {
			return true
		}
	}
	return false
}

func (c *CordClamping) UnmarshalJSON(b []byte) error {
	return unmarshalVocab(b, (*string)(c), func(s string) bool { return CordClamping(s).Valid() }, "cord clamping")
}

type SkinToSkin string

const (
	SkinToSkinImmediate      SkinToSkin = "Sim, imediato, por pelo menos 1 hora"
	SkinToSkinAfterProcedure SkinToSkin = "Sim, após procedimentos iniciais"
	SkinToSkinNo             SkinToSkin = "Não"
)

var SkinToSkins = []SkinToSkin{SkinToSkinImmediate, SkinToSkinAfterProcedure, SkinToSkinNo}

func (s SkinToSkin) Valid() bool {
	if s == "" {
		return true
	}
	for _, v := range SkinToSkins {
		if s == v {
			return true
		}
	}
	return false
}

func (s *SkinToSkin) UnmarshalJSON(b []byte) error {
	return unmarshalVocab(b, (*string)(s), func(v string) bool { return SkinToSkin(v).Valid() }, "skin-to-skin preference")
}

type Breastfeeding string

const (
	BreastfeedingFirstHour Breastfeeding = "Sim, buscar iniciar na primeira hora"
	BreastfeedingNo        Breastfeeding = "Não"
)

var Breastfeedings = []Breastfeeding{BreastfeedingFirstHour, BreastfeedingNo}

func (b Breastfeeding) Valid() bool {
	if b == "" {
		return true
	}
	for _, v := range Breastfeedings {
		if b == v {
			return true
		}
	}
	return false
}

func (b *Breastfeeding) UnmarshalJSON(data []byte) error {
	return unmarshalVocab(data, (*string)(b), func(s string) bool { return Breastfeeding(s).Valid() }, "breastfeeding preference")
}

func unmarshalVocab(b []byte, dst *string, valid func(string) bool, what string) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !valid(s) {
		return fmt.Errorf("unknown %s %q", what, s)
	}
	*dst = s
	return nil
}

// ParseBirthPosition maps a form value to a BirthPosition.
func ParseBirthPosition(s string) (BirthPosition, error) {
	if v := BirthPosition(s); v.Valid() {
		return v, nil
	}
	return "", fmt.Errorf("unknown birth position %q", s)
}

func ParseCordClamping(s string) (CordClamping, error) {
	if v := CordClamping(s); v.Valid() {
		return v, nil
	}
	return "", fmt.Errorf("unknown cord clamping %q", s)
}

func ParseSkinToSkin(s string) (SkinToSkin, error) {
	if v := SkinToSkin(s); v.Valid() {
		return v, nil
	}
	return "", fmt.Errorf("unknown skin-to-skin preference %q", s)
}

func ParseBreastfeeding(s string) (Breastfeeding, error) {
	if v := Breastfeeding(s); v.Valid() {
		return v, nil
	}
	return "", fmt.Errorf("unknown breastfeeding preference %q", s)
}

func ParsePainReliefMethod(s string) (PainReliefMethod, error) {
	if v := PainReliefMethod(s); v.Valid() {
		return v, nil
	}
	return "", fmt.Errorf("unknown pain relief method %q", s)
}
