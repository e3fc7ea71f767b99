package domain

import "strings"

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type HairLength string

const (
	HairLengthShort     HairLength = "short"
	HairLengthMedium    HairLength = "medium"
	HairLengthLong      HairLength = "long"
	HairLengthBob       HairLength = "bob"
	HairLengthMediumBob HairLength = "mediumbob"
)

type Bangs string

const (
	BangsYes Bangs = "yes"
	BangsNo  Bangs = "no"
)

type FaceType string

const (
	FaceSquare FaceType = "square"
	FaceRound  FaceType = "round"
	FaceLong   FaceType = "long"
	FaceOval   FaceType = "oval"
	FaceHeart  FaceType = "heart"
)

// Profile is the immutable projection of a user request an orchestration run
// operates on. Attribute values are normalized; unrecognized stored values
// come through as empty and never match any eligibility rule.
type Profile struct {
	UserID             int64
	RequestID          int64
	SourceImageLocator string
	Sex                Sex
	HairLength         HairLength
	HasBangs           Bangs
}

// The upstream tables store attribute values in Korean. Normalization lives
// here, at the domain boundary, so the resolver only ever sees canonical
// enums. English values pass through unchanged for newer rows.

func NormalizeSex(v string) Sex {
	switch strings.TrimSpace(v) {
	case "남성", "male":
		return SexMale
	case "여성", "female":
		return SexFemale
	}
	return ""
}

func NormalizeHairLength(v string) HairLength {
	switch strings.TrimSpace(v) {
	case "숏", "short":
		return HairLengthShort
	case "미디움", "미디엄", "medium":
		return HairLengthMedium
	case "롱", "long":
		return HairLengthLong
	case "밥", "bob":
		return HairLengthBob
	case "미디엄밥", "미디움밥", "mediumbob":
		return HairLengthMediumBob
	}
	return ""
}

func NormalizeBangs(v string) Bangs {
	switch strings.TrimSpace(v) {
	case "유", "yes":
		return BangsYes
	case "무", "no":
		return BangsNo
	}
	return ""
}

func NormalizeFaceType(v string) FaceType {
	switch strings.TrimSpace(v) {
	case "네모형", "square":
		return FaceSquare
	case "둥근형", "round":
		return FaceRound
	case "긴형", "long":
		return FaceLong
	case "계란형", "oval":
		return FaceOval
	case "하트형", "heart":
		return FaceHeart
	}
	return ""
}
