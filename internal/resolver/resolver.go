// Package resolver selects which catalog entries are eligible for a user
// profile. The product rule is encoded as enumerable mapping tables plus a
// per-sex rule set, so it can be reviewed and versioned apart from any query
// engine. The resolver is a closed-world filter: values it cannot map make
// an entry ineligible, they never produce an error.
package resolver

import (
	"github.com/yungbote/hairsim-backend/internal/domain"
)

// Class mapping tables. These mirror the catalog's class vocabulary:
// length in {S, M, L}, face in {R, S}, bangs in {Y, N}.

var femaleLengthClass = map[domain.HairLength]string{
	domain.HairLengthShort:     "S",
	domain.HairLengthBob:       "S",
	domain.HairLengthMediumBob: "M",
	domain.HairLengthLong:      "L",
}

var bangsClass = map[domain.Bangs]string{
	domain.BangsYes: "Y",
	domain.BangsNo:  "N",
}

var faceClass = map[domain.FaceType]string{
	domain.FaceSquare: "R",
	domain.FaceRound:  "R",
	domain.FaceLong:   "S",
	domain.FaceOval:   "S",
	domain.FaceHeart:  "S",
}

type condition func(p domain.Profile, face domain.FaceType, e domain.CatalogEntry) bool

// ruleSet lists the conditions that must all hold for an entry to be a
// candidate for a given sex.
type ruleSet []condition

var rules = map[domain.Sex]ruleSet{
	domain.SexMale:   {maleLengthRule, faceRule},
	domain.SexFemale: {femaleLengthRule, bangsRule, faceRule},
}

// Male catalog entries carry no length class for short/medium styles; the
// classed entries are long-hair styles.
func maleLengthRule(p domain.Profile, _ domain.FaceType, e domain.CatalogEntry) bool {
	if e.LengthClass == nil {
		return p.HairLength == domain.HairLengthShort || p.HairLength == domain.HairLengthMedium
	}
	switch *e.LengthClass {
	case "S", "M", "L":
		return p.HairLength == domain.HairLengthLong
	}
	return false
}

func femaleLengthRule(p domain.Profile, _ domain.FaceType, e domain.CatalogEntry) bool {
	want, ok := femaleLengthClass[p.HairLength]
	if !ok {
		return false
	}
	return e.LengthClass != nil && *e.LengthClass == want
}

func bangsRule(p domain.Profile, _ domain.FaceType, e domain.CatalogEntry) bool {
	want, ok := bangsClass[p.HasBangs]
	if !ok {
		return false
	}
	return e.BangsClass != nil && *e.BangsClass == want
}

// There is no "any face" wildcard: an unmapped face type matches nothing.
func faceRule(_ domain.Profile, face domain.FaceType, e domain.CatalogEntry) bool {
	want, ok := faceClass[face]
	if !ok {
		return false
	}
	return e.FaceClass != nil && *e.FaceClass == want
}

// Resolve returns the subset of candidates whose catalog entries are
// eligible for the profile, preserving input order. Downstream consumers
// must not read ranking into the order; it is whatever the gateway gave us.
func Resolve(p domain.Profile, face domain.FaceType, candidates []domain.Candidate) []domain.Candidate {
	rs, ok := rules[p.Sex]
	if !ok {
		return nil
	}
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if eligible(rs, p, face, c.Entry) {
			out = append(out, c)
		}
	}
	return out
}

func eligible(rs ruleSet, p domain.Profile, face domain.FaceType, e domain.CatalogEntry) bool {
	for _, cond := range rs {
		if !cond(p, face, e) {
			return false
		}
	}
	return true
}
