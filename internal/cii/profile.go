package cii

import (
	"strings"

	"github.com/rezonia/einvoice-extractor/internal/model"
)

// profiles maps every known guideline URN to its canonical profile.
// One logical profile is published under several URNs (plain Factur-X,
// EN 16931 compliant/conformant forms, ZUGFeRD 2.x, XRechnung).
var profiles = map[string]model.Profile{
	"urn:factur-x.eu:1p0:minimum": model.ProfileMinimum,
	"urn:zugferd.de:2p0:minimum":  model.ProfileMinimum,

	"urn:factur-x.eu:1p0:basicwl": model.ProfileBasicWL,
	"urn:zugferd.de:2p0:basicwl":  model.ProfileBasicWL,

	"urn:factur-x.eu:1p0:basic":                                    model.ProfileBasic,
	"urn:cen.eu:en16931:2017:compliant:factur-x.eu:1p0:basic":      model.ProfileBasic,
	"urn:cen.eu:en16931:2017#conformant#urn:factur-x.eu:1p0:basic": model.ProfileBasic,
	"urn:cen.eu:en16931:2017#compliant#urn:factur-x.eu:1p0:basic":  model.ProfileBasic,
	"urn:cen.eu:en16931:2017#compliant#urn:zugferd.de:2p0:basic":   model.ProfileBasic,

	"urn:cen.eu:en16931:2017": model.ProfileEN16931,

	"urn:cen.eu:en16931:2017#compliant#urn:xoev-de:kosit:standard:xrechnung_1.2": model.ProfileEN16931,
	"urn:cen.eu:en16931:2017#compliant#urn:xoev-de:kosit:standard:xrechnung_2.0": model.ProfileEN16931,
	"urn:cen.eu:en16931:2017#compliant#urn:xoev-de:kosit:standard:xrechnung_2.1": model.ProfileEN16931,
	"urn:cen.eu:en16931:2017#compliant#urn:xoev-de:kosit:standard:xrechnung_2.2": model.ProfileEN16931,
	"urn:cen.eu:en16931:2017#compliant#urn:xoev-de:kosit:standard:xrechnung_2.3": model.ProfileEN16931,
	"urn:cen.eu:en16931:2017#compliant#urn:xeinkauf.de:kosit:xrechnung_3.0":      model.ProfileEN16931,

	"urn:factur-x.eu:1p0:extended":                                    model.ProfileExtended,
	"urn:cen.eu:en16931:2017:compliant:factur-x.eu:1p0:extended":      model.ProfileExtended,
	"urn:cen.eu:en16931:2017#conformant#urn:factur-x.eu:1p0:extended": model.ProfileExtended,
	"urn:cen.eu:en16931:2017#conformant#urn:zugferd.de:2p0:extended":  model.ProfileExtended,
}

// ResolveProfile maps a guideline identifier to its canonical profile.
// A nil identifier fails with MISSING_PROFILE_IDENTIFIER, an unlisted one
// with UNKNOWN_PROFILE.
func ResolveProfile(id *string) (model.Profile, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		return "", model.NewExtractionError(model.ErrCodeMissingProfileIdentifier, "", nil)
	}

	urn := strings.TrimSpace(*id)
	profile, ok := profiles[urn]
	if !ok {
		return "", model.NewExtractionError(model.ErrCodeUnknownProfile, urn, nil)
	}
	return profile, nil
}
