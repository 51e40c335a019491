package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/david/ai-lead-finder/internal/models"
)

var (
	emailFormat = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	nonDigits   = regexp.MustCompile(`\D`)
)

var freeMailDomains = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "aol.com", "icloud.com", "proton.me",
}

// agencyDomains lists agency names with the mail domains they use.
var agencyDomains = []struct {
	name    string
	domains []string
}{
	{"Department of Defense", []string{
		"mail.mil", "dod.gov", "army.mil", "navy.mil", "af.mil", "marines.mil", "uscg.mil",
		"defense.gov", "disa.mil", "dla.mil", "darpa.mil", "nro.mil", "nsa.gov",
	}},
	{"Defense Intelligence Agency", []string{"dia.mil"}},
	{"National Security Agency", []string{"nsa.gov"}},
	{"Central Intelligence Agency", []string{"cia.gov"}},
	{"National Reconnaissance Office", []string{"nro.gov"}},
	{"National Geospatial-Intelligence Agency", []string{"nga.mil", "nga.gov"}},
	{"Department of Energy", []string{
		"energy.gov", "doe.gov", "anl.gov", "bnl.gov", "lanl.gov", "llnl.gov", "ornl.gov", "pnnl.gov",
		"sandia.gov", "nrel.gov",
	}},
	{"NASA", []string{"nasa.gov"}},
	{"National Science Foundation", []string{"nsf.gov", "research.gov"}},
	{"National Institute of Standards and Technology", []string{"nist.gov"}},
	{"Department of Homeland Security", []string{
		"dhs.gov", "fema.gov", "tsa.gov", "ice.gov", "cbp.gov", "uscis.gov", "cisa.gov",
	}},
	{"Department of Justice", []string{
		"usdoj.gov", "justice.gov", "fbi.gov", "atf.gov", "dea.gov", "bop.gov", "usmarshals.gov",
	}},
	{"Federal Bureau of Investigation", []string{"fbi.gov"}},
	{"Department of Commerce", []string{
		"commerce.gov", "doc.gov", "noaa.gov", "census.gov", "uspto.gov", "trade.gov", "ntia.gov",
		"nist.gov",
	}},
	{"Department of the Treasury", []string{"treasury.gov", "irs.gov", "fincen.gov", "ttb.gov", "usmint.gov"}},
	{"Federal Reserve System", []string{"frb.gov", "federalreserve.gov"}},
	{"Securities and Exchange Commission", []string{"sec.gov"}},
	{"Department of Health and Human Services", []string{
		"hhs.gov", "nih.gov", "cdc.gov", "fda.gov", "cms.gov", "hrsa.gov", "samhsa.gov",
	}},
	{"National Institutes of Health", []string{"nih.gov", "cancer.gov"}},
	{"Centers for Disease Control", []string{"cdc.gov"}},
	{"Food and Drug Administration", []string{"fda.gov"}},
	{"Department of Transportation", []string{"dot.gov", "faa.gov"}},
	{"Federal Aviation Administration", []string{"faa.gov"}},
	{"Environmental Protection Agency", []string{"epa.gov"}},
	{"Department of Agriculture", []string{"usda.gov", "fs.fed.us"}},
	{"General Services Administration", []string{"gsa.gov", "usa.gov"}},
	{"Office of Personnel Management", []string{"opm.gov", "usajobs.gov"}},
	{"Social Security Administration", []string{"ssa.gov", "socialsecurity.gov"}},
	{"United States Postal Service", []string{"usps.gov", "uspis.gov"}},
	{"Department of State", []string{"state.gov", "usaid.gov"}},
	{"Department of Education", []string{"ed.gov"}},
	{"Department of Housing and Urban Development", []string{"hud.gov"}},
	{"Department of the Interior", []string{"doi.gov", "nps.gov", "blm.gov", "fws.gov", "usgs.gov", "bia.gov"}},
	{"Department of Labor", []string{"dol.gov", "osha.gov", "bls.gov"}},
	{"Department of Veterans Affairs", []string{"va.gov"}},
	{"Federal Communications Commission", []string{"fcc.gov"}},
	{"Federal Trade Commission", []string{"ftc.gov"}},
	{"National Archives", []string{"nara.gov", "archives.gov"}},
	{"Nuclear Regulatory Commission", []string{"nrc.gov"}},
	{"Small Business Administration", []string{"sba.gov"}},
	{"Government Accountability Office", []string{"gao.gov"}},
	{"Library of Congress", []string{"loc.gov", "copyright.gov"}},
}

// domainMatches reports whether domain is d or a subdomain of it.
func domainMatches(domain, d string) bool {
	return domain == d || strings.HasSuffix(domain, "."+d)
}

// knownDomains returns the mail domains of the agency named in text, if any.
func knownDomains(agency string) (string, []string) {
	lower := strings.ToLower(agency)
	best := -1
	for i, a := range agencyDomains {
		// Longest name wins so "National Institutes of Health" is not
		// shadowed by a shorter name contained in the text.
		if strings.Contains(lower, strings.ToLower(a.name)) && (best < 0 || len(a.name) > len(agencyDomains[best].name)) {
			best = i
		}
	}
	if best < 0 {
		return "", nil
	}
	return agencyDomains[best].name, agencyDomains[best].domains
}

// ValidateEmail checks the address format and compares its domain with the
// agency's known mail domains. An empty email yields no messages.
func ValidateEmail(email, agency string) []models.ValidationMessage {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if !emailFormat.MatchString(email) {
		return []models.ValidationMessage{{
			Kind:       models.KindError,
			Field:      "email",
			Message:    "Email address format is invalid",
			Context:    fmt.Sprintf("'%s' is not a valid address", email),
			Impact:     "Outreach to this contact will bounce",
			Suggestion: "Verify the email address",
			Priority:   1,
		}}
	}

	domain := strings.ToLower(email[strings.LastIndex(email, "@")+1:])
	for _, d := range freeMailDomains {
		if domain == d {
			return []models.ValidationMessage{{
				Kind:       models.KindWarning,
				Field:      "email",
				Message:    "Personal email domain",
				Context:    fmt.Sprintf("Domain '%s' is a free mail provider", domain),
				Impact:     "Contact may not be an official agency representative",
				Suggestion: "Look for an official agency address",
				Priority:   2,
			}}
		}
	}

	name, domains := knownDomains(agency)
	if name == "" {
		return nil
	}
	for _, d := range domains {
		if domainMatches(domain, d) {
			return []models.ValidationMessage{{
				Kind:     models.KindInfo,
				Field:    "email",
				Message:  "Email domain matches agency",
				Context:  fmt.Sprintf("'%s' is a known domain of %s", domain, name),
				Priority: 4,
			}}
		}
	}
	if strings.HasSuffix(domain, ".gov") || strings.HasSuffix(domain, ".mil") {
		return nil
	}
	return []models.ValidationMessage{{
		Kind:       models.KindWarning,
		Field:      "email",
		Message:    "Email domain does not match agency",
		Context:    fmt.Sprintf("'%s' is not a known domain of %s", domain, name),
		Impact:     "Contact may belong to a contractor or another organisation",
		Suggestion: "Verify the contact's affiliation",
		Priority:   2,
	}}
}

// ValidatePhone checks that the number has ten digits, optionally preceded
// by a 1 country code.
func ValidatePhone(phone string) []models.ValidationMessage {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if areaCode(phone) != "" {
		return nil
	}
	return []models.ValidationMessage{{
		Kind:       models.KindError,
		Field:      "phone",
		Message:    "Phone number format is invalid",
		Context:    fmt.Sprintf("'%s' does not contain a 10-digit number", phone),
		Impact:     "Contact cannot be reached by phone",
		Suggestion: "Use the format NNN-NNN-NNNN",
		Priority:   1,
	}}
}

// areaCode returns the three-digit area code of a US number, or "".
func areaCode(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}
	return digits[:3]
}
