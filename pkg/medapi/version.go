package medapi

import (
	"net/http"
	"net/url"
	"strings"
)

// APIVersion identifies a generation of the remote API.
type APIVersion string

const (
	V1 APIVersion = "v1"
	V2 APIVersion = "v2"
	V3 APIVersion = "v3"
)

const (
	DefaultEndpoint = "https://api.infermedica.com/"
	DefaultVersion  = V3
)

// Method names an endpoint independent of its version-specific path.
type Method string

const (
	MethodInfo                  Method = "info"
	MethodSearch                Method = "search"
	MethodLookup                Method = "lookup"
	MethodSuggest               Method = "suggest"
	MethodParse                 Method = "parse"
	MethodDiagnosis             Method = "diagnosis"
	MethodRationale             Method = "rationale"
	MethodExplain               Method = "explain"
	MethodTriage                Method = "triage"
	MethodRedFlags              Method = "red_flags"
	MethodSpecialistRecommender Method = "specialist_recommender"
	MethodConditions            Method = "conditions"
	MethodConditionDetails      Method = "condition_details"
	MethodSymptoms              Method = "symptoms"
	MethodSymptomDetails        Method = "symptom_details"
	MethodRiskFactors           Method = "risk_factors"
	MethodRiskFactorDetails     Method = "risk_factor_details"
	MethodLabTests              Method = "lab_tests"
	MethodLabTestDetails        Method = "lab_test_details"
	MethodObservations          Method = "observations"
	MethodObservationDetails    Method = "observation_details"
	MethodConcepts              Method = "concepts"
	MethodConceptDetails        Method = "concept_details"
)

// Definitions maps each version to its method path table. Paths may contain an {id} placeholder.
type Definitions map[APIVersion]map[Method]string

var lookupPaths = map[Method]string{
	MethodConditions:        "/conditions",
	MethodConditionDetails:  "/conditions/{id}",
	MethodSymptoms:          "/symptoms",
	MethodSymptomDetails:    "/symptoms/{id}",
	MethodRiskFactors:       "/risk_factors",
	MethodRiskFactorDetails: "/risk_factors/{id}",
	MethodLabTests:          "/lab_tests",
	MethodLabTestDetails:    "/lab_tests/{id}",
}

// DefaultDefinitions returns a fresh copy of the built-in path tables.
func DefaultDefinitions() Definitions {
	v1 := withLookups(map[Method]string{
		MethodInfo:               "/info",
		MethodSearch:             "/search",
		MethodLookup:             "/lookup",
		MethodSuggest:            "/suggest",
		MethodParse:              "/parse",
		MethodDiagnosis:          "/diagnosis",
		MethodExplain:            "/explain",
		MethodTriage:             "/triage",
		MethodObservations:       "/observations",
		MethodObservationDetails: "/observations/{id}",
	})
	v2 := withLookups(map[Method]string{
		MethodInfo:      "/info",
		MethodSearch:    "/search",
		MethodLookup:    "/lookup",
		MethodSuggest:   "/suggest",
		MethodParse:     "/parse",
		MethodDiagnosis: "/diagnosis",
		MethodRationale: "/rationale",
		MethodExplain:   "/explain",
		MethodTriage:    "/triage",
		MethodRedFlags:  "/red_flags",
	})
	v3 := withLookups(map[Method]string{
		MethodInfo:                  "/info",
		MethodSearch:                "/search",
		MethodSuggest:               "/suggest",
		MethodParse:                 "/parse",
		MethodDiagnosis:             "/diagnosis",
		MethodRationale:             "/rationale",
		MethodExplain:               "/explain",
		MethodTriage:                "/triage",
		MethodSpecialistRecommender: "/recommend_specialist",
		MethodConcepts:              "/concepts",
		MethodConceptDetails:        "/concepts/{id}",
	})
	return Definitions{V1: v1, V2: v2, V3: v3}
}

func withLookups(paths map[Method]string) map[Method]string {
	for m, p := range lookupPaths {
		paths[m] = p
	}
	return paths
}

// httpMethodFor picks the verb: reads are GET, everything that takes diagnostic data is POST.
func httpMethodFor(m Method) string {
	switch m {
	case MethodInfo, MethodSearch, MethodLookup, MethodConcepts, MethodConceptDetails,
		MethodConditions, MethodConditionDetails, MethodSymptoms, MethodSymptomDetails,
		MethodRiskFactors, MethodRiskFactorDetails, MethodLabTests, MethodLabTestDetails,
		MethodObservations, MethodObservationDetails:
		return http.MethodGet
	default:
		return http.MethodPost
	}
}

func expandPath(path, id string) string {
	if !strings.Contains(path, "{id}") {
		return path
	}
	return strings.ReplaceAll(path, "{id}", url.PathEscape(id))
}
