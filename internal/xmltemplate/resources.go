package xmltemplate

import "embed"

//go:embed resources/*.xml
var embeddedFS embed.FS

// Resource ids as referenced by <include path="..."/> and by the function
// catalog (spec.md §4.H "names like INITIALIZE_XML, DEFAULT_FUNC_METADATA").
const (
	InitializeXML = "INITIALIZE_XML"
	FinalizeXML   = "FINALIZE_XML"
	SweepXML      = "SWEEP_XML"
	DataReportXML = "DATA_REPORT_XML"
)

var resourceFiles = map[string]string{
	InitializeXML: "resources/initialize.xml",
	FinalizeXML:   "resources/finalize.xml",
	SweepXML:      "resources/sweep.xml",
	DataReportXML: "resources/data_report.xml",
}

// DefaultResources returns the embedded resource table, keyed by the
// catalog id a <include path="..."/> or Loader.LoadResource call names.
func DefaultResources() map[string]string {
	out := make(map[string]string, len(resourceFiles))
	for name, path := range resourceFiles {
		body, err := embeddedFS.ReadFile(path)
		if err != nil {
			panic("xmltemplate: missing embedded resource " + path)
		}
		out[name] = string(body)
	}
	return out
}
