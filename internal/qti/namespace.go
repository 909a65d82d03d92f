package qti

const (
	XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

	NamespaceV21      = "http://www.imsglobal.org/xsd/imsqti_v2p1"
	SchemaLocationV21 = "http://www.imsglobal.org/xsd/imsqti_v2p1 http://www.imsglobal.org/xsd/qti/qtiv2p1/imsqti_v2p1.xsd"

	NamespaceV30      = "http://www.imsglobal.org/xsd/imsqti_v3p0"
	SchemaLocationV30 = "http://www.imsglobal.org/xsd/imsqti_v3p0 https://purl.imsglobal.org/spec/qti/v3p0/schema/xsd/imsqti_asiv3p0_v1p0.xsd"
)

// Namespace returns the default namespace and schema location for v.
func (v Version) Namespace() (ns, schemaLocation string) {
	if v == V30 {
		return NamespaceV30, SchemaLocationV30
	}
	return NamespaceV21, SchemaLocationV21
}

const (
	TemplateBaseV21 = "http://www.imsglobal.org/question/qti_v2p1/rptemplates/"
	TemplateBaseV30 = "https://purl.imsglobal.org/spec/qti/v3p0/rptemplates/"
)

// TemplateURI expands a short template name ("match_correct") to the
// response-processing template URI used by v.
func (v Version) TemplateURI(name string) string {
	if v == V30 {
		return TemplateBaseV30 + name + ".xml"
	}
	return TemplateBaseV21 + name
}
