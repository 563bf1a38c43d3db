package entity

// CertificateFacts describes the TLS certificate presented by a host.
// Found is false when no certificate could be observed at all.
type CertificateFacts struct {
	Found            bool `json:"found"`
	Valid            bool `json:"valid"`
	SelfSigned       bool `json:"self_signed"`
	Expired          bool `json:"expired"`
	HostnameMismatch bool `json:"hostname_mismatch"`
}

// DomainAgeFacts describes registration facts for a domain. Known is false
// when the registry lookup yielded no usable data.
type DomainAgeFacts struct {
	Known       bool `json:"known"`
	AgeDays     int  `json:"age_days"`
	WhoisHidden bool `json:"whois_hidden"`
}
