// Package policy implements the domain/sender classification that
// decides how a mailbox item is routed.
//
// Buckets are a closed set checked in a fixed precedence order, so an
// address can match only one effective bucket per lookup. Within each
// bucket an explicit sender entry takes precedence over a domain
// entry. A missing or malformed policy fails closed: every address
// classifies as unknown and is held for manager visibility.
package policy

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bucket is the classification outcome for a sender address.
type Bucket string

// Routing buckets in precedence order.
const (
	BucketExternalImageRequest Bucket = "external_image_request"
	BucketSystemNotification   Bucket = "system_notification"
	BucketInternal             Bucket = "internal"
	BucketHold                 Bucket = "hold"
	BucketUnknown              Bucket = "unknown"
)

// MatchLevel says what kind of policy entry matched the sender.
type MatchLevel string

// Match levels.
const (
	MatchSender MatchLevel = "sender"
	MatchDomain MatchLevel = "domain"
	MatchNone   MatchLevel = "none"
)

// Class is the full classification result for one address.
type Class struct {
	Bucket Bucket
	// IsCompletion is true for internal support-staff senders whose
	// replies represent completions rather than new work.
	IsCompletion bool
	Level        MatchLevel
}

// memberSet holds one bucket's explicit senders and domains.
type memberSet struct {
	senders map[string]struct{}
	domains map[string]struct{}
}

func (m memberSet) matchAddr(addr string) bool {
	_, ok := m.senders[addr]
	return ok
}

func (m memberSet) matchDomain(domain string) bool {
	if domain == "" {
		return false
	}
	_, ok := m.domains[domain]
	return ok
}

// Policy is the loaded routing policy. Zero value is a valid policy
// that classifies everything as unknown.
type Policy struct {
	externalImage memberSet
	systemNotif   memberSet
	hold          memberSet
	internal      map[string]struct{}
	supportStaff  map[string]struct{}

	manager  []string
	appsTeam []string
}

// Document is the editable on-disk YAML policy record. Operator
// endpoints round-trip it; Compile builds the lookup Policy from it.
type Document struct {
	ExternalImageRequest BucketMembers `yaml:"external_image_request" json:"external_image_request"`
	SystemNotification   BucketMembers `yaml:"system_notification" json:"system_notification"`
	Hold                 BucketMembers `yaml:"hold" json:"hold"`
	InternalDomains      []string      `yaml:"internal_domains" json:"internal_domains"`
	SupportStaff         []string      `yaml:"support_staff" json:"support_staff"`
	Manager              []string      `yaml:"manager" json:"manager"`
	AppsTeam             []string      `yaml:"apps_team" json:"apps_team"`
}

// BucketMembers holds one bucket's explicit sender and domain entries.
type BucketMembers struct {
	Domains []string `yaml:"domains" json:"domains"`
	Senders []string `yaml:"senders" json:"senders"`
}

// ParseDocument decodes YAML bytes into an editable Document.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, ErrMalformedPolicy
	}
	return doc, nil
}

// Marshal encodes the document back to YAML.
func (d Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Compile builds the normalized lookup Policy from the document.
func (d Document) Compile() *Policy {
	return &Policy{
		externalImage: newMemberSet(d.ExternalImageRequest),
		systemNotif:   newMemberSet(d.SystemNotification),
		hold:          newMemberSet(d.Hold),
		internal:      normalizedSet(d.InternalDomains, NormalizeDomain),
		supportStaff:  normalizedSet(d.SupportStaff, NormalizeAddress),
		manager:       normalizedList(d.Manager),
		appsTeam:      normalizedList(d.AppsTeam),
	}
}

// Parse builds a Policy from YAML bytes. Unknown keys are ignored;
// empty lists are fine and simply never match.
func Parse(data []byte) (*Policy, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Compile(), nil
}

func newMemberSet(b BucketMembers) memberSet {
	return memberSet{
		senders: normalizedSet(b.Senders, NormalizeAddress),
		domains: normalizedSet(b.Domains, NormalizeDomain),
	}
}

func normalizedSet(values []string, norm func(string) string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if n := norm(v); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}

func normalizedList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := NormalizeAddress(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Manager returns the designated manager recipients.
func (p *Policy) Manager() []string {
	if p == nil {
		return nil
	}
	return p.manager
}

// AppsTeam returns the apps-team recipients.
func (p *Policy) AppsTeam() []string {
	if p == nil {
		return nil
	}
	return p.appsTeam
}

// IsSupportStaff reports whether addr is in the support-staff set.
func (p *Policy) IsSupportStaff(addr string) bool {
	if p == nil {
		return false
	}
	_, ok := p.supportStaff[NormalizeAddress(addr)]
	return ok
}

// Classify maps a sender address to its routing bucket. Precedence:
// external-image-request, system-notification, internal (support
// staff completion sub-case), hold, then unknown. A nil policy fails
// closed to unknown.
func (p *Policy) Classify(addr string) Class {
	if p == nil {
		return Class{Bucket: BucketUnknown, Level: MatchNone}
	}

	email := NormalizeAddress(addr)
	domain := domainOf(email)

	for _, c := range []struct {
		set    memberSet
		bucket Bucket
	}{
		{p.externalImage, BucketExternalImageRequest},
		{p.systemNotif, BucketSystemNotification},
	} {
		if email != "" && c.set.matchAddr(email) {
			return Class{Bucket: c.bucket, Level: MatchSender}
		}
		if c.set.matchDomain(domain) {
			return Class{Bucket: c.bucket, Level: MatchDomain}
		}
	}

	if domain != "" {
		if _, ok := p.internal[domain]; ok {
			if _, support := p.supportStaff[email]; support {
				return Class{Bucket: BucketInternal, IsCompletion: true, Level: MatchSender}
			}
			return Class{Bucket: BucketInternal, Level: MatchDomain}
		}
	}

	if email != "" && p.hold.matchAddr(email) {
		return Class{Bucket: BucketHold, Level: MatchSender}
	}
	if p.hold.matchDomain(domain) {
		return Class{Bucket: BucketHold, Level: MatchDomain}
	}

	return Class{Bucket: BucketUnknown, Level: MatchNone}
}

var addrInText = regexp.MustCompile(`[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
var angleBracket = regexp.MustCompile(`<([^>]+)>`)

// NormalizeAddress lowercases and trims an address, stripping smtp:
// prefixes and display-name angle-bracket forms as mailbox hosts
// produce them.
func NormalizeAddress(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "smtp:"))
	if m := angleBracket.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if !strings.Contains(s, "@") {
		if m := addrInText.FindString(s); m != "" {
			s = m
		} else {
			return ""
		}
	}
	return s
}

// NormalizeDomain lowercases and trims a bare domain entry.
func NormalizeDomain(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func domainOf(email string) string {
	if at := strings.LastIndexByte(email, '@'); at >= 0 && at < len(email)-1 {
		return email[at+1:]
	}
	return ""
}
