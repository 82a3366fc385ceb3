package domain

import (
	"fmt"
	"strings"
)

// Severity of a validation issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one finding of Network.Validate
type ValidationIssue struct {
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

// Validate checks the network for problems an exporter would trip over:
// empty and duplicate names, non-positive compartment dimensions and
// connections with a missing end
func (n *Network) Validate() []ValidationIssue {
	var issues []ValidationIssue
	add := func(sev Severity, subject, format string, args ...any) {
		issues = append(issues, ValidationIssue{Severity: sev, Subject: subject, Message: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]string)
	checkName := func(kind, name string) {
		if name == "" {
			add(SeverityError, kind, "%s has an empty name", kind)
			return
		}
		key := strings.ToLower(name)
		if other, ok := seen[key]; ok {
			add(SeverityError, name, "%s name %q is also used by a %s", kind, name, other)
			return
		}
		seen[key] = kind
	}

	for _, node := range n.nodes {
		kind := "node"
		if _, ok := node.(*Manhole); ok {
			kind = "manhole"
		}
		checkName(kind, node.Name())
	}
	for _, c := range n.Compartments() {
		checkName("compartment", c.Name())
		if c.ManholeWidth <= 0 {
			add(SeverityError, c.Name(), "compartment %s has a non-positive manhole width", c.Name())
		}
		if c.ManholeLength <= 0 {
			add(SeverityError, c.Name(), "compartment %s has a non-positive manhole length", c.Name())
		}
	}
	for _, conn := range n.connections {
		checkName("connection", conn.Name())
		if conn.Source() == nil {
			add(SeverityWarning, conn.Name(), "connection %s has no source", conn.Name())
		}
		if conn.Target() == nil {
			add(SeverityWarning, conn.Name(), "connection %s has no target", conn.Name())
		}
	}
	return issues
}
