package playbook

import "sort"

// DefaultName is used when a requested playbook does not exist.
const DefaultName = "Standard SMB"

// Playbook is one named set of risk rules for contract analysis. The rules
// are free text handed to the model verbatim; swapping them changes what
// gets flagged without touching the review pipeline.
type Playbook struct {
	Description  string
	Instructions string
}

var playbooks = map[string]Playbook{
	"Standard SMB": {
		Description: "Standard balanced risk review for a typical small business.",
		Instructions: `Identify risks related to:
1. Termination for Convenience (Vendor only is risky)
2. Auto-Renewal (Automatic renewal without notice found)
3. Liability Caps (Too low, e.g. < 12 months fees)
4. Unlimited Liability (For customer)
5. Indemnification (One-sided)
6. Payment Terms (< 30 days)`,
	},
	"Strict / Enterprise": {
		Description: "Aggressive risk finding. Flags even minor issues.",
		Instructions: `You are a conservative Enterprise Legal Counsel. Flag EVERYTHING that deviates from standard favorable terms.
Strict Rules:
1. Termination: Must have termination for convenience for Customer with < 30 days notice.
2. Renewal: No auto-renewal allowed. Must be mutual agreement.
3. Liability: Cap must be at least 3x annual fees.
4. Indemnity: must be full mutual indemnity.
5. Data Privacy: Must explicitly mention GDPR/CCPA compliance if data is involved.
6. Governing Law: Must be Delaware or New York. Flag anything else.`,
	},
	"Light / Consultant": {
		Description: "Low friction, only critical red flags.",
		Instructions: `Only flag CRITICAL deal-breakers:
1. Unlimited Liability for anything other than IP/Confidentiality.
2. Non-compete clauses.
3. IP Ownership (Vendor owning Customer IP).
Ignore minor things like payment terms or notice periods.`,
	},
}

// Names lists the available playbooks in stable order.
func Names() []string {
	names := make([]string, 0, len(playbooks))
	for name := range playbooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instructions returns the rule text for the named playbook, falling back
// to the default when the name is unknown.
func Instructions(name string) string {
	if pb, ok := playbooks[name]; ok {
		return pb.Instructions
	}
	return playbooks[DefaultName].Instructions
}

// Describe returns the one-line description for the named playbook.
func Describe(name string) string {
	if pb, ok := playbooks[name]; ok {
		return pb.Description
	}
	return playbooks[DefaultName].Description
}
