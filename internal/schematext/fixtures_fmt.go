package schematext

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// FormatFixtureAttrs aligns a block of "key = value" lines the way
// hclwrite.Format aligns HCL attribute assignments: it is not used on the
// .diskplan grammar itself (which isn't HCL and has its own
// significant-indentation parser below); it is meant for small
// "key = value" stem tables written as TOML fixtures, so their author
// doesn't have to hand-align the "=" column. Nothing in the repository
// calls it apart from its own test.
//
// Grounded on the teacher's internal/writeback/format.go, which runs
// hclwrite.Format over generated Terraform-ish buffers for the same
// reason: gofmt-quality alignment without hand-rolling a column scanner.
func FormatFixtureAttrs(src string) string {
	return string(hclwrite.Format([]byte(src)))
}
