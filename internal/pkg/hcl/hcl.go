package hcl

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// DecodeFile parses the HCL file at path and decodes its body into target,
// which must be a pointer to a struct with hcl tags.
func DecodeFile(path string, target any) error {

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	file, diags := hclsyntax.ParseConfig(data, path, hcl.InitialPos)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL: %w", diags)
	}

	if diags := gohcl.DecodeBody(file.Body, nil, target); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL: %w", diags)
	}

	return nil
}

// ParseType parses an HCL type constraint such as "string" or
// "list(number)".
func ParseType(s string) (cty.Type, error) {

	expr, diags := hclsyntax.ParseExpression([]byte(s), "<type>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilType, fmt.Errorf("parse error: %s", diags.Error())
	}

	ty, diags := typeexpr.TypeConstraint(expr)
	if diags.HasErrors() {
		return cty.NilType, fmt.Errorf("invalid type %q: %s", s, diags.Error())
	}

	return ty, nil
}

// TypeString returns the HCL type constraint syntax for ty, suitable for
// ParseType.
func TypeString(ty cty.Type) string { return typeexpr.TypeString(ty) }
