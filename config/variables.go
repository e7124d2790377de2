// Copyright (C) 2021-2025 Chronicle Labs, Inc.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

const (
	varBlockName  = "variables"
	varObjectName = "var"
)

// variables evaluates the attributes of all "variables" blocks and exposes
// them to the rest of the body as the "var" object:
//
//	variables {
//	  root = "/srv/data"
//	  docs = "${var.root}/docs"
//	}
//
//	local {
//	  base_directory = var.docs
//	}
//
// Variables may reference each other in any order. Circular references are
// reported as errors. The returned body contains everything except the
// "variables" blocks.
func variables(ctx *hcl.EvalContext, body hcl.Body) (hcl.Body, hcl.Diagnostics) {
	content, remain, diags := body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: varBlockName}},
	})
	if diags.HasErrors() {
		return nil, diags
	}
	attrs := make(hcl.Attributes)
	for _, block := range content.Blocks {
		battrs, bdiags := block.Body.JustAttributes()
		diags = diags.Extend(bdiags)
		maps.Copy(attrs, battrs)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	vars := make(map[string]cty.Value, len(attrs))
	visiting := make(map[string]bool, len(attrs))
	var visit func(name string) hcl.Diagnostics
	visit = func(name string) hcl.Diagnostics {
		if _, ok := vars[name]; ok {
			return nil
		}
		attr := attrs[name]
		if visiting[name] {
			return hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Circular reference detected",
				Detail:   fmt.Sprintf("Variable %q refers to itself through a circular reference.", name),
				Subject:  attr.Expr.Range().Ptr(),
			}}
		}
		visiting[name] = true
		for _, ref := range references(attr.Expr) {
			if _, ok := attrs[ref]; !ok {
				// Evaluation reports the unknown variable.
				continue
			}
			if diags := visit(ref); diags.HasErrors() {
				return diags
			}
		}
		ctx.Variables[varObjectName] = cty.ObjectVal(vars)
		val, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			return diags
		}
		vars[name] = val
		return nil
	}

	if ctx.Variables == nil {
		ctx.Variables = make(map[string]cty.Value)
	}
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		if diags = diags.Extend(visit(name)); diags.HasErrors() {
			return nil, diags
		}
	}
	ctx.Variables[varObjectName] = cty.ObjectVal(vars)
	return remain, diags
}

// references returns the names of the variables used by an expression.
func references(expr hcl.Expression) []string {
	var names []string
	for _, tr := range expr.Variables() {
		if tr.RootName() != varObjectName || len(tr) < 2 {
			continue
		}
		if attr, ok := tr[1].(hcl.TraverseAttr); ok {
			names = append(names, attr.Name)
		}
	}
	return names
}
