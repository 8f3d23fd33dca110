// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package analysisutil contains utility functions over the SSA representation used by the Go frontend.
// These functions are in an internal package because they are not important
// enough to be included in the main library.
package analysisutil

import (
	"fmt"
	"go/types"

	"github.com/awslabs/argot-activity/analysis/config"
	"golang.org/x/tools/go/ssa"
)

// FindTypePackage finds the package declaring t or returns an error
// Returns a package path and the name of the type declared in that package
func FindTypePackage(t types.Type) (string, string, error) {
	switch typ := t.(type) {
	case *types.Pointer:
		return FindTypePackage(typ.Elem()) // recursive call
	case *types.Named:
		obj := typ.Obj()
		if obj == nil {
			return "", "", fmt.Errorf("could not get name")
		}
		if pkg := obj.Pkg(); pkg != nil {
			return pkg.Path(), obj.Name(), nil
		}
		// obj is in Universe
		return "", obj.Name(), nil
	case *types.Array:
		return FindTypePackage(typ.Elem())
	case *types.Map:
		return FindTypePackage(typ.Elem())
	case *types.Slice:
		return FindTypePackage(typ.Elem())
	case *types.Chan:
		return FindTypePackage(typ.Elem())
	default:
		return "", "", fmt.Errorf("%s: not a type with a package and name", t)
	}
}

// FuncIdentifier returns the code identifier of f: its package path, its name and the name of its receiver type
// for methods. The package is empty for synthetic functions that do not belong to a package.
func FuncIdentifier(f *ssa.Function) config.CodeIdentifier {
	cid := config.CodeIdentifier{Method: f.Name()}
	if f.Pkg != nil {
		cid.Package = f.Pkg.Pkg.Path()
	}
	if recv := f.Signature.Recv(); recv != nil {
		if _, name, err := FindTypePackage(recv.Type()); err == nil {
			cid.Receiver = name
		}
	}
	return cid
}

// FieldAddrFieldName finds the name of a field access in ssa.FieldAddr
// if it cannot find a proper field name, returns "#<index>"
func FieldAddrFieldName(fieldAddr *ssa.FieldAddr) string {
	return getFieldNameFromType(fieldAddr.X.Type().Underlying(), fieldAddr.Field)
}

// FieldFieldName finds the name of a field access in ssa.Field
// if it cannot find a proper field name, returns "#<index>"
func FieldFieldName(field *ssa.Field) string {
	return getFieldNameFromType(field.X.Type().Underlying(), field.Field)
}

func getFieldNameFromType(t types.Type, i int) string {
	switch typ := t.(type) {
	case *types.Pointer:
		return getFieldNameFromType(typ.Elem().Underlying(), i) // recursive call
	case *types.Struct:
		if 0 <= i && i < typ.NumFields() {
			return typ.Field(i).Name()
		}
	}
	return TupleFieldName(i)
}

// TupleFieldName is the name of the i-th component of a tuple value
func TupleFieldName(i int) string {
	return fmt.Sprintf("#%d", i)
}
