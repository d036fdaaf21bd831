// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package views

import (
	"fmt"
	"strings"
)

// InvalidRouteFamilyError reports a BGP RIB family other than evpn, ipv4
// or ipv6.
type InvalidRouteFamilyError struct {
	Family string
}

func (e *InvalidRouteFamilyError) Error() string {
	return fmt.Sprintf("views: invalid route family %q (must be %s)", e.Family, strings.Join(RouteFamilies(), ", "))
}

// InvalidRouteTypeError reports an EVPN route type outside 1 to 5.
type InvalidRouteTypeError struct {
	Type string
}

func (e *InvalidRouteTypeError) Error() string {
	return fmt.Sprintf("views: invalid route type %q (must be 1-5)", e.Type)
}

// UnsupportedSchemaVersionError reports a model version that no known
// mapping covers. It is logged, not returned: the newest mapping is used
// instead.
type UnsupportedSchemaVersionError struct {
	Model   string
	Version string
}

func (e *UnsupportedSchemaVersionError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("views: model %s not advertised by the device", e.Model)
	}
	return fmt.Sprintf("views: unsupported version %q of model %s", e.Version, e.Model)
}

// UnknownReportError reports a report name that is not registered.
type UnknownReportError struct {
	Name string
}

func (e *UnknownReportError) Error() string {
	return fmt.Sprintf("views: unknown report %q (known: %s)", e.Name, strings.Join(Names(), ", "))
}
